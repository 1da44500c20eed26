package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/moviex/internal/locale"
	"github.com/desertthunder/moviex/internal/models"
)

var _ list.Item = movieItem{}

// movieItem wraps [models.Movie] to implement [list.Item].
type movieItem struct {
	movie  models.Movie
	locale locale.Locale
}

func (i movieItem) FilterValue() string { return i.movie.DisplayTitle() }

func (i movieItem) Title() string {
	if y := i.movie.Year(); y != "" {
		return fmt.Sprintf("%s (%s)", i.movie.DisplayTitle(), y)
	}
	return i.movie.DisplayTitle()
}

func (i movieItem) Description() string {
	desc := fmt.Sprintf("%s %.1f", locale.T(i.locale, locale.KeyRating), i.movie.VoteAverage)
	if !i.movie.HasPoster() {
		desc = fmt.Sprintf("%s • %s", desc, locale.T(i.locale, locale.KeyNoImage))
	}
	if o := strings.TrimSpace(i.movie.Overview); o != "" {
		desc = fmt.Sprintf("%s • %s", desc, o)
	}
	return desc
}

func movieItems(movies []models.Movie, l locale.Locale) []list.Item {
	items := make([]list.Item, len(movies))
	for i, m := range movies {
		items[i] = movieItem{movie: m, locale: l}
	}
	return items
}
