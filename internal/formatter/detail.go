package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/desertthunder/moviex/internal/locale"
	"github.com/desertthunder/moviex/internal/models"
)

// DetailMarkdown builds the detail card for m with labels in l.
func DetailMarkdown(m models.Movie, l locale.Locale, imageBase string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", m.DisplayTitle())
	if m.OriginalTitle != "" && m.OriginalTitle != m.DisplayTitle() {
		fmt.Fprintf(&b, "_%s_\n\n", m.OriginalTitle)
	}

	fmt.Fprintf(&b, "- **%s**: %.1f\n", locale.T(l, locale.KeyRating), m.VoteAverage)
	if m.ReleaseDate != "" {
		fmt.Fprintf(&b, "- %s\n", m.ReleaseDate)
	}
	if imageBase != "" && m.HasPoster() {
		fmt.Fprintf(&b, "- <%s>\n", m.PosterURL(imageBase, models.PosterOriginal))
	} else {
		fmt.Fprintf(&b, "- %s\n", locale.T(l, locale.KeyNoImage))
	}
	b.WriteString("\n")

	if m.Overview != "" {
		b.WriteString(m.Overview)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "<%s>\n", m.PageURL())
	return b.String()
}

// WrapWidth picks a readable word-wrap width for a terminal of the given width.
func WrapWidth(termWidth int) int {
	w := (termWidth * 9) / 10
	if w > 120 {
		w = 120
	}
	if w < 40 {
		w = 40
	}
	if termWidth < 50 {
		w = max(termWidth-4, 20)
	}
	return w
}

// RenderOpts controls [RenderDetail]. An empty Style selects a style from the terminal background.
type RenderOpts struct {
	Width     int
	Style     string
	ImageBase string
}

// RenderDetail renders the detail card of m as ANSI text.
func RenderDetail(m models.Movie, l locale.Locale, opts RenderOpts) (string, error) {
	r, err := NewRenderer(opts)
	if err != nil {
		return "", err
	}
	out, err := r.Render(DetailMarkdown(m, l, opts.ImageBase))
	if err != nil {
		return "", fmt.Errorf("failed to render detail: %w", err)
	}
	return out, nil
}

// NewRenderer builds a glamour renderer sized for a terminal of opts.Width columns.
func NewRenderer(opts RenderOpts) (*glamour.TermRenderer, error) {
	style := glamour.WithAutoStyle()
	if opts.Style != "" {
		style = glamour.WithStandardStyle(opts.Style)
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(WrapWidth(opts.Width)))
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	return r, nil
}
