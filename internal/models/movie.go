package models

import (
	"fmt"
	"strings"
)

// Poster sizes understood by the image CDN.
const (
	PosterThumb    = "w342"
	PosterOriginal = "original"
)

// Movie is a single item returned by the movie metadata API.
//
// Title is localized to the locale the record was requested in.
type Movie struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	PosterPath    string  `json:"poster_path,omitempty"`
	VoteAverage   float64 `json:"vote_average"`
	Overview      string  `json:"overview"`
	ReleaseDate   string  `json:"release_date,omitempty"`
}

// DisplayTitle returns the localized title, falling back to the original title.
func (m Movie) DisplayTitle() string {
	if m.Title != "" {
		return m.Title
	}
	return m.OriginalTitle
}

// HasPoster reports whether the movie has a poster image.
func (m Movie) HasPoster() bool {
	return m.PosterPath != ""
}

// PosterURL joins base, size and the poster path. Returns "" when there is no poster.
func (m Movie) PosterURL(base, size string) string {
	if !m.HasPoster() {
		return ""
	}
	return strings.TrimSuffix(base, "/") + "/" + size + "/" + strings.TrimPrefix(m.PosterPath, "/")
}

// Year returns the release year, or "" if unknown.
func (m Movie) Year() string {
	if len(m.ReleaseDate) >= 4 {
		return m.ReleaseDate[:4]
	}
	return ""
}

// PageURL returns the public web page for the movie.
func (m Movie) PageURL() string {
	return fmt.Sprintf("https://www.themoviedb.org/movie/%d", m.ID)
}

// MoviePage is one page of a paginated listing.
type MoviePage struct {
	Page         int     `json:"page"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
	Results      []Movie `json:"results"`
}

// HasMore reports whether the listing has pages beyond this one.
func (p *MoviePage) HasMore() bool {
	return p != nil && p.Page < p.TotalPages
}
