// package services defines interface MovieService for the movie metadata HTTP API
//
// TMDB (v3 endpoints), optionally cached on disk
package services

import (
	"context"

	"github.com/desertthunder/moviex/internal/locale"
	"github.com/desertthunder/moviex/internal/models"
)

// MovieService defines the read operations consumed from the movie metadata provider.
type MovieService interface {
	// Popular returns one page of the popular listing, localized to l.
	Popular(ctx context.Context, l locale.Locale, page int) (*models.MoviePage, error)

	// Search returns one page of text-search results, localized to l. Adult titles are excluded.
	Search(ctx context.Context, query string, l locale.Locale, page int) (*models.MoviePage, error)

	// Movie returns the full record for id, localized to l.
	// Returns an error wrapping [shared.ErrMovieNotFound] when the provider reports 404.
	Movie(ctx context.Context, id int64, l locale.Locale) (*models.Movie, error)

	// Name returns the name of the provider (e.g., "TMDB")
	Name() string
}
