// package tasks implements long-running background operations over the movie metadata service.
//
// The core abstraction is [Prefetcher], which warms the response cache with a rate-limited worker pool.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviex/internal/locale"
	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/shared"
)

// MovieSource is the subset of services.MovieService the prefetcher reads from.
type MovieSource interface {
	Popular(ctx context.Context, l locale.Locale, page int) (*models.MoviePage, error)
	Movie(ctx context.Context, id int64, l locale.Locale) (*models.Movie, error)
}

// Prefetcher fetches listings and movie details ahead of time so the cache serves them later.
type Prefetcher struct {
	src    MovieSource
	logger *log.Logger
}

func NewPrefetcher(src MovieSource, logger *log.Logger) *Prefetcher {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Prefetcher{src: src, logger: shared.WithLogger(logger, "component", "prefetch")}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (p *Prefetcher) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
