package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/moviex/internal/locale"
	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/shared"
	"golang.org/x/sync/errgroup"
)

// Source is the subset of the metadata client the feed reads listings from.
type Source interface {
	Popular(ctx context.Context, l locale.Locale, page int) (*models.MoviePage, error)
	Search(ctx context.Context, query string, l locale.Locale, page int) (*models.MoviePage, error)
}

// LocaleError is one failed request of a fan-out.
type LocaleError struct {
	Locale locale.Locale
	Err    error
}

// PageResult is the outcome of fetching one logical page.
type PageResult struct {
	Query   string
	Locale  locale.Locale
	Page    int
	Movies  []models.Movie // deduplicated, in locale priority order
	HasMore bool           // any successful response reported further pages
	Failed  []LocaleError
	Err     error // set only when no request succeeded
}

// FetchPage fetches one page for query in active. The query is trimmed first.
//
// An empty query requests the popular listing in active. Otherwise the search runs in parallel across
// [locale.SearchOrder] and every request is awaited regardless of the others' outcome. Failed locales are dropped,
// and the page succeeds if any locale succeeded.
func FetchPage(ctx context.Context, src Source, query string, active locale.Locale, page int) PageResult {
	query = strings.TrimSpace(query)
	res := PageResult{Query: query, Locale: active, Page: page}

	if query == "" {
		p, err := src.Popular(ctx, active, page)
		if err != nil {
			res.Failed = []LocaleError{{Locale: active, Err: err}}
			res.Err = err
			return res
		}
		merged := NewResultSet()
		merged.Merge(p.Results)
		res.Movies = merged.Items()
		res.HasMore = p.HasMore()
		return res
	}

	order := locale.SearchOrder(active)
	pages := make([]*models.MoviePage, len(order))
	errs := make([]error, len(order))

	var g errgroup.Group
	for i, l := range order {
		g.Go(func() error {
			pages[i], errs[i] = src.Search(ctx, query, l, page)
			return nil
		})
	}
	_ = g.Wait()

	merged := NewResultSet()
	succeeded := 0
	for i, p := range pages {
		if errs[i] != nil || p == nil {
			err := errs[i]
			if err == nil {
				err = fmt.Errorf("%w: empty response", shared.ErrAPIRequest)
			}
			res.Failed = append(res.Failed, LocaleError{Locale: order[i], Err: err})
			continue
		}
		succeeded++
		merged.Merge(p.Results)
		if p.HasMore() {
			res.HasMore = true
		}
	}
	res.Movies = merged.Items()

	if succeeded == 0 {
		if ctxErr := ctx.Err(); ctxErr != nil {
			res.Err = ctxErr
		} else {
			joined := make([]error, len(res.Failed))
			for i, f := range res.Failed {
				joined[i] = f.Err
			}
			res.Err = fmt.Errorf("all %d locale requests failed: %w", len(order), errors.Join(joined...))
		}
	}
	return res
}

// Cancelled reports whether err represents a superseded request rather than a failure.
func Cancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
