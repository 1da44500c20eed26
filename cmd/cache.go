package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/moviex/internal/locale"
	"github.com/desertthunder/moviex/internal/services"
	"github.com/desertthunder/moviex/internal/shared"
	"github.com/desertthunder/moviex/internal/tasks"
	"github.com/urfave/cli/v3"
)

func (r *Runner) openCache() (*services.ResponseCache, error) {
	if !r.config.Cache.Enabled && r.cache == nil {
		return nil, fmt.Errorf("%w: cache.enabled is false", shared.ErrInvalidConfig)
	}
	return r.responseCache()
}

// CacheWarm walks the popular listing and fetches every movie's detail in each supported language so later
// reads are served from the cache.
func (r *Runner) CacheWarm(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.openCache(); err != nil {
		return err
	}
	movies, err := r.movieService()
	if err != nil {
		return err
	}

	l := r.localeFrom(cmd)
	prefetcher := tasks.NewPrefetcher(movies, r.logger)
	progress := make(chan tasks.ProgressUpdate, 50)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for u := range progress {
			switch u.Phase {
			case tasks.WarmFailed:
				r.writePlain("✗ [%d/%d] %s\n", u.Step, u.Total, u.Message)
			case tasks.Done:
				r.writePlain("%s\n", u.Message)
			default:
				r.writePlain("  [%d/%d] %s\n", u.Step, u.Total, u.Message)
			}
		}
	}()

	ids, err := prefetcher.CollectIDs(ctx, progress, l, int(cmd.Int("pages")))
	if err != nil {
		close(progress)
		wg.Wait()
		return err
	}

	result, err := prefetcher.Warm(ctx, progress, ids, tasks.WarmOpts{
		Locales:    locale.SearchOrder(l),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  cmd.Float("rate"),
	})
	close(progress)
	wg.Wait()
	if err != nil {
		return err
	}

	r.writePlainHeader("Cache warm complete")
	r.writePlain("Movies:    %d\n", len(ids))
	r.writePlain("Requests:  %d\n", result.Total)
	r.writePlain("Succeeded: %d\n", result.Succeeded)
	return r.writePlain("Failed:    %d\n", result.Failed)
}

// CacheStats prints the number of cached responses.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	cache, err := r.openCache()
	if err != nil {
		return err
	}

	stats, err := cache.Stats()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}
	r.writePlain("Entries: %d\n", stats.Entries)
	r.writePlain("Expired: %d\n", stats.Expired)
	return r.writePlain("Bytes:   %d\n", stats.Bytes)
}

// CachePrune drops expired responses and expired or revoked sessions.
func (r *Runner) CachePrune(ctx context.Context, cmd *cli.Command) error {
	cache, err := r.openCache()
	if err != nil {
		return err
	}

	n, err := cache.Prune()
	if err != nil {
		return err
	}
	r.writePlain("✓ Pruned %d cached responses\n", n)

	accounts, err := r.accountService()
	if err != nil {
		r.logger.Warn("skipping session prune", "error", err)
		return nil
	}
	sessions, err := accounts.PruneSessions(ctx)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Pruned %d sessions\n", sessions)
}

// CacheClear removes every cached response.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	cache, err := r.openCache()
	if err != nil {
		return err
	}
	if err := cache.Clear(); err != nil {
		return err
	}
	return r.writePlain("✓ Cache cleared\n")
}
