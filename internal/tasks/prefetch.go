package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/moviex/internal/locale"
	"github.com/desertthunder/moviex/internal/shared"
	"golang.org/x/time/rate"
)

// WarmOpts configures [Prefetcher.Warm].
type WarmOpts struct {
	Locales    []locale.Locale // Locales to fetch each movie in (default: search order of en-US)
	NumWorkers int             // Concurrent workers (default: 5, max 10)
	RateLimit  float64         // Requests per second (default: 5)
}

// WarmJob is one movie detail request.
type WarmJob struct {
	ID     int64
	Locale locale.Locale
}

// WarmError records a failed job.
type WarmError struct {
	Job WarmJob
	Err error
}

// WarmResult summarizes a warm run.
type WarmResult struct {
	Total     int
	Succeeded int
	Failed    int
	Errors    []WarmError
}

type warmOutcome struct {
	job   WarmJob
	title string
	err   error
}

// CollectIDs walks popular pages 1..pages in l and returns the movie ids in listing order without duplicates.
// It stops early when the listing reports no further pages.
func (p *Prefetcher) CollectIDs(ctx context.Context, prog chan<- ProgressUpdate, l locale.Locale, pages int) ([]int64, error) {
	if p.src == nil {
		return nil, fmt.Errorf("%w: movie service not initialized", shared.ErrServiceUnavailable)
	}
	if pages <= 0 {
		pages = 1
	}

	seen := make(map[int64]bool)
	var ids []int64
	for page := 1; page <= pages; page++ {
		p.sendProgress(prog, fetchingListingUpdate(page, pages, l))

		res, err := p.src.Popular(ctx, l, page)
		if err != nil {
			return ids, fmt.Errorf("failed to fetch popular page %d: %w", page, err)
		}
		for _, m := range res.Results {
			if !seen[m.ID] {
				seen[m.ID] = true
				ids = append(ids, m.ID)
			}
		}
		if !res.HasMore() {
			break
		}
	}
	return ids, nil
}

// Warm fetches the detail record of every id in every configured locale.
//
// A producer dispatches jobs at the configured rate to a bounded worker pool. Individual failures are collected
// in the result; only cancellation of ctx stops the run early.
func (p *Prefetcher) Warm(ctx context.Context, prog chan<- ProgressUpdate, ids []int64, opts WarmOpts) (*WarmResult, error) {
	if p.src == nil {
		return nil, fmt.Errorf("%w: movie service not initialized", shared.ErrServiceUnavailable)
	}

	if len(opts.Locales) == 0 {
		opts.Locales = locale.SearchOrder(locale.Default)
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	total := len(ids) * len(opts.Locales)
	result := &WarmResult{Total: total}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan WarmJob, total)
	results := make(chan warmOutcome, total)

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go p.warmWorker(ctx, &wg, jobs, results)
	}

	go func() {
		defer close(jobs)
		for _, id := range ids {
			for _, l := range opts.Locales {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				jobs <- WarmJob{ID: id, Locale: l}
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.err != nil {
			result.Failed++
			result.Errors = append(result.Errors, WarmError{Job: res.job, Err: res.err})
			p.logger.Warn("warm failed", "id", res.job.ID, "locale", res.job.Locale, "err", res.err)
			p.sendProgress(prog, warmFailedUpdate(completed, total, res.job, res.err))
			continue
		}
		result.Succeeded++
		p.sendProgress(prog, warmedUpdate(completed, total, res.job, res.title))
	}

	p.sendProgress(prog, doneUpdate(result))

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// warmWorker is a worker goroutine that fetches movies from the jobs channel.
func (p *Prefetcher) warmWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan WarmJob, results chan<- warmOutcome) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		m, err := p.src.Movie(ctx, job.ID, job.Locale)
		out := warmOutcome{job: job, err: err}
		if err == nil && m != nil {
			out.title = m.DisplayTitle()
		}
		results <- out
	}
}
