package feed

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviex/internal/locale"
	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/shared"
)

const (
	DefaultDebounce     = 300 * time.Millisecond
	DefaultPrefetchRows = 3
)

// Opts configures a [SearchFeed].
type Opts struct {
	Source       Source
	Locale       locale.Locale
	Debounce     time.Duration // quiet period for [SearchFeed.Input]; negative disables it
	PrefetchRows int           // distance from the last row at which [SearchFeed.Near] loads the next page
	Logger       *log.Logger
	OnUpdate     func(Snapshot)
}

// Snapshot is a copy of the feed's observable state.
type Snapshot struct {
	Seq     uint64
	Query   string
	Locale  locale.Locale
	Items   []models.Movie
	Page    int
	HasMore bool
	Loading bool
	Failed  []LocaleError
	Err     error
}

// SearchFeed owns the effective query, the merged results and the pagination cursor of one listing stream.
//
// Every fetch carries a generation number. Starting a fetch cancels the previous one, and a completion whose
// generation is no longer current is discarded without touching state.
type SearchFeed struct {
	src      Source
	logger   *log.Logger
	onUpdate func(Snapshot)
	prefetch int
	debounce *Debouncer[string]

	root context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu      sync.Mutex
	query   string
	locale  locale.Locale
	results *ResultSet
	cursor  PageCursor
	loading bool
	failed  []LocaleError
	err     error
	started bool
	closed  bool
	gen     uint64
	cancel  context.CancelFunc
	seq     uint64
}

// NewSearchFeed creates an idle feed. Nothing is fetched until [SearchFeed.Start], [SearchFeed.SetQuery] or a
// debounced [SearchFeed.Input] fires.
func NewSearchFeed(opts Opts) *SearchFeed {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Debounce == 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.PrefetchRows <= 0 {
		opts.PrefetchRows = DefaultPrefetchRows
	}
	if !opts.Locale.Supported() {
		opts.Locale = locale.Default
	}

	root, stop := context.WithCancel(context.Background())
	f := &SearchFeed{
		src:      opts.Source,
		logger:   shared.WithLogger(opts.Logger, "component", "feed"),
		onUpdate: opts.OnUpdate,
		prefetch: opts.PrefetchRows,
		root:     root,
		stop:     stop,
		locale:   opts.Locale,
		results:  NewResultSet(),
		cursor:   NewPageCursor(),
	}
	f.debounce = NewDebouncer(opts.Debounce, func(raw string) {
		f.SetQuery(strings.TrimSpace(raw))
	})
	return f
}

// Input records a raw keystroke-level query value. The trimmed value becomes the effective query once the
// quiet period passes with no further input.
func (f *SearchFeed) Input(raw string) {
	f.debounce.Trigger(raw)
}

// SetQuery replaces the effective query and fetches page 1. Setting the current query again does nothing.
func (f *SearchFeed) SetQuery(q string) {
	f.mu.Lock()
	if f.closed || (f.started && q == f.query) {
		f.mu.Unlock()
		return
	}
	f.query = q
	f.started = true
	snap := f.restartLocked()
	f.mu.Unlock()
	f.emit(snap)
}

// SetLocale switches the active locale. A started feed is reset and refetched; before Start the locale is
// only recorded. Unsupported locales fall back to [locale.Default].
func (f *SearchFeed) SetLocale(l locale.Locale) {
	if !l.Supported() {
		l = locale.Default
	}
	f.mu.Lock()
	if f.closed || l == f.locale {
		f.mu.Unlock()
		return
	}
	f.locale = l
	if !f.started {
		f.mu.Unlock()
		return
	}
	snap := f.restartLocked()
	f.mu.Unlock()
	f.emit(snap)
}

// Start issues the initial page-1 fetch for the current query. Later calls do nothing.
func (f *SearchFeed) Start() {
	f.mu.Lock()
	if f.closed || f.started {
		f.mu.Unlock()
		return
	}
	f.started = true
	snap := f.restartLocked()
	f.mu.Unlock()
	f.emit(snap)
}

// Refresh discards the results and refetches page 1.
func (f *SearchFeed) Refresh() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.started = true
	snap := f.restartLocked()
	f.mu.Unlock()
	f.emit(snap)
}

// LoadMore requests the next page. It reports false, issuing nothing, while a fetch is outstanding or when no
// further page is known.
func (f *SearchFeed) LoadMore() bool {
	f.mu.Lock()
	if f.closed || !f.started || f.loading || !f.cursor.HasMore {
		f.mu.Unlock()
		return false
	}
	f.cursor.Page++
	snap := f.beginLocked()
	f.mu.Unlock()
	f.emit(snap)
	return true
}

// Near signals that row index is visible. Once it is within the prefetch distance of the last loaded row the
// next page is requested.
func (f *SearchFeed) Near(index int) bool {
	f.mu.Lock()
	n := f.results.Len()
	f.mu.Unlock()
	if index < n-f.prefetch {
		return false
	}
	return f.LoadMore()
}

func (f *SearchFeed) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// Wait blocks until every fetch started so far has completed or been abandoned.
func (f *SearchFeed) Wait() {
	f.wg.Wait()
}

// Close cancels in-flight work and drops pending input. The feed ignores all calls afterwards.
func (f *SearchFeed) Close() {
	f.debounce.Stop()

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.gen++
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.loading = false
	f.mu.Unlock()

	f.stop()
	f.wg.Wait()
}

// restartLocked resets results and cursor, then fetches page 1.
func (f *SearchFeed) restartLocked() Snapshot {
	f.results.Reset()
	f.cursor = NewPageCursor()
	f.err = nil
	f.failed = nil
	return f.beginLocked()
}

// beginLocked cancels any outstanding fetch and starts one for the cursor's page under a new generation.
func (f *SearchFeed) beginLocked() Snapshot {
	if f.cancel != nil {
		f.cancel()
	}
	f.gen++
	gen := f.gen
	ctx, cancel := context.WithCancel(f.root)
	f.cancel = cancel
	f.loading = true

	query, loc, page := f.query, f.locale, f.cursor.Page
	f.logger.Debug("fetch", "query", query, "locale", loc, "page", page, "gen", gen)

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer cancel()
		res := FetchPage(ctx, f.src, query, loc, page)
		f.complete(gen, res)
	}()

	return f.snapshotLocked()
}

func (f *SearchFeed) complete(gen uint64, res PageResult) {
	f.mu.Lock()
	if f.closed || gen != f.gen {
		f.mu.Unlock()
		f.logger.Debug("discarding stale response", "query", res.Query, "locale", res.Locale, "page", res.Page, "gen", gen)
		return
	}
	f.cancel = nil
	f.loading = false
	f.failed = res.Failed

	switch {
	case res.Err != nil:
		f.cursor.HasMore = false
		f.err = res.Err
		f.logger.Warn("fetch failed", "query", res.Query, "locale", res.Locale, "page", res.Page, "err", res.Err)
	default:
		f.results.Merge(res.Movies)
		f.cursor.HasMore = res.HasMore
		f.err = nil
		for _, fe := range res.Failed {
			f.logger.Warn("locale request failed", "query", res.Query, "locale", fe.Locale, "page", res.Page, "err", fe.Err)
		}
	}

	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.emit(snap)
}

func (f *SearchFeed) snapshotLocked() Snapshot {
	f.seq++
	return Snapshot{
		Seq:     f.seq,
		Query:   f.query,
		Locale:  f.locale,
		Items:   f.results.Items(),
		Page:    f.cursor.Page,
		HasMore: f.cursor.HasMore,
		Loading: f.loading,
		Failed:  append([]LocaleError(nil), f.failed...),
		Err:     f.err,
	}
}

func (f *SearchFeed) emit(s Snapshot) {
	if f.onUpdate != nil {
		f.onUpdate(s)
	}
}
