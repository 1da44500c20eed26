package feed

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviex/internal/locale"
	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/shared"
)

type DetailStatus int

const (
	DetailIdle DetailStatus = iota
	DetailLoading
	DetailLoaded
	DetailNotFound
)

func (s DetailStatus) String() string {
	switch s {
	case DetailLoading:
		return "loading"
	case DetailLoaded:
		return "loaded"
	case DetailNotFound:
		return "not found"
	default:
		return "idle"
	}
}

// DetailSource fetches a single movie record.
type DetailSource interface {
	Movie(ctx context.Context, id int64, l locale.Locale) (*models.Movie, error)
}

type DetailOpts struct {
	Source   DetailSource
	Locale   locale.Locale
	Logger   *log.Logger
	OnUpdate func(DetailSnapshot)
}

type DetailSnapshot struct {
	Seq    uint64
	ID     int64
	Locale locale.Locale
	Status DetailStatus
	Movie  *models.Movie
	Err    error
}

func (s DetailSnapshot) Loading() bool { return s.Status == DetailLoading }

// DetailFetcher holds the full record of one movie, replaced wholesale on every successful fetch.
type DetailFetcher struct {
	src      DetailSource
	logger   *log.Logger
	onUpdate func(DetailSnapshot)

	root context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu     sync.Mutex
	id     int64
	locale locale.Locale
	status DetailStatus
	movie  *models.Movie
	err    error
	closed bool
	gen    uint64
	cancel context.CancelFunc
	seq    uint64
}

func NewDetailFetcher(opts DetailOpts) *DetailFetcher {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if !opts.Locale.Supported() {
		opts.Locale = locale.Default
	}
	root, stop := context.WithCancel(context.Background())
	return &DetailFetcher{
		src:      opts.Source,
		logger:   shared.WithLogger(opts.Logger, "component", "detail"),
		onUpdate: opts.OnUpdate,
		root:     root,
		stop:     stop,
		locale:   opts.Locale,
	}
}

// Fetch loads movie id in locale l, cancelling any outstanding request. Asking again for the record that is
// already loading or loaded does nothing; a not-found record is retried.
func (d *DetailFetcher) Fetch(id int64, l locale.Locale) {
	if !l.Supported() {
		l = locale.Default
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	if id == d.id && l == d.locale && (d.status == DetailLoading || d.status == DetailLoaded) {
		d.mu.Unlock()
		return
	}
	d.id = id
	d.locale = l
	snap := d.beginLocked()
	d.mu.Unlock()
	d.emit(snap)
}

// SetLocale refetches the current record in l. Without a record it only stores the locale.
func (d *DetailFetcher) SetLocale(l locale.Locale) {
	if !l.Supported() {
		l = locale.Default
	}
	d.mu.Lock()
	if d.closed || l == d.locale {
		d.mu.Unlock()
		return
	}
	d.locale = l
	if d.status == DetailIdle {
		d.mu.Unlock()
		return
	}
	snap := d.beginLocked()
	d.mu.Unlock()
	d.emit(snap)
}

func (d *DetailFetcher) Snapshot() DetailSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

// Wait blocks until every request started so far has finished.
func (d *DetailFetcher) Wait() {
	d.wg.Wait()
}

func (d *DetailFetcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.gen++
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.mu.Unlock()

	d.stop()
	d.wg.Wait()
}

func (d *DetailFetcher) beginLocked() DetailSnapshot {
	if d.cancel != nil {
		d.cancel()
	}
	d.gen++
	gen := d.gen
	ctx, cancel := context.WithCancel(d.root)
	d.cancel = cancel
	d.status = DetailLoading
	d.err = nil

	id, loc := d.id, d.locale
	d.logger.Debug("fetch", "id", id, "locale", loc, "gen", gen)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		m, err := d.src.Movie(ctx, id, loc)
		d.complete(gen, m, err)
	}()
	return d.snapshotLocked()
}

func (d *DetailFetcher) complete(gen uint64, m *models.Movie, err error) {
	d.mu.Lock()
	if d.closed || gen != d.gen || Cancelled(err) {
		d.mu.Unlock()
		d.logger.Debug("discarding stale response", "gen", gen)
		return
	}
	d.cancel = nil
	switch {
	case err != nil:
		d.status = DetailNotFound
		d.movie = nil
		d.err = err
		d.logger.Warn("detail fetch failed", "id", d.id, "locale", d.locale, "err", err)
	case m == nil:
		d.status = DetailNotFound
		d.movie = nil
		d.err = shared.ErrMovieNotFound
	default:
		d.status = DetailLoaded
		d.movie = m
	}
	snap := d.snapshotLocked()
	d.mu.Unlock()
	d.emit(snap)
}

func (d *DetailFetcher) snapshotLocked() DetailSnapshot {
	d.seq++
	var m *models.Movie
	if d.movie != nil {
		cp := *d.movie
		m = &cp
	}
	return DetailSnapshot{Seq: d.seq, ID: d.id, Locale: d.locale, Status: d.status, Movie: m, Err: d.err}
}

func (d *DetailFetcher) emit(s DetailSnapshot) {
	if d.onUpdate != nil {
		d.onUpdate(s)
	}
}
