package feed

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/moviex/internal/locale"
	"github.com/desertthunder/moviex/internal/models"
	tu "github.com/desertthunder/moviex/internal/testing"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func ids(movies []models.Movie) []int64 {
	out := make([]int64, len(movies))
	for i, m := range movies {
		out[i] = m.ID
	}
	return out
}

func newTestFeed(src Source, opts ...func(*Opts)) *SearchFeed {
	o := Opts{Source: src, Locale: locale.EnglishUS, Debounce: -1}
	for _, fn := range opts {
		fn(&o)
	}
	return NewSearchFeed(o)
}

func TestDebouncer(t *testing.T) {
	t.Run("fires once with the last value", func(t *testing.T) {
		got := make(chan string, 4)
		d := NewDebouncer(20*time.Millisecond, func(v string) { got <- v })
		defer d.Stop()

		d.Trigger("a")
		d.Trigger("ab")
		d.Trigger("abc")

		select {
		case v := <-got:
			if v != "abc" {
				t.Errorf("expected abc, got %q", v)
			}
		case <-time.After(time.Second):
			t.Fatal("debouncer never fired")
		}

		select {
		case v := <-got:
			t.Errorf("unexpected second fire with %q", v)
		case <-time.After(60 * time.Millisecond):
		}
	})

	t.Run("stop drops pending value", func(t *testing.T) {
		var fired atomic.Bool
		d := NewDebouncer(10*time.Millisecond, func(string) { fired.Store(true) })
		d.Trigger("x")
		if !d.Pending() {
			t.Error("expected pending value")
		}
		d.Stop()
		d.Trigger("y")
		time.Sleep(40 * time.Millisecond)
		if fired.Load() {
			t.Error("stopped debouncer fired")
		}
	})

	t.Run("zero delay is synchronous", func(t *testing.T) {
		var got string
		d := NewDebouncer(0, func(v string) { got = v })
		d.Trigger("now")
		if got != "now" {
			t.Errorf("expected now, got %q", got)
		}
	})
}

func TestResultSet(t *testing.T) {
	t.Run("deduplicates keeping first seen", func(t *testing.T) {
		rs := NewResultSet()
		first := tu.Movie(1, "Parasite")
		added := rs.Merge([]models.Movie{first, tu.Movie(2, "Oldboy")})
		if added != 2 {
			t.Errorf("expected 2 added, got %d", added)
		}

		added = rs.Merge([]models.Movie{tu.Movie(1, "기생충"), tu.Movie(3, "Mother")})
		if added != 1 {
			t.Errorf("expected 1 added, got %d", added)
		}

		items := rs.Items()
		if !slices.Equal(ids(items), []int64{1, 2, 3}) {
			t.Errorf("unexpected order %v", ids(items))
		}
		if items[0].Title != "Parasite" {
			t.Errorf("expected first-seen title, got %q", items[0].Title)
		}
	})

	t.Run("reset empties the set", func(t *testing.T) {
		rs := NewResultSet()
		rs.Merge([]models.Movie{tu.Movie(1, "a")})
		rs.Reset()
		if rs.Len() != 0 || rs.Contains(1) {
			t.Error("expected empty set after reset")
		}
	})

	t.Run("new cursor", func(t *testing.T) {
		c := NewPageCursor()
		if c.Page != 1 || !c.HasMore {
			t.Errorf("unexpected cursor %+v", c)
		}
	})
}

func TestFetchPage(t *testing.T) {
	ctx := context.Background()

	t.Run("empty query requests popular once", func(t *testing.T) {
		src := &tu.MockMovieService{}
		res := FetchPage(ctx, src, "", locale.EnglishUS, 1)
		if res.Err != nil {
			t.Fatalf("unexpected error: %v", res.Err)
		}
		calls := src.Calls()
		if len(calls) != 1 || calls[0].Kind != "popular" || calls[0].Page != 1 || calls[0].Locale != locale.EnglishUS {
			t.Errorf("unexpected calls %+v", calls)
		}
	})

	t.Run("blank query is trimmed to popular", func(t *testing.T) {
		src := &tu.MockMovieService{}
		res := FetchPage(ctx, src, "  \t ", locale.EnglishUS, 1)
		if res.Err != nil || res.Query != "" {
			t.Fatalf("unexpected result %+v", res)
		}
		if calls := src.Calls(); len(calls) != 1 || calls[0].Kind != "popular" {
			t.Errorf("unexpected calls %+v", calls)
		}
	})

	t.Run("search query is trimmed", func(t *testing.T) {
		src := &tu.MockMovieService{}
		FetchPage(ctx, src, "  alien ", locale.EnglishUS, 1)
		for _, c := range src.Calls("search") {
			if c.Query != "alien" {
				t.Errorf("expected trimmed query, got %q", c.Query)
			}
		}
	})

	t.Run("searches each locale once in priority order", func(t *testing.T) {
		src := &tu.MockMovieService{
			SearchFunc: func(_ context.Context, _ string, l locale.Locale, page int) (*models.MoviePage, error) {
				switch l {
				case locale.KoreanKR:
					return tu.NewPage(page, 1, tu.Movie(1, "괴물"), tu.Movie(2, "마더")), nil
				case locale.JapaneseJP:
					return tu.NewPage(page, 1, tu.Movie(2, "母なる証明"), tu.Movie(3, "殺人の追憶")), nil
				default:
					return tu.NewPage(page, 1, tu.Movie(4, "Okja")), nil
				}
			},
		}

		res := FetchPage(ctx, src, "bong", locale.KoreanKR, 1)
		if !slices.Equal(ids(res.Movies), []int64{1, 2, 3, 4}) {
			t.Errorf("unexpected merge order %v", ids(res.Movies))
		}
		if res.Movies[1].Title != "마더" {
			t.Errorf("expected active locale to win, got %q", res.Movies[1].Title)
		}
		if res.HasMore {
			t.Error("expected no more pages")
		}
		if got := len(src.Calls("search")); got != 3 {
			t.Errorf("expected 3 search calls, got %d", got)
		}
	})

	t.Run("partial failure keeps successful locale", func(t *testing.T) {
		src := &tu.MockMovieService{
			SearchFunc: func(_ context.Context, _ string, l locale.Locale, page int) (*models.MoviePage, error) {
				if l == locale.EnglishUS {
					return tu.NewPage(1, 3, tu.Movie(10, "A")), nil
				}
				return nil, errors.New("boom")
			},
		}

		res := FetchPage(ctx, src, "a", locale.EnglishUS, 1)
		if res.Err != nil {
			t.Fatalf("partial failure should succeed, got %v", res.Err)
		}
		if !res.HasMore {
			t.Error("expected has-more from the successful locale")
		}
		if !slices.Equal(ids(res.Movies), []int64{10}) {
			t.Errorf("unexpected items %v", ids(res.Movies))
		}
		if len(res.Failed) != 2 {
			t.Errorf("expected 2 failed locales, got %d", len(res.Failed))
		}
	})

	t.Run("total failure yields error and no more pages", func(t *testing.T) {
		src := &tu.MockMovieService{
			SearchFunc: func(context.Context, string, locale.Locale, int) (*models.MoviePage, error) {
				return nil, errors.New("down")
			},
		}
		res := FetchPage(ctx, src, "a", locale.EnglishUS, 1)
		if res.Err == nil {
			t.Fatal("expected error")
		}
		if res.HasMore || len(res.Movies) != 0 {
			t.Errorf("unexpected result %+v", res)
		}
	})

	t.Run("cancelled fan-out reports context error", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		src := &tu.MockMovieService{
			SearchFunc: func(ctx context.Context, _ string, _ locale.Locale, _ int) (*models.MoviePage, error) {
				return nil, ctx.Err()
			},
		}
		res := FetchPage(cctx, src, "a", locale.EnglishUS, 1)
		if !Cancelled(res.Err) {
			t.Errorf("expected cancellation, got %v", res.Err)
		}
	})
}

func TestSearchFeed(t *testing.T) {
	t.Run("popular page one then load more appends page two", func(t *testing.T) {
		src := &tu.MockMovieService{
			PopularFunc: func(_ context.Context, _ locale.Locale, page int) (*models.MoviePage, error) {
				return tu.NewPage(page, 3, tu.Movie(int64(page*10), "p")), nil
			},
		}
		f := newTestFeed(src)
		defer f.Close()

		f.Start()
		f.Wait()

		calls := src.Calls("popular")
		if len(calls) != 1 || calls[0].Page != 1 || calls[0].Locale != locale.EnglishUS {
			t.Fatalf("unexpected calls %+v", calls)
		}
		snap := f.Snapshot()
		if snap.Loading || !snap.HasMore || snap.Page != 1 {
			t.Errorf("unexpected snapshot %+v", snap)
		}

		if !f.LoadMore() {
			t.Fatal("expected load more to start a fetch")
		}
		f.Wait()

		calls = src.Calls("popular")
		if len(calls) != 2 || calls[1].Page != 2 {
			t.Fatalf("unexpected calls %+v", calls)
		}
		snap = f.Snapshot()
		if !slices.Equal(ids(snap.Items), []int64{10, 20}) {
			t.Errorf("expected appended items, got %v", ids(snap.Items))
		}
		if snap.Page != 2 {
			t.Errorf("expected page 2, got %d", snap.Page)
		}
	})

	t.Run("load more while loading issues nothing", func(t *testing.T) {
		gate := tu.NewGate()
		started := make(chan struct{}, 1)
		src := &tu.MockMovieService{
			PopularFunc: func(ctx context.Context, _ locale.Locale, page int) (*models.MoviePage, error) {
				started <- struct{}{}
				if err := gate.Wait(ctx); err != nil {
					return nil, err
				}
				return tu.NewPage(page, 5, tu.Movie(1, "a")), nil
			},
		}
		f := newTestFeed(src)
		defer f.Close()

		f.Start()
		<-started

		if !f.Snapshot().Loading {
			t.Error("expected loading while request is outstanding")
		}
		if f.LoadMore() {
			t.Error("load more should be refused while loading")
		}
		if f.Near(0) {
			t.Error("near should be refused while loading")
		}

		gate.Release()
		f.Wait()
		if got := len(src.Calls("popular")); got != 1 {
			t.Errorf("expected 1 request, got %d", got)
		}
	})

	t.Run("load more refused without more pages", func(t *testing.T) {
		src := &tu.MockMovieService{}
		f := newTestFeed(src)
		defer f.Close()

		f.Start()
		f.Wait()
		if f.LoadMore() {
			t.Error("expected refusal on last page")
		}
	})

	t.Run("stale response is never applied", func(t *testing.T) {
		gate := tu.NewGate()
		firstStarted := make(chan struct{}, 3)
		src := &tu.MockMovieService{
			SearchFunc: func(_ context.Context, q string, _ locale.Locale, page int) (*models.MoviePage, error) {
				if q == "first" {
					firstStarted <- struct{}{}
					_ = gate.Wait(context.Background())
					return tu.NewPage(page, 9, tu.Movie(1, "first")), nil
				}
				return tu.NewPage(page, 1, tu.Movie(2, "second")), nil
			},
		}
		f := newTestFeed(src)
		defer f.Close()

		f.SetQuery("first")
		<-firstStarted
		f.SetQuery("second")
		waitFor(t, func() bool { return !f.Snapshot().Loading })

		gate.Release()
		f.Wait()

		snap := f.Snapshot()
		if snap.Query != "second" {
			t.Errorf("expected query second, got %q", snap.Query)
		}
		if !slices.Equal(ids(snap.Items), []int64{2}) {
			t.Errorf("stale items applied: %v", ids(snap.Items))
		}
		if snap.HasMore {
			t.Error("stale has-more applied")
		}
	})

	t.Run("locale change cancels pending fetch and refetches once", func(t *testing.T) {
		var cancelled atomic.Bool
		started := make(chan struct{}, 1)
		src := &tu.MockMovieService{
			PopularFunc: func(ctx context.Context, l locale.Locale, page int) (*models.MoviePage, error) {
				if l == locale.EnglishUS {
					started <- struct{}{}
					<-ctx.Done()
					cancelled.Store(true)
					return nil, ctx.Err()
				}
				return tu.NewPage(page, 2, tu.Movie(7, "ko")), nil
			},
		}
		f := newTestFeed(src)
		defer f.Close()

		f.Start()
		<-started
		f.SetLocale(locale.KoreanKR)

		snap := f.Snapshot()
		if len(snap.Items) != 0 || snap.Page != 1 || !snap.HasMore {
			t.Errorf("expected reset state, got %+v", snap)
		}

		f.Wait()
		if !cancelled.Load() {
			t.Error("expected pending fetch to be cancelled")
		}

		calls := src.Calls("popular")
		if len(calls) != 2 {
			t.Fatalf("expected exactly one new request, got %+v", calls)
		}
		if calls[1].Locale != locale.KoreanKR || calls[1].Page != 1 {
			t.Errorf("unexpected refetch %+v", calls[1])
		}

		snap = f.Snapshot()
		if snap.Err != nil {
			t.Errorf("cancellation surfaced as error: %v", snap.Err)
		}
		if snap.Locale != locale.KoreanKR || !slices.Equal(ids(snap.Items), []int64{7}) {
			t.Errorf("unexpected snapshot %+v", snap)
		}
	})

	t.Run("unsupported locale falls back to default", func(t *testing.T) {
		src := &tu.MockMovieService{}
		f := newTestFeed(src, func(o *Opts) { o.Locale = locale.KoreanKR })
		defer f.Close()

		f.Start()
		f.Wait()
		f.SetLocale(locale.Locale("xx-YY"))
		f.Wait()

		if got := f.Snapshot().Locale; got != locale.Default {
			t.Errorf("expected %s, got %s", locale.Default, got)
		}
		calls := src.Calls("popular")
		if len(calls) != 2 || calls[1].Locale != locale.Default {
			t.Errorf("unexpected calls %+v", calls)
		}
	})

	t.Run("debounced input fetches last value only", func(t *testing.T) {
		src := &tu.MockMovieService{}
		f := newTestFeed(src, func(o *Opts) { o.Debounce = 30 * time.Millisecond })
		defer f.Close()

		for _, s := range []string{"p", "pa", "par", "  para  "} {
			f.Input(s)
		}
		waitFor(t, func() bool { return len(src.Calls("search")) == 3 })
		f.Wait()
		time.Sleep(80 * time.Millisecond)

		calls := src.Calls("search")
		if len(calls) != 3 {
			t.Fatalf("expected one fan-out, got %d calls", len(calls))
		}
		for _, c := range calls {
			if c.Query != "para" {
				t.Errorf("expected trimmed last value, got %q", c.Query)
			}
		}
	})

	t.Run("unchanged query does not refetch", func(t *testing.T) {
		src := &tu.MockMovieService{}
		f := newTestFeed(src)
		defer f.Close()

		f.SetQuery("x")
		f.Wait()
		f.SetQuery("x")
		f.Wait()
		if got := len(src.Calls("search")); got != 3 {
			t.Errorf("expected 3 calls, got %d", got)
		}
	})

	t.Run("total failure stops pagination and refresh recovers", func(t *testing.T) {
		var fail atomic.Bool
		fail.Store(true)
		src := &tu.MockMovieService{
			PopularFunc: func(_ context.Context, _ locale.Locale, page int) (*models.MoviePage, error) {
				if fail.Load() {
					return nil, errors.New("unavailable")
				}
				return tu.NewPage(page, 2, tu.Movie(1, "a")), nil
			},
		}
		f := newTestFeed(src)
		defer f.Close()

		f.Start()
		f.Wait()
		snap := f.Snapshot()
		if snap.Err == nil || snap.HasMore || snap.Loading {
			t.Errorf("unexpected snapshot after failure %+v", snap)
		}
		if f.LoadMore() {
			t.Error("load more should be refused after total failure")
		}

		fail.Store(false)
		f.Refresh()
		f.Wait()
		snap = f.Snapshot()
		if snap.Err != nil || !snap.HasMore || len(snap.Items) != 1 {
			t.Errorf("unexpected snapshot after refresh %+v", snap)
		}
	})

	t.Run("near loads only within prefetch distance", func(t *testing.T) {
		src := &tu.MockMovieService{
			PopularFunc: func(_ context.Context, _ locale.Locale, page int) (*models.MoviePage, error) {
				base := int64(page * 100)
				var movies []models.Movie
				for i := range int64(10) {
					movies = append(movies, tu.Movie(base+i, "m"))
				}
				return tu.NewPage(page, 3, movies...), nil
			},
		}
		f := newTestFeed(src, func(o *Opts) { o.PrefetchRows = 2 })
		defer f.Close()

		f.Start()
		f.Wait()
		if f.Near(5) {
			t.Error("row 5 of 10 should not trigger")
		}
		if !f.Near(8) {
			t.Error("row 8 of 10 should trigger")
		}
		f.Wait()
		if got := len(f.Snapshot().Items); got != 20 {
			t.Errorf("expected 20 items, got %d", got)
		}
	})

	t.Run("latest update is the settled state", func(t *testing.T) {
		var mu sync.Mutex
		var got []Snapshot
		src := &tu.MockMovieService{}
		f := newTestFeed(src, func(o *Opts) {
			o.OnUpdate = func(s Snapshot) {
				mu.Lock()
				got = append(got, s)
				mu.Unlock()
			}
		})
		defer f.Close()

		f.Start()
		f.Wait()

		mu.Lock()
		defer mu.Unlock()
		if len(got) != 2 {
			t.Fatalf("expected loading and loaded updates, got %d", len(got))
		}
		latest := got[0]
		for _, s := range got[1:] {
			if s.Seq == latest.Seq {
				t.Fatalf("duplicate sequence %d", s.Seq)
			}
			if s.Seq > latest.Seq {
				latest = s
			}
		}
		if latest.Loading {
			t.Error("highest sequence should be the completed fetch")
		}
	})

	t.Run("close cancels and ignores later calls", func(t *testing.T) {
		started := make(chan struct{}, 1)
		src := &tu.MockMovieService{
			PopularFunc: func(ctx context.Context, _ locale.Locale, _ int) (*models.MoviePage, error) {
				started <- struct{}{}
				<-ctx.Done()
				return nil, ctx.Err()
			},
		}
		f := newTestFeed(src)
		f.Start()
		<-started
		f.Close()

		f.SetQuery("after")
		f.Refresh()
		if got := len(src.Calls()); got != 1 {
			t.Errorf("expected no calls after close, got %d", got)
		}
	})
}

func TestDetailFetcher(t *testing.T) {
	t.Run("loads record", func(t *testing.T) {
		src := &tu.MockMovieService{
			MovieFunc: func(_ context.Context, id int64, _ locale.Locale) (*models.Movie, error) {
				m := tu.Movie(id, "Oldboy")
				return &m, nil
			},
		}
		d := NewDetailFetcher(DetailOpts{Source: src})
		defer d.Close()

		d.Fetch(670, locale.KoreanKR)
		d.Wait()

		snap := d.Snapshot()
		if snap.Status != DetailLoaded || snap.Movie == nil || snap.Movie.ID != 670 {
			t.Errorf("unexpected snapshot %+v", snap)
		}
		calls := src.Calls("movie")
		if len(calls) != 1 || calls[0].Locale != locale.KoreanKR {
			t.Errorf("unexpected calls %+v", calls)
		}

		d.Fetch(670, locale.KoreanKR)
		d.Wait()
		if got := len(src.Calls("movie")); got != 1 {
			t.Errorf("expected loaded record to be reused, got %d calls", got)
		}
	})

	t.Run("failure clears record to not found", func(t *testing.T) {
		var fail atomic.Bool
		src := &tu.MockMovieService{
			MovieFunc: func(_ context.Context, id int64, _ locale.Locale) (*models.Movie, error) {
				if fail.Load() {
					return nil, errors.New("404")
				}
				m := tu.Movie(id, "x")
				return &m, nil
			},
		}
		d := NewDetailFetcher(DetailOpts{Source: src})
		defer d.Close()

		d.Fetch(1, locale.EnglishUS)
		d.Wait()
		fail.Store(true)
		d.Fetch(2, locale.EnglishUS)
		d.Wait()

		snap := d.Snapshot()
		if snap.Status != DetailNotFound || snap.Movie != nil || snap.Err == nil {
			t.Errorf("unexpected snapshot %+v", snap)
		}

		d.Fetch(2, locale.EnglishUS)
		d.Wait()
		if got := len(src.Calls("movie")); got != 3 {
			t.Errorf("expected not-found record to be retried, got %d calls", got)
		}
	})

	t.Run("superseded request is ignored", func(t *testing.T) {
		started := make(chan struct{}, 1)
		src := &tu.MockMovieService{
			MovieFunc: func(ctx context.Context, id int64, _ locale.Locale) (*models.Movie, error) {
				if id == 1 {
					started <- struct{}{}
					<-ctx.Done()
					return nil, ctx.Err()
				}
				m := tu.Movie(id, "two")
				return &m, nil
			},
		}
		d := NewDetailFetcher(DetailOpts{Source: src})
		defer d.Close()

		d.Fetch(1, locale.EnglishUS)
		<-started
		d.Fetch(2, locale.EnglishUS)
		d.Wait()

		snap := d.Snapshot()
		if snap.Status != DetailLoaded || snap.ID != 2 || snap.Err != nil {
			t.Errorf("unexpected snapshot %+v", snap)
		}
	})

	t.Run("unsupported locale falls back to default", func(t *testing.T) {
		src := &tu.MockMovieService{}
		d := NewDetailFetcher(DetailOpts{Source: src, Locale: locale.JapaneseJP})
		defer d.Close()

		d.Fetch(5, locale.Locale("zz"))
		d.Wait()
		if got := d.Snapshot().Locale; got != locale.Default {
			t.Errorf("expected %s, got %s", locale.Default, got)
		}

		d.SetLocale(locale.KoreanKR)
		d.Wait()
		d.SetLocale(locale.Locale(""))
		d.Wait()

		calls := src.Calls("movie")
		if len(calls) != 3 || calls[0].Locale != locale.Default || calls[2].Locale != locale.Default {
			t.Errorf("unexpected calls %+v", calls)
		}
	})

	t.Run("locale change refetches current record", func(t *testing.T) {
		src := &tu.MockMovieService{}
		d := NewDetailFetcher(DetailOpts{Source: src})
		defer d.Close()

		d.SetLocale(locale.JapaneseJP)
		if got := len(src.Calls()); got != 0 {
			t.Errorf("idle fetcher should not fetch, got %d", got)
		}

		d.Fetch(5, locale.JapaneseJP)
		d.Wait()
		d.SetLocale(locale.KoreanKR)
		d.Wait()

		calls := src.Calls("movie")
		if len(calls) != 2 || calls[1].Locale != locale.KoreanKR || calls[1].ID != 5 {
			t.Errorf("unexpected calls %+v", calls)
		}
	})
}
