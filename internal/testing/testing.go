// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/moviex/internal/locale"
	"github.com/desertthunder/moviex/internal/models"
)

// MovieCall records one invocation of a [MockMovieService] method.
type MovieCall struct {
	Kind   string // "popular", "search" or "movie"
	Query  string
	Locale locale.Locale
	Page   int
	ID     int64
}

// MockMovieService is a test double for services.MovieService. Each method records the call and delegates to
// the matching func field, returning an empty result when the field is nil.
type MockMovieService struct {
	PopularFunc func(ctx context.Context, l locale.Locale, page int) (*models.MoviePage, error)
	SearchFunc  func(ctx context.Context, query string, l locale.Locale, page int) (*models.MoviePage, error)
	MovieFunc   func(ctx context.Context, id int64, l locale.Locale) (*models.Movie, error)

	mu    sync.Mutex
	calls []MovieCall
}

func (m *MockMovieService) record(c MovieCall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
}

func (m *MockMovieService) Popular(ctx context.Context, l locale.Locale, page int) (*models.MoviePage, error) {
	m.record(MovieCall{Kind: "popular", Locale: l, Page: page})
	if m.PopularFunc == nil {
		return NewPage(page, page), nil
	}
	return m.PopularFunc(ctx, l, page)
}

func (m *MockMovieService) Search(ctx context.Context, query string, l locale.Locale, page int) (*models.MoviePage, error) {
	m.record(MovieCall{Kind: "search", Query: query, Locale: l, Page: page})
	if m.SearchFunc == nil {
		return NewPage(page, page), nil
	}
	return m.SearchFunc(ctx, query, l, page)
}

func (m *MockMovieService) Movie(ctx context.Context, id int64, l locale.Locale) (*models.Movie, error) {
	m.record(MovieCall{Kind: "movie", ID: id, Locale: l})
	if m.MovieFunc == nil {
		return &models.Movie{ID: id}, nil
	}
	return m.MovieFunc(ctx, id, l)
}

func (m *MockMovieService) Name() string { return "mock" }

// Calls returns a copy of every recorded call, optionally filtered by kind.
func (m *MockMovieService) Calls(kind ...string) []MovieCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []MovieCall
	for _, c := range m.calls {
		if len(kind) == 0 || c.Kind == kind[0] {
			out = append(out, c)
		}
	}
	return out
}

// NewPage builds a [models.MoviePage].
func NewPage(page, total int, movies ...models.Movie) *models.MoviePage {
	if movies == nil {
		movies = []models.Movie{}
	}
	return &models.MoviePage{Page: page, TotalPages: total, TotalResults: len(movies), Results: movies}
}

// Movie builds a [models.Movie] fixture.
func Movie(id int64, title string) models.Movie {
	return models.Movie{ID: id, Title: title, OriginalTitle: title, VoteAverage: 7.0}
}

// Gate blocks callers until Release is called or their context is done.
type Gate struct {
	once sync.Once
	ch   chan struct{}
}

func NewGate() *Gate { return &Gate{ch: make(chan struct{})} }

// Wait blocks until the gate is released (nil) or ctx is done (ctx.Err()).
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release opens the gate. Safe to call more than once.
func (g *Gate) Release() { g.once.Do(func() { close(g.ch) }) }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
