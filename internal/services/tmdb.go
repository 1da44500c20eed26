// TMDB API [MovieService] implementation
//
// https://developer.themoviedb.org/reference/intro/getting-started
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviex/internal/locale"
	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultTMDBBaseURL  = "https://api.themoviedb.org"
	defaultImageBaseURL = "https://image.tmdb.org/t/p"
	defaultRateLimit    = 20.0
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("tmdb API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("tmdb API error: status %d", e.StatusCode)
}

func (e *StatusError) Unwrap() error { return shared.ErrAPIRequest }

// TMDBOpts configures a [TMDBService]. Zero values select defaults.
type TMDBOpts struct {
	BaseURL     string
	APIKey      string
	AccessToken string        // v4 read access token, sent as a bearer token
	HTTPClient  *http.Client  // base client; wrapped when AccessToken is set
	Timeout     time.Duration // applied to the HTTP client when > 0
	RateLimit   float64       // requests per second
	Cache       *ResponseCache
	Logger      *log.Logger
}

// TMDBService implements [MovieService] for the TMDB v3 API.
type TMDBService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *ResponseCache
	logger     *log.Logger
}

// NewTMDBService creates a TMDB client from opts.
func NewTMDBService(opts TMDBOpts) *TMDBService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultTMDBBaseURL
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	client := &http.Client{}
	if opts.HTTPClient != nil {
		c := *opts.HTTPClient
		client = &c
	}
	if opts.AccessToken != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, client)
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: opts.AccessToken,
			TokenType:   "Bearer",
		}))
	}
	if opts.Timeout > 0 {
		client.Timeout = opts.Timeout
	}

	return &TMDBService{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		cache:      opts.Cache,
		logger:     shared.WithLogger(opts.Logger, "service", "tmdb"),
	}
}

// NewTMDBServiceFromConfig creates a TMDB client from the application config.
func NewTMDBServiceFromConfig(cfg shared.TMDBConfig, cache *ResponseCache, logger *log.Logger) *TMDBService {
	return NewTMDBService(TMDBOpts{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		AccessToken: cfg.AccessToken,
		Timeout:     cfg.Timeout(),
		RateLimit:   cfg.RateLimit,
		Cache:       cache,
		Logger:      logger,
	})
}

// Name returns the service name.
func (s *TMDBService) Name() string {
	return "TMDB"
}

// Popular calls GET /3/movie/popular.
func (s *TMDBService) Popular(ctx context.Context, l locale.Locale, page int) (*models.MoviePage, error) {
	params := url.Values{}
	params.Set("language", string(l))
	params.Set("page", strconv.Itoa(normalizePage(page)))

	var result models.MoviePage
	if err := s.doRequest(ctx, "/3/movie/popular", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Search calls GET /3/search/movie with include_adult=false.
func (s *TMDBService) Search(ctx context.Context, query string, l locale.Locale, page int) (*models.MoviePage, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", shared.ErrInvalidInput)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("language", string(l))
	params.Set("include_adult", "false")
	params.Set("page", strconv.Itoa(normalizePage(page)))

	var result models.MoviePage
	if err := s.doRequest(ctx, "/3/search/movie", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Movie calls GET /3/movie/{id}.
func (s *TMDBService) Movie(ctx context.Context, id int64, l locale.Locale) (*models.Movie, error) {
	params := url.Values{}
	params.Set("language", string(l))

	var result models.Movie
	if err := s.doRequest(ctx, fmt.Sprintf("/3/movie/%d", id), params, &result); err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %d: %w", shared.ErrMovieNotFound, id, err)
		}
		return nil, err
	}
	return &result, nil
}

// doRequest waits on the rate limiter, consults the response cache, and decodes a JSON body into result.
//
// Cancellation surfaces as an error satisfying errors.Is(err, context.Canceled).
func (s *TMDBService) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	cacheKey := endpoint + "?" + params.Encode()
	if body, ok := s.cache.Get(cacheKey); ok {
		if err := json.Unmarshal(body, result); err == nil {
			s.logger.Debug("cache hit", "key", cacheKey)
			return nil
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	if s.apiKey != "" {
		query.Set("api_key", s.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			StatusCode    int    `json:"status_code"`
			StatusMessage string `json:"status_message"`
		}
		_ = json.Unmarshal(body, &errResp)
		return &StatusError{StatusCode: resp.StatusCode, Message: errResp.StatusMessage}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if err := s.cache.Put(cacheKey, body); err != nil {
		s.logger.Warn("failed to cache response", "key", cacheKey, "error", err)
	}
	return nil
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
