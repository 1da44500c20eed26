package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviex/internal/auth"
	"github.com/desertthunder/moviex/internal/feed"
	"github.com/desertthunder/moviex/internal/locale"
	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/shared"
)

// MovieSource serves listings and single records.
type MovieSource interface {
	feed.Source
	feed.DetailSource
}

// Accounts is the account backend behind the auth routes.
type Accounts interface {
	TokenVerifier
	SignUp(ctx context.Context, form auth.SignUpForm) (*models.Profile, error)
	Authenticate(ctx context.Context, userID, password string) (*auth.Session, error)
	Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error)
}

// API serves the JSON endpoints under /api.
type API struct {
	movies   MovieSource
	accounts Accounts
	logger   *log.Logger
}

func NewAPI(movies MovieSource, accounts Accounts, logger *log.Logger) *API {
	return &API{movies: movies, accounts: accounts, logger: logger}
}

// Register adds every route to r. Auth routes are skipped when no account backend is configured.
func (a *API) Register(r Router) {
	r.Handle(http.MethodGet, "/api/movies", http.HandlerFunc(a.handleMovies))
	r.Handle(http.MethodGet, "/api/movies/{id}", http.HandlerFunc(a.handleMovie))
	r.Handle(http.MethodGet, "/api/locales", http.HandlerFunc(a.handleLocales))
	r.Handler(HealthHandler{})

	if a.accounts == nil {
		return
	}
	r.Handle(http.MethodPost, "/api/signup", http.HandlerFunc(a.handleSignUp))
	r.Handle(http.MethodPost, "/api/login", http.HandlerFunc(a.handleLogin))
	r.Handle(http.MethodPost, "/api/refresh", http.HandlerFunc(a.handleRefresh))
	r.Handle(http.MethodGet, "/api/me", BearerAuth(a.accounts)(http.HandlerFunc(a.handleMe)))
}

// NewHandler builds the complete API handler: router, routes and the global middleware stack.
func NewHandler(movies MovieSource, accounts Accounts, origins []string, logger *log.Logger) http.Handler {
	router := NewBasicRouter()
	NewAPI(movies, accounts, logger).Register(router)
	logger.Debug("routes registered", "patterns", router.Patterns())
	return Chain(router, Recovery(logger), Logging(logger), CORS(origins))
}

// HealthHandler answers liveness probes on /health.
type HealthHandler struct{}

func (HealthHandler) Routes() []string { return []string{"/health"} }

func (HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type moviesResponse struct {
	Items   []models.Movie `json:"items"`
	Page    int            `json:"page"`
	HasMore bool           `json:"has_more"`
	Locale  locale.Locale  `json:"locale"`
	Failed  []string       `json:"failed_locales,omitempty"`
}

type fieldErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Key     string `json:"key"`
	Message string `json:"message"`
}

type loginRequest struct {
	UserID   string `json:"userid"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	ExpiresAt    int64          `json:"expires_at"`
	User         models.Profile `json:"user"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type localeResponse struct {
	Tag       string            `json:"tag"`
	Label     string            `json:"label"`
	Direction string            `json:"direction"`
	Active    bool              `json:"active"`
	Strings   map[string]string `json:"strings"`
}

// requestLocale resolves the locale query parameter, falling back to Accept-Language.
func requestLocale(r *http.Request) locale.Locale {
	if q := r.URL.Query().Get("locale"); q != "" {
		return locale.Parse(q)
	}
	return locale.MatchAcceptLanguage(r.Header.Get("Accept-Language"))
}

func (a *API) handleMovies(w http.ResponseWriter, r *http.Request) {
	l := requestLocale(r)
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "invalid page")
			return
		}
		page = n
	}

	query := strings.TrimSpace(r.URL.Query().Get("query"))
	res := feed.FetchPage(r.Context(), a.movies, query, l, page)
	if res.Err != nil {
		if feed.Cancelled(res.Err) {
			return
		}
		a.logger.Warn("listing failed", "query", res.Query, "locale", l, "page", page, "err", res.Err)
		respondError(w, http.StatusBadGateway, "upstream request failed")
		return
	}

	resp := moviesResponse{Items: res.Movies, Page: page, HasMore: res.HasMore, Locale: l}
	if resp.Items == nil {
		resp.Items = []models.Movie{}
	}
	for _, f := range res.Failed {
		resp.Failed = append(resp.Failed, f.Locale.String())
	}
	respondJSON(w, http.StatusOK, resp)
}

func (a *API) handleMovie(w http.ResponseWriter, r *http.Request) {
	l := requestLocale(r)
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	m, err := a.movies.Movie(r.Context(), id, l)
	if err != nil || m == nil {
		if err != nil && !feed.Cancelled(err) {
			a.logger.Warn("detail failed", "id", id, "locale", l, "err", err)
		}
		respondJSON(w, http.StatusNotFound, map[string]string{
			"error":   "not found",
			"message": locale.T(l, locale.KeyNotFound),
		})
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (a *API) handleLocales(w http.ResponseWriter, r *http.Request) {
	active := requestLocale(r)
	var out []localeResponse
	for _, l := range locale.Supported() {
		out = append(out, localeResponse{
			Tag:       l.String(),
			Label:     l.Label(),
			Direction: string(l.Direction()),
			Active:    l == active,
			Strings:   locale.Strings(l),
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (a *API) handleSignUp(w http.ResponseWriter, r *http.Request) {
	l := requestLocale(r)
	var form auth.SignUpForm
	if err := decodeJSON(r, &form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	p, err := a.accounts.SignUp(r.Context(), form)
	if err != nil {
		var fe *auth.FieldError
		if !errors.As(err, &fe) {
			a.logger.Error("sign up failed", "err", err)
			respondJSON(w, http.StatusInternalServerError, fieldErrorResponse{
				Error:   "sign up failed",
				Key:     locale.KeySignUpFailed,
				Message: locale.T(l, locale.KeySignUpFailed, err.Error()),
			})
			return
		}

		status := http.StatusBadRequest
		if errors.Is(err, shared.ErrDuplicateEmail) || errors.Is(err, shared.ErrDuplicateUserID) || errors.Is(err, shared.ErrDuplicateValue) {
			status = http.StatusConflict
		}
		respondFieldError(w, status, fe, l)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"user":    p,
		"message": locale.T(l, locale.KeySignUpSuccess),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	l := requestLocale(r)
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sess, err := a.accounts.Authenticate(r.Context(), req.UserID, req.Password)
	if err != nil {
		var fe *auth.FieldError
		if !errors.As(err, &fe) {
			fe = &auth.FieldError{Key: locale.KeyLoginError, Err: err}
		}
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, shared.ErrInvalidCredentials):
			status = http.StatusUnauthorized
		case errors.Is(err, shared.ErrMissingCredentials):
			status = http.StatusBadRequest
		default:
			a.logger.Error("login failed", "err", err)
		}
		respondFieldError(w, status, fe, l)
		return
	}

	respondJSON(w, http.StatusOK, loginResponse{
		AccessToken:  sess.Tokens.AccessToken,
		RefreshToken: sess.Tokens.RefreshToken,
		ExpiresAt:    sess.Tokens.AccessExpiresAt.Unix(),
		User:         sess.User,
	})
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	pair, err := a.accounts.Refresh(r.Context(), req.RefreshToken)
	if errors.Is(err, shared.ErrRefreshFailed) {
		respondError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}
	if err != nil {
		a.logger.Error("refresh failed", "err", err)
		respondError(w, http.StatusInternalServerError, "refresh failed")
		return
	}
	respondJSON(w, http.StatusOK, pair)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := ProfileFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondFieldError(w http.ResponseWriter, status int, fe *auth.FieldError, l locale.Locale) {
	respondJSON(w, status, fieldErrorResponse{
		Error:   fe.Err.Error(),
		Field:   fe.Field,
		Key:     fe.Key,
		Message: fe.Message(l),
	})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
