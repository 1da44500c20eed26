package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moviex/internal/locale"
	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/repositories"
	"github.com/desertthunder/moviex/internal/shared"
	"golang.org/x/crypto/bcrypt"
)

// FieldError is a user-facing form failure. Key names a message in the locale catalog and Field the offending
// input, empty for form-level failures.
type FieldError struct {
	Field string
	Key   string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("%s (%s): %v", e.Key, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Message localizes the error for l.
func (e *FieldError) Message(l locale.Locale) string {
	return locale.T(l, e.Key)
}

// SignUpForm is the sign-up input. Confirm must repeat Password.
type SignUpForm struct {
	UserID   string `json:"userid"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

// Validate checks the form in order: required fields, password confirmation, email shape.
func (f SignUpForm) Validate() *FieldError {
	for _, v := range []string{f.UserID, f.Email, f.Name, f.Password, f.Confirm} {
		if strings.TrimSpace(v) == "" {
			return &FieldError{Key: locale.KeyFieldsRequired, Err: shared.ErrMissingArgument}
		}
	}
	if f.Password != f.Confirm {
		return &FieldError{Field: "confirm", Key: locale.KeyPasswordMismatch, Err: shared.ErrInvalidInput}
	}
	if !strings.Contains(f.Email, "@") {
		return &FieldError{Field: "email", Key: locale.KeyInvalidEmail, Err: shared.ErrInvalidInput}
	}
	return nil
}

type Opts struct {
	DB     *sql.DB
	Tokens *TokenService
	Dir    string // holds session.json and app-user.json
	Cost   int    // bcrypt cost; defaults to bcrypt.DefaultCost
	Logger *log.Logger
}

// Service handles sign-up, login and the persisted session of the local user.
type Service struct {
	users    *repositories.UserRepository
	sessions *repositories.SessionRepository
	tokens   *TokenService
	store    *SessionStore
	current  *CurrentUserStore
	cost     int
	logger   *log.Logger
}

func NewService(opts Opts) *Service {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Cost == 0 {
		opts.Cost = bcrypt.DefaultCost
	}
	return &Service{
		users:    repositories.NewUserRepository(opts.DB),
		sessions: repositories.NewSessionRepository(opts.DB),
		tokens:   opts.Tokens,
		store:    NewSessionStore(opts.Dir),
		current:  NewCurrentUserStore(opts.Dir),
		cost:     opts.Cost,
		logger:   shared.WithLogger(opts.Logger, "component", "auth"),
	}
}

// NewServiceFromConfig builds a [Service] from the [session] config section.
func NewServiceFromConfig(db *sql.DB, cfg shared.SessionConfig, logger *log.Logger) *Service {
	return NewService(Opts{
		DB:     db,
		Tokens: NewTokenService(cfg.Secret, cfg.AccessTTL(), cfg.RefreshTTL()),
		Dir:    shared.ExpandHome(cfg.Dir),
		Logger: logger,
	})
}

func (s *Service) Tokens() *TokenService { return s.tokens }

// SignUp validates the form and creates the account.
//
// Validation and duplicate-key failures are returned as a [*FieldError] wrapping the underlying sentinel.
func (s *Service) SignUp(ctx context.Context, form SignUpForm) (*models.Profile, error) {
	form.UserID = strings.TrimSpace(form.UserID)
	form.Email = strings.TrimSpace(form.Email)
	form.Name = strings.TrimSpace(form.Name)
	if fe := form.Validate(); fe != nil {
		return nil, fe
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(0, form.UserID, form.Email, form.Name, string(hash))
	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, shared.ErrDuplicateEmail):
			return nil, &FieldError{Field: "email", Key: locale.KeyEmailTaken, Err: err}
		case errors.Is(err, shared.ErrDuplicateUserID):
			return nil, &FieldError{Field: "userid", Key: locale.KeyIDTaken, Err: err}
		case errors.Is(err, shared.ErrDuplicateValue):
			return nil, &FieldError{Key: locale.KeyDuplicateValue, Err: err}
		}
		return nil, fmt.Errorf("sign up failed: %w", err)
	}

	s.logger.Info("account created", "userid", user.UserID())
	p := user.Profile(models.ProviderAuth)
	return &p, nil
}

// Authenticate verifies credentials and issues a registered token pair without touching local state.
func (s *Service) Authenticate(ctx context.Context, userID, password string) (*Session, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || password == "" {
		return nil, &FieldError{Key: locale.KeyLoginRequired, Err: shared.ErrMissingCredentials}
	}

	user, err := s.users.GetByUserID(ctx, userID)
	if errors.Is(err, shared.ErrUserNotFound) {
		return nil, &FieldError{Key: locale.KeyLoginFailed, Err: shared.ErrInvalidCredentials}
	}
	if err != nil {
		return nil, &FieldError{Key: locale.KeyLoginError, Err: err}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash()), []byte(password)); err != nil {
		return nil, &FieldError{Key: locale.KeyLoginFailed, Err: shared.ErrInvalidCredentials}
	}

	profile := user.Profile(models.ProviderAuth)
	pair, err := s.issue(ctx, profile)
	if err != nil {
		return nil, &FieldError{Key: locale.KeyLoginError, Err: err}
	}
	return &Session{Tokens: pair, User: profile}, nil
}

// Login authenticates and persists both the session and the current-user record.
func (s *Service) Login(ctx context.Context, userID, password string) (*Session, error) {
	sess, err := s.Authenticate(ctx, userID, password)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(sess); err != nil {
		return nil, err
	}
	if err := s.current.Save(sess.User); err != nil {
		return nil, err
	}
	s.logger.Info("logged in", "userid", sess.User.UserID)
	return sess, nil
}

// Refresh exchanges a refresh token for a new pair and revokes the old one.
//
// Rejected tokens return [shared.ErrRefreshFailed]. Storage failures are returned as is.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if refreshToken == "" {
		return TokenPair{}, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, shared.ErrNoRefreshToken)
	}

	claims, err := s.tokens.Parse(refreshToken, RefreshToken)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}

	row, err := s.sessions.Get(ctx, claims.ID)
	if errors.Is(err, shared.ErrSessionNotFound) {
		return TokenPair{}, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}
	if err != nil {
		return TokenPair{}, err
	}
	if !row.Active(s.tokens.clock()) {
		return TokenPair{}, fmt.Errorf("%w: session %s revoked", shared.ErrRefreshFailed, row.ID)
	}

	user, err := s.users.Get(ctx, claims.Subject)
	if errors.Is(err, shared.ErrUserNotFound) {
		return TokenPair{}, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.sessions.Revoke(ctx, row.ID); err != nil {
		return TokenPair{}, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}
	return s.issue(ctx, user.Profile(models.ProviderAuth))
}

// Verify resolves an access token to the profile of a live account.
func (s *Service) Verify(ctx context.Context, accessToken string) (*models.Profile, error) {
	claims, err := s.tokens.Parse(accessToken, AccessToken)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Get(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, err)
	}
	p := user.Profile(models.ProviderAuth)
	return &p, nil
}

// Session loads the persisted session, refreshing an expired access token.
//
// A session that cannot be refreshed is removed and nil is returned. A nil session with a non-nil error means
// the session could not be checked and was left in place.
func (s *Service) Session(ctx context.Context) (*Session, error) {
	sess, err := s.store.Read()
	if err != nil || sess == nil {
		return nil, err
	}

	_, err = s.tokens.Parse(sess.Tokens.AccessToken, AccessToken)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, shared.ErrTokenExpired) {
		s.logger.Debug("discarding invalid session", "err", err)
		return nil, s.store.Clear()
	}

	pair, err := s.Refresh(ctx, sess.Tokens.RefreshToken)
	if errors.Is(err, shared.ErrRefreshFailed) {
		s.logger.Debug("session expired", "err", err)
		return nil, s.store.Clear()
	}
	if err != nil {
		return nil, err
	}

	sess.Tokens = pair
	if err := s.store.Save(sess); err != nil {
		return nil, err
	}
	s.logger.Debug("session refreshed", "userid", sess.User.UserID)
	return sess, nil
}

// Hydrate returns the active user at startup.
//
// A live session wins and yields its profile with the auth provider. When the session could not be checked,
// the locally persisted record is returned with the local provider. With no session at all the local record is
// cleared and [shared.ErrNotAuthenticated] is returned.
func (s *Service) Hydrate(ctx context.Context) (*models.Profile, error) {
	sess, err := s.Session(ctx)
	if sess != nil {
		p := sess.User
		p.Provider = models.ProviderAuth
		return &p, nil
	}

	if err != nil {
		s.logger.Warn("session check failed, using local record", "err", err)
		local, lerr := s.current.Load()
		if lerr != nil {
			return nil, lerr
		}
		if local != nil {
			local.Provider = models.ProviderLocal
			return local, nil
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, err)
	}

	if err := s.current.Clear(); err != nil {
		return nil, err
	}
	return nil, shared.ErrNotAuthenticated
}

// Logout revokes the stored session and removes both local records.
func (s *Service) Logout(ctx context.Context) error {
	sess, err := s.store.Read()
	if err != nil {
		s.logger.Warn("unreadable session", "err", err)
	}
	if sess != nil && sess.Tokens.RefreshID != "" {
		if err := s.sessions.Revoke(ctx, sess.Tokens.RefreshID); err != nil && !errors.Is(err, shared.ErrSessionNotFound) {
			s.logger.Warn("failed to revoke session", "err", err)
		}
	}

	return errors.Join(s.store.Clear(), s.current.Clear())
}

func (s *Service) issue(ctx context.Context, p models.Profile) (TokenPair, error) {
	pair, err := s.tokens.Issue(p)
	if err != nil {
		return TokenPair{}, err
	}
	row := &models.Session{ID: pair.RefreshID, UserID: p.ID, ExpiresAt: pair.RefreshExpiresAt}
	if err := s.sessions.Create(ctx, row); err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

// PruneSessions removes expired session rows.
func (s *Service) PruneSessions(ctx context.Context) (int64, error) {
	return s.sessions.Prune(ctx, time.Now())
}
