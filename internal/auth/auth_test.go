package auth

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/moviex/internal/locale"
	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/shared"
	tu "github.com/desertthunder/moviex/internal/testing"
	"golang.org/x/crypto/bcrypt"
)

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time          { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func setupService(t *testing.T) (*Service, *testClock, *sql.DB, string) {
	t.Helper()

	db := setupTestDB(t)
	t.Cleanup(func() { db.Close() })

	clock := &testClock{t: time.Now()}
	tokens := NewTokenService("test-secret", 15*time.Minute, 24*time.Hour)
	tokens.now = clock.now

	dir := t.TempDir()
	svc := NewService(Opts{DB: db, Tokens: tokens, Dir: dir, Cost: bcrypt.MinCost})
	return svc, clock, db, dir
}

func validForm() SignUpForm {
	return SignUpForm{UserID: "bong", Email: "bong@example.com", Name: "Bong", Password: "secret", Confirm: "secret"}
}

func fieldError(t *testing.T, err error) *FieldError {
	t.Helper()
	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FieldError, got %v", err)
	}
	return fe
}

func TestTokenService(t *testing.T) {
	p := models.Profile{ID: "u1", UserID: "bong", Email: "bong@example.com", Name: "Bong"}

	t.Run("issue and parse", func(t *testing.T) {
		ts := NewTokenService("secret", time.Minute, time.Hour)
		pair, err := ts.Issue(p)
		if err != nil {
			t.Fatalf("issue failed: %v", err)
		}
		if pair.RefreshID == "" {
			t.Error("expected refresh id")
		}

		claims, err := ts.Parse(pair.AccessToken, AccessToken)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		got := claims.Profile()
		if got.ID != "u1" || got.UserID != "bong" || got.Provider != models.ProviderAuth {
			t.Errorf("unexpected profile %+v", got)
		}

		refresh, err := ts.Parse(pair.RefreshToken, RefreshToken)
		if err != nil {
			t.Fatalf("parse refresh failed: %v", err)
		}
		if refresh.ID != pair.RefreshID {
			t.Errorf("expected jti %s, got %s", pair.RefreshID, refresh.ID)
		}
	})

	t.Run("rejects wrong token type", func(t *testing.T) {
		ts := NewTokenService("secret", time.Minute, time.Hour)
		pair, _ := ts.Issue(p)
		if _, err := ts.Parse(pair.RefreshToken, AccessToken); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("rejects foreign secret", func(t *testing.T) {
		pair, _ := NewTokenService("one", time.Minute, time.Hour).Issue(p)
		if _, err := NewTokenService("two", time.Minute, time.Hour).Parse(pair.AccessToken, AccessToken); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		clock := &testClock{t: time.Now()}
		ts := NewTokenService("secret", time.Minute, time.Hour)
		ts.now = clock.now
		pair, _ := ts.Issue(p)

		clock.advance(2 * time.Minute)
		if _, err := ts.Parse(pair.AccessToken, AccessToken); !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
		if _, err := ts.Parse(pair.RefreshToken, RefreshToken); err != nil {
			t.Errorf("refresh token should still be valid: %v", err)
		}
	})
}

func TestSignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("validation order", func(t *testing.T) {
		tests := []struct {
			name    string
			mutate  func(*SignUpForm)
			wantKey string
			field   string
		}{
			{name: "missing field", mutate: func(f *SignUpForm) { f.Name = "  " }, wantKey: locale.KeyFieldsRequired},
			{name: "missing wins over mismatch", mutate: func(f *SignUpForm) { f.Email = ""; f.Confirm = "other" }, wantKey: locale.KeyFieldsRequired},
			{name: "password mismatch", mutate: func(f *SignUpForm) { f.Confirm = "other" }, wantKey: locale.KeyPasswordMismatch, field: "confirm"},
			{name: "mismatch wins over email", mutate: func(f *SignUpForm) { f.Email = "nope"; f.Confirm = "other" }, wantKey: locale.KeyPasswordMismatch, field: "confirm"},
			{name: "invalid email", mutate: func(f *SignUpForm) { f.Email = "nope" }, wantKey: locale.KeyInvalidEmail, field: "email"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				svc, _, _, _ := setupService(t)
				form := validForm()
				tt.mutate(&form)

				_, err := svc.SignUp(ctx, form)
				fe := fieldError(t, err)
				if fe.Key != tt.wantKey || fe.Field != tt.field {
					t.Errorf("expected %s/%s, got %s/%s", tt.wantKey, tt.field, fe.Key, fe.Field)
				}
			})
		}
	})

	t.Run("creates account with hashed password", func(t *testing.T) {
		svc, _, _, _ := setupService(t)
		p, err := svc.SignUp(ctx, validForm())
		if err != nil {
			t.Fatalf("sign up failed: %v", err)
		}
		if p.ID == "" || p.UserID != "bong" {
			t.Errorf("unexpected profile %+v", p)
		}

		user, err := svc.users.GetByUserID(ctx, "bong")
		if err != nil {
			t.Fatalf("failed to load user: %v", err)
		}
		if user.PasswordHash() == "secret" {
			t.Error("password stored in plaintext")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash()), []byte("secret")); err != nil {
			t.Errorf("hash does not verify: %v", err)
		}
	})

	t.Run("duplicates map to field errors", func(t *testing.T) {
		svc, _, _, _ := setupService(t)
		if _, err := svc.SignUp(ctx, validForm()); err != nil {
			t.Fatalf("sign up failed: %v", err)
		}

		sameEmail := validForm()
		sameEmail.UserID = "other"
		fe := fieldError(t, func() error { _, err := svc.SignUp(ctx, sameEmail); return err }())
		if fe.Key != locale.KeyEmailTaken || !errors.Is(fe, shared.ErrDuplicateEmail) {
			t.Errorf("unexpected error %v", fe)
		}

		sameID := validForm()
		sameID.Email = "other@example.com"
		fe = fieldError(t, func() error { _, err := svc.SignUp(ctx, sameID); return err }())
		if fe.Key != locale.KeyIDTaken || !errors.Is(fe, shared.ErrDuplicateUserID) {
			t.Errorf("unexpected error %v", fe)
		}
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("requires credentials", func(t *testing.T) {
		svc, _, _, _ := setupService(t)
		_, err := svc.Login(ctx, " ", "")
		if fe := fieldError(t, err); fe.Key != locale.KeyLoginRequired {
			t.Errorf("expected loginRequired, got %s", fe.Key)
		}
	})

	t.Run("bad credentials change nothing", func(t *testing.T) {
		svc, _, _, dir := setupService(t)
		if _, err := svc.SignUp(ctx, validForm()); err != nil {
			t.Fatalf("sign up failed: %v", err)
		}

		for _, tc := range []struct{ user, pass string }{{"bong", "wrong"}, {"nobody", "secret"}} {
			_, err := svc.Login(ctx, tc.user, tc.pass)
			fe := fieldError(t, err)
			if fe.Key != locale.KeyLoginFailed || !errors.Is(err, shared.ErrInvalidCredentials) {
				t.Errorf("unexpected error %v", err)
			}
		}

		tu.AssertFileNotExists(t, filepath.Join(dir, sessionFile))
		tu.AssertFileNotExists(t, filepath.Join(dir, currentUserFile))
	})

	t.Run("success persists session and current user", func(t *testing.T) {
		svc, _, _, dir := setupService(t)
		if _, err := svc.SignUp(ctx, validForm()); err != nil {
			t.Fatalf("sign up failed: %v", err)
		}

		sess, err := svc.Login(ctx, "bong", "secret")
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		if sess.Tokens.AccessToken == "" || sess.User.Provider != models.ProviderAuth {
			t.Errorf("unexpected session %+v", sess)
		}

		info, err := os.Stat(filepath.Join(dir, sessionFile))
		if err != nil {
			t.Fatalf("session file missing: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("expected 0600, got %o", perm)
		}

		local, err := svc.current.Load()
		if err != nil || local == nil {
			t.Fatalf("current user not stored: %v", err)
		}
		if local.Provider != models.ProviderLocal || local.UserID != "bong" {
			t.Errorf("unexpected local record %+v", local)
		}

		p, err := svc.Verify(ctx, sess.Tokens.AccessToken)
		if err != nil || p.UserID != "bong" {
			t.Errorf("verify failed: %v %+v", err, p)
		}
	})
}

func TestSession(t *testing.T) {
	ctx := context.Background()

	login := func(t *testing.T, svc *Service) *Session {
		t.Helper()
		if _, err := svc.SignUp(ctx, validForm()); err != nil {
			t.Fatalf("sign up failed: %v", err)
		}
		sess, err := svc.Login(ctx, "bong", "secret")
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
		return sess
	}

	t.Run("auto refreshes expired access token", func(t *testing.T) {
		svc, clock, _, _ := setupService(t)
		first := login(t, svc)

		clock.advance(20 * time.Minute)
		sess, err := svc.Session(ctx)
		if err != nil || sess == nil {
			t.Fatalf("expected refreshed session, got %v", err)
		}
		if sess.Tokens.AccessToken == first.Tokens.AccessToken {
			t.Error("access token not rotated")
		}

		stored, _ := svc.store.Read()
		if stored.Tokens.AccessToken != sess.Tokens.AccessToken {
			t.Error("refreshed session not persisted")
		}

		if _, err := svc.Refresh(ctx, first.Tokens.RefreshToken); !errors.Is(err, shared.ErrRefreshFailed) {
			t.Errorf("old refresh token should be revoked, got %v", err)
		}
	})

	t.Run("expired refresh token removes session", func(t *testing.T) {
		svc, clock, _, dir := setupService(t)
		login(t, svc)

		clock.advance(48 * time.Hour)
		sess, err := svc.Session(ctx)
		if err != nil || sess != nil {
			t.Fatalf("expected no session, got %+v %v", sess, err)
		}
		tu.AssertFileNotExists(t, filepath.Join(dir, sessionFile))
	})
}

func TestHydrate(t *testing.T) {
	ctx := context.Background()

	t.Run("session profile wins", func(t *testing.T) {
		svc, _, _, _ := setupService(t)
		if _, err := svc.SignUp(ctx, validForm()); err != nil {
			t.Fatalf("sign up failed: %v", err)
		}
		if _, err := svc.Login(ctx, "bong", "secret"); err != nil {
			t.Fatalf("login failed: %v", err)
		}

		p, err := svc.Hydrate(ctx)
		if err != nil {
			t.Fatalf("hydrate failed: %v", err)
		}
		if p.Provider != models.ProviderAuth || p.UserID != "bong" {
			t.Errorf("unexpected profile %+v", p)
		}
	})

	t.Run("no session clears local record", func(t *testing.T) {
		svc, _, _, dir := setupService(t)
		if err := svc.current.Save(models.Profile{ID: "x", Email: "x@example.com"}); err != nil {
			t.Fatalf("failed to save local record: %v", err)
		}

		_, err := svc.Hydrate(ctx)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		tu.AssertFileNotExists(t, filepath.Join(dir, currentUserFile))
	})

	t.Run("unverifiable session falls back to local record", func(t *testing.T) {
		svc, clock, db, _ := setupService(t)
		if _, err := svc.SignUp(ctx, validForm()); err != nil {
			t.Fatalf("sign up failed: %v", err)
		}
		if _, err := svc.Login(ctx, "bong", "secret"); err != nil {
			t.Fatalf("login failed: %v", err)
		}

		clock.advance(20 * time.Minute)
		db.Close()

		p, err := svc.Hydrate(ctx)
		if err != nil {
			t.Fatalf("hydrate failed: %v", err)
		}
		if p.Provider != models.ProviderLocal || p.UserID != "bong" {
			t.Errorf("unexpected profile %+v", p)
		}
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	svc, _, _, dir := setupService(t)
	if _, err := svc.SignUp(ctx, validForm()); err != nil {
		t.Fatalf("sign up failed: %v", err)
	}
	sess, err := svc.Login(ctx, "bong", "secret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	tu.AssertFileNotExists(t, filepath.Join(dir, sessionFile))
	tu.AssertFileNotExists(t, filepath.Join(dir, currentUserFile))

	if _, err := svc.Refresh(ctx, sess.Tokens.RefreshToken); !errors.Is(err, shared.ErrRefreshFailed) {
		t.Errorf("refresh after logout should fail, got %v", err)
	}

	if err := svc.Logout(ctx); err != nil {
		t.Errorf("second logout should be a no-op, got %v", err)
	}
}
