package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/desertthunder/moviex/internal/models"
)

const (
	sessionFile     = "session.json"
	currentUserFile = "app-user.json"
)

// Session is the persisted login: the token pair and the profile it was issued for.
type Session struct {
	Tokens TokenPair      `json:"tokens"`
	User   models.Profile `json:"user"`
}

// SessionStore persists the [Session] as session.json in its directory.
type SessionStore struct {
	path string
}

func NewSessionStore(dir string) *SessionStore {
	return &SessionStore{path: filepath.Join(dir, sessionFile)}
}

func (s *SessionStore) Path() string { return s.path }

// Read returns the stored session, or nil when none exists.
func (s *SessionStore) Read() (*Session, error) {
	var sess Session
	ok, err := readJSON(s.path, &sess)
	if err != nil || !ok {
		return nil, err
	}
	return &sess, nil
}

func (s *SessionStore) Save(sess *Session) error { return writeJSON(s.path, sess) }

func (s *SessionStore) Clear() error { return removeFile(s.path) }

// CurrentUserStore persists the locally known [models.Profile] as app-user.json.
type CurrentUserStore struct {
	path string
}

func NewCurrentUserStore(dir string) *CurrentUserStore {
	return &CurrentUserStore{path: filepath.Join(dir, currentUserFile)}
}

func (c *CurrentUserStore) Path() string { return c.path }

// Load returns the stored profile, or nil when none exists.
func (c *CurrentUserStore) Load() (*models.Profile, error) {
	var p models.Profile
	ok, err := readJSON(c.path, &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

// Save stores p with the local provider.
func (c *CurrentUserStore) Save(p models.Profile) error {
	p.Provider = models.ProviderLocal
	return writeJSON(c.path, p)
}

func (c *CurrentUserStore) Clear() error { return removeFile(c.path) }

func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", filepath.Base(path), err)
	}
	return nil
}
