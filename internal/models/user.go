package models

import (
	"fmt"
	"strings"
	"time"
)

// Profile providers.
const (
	ProviderAuth  = "auth"
	ProviderLocal = "local"
)

// User is an account row. The password is only ever held as a bcrypt hash.
type User struct {
	id           string
	sequence     int
	userID       string
	email        string
	name         string
	passwordHash string
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

// NewUser creates a [User] with creation timestamps set to now.
func NewUser(sequence int, userID, email, name, passwordHash string) *User {
	now := time.Now()
	return &User{
		sequence:     sequence,
		userID:       userID,
		email:        email,
		name:         name,
		passwordHash: passwordHash,
		createdAt:    now,
		updatedAt:    now,
	}
}

func (u *User) ID() string            { return u.id }
func (u *User) Sequence() int         { return u.sequence }
func (u *User) UserID() string        { return u.userID }
func (u *User) Email() string         { return u.email }
func (u *User) Name() string          { return u.name }
func (u *User) PasswordHash() string  { return u.passwordHash }
func (u *User) CreatedAt() time.Time  { return u.createdAt }
func (u *User) UpdatedAt() time.Time  { return u.updatedAt }
func (u *User) DeletedAt() *time.Time { return u.deletedAt }

func (u *User) SetID(id string)             { u.id = id }
func (u *User) SetSequence(seq int)         { u.sequence = seq }
func (u *User) SetName(name string)         { u.name = name }
func (u *User) SetEmail(email string)       { u.email = email }
func (u *User) SetPasswordHash(hash string) { u.passwordHash = hash }
func (u *User) SetCreatedAt(t time.Time)    { u.createdAt = t }
func (u *User) SetUpdatedAt(t time.Time)    { u.updatedAt = t }
func (u *User) SetDeletedAt(t *time.Time)   { u.deletedAt = t }

// Validate checks required fields.
func (u *User) Validate() error {
	if strings.TrimSpace(u.userID) == "" {
		return fmt.Errorf("userid is required")
	}
	if !strings.Contains(u.email, "@") {
		return fmt.Errorf("invalid email: %q", u.email)
	}
	if u.passwordHash == "" {
		return fmt.Errorf("password hash is required")
	}
	return nil
}

// Profile returns the public view of u with the given provider.
func (u *User) Profile(provider string) Profile {
	return Profile{ID: u.id, UserID: u.userID, Email: u.email, Name: u.name, Provider: provider}
}

// Profile is the "current user" record shown in the UI and persisted locally.
type Profile struct {
	ID       string `json:"id"`
	UserID   string `json:"userid,omitempty"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Provider string `json:"provider"`
}

// DisplayName returns the name, falling back to the login id and then the email.
func (p Profile) DisplayName() string {
	switch {
	case p.Name != "":
		return p.Name
	case p.UserID != "":
		return p.UserID
	default:
		return p.Email
	}
}
