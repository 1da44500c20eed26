package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/moviex/internal/models"
	"github.com/desertthunder/moviex/internal/shared"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

const defaultIssuer = "moviex"

// Claims are carried by both token types. Type distinguishes them so a refresh token is never accepted as an
// access token.
type Claims struct {
	UserID string    `json:"userid"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Type   TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// Profile rebuilds the session profile carried by c.
func (c *Claims) Profile() models.Profile {
	return models.Profile{ID: c.Subject, UserID: c.UserID, Email: c.Email, Name: c.Name, Provider: models.ProviderAuth}
}

// TokenPair is an issued access/refresh pair. RefreshID is the refresh token's jti, registered as a session row.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	RefreshID        string    `json:"refresh_id,omitempty"`
}

// TokenService signs and verifies HS256 session tokens.
type TokenService struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	now func() time.Time
}

func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		Secret:     []byte(secret),
		Issuer:     defaultIssuer,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (ts *TokenService) clock() time.Time {
	if ts.now == nil {
		return time.Now()
	}
	return ts.now()
}

// Issue signs a new access and refresh token for p.
func (ts *TokenService) Issue(p models.Profile) (TokenPair, error) {
	now := ts.clock()
	pair := TokenPair{
		AccessExpiresAt:  now.Add(ts.AccessTTL),
		RefreshExpiresAt: now.Add(ts.RefreshTTL),
		RefreshID:        uuid.NewString(),
	}

	var err error
	pair.AccessToken, err = ts.sign(p, AccessToken, uuid.NewString(), now, pair.AccessExpiresAt)
	if err != nil {
		return TokenPair{}, err
	}
	pair.RefreshToken, err = ts.sign(p, RefreshToken, pair.RefreshID, now, pair.RefreshExpiresAt)
	if err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

func (ts *TokenService) sign(p models.Profile, typ TokenType, jti string, now, exp time.Time) (string, error) {
	claims := Claims{
		UserID: p.UserID,
		Name:   p.Name,
		Email:  p.Email,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    ts.Issuer,
			Subject:   p.ID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(ts.Secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return s, nil
}

// Parse verifies tokenString and requires it to be of type typ.
//
// Expired tokens return [shared.ErrTokenExpired]; every other rejection returns [shared.ErrAuthFailed].
func (ts *TokenService) Parse(tokenString string, typ TokenType) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ts.Secret, nil
	}, jwt.WithTimeFunc(ts.clock), jwt.WithIssuer(ts.Issuer))
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, fmt.Errorf("%w: %w", shared.ErrTokenExpired, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parse token: %w", shared.ErrAuthFailed, err)
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", shared.ErrAuthFailed)
	}
	if claims.Type != typ {
		return nil, fmt.Errorf("%w: expected %s token, got %q", shared.ErrAuthFailed, typ, claims.Type)
	}
	return claims, nil
}
