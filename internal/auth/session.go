package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Event names the kind of auth state change pushed to listeners.
type Event string

const (
	EventInitialSession Event = "INITIAL_SESSION"
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
)

// Listener receives provider events. session is nil for [EventSignedOut].
type Listener func(event Event, session *Session)

// User is the signed-in identity.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an access token plus the user it belongs to.
type Session struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
	User         User
}

// Token converts the session to an [oauth2.Token].
func (s *Session) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    s.TokenType,
		RefreshToken: s.RefreshToken,
		Expiry:       s.ExpiresAt,
	}
}

// Valid reports whether the access token is present and not about to expire.
//
// A session without an expiry never expires.
func (s *Session) Valid() bool {
	return s != nil && s.Token().Valid()
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// Claims are the access token claims the client reads.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ParseClaims decodes the claims of an access token without verifying its signature.
//
// The backend verifies tokens; the client only needs the subject, email and expiry.
func ParseClaims(accessToken string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil, fmt.Errorf("failed to parse access token: %w", err)
	}
	return claims, nil
}

// fillFromClaims completes missing user and expiry fields from the token claims.
func (s *Session) fillFromClaims() {
	if s.User.ID != "" && s.User.Email != "" && !s.ExpiresAt.IsZero() {
		return
	}

	claims, err := ParseClaims(s.AccessToken)
	if err != nil {
		return
	}

	if s.User.ID == "" {
		s.User.ID = claims.Subject
	}
	if s.User.Email == "" {
		s.User.Email = claims.Email
	}
	if s.ExpiresAt.IsZero() && claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
}

// ProviderError is a failure declared by the auth service.
//
// Message is the service's own text and is shown to users verbatim.
type ProviderError struct {
	Status  int
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// SessionStore persists the current session between runs.
//
// Load returns shared.ErrNoSession when nothing is stored.
type SessionStore interface {
	Load() (*Session, error)
	Save(session *Session) error
	Clear() error
}
