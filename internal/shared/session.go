package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
)

// SessionHeader carries the session token on every authenticated backend request.
const SessionHeader = "x-access-token"

// Session wraps the saved backend session token along with the username that owns it.
type Session struct {
	Username string        `json:"username,omitempty"`
	Token    *oauth2.Token `json:"token"`
}

// NewSession builds a session from a raw token and an optional expiry.
func NewSession(username, token string, expiry time.Time) *Session {
	return &Session{
		Username: username,
		Token:    &oauth2.Token{AccessToken: token, TokenType: SessionHeader, Expiry: expiry},
	}
}

// SaveSession writes the session as JSON to path with owner-only permissions.
func SaveSession(path string, s *Session) error {
	if s == nil || s.Token == nil || s.Token.AccessToken == "" {
		return fmt.Errorf("%w: empty session token", ErrInvalidInput)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := MarshalJSON(s, true)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// LoadSession reads a session saved by [SaveSession].
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	} else if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if s.Token == nil {
		return nil, ErrNoSession
	}
	return &s, nil
}

// ClearSession removes the saved session. Missing files are not an error.
func ClearSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

// SessionTokenSource returns a token source for path, or nil when no usable session is saved.
func SessionTokenSource(path string) oauth2.TokenSource {
	s, err := LoadSession(path)
	if err != nil || !s.Token.Valid() {
		return nil
	}
	return oauth2.StaticTokenSource(s.Token)
}

// CurrentToken returns the access token from ts, or "" when ts is nil, fails, or holds an expired token.
func CurrentToken(ts oauth2.TokenSource) string {
	if ts == nil {
		return ""
	}
	tok, err := ts.Token()
	if err != nil || !tok.Valid() {
		return ""
	}
	return tok.AccessToken
}
