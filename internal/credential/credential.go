// Package credential keeps the bearer token used by the HTTP client.
package credential

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/opshub/console/internal/storage"
)

// TokenKey is the storage key holding the bearer token.
const TokenKey = "token"

// Store reads and writes the token through a storage.KV. The last token is
// cached so the hot path does not hit the backend on every request.
type Store struct {
	kv storage.KV

	mu     sync.RWMutex
	cached string
	loaded bool
}

func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv}
}

// Token returns the stored token, or "" when none is stored.
func (s *Store) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.loaded {
		tok := s.cached
		s.mu.RUnlock()
		return tok, nil
	}
	s.mu.RUnlock()

	tok, err := s.kv.Get(ctx, TokenKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	s.mu.Lock()
	s.cached, s.loaded = tok, true
	s.mu.Unlock()
	return tok, nil
}

// SetToken persists a new token.
func (s *Store) SetToken(ctx context.Context, token string) error {
	if err := s.kv.Set(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	s.mu.Lock()
	s.cached, s.loaded = token, true
	s.mu.Unlock()
	return nil
}

// Clear removes the stored token.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.cached, s.loaded = "", true
	s.mu.Unlock()
	if err := s.kv.Delete(ctx, TokenKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}

// Invalidate drops the cached token so the next read goes to storage.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.loaded = false
	s.mu.Unlock()
}

// Claims is what the console can learn from a token without the signing key.
type Claims struct {
	Subject   string
	Username  string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Expired reports whether the token has an expiry in the past.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Inspect decodes a JWT without verifying its signature. The backend is the
// authority on validity; this is only for display.
func Inspect(token string) (*Claims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	c := &Claims{}
	c.Subject, _ = claims.GetSubject()
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	for _, key := range []string{"username", "name", "preferred_username"} {
		if v, ok := claims[key].(string); ok && v != "" {
			c.Username = v
			break
		}
	}
	if c.Username == "" {
		c.Username = c.Subject
	}
	return c, nil
}
