package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/earnpro/rewards-backend/pkg/config"
	redisclient "github.com/earnpro/rewards-backend/pkg/redis"
)

// ErrSessionNotFound is returned when an admin session is missing or expired.
var ErrSessionNotFound = errors.New("admin session not found")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	AdminSessionKey(tokenID string) string
}

// Manager tracks admin sessions in Redis so logout revokes a token before it expires.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// SessionChecker exposes the read-only surface needed by middleware.
type SessionChecker interface {
	HasSession(ctx context.Context, tokenID string) (bool, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.AdminSessionTTL <= 0 {
		return nil, fmt.Errorf("admin session ttl must be positive")
	}
	return &Manager{
		store: client,
		keyer: client,
		ttl:   cfg.AdminSessionTTL,
	}, nil
}

// TTL returns the lifetime applied to new sessions and their tokens.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Start records a new session for username and returns its token id.
func (m *Manager) Start(ctx context.Context, username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("username is required")
	}
	tokenID := NewTokenID()
	if err := m.store.Set(ctx, m.keyer.AdminSessionKey(tokenID), username, m.ttl); err != nil {
		return "", fmt.Errorf("store admin session: %w", err)
	}
	return tokenID, nil
}

// HasSession reports whether the token id still maps to a live session.
func (m *Manager) HasSession(ctx context.Context, tokenID string) (bool, error) {
	if strings.TrimSpace(tokenID) == "" {
		return false, ErrSessionNotFound
	}
	return m.store.Exists(ctx, m.keyer.AdminSessionKey(tokenID))
}

// Revoke deletes the session tied to the token id.
func (m *Manager) Revoke(ctx context.Context, tokenID string) error {
	if strings.TrimSpace(tokenID) == "" {
		return ErrSessionNotFound
	}
	return m.store.Del(ctx, m.keyer.AdminSessionKey(tokenID))
}

// NewTokenID produces the identifier used as the JWT jti and Redis key suffix.
func NewTokenID() string {
	return uuid.NewString()
}
