package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/earnpro/rewards-backend/pkg/config"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.data[key]
	return ok, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AdminSessionKey(tokenID string) string {
	return "sess:" + tokenID
}

func TestManagerStartCheckRevoke(t *testing.T) {
	store := newMockStore()
	manager := &Manager{store: store, keyer: store, ttl: time.Hour}
	ctx := context.Background()

	tokenID, err := manager.Start(ctx, "admin")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := store.data[store.AdminSessionKey(tokenID)]; got != "admin" {
		t.Fatalf("expected stored username, got %q", got)
	}
	if got := store.ttls[store.AdminSessionKey(tokenID)]; got != time.Hour {
		t.Fatalf("expected ttl 1h, got %v", got)
	}

	ok, err := manager.HasSession(ctx, tokenID)
	if err != nil || !ok {
		t.Fatalf("expected live session, ok=%v err=%v", ok, err)
	}

	if err := manager.Revoke(ctx, tokenID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err = manager.HasSession(ctx, tokenID)
	if err != nil || ok {
		t.Fatalf("expected revoked session, ok=%v err=%v", ok, err)
	}
}

func TestManagerRejectsBlankInput(t *testing.T) {
	store := newMockStore()
	manager := &Manager{store: store, keyer: store, ttl: time.Hour}
	ctx := context.Background()

	if _, err := manager.Start(ctx, " "); err == nil {
		t.Fatal("expected username error")
	}
	if _, err := manager.HasSession(ctx, ""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := manager.Revoke(ctx, ""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestManagerStartPropagatesStoreError(t *testing.T) {
	store := newMockStore()
	store.err = errors.New("redis down")
	manager := &Manager{store: store, keyer: store, ttl: time.Hour}

	if _, err := manager.Start(context.Background(), "admin"); err == nil {
		t.Fatal("expected store error")
	}
}

func TestNewManagerValidates(t *testing.T) {
	if _, err := NewManager(nil, config.JWTConfig{AdminSessionTTL: time.Hour}); err == nil {
		t.Fatal("expected error for nil client")
	}
}
