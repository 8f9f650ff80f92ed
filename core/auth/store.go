package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/alexedwards/scs/v2"
)

// Scope selects where a bearer token is kept.
type Scope int

const (
	// Durable survives a browser restart.
	Durable Scope = iota
	// SessionOnly ends with the browsing session.
	SessionOnly
)

func (s Scope) String() string {
	if s == Durable {
		return "durable"
	}
	return "session-only"
}

type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

type Stores struct {
	Durable     TokenStore
	SessionOnly TokenStore
}

func (s Stores) scope(sc Scope) TokenStore {
	if sc == Durable {
		return s.Durable
	}
	return s.SessionOnly
}

type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryStore) Token(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryStore) SetToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	return m.SetToken(ctx, "")
}

const tokenKey = "auth_token"

// SessionStore keeps the token in a cookie-bound scs session. The cookie
// settings of the manager decide the scope.
type SessionStore struct {
	sm *scs.SessionManager
}

func NewSessionStore(sm *scs.SessionManager) *SessionStore {
	return &SessionStore{sm: sm}
}

func (s *SessionStore) Token(ctx context.Context) (string, error) {
	return s.sm.GetString(ctx, tokenKey), nil
}

func (s *SessionStore) SetToken(ctx context.Context, token string) error {
	if err := s.sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}
	s.sm.Put(ctx, tokenKey, token)
	return nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	if !s.sm.Exists(ctx, tokenKey) {
		return nil
	}
	s.sm.Remove(ctx, tokenKey)
	if err := s.sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}
	return nil
}
