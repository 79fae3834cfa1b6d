package credentials

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a mutex-guarded in-process Store. It backs tests and
// platforms without a system keychain.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens TokenPair
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// AccessToken returns the stored access token, or "" when none is stored.
func (s *MemoryStore) AccessToken(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.AccessToken, nil
}

// RefreshToken returns the stored refresh token, or "" when none is stored.
func (s *MemoryStore) RefreshToken(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.RefreshToken, nil
}

// StoreTokens atomically replaces both tokens.
func (s *MemoryStore) StoreTokens(_ context.Context, access, refresh string, expiresIn time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = TokenPair{AccessToken: access, RefreshToken: refresh}
	if expiresIn > 0 {
		s.tokens.ExpiresAt = time.Now().Add(expiresIn)
	}
	return nil
}

// ClearAll removes all stored credential material.
func (s *MemoryStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = TokenPair{}
	return nil
}

// Tokens returns a snapshot of the stored pair. Test helper.
func (s *MemoryStore) Tokens() TokenPair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}
