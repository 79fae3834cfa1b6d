// Package credentials defines the token storage contract consumed by the
// HTTP client and provides an in-memory implementation.
//
// The client never holds tokens itself: it re-reads the store on every
// request, so a login, logout or refresh in one part of the application is
// visible to all in-flight traffic without coordination.
package credentials

import (
	"context"
	"time"
)

// TokenPair holds the credential material returned by login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	// ExpiresAt is the access token expiry; zero when the server did not
	// report one.
	ExpiresAt time.Time
}

// Store is the persisted credential store. Implementations are typically
// backed by the platform keychain; all methods may fail (locked keychain,
// corrupted entry) and callers must treat failures as "no token available",
// never as fatal.
type Store interface {
	// AccessToken returns the stored access token, or "" when none is stored.
	AccessToken(ctx context.Context) (string, error)

	// RefreshToken returns the stored refresh token, or "" when none is stored.
	RefreshToken(ctx context.Context) (string, error)

	// StoreTokens atomically replaces both tokens. expiresIn is the access
	// token lifetime reported by the server; zero means unknown.
	StoreTokens(ctx context.Context, access, refresh string, expiresIn time.Duration) error

	// ClearAll removes all stored credential material. Idempotent.
	ClearAll(ctx context.Context) error
}

// HasTokens reports whether the store holds any credential material. Store
// errors count as absent.
func HasTokens(ctx context.Context, s Store) bool {
	if s == nil {
		return false
	}
	if access, err := s.AccessToken(ctx); err == nil && access != "" {
		return true
	}
	if refresh, err := s.RefreshToken(ctx); err == nil && refresh != "" {
		return true
	}
	return false
}
