// Package store provides session persistence interfaces and implementations.
package store

import (
	"context"
	"fmt"

	"github.com/ashureev/repochat/internal/domain"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Sessions persists the user ID to access token binding.
type Sessions interface {
	// Get returns the session for userID, or nil if none exists.
	Get(ctx context.Context, userID string) (*domain.Session, error)

	// Put creates or overwrites the session for session.UserID.
	Put(ctx context.Context, session *domain.Session) error

	// Invalidate removes the session for userID. Removing an absent session is not an error.
	Invalidate(ctx context.Context, userID string) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Open returns the backend named by kind. path is only used by sqlite.
func Open(kind, path string) (Sessions, error) {
	switch kind {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendSQLite:
		s, err := NewSQLite(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown session store %q", kind)
	}
}
