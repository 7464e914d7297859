// Package session tracks which user is logged in to GitHub and with which token.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/repochat/internal/domain"
	"github.com/ashureev/repochat/internal/platform"
	"github.com/ashureev/repochat/internal/store"
)

// ErrNotLoggedIn is returned when a user has no stored token.
var ErrNotLoggedIn = errors.New("not logged in")

// Prober verifies a token and returns the identity it belongs to.
type Prober interface {
	Probe(ctx context.Context, token string) (domain.Identity, error)
}

// Status is the answer to "is this user logged in".
type Status struct {
	LoggedIn bool             `json:"logged_in"`
	User     *domain.Identity `json:"user,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// Manager implements the LoggedOut -> LoggedIn -> LoggedOut lifecycle on top
// of a session store.
type Manager struct {
	store        store.Sessions
	prober       Prober
	probeTimeout time.Duration
	now          func() time.Time
}

const defaultProbeTimeout = 30 * time.Second

// NewManager creates a session manager. probeTimeout bounds each token
// probe; zero or negative means 30s.
func NewManager(s store.Sessions, p Prober, probeTimeout time.Duration) *Manager {
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}
	return &Manager{store: s, prober: p, probeTimeout: probeTimeout, now: time.Now}
}

// Begin stores token for userID, replacing any previous token.
func (m *Manager) Begin(ctx context.Context, userID, token string) error {
	now := m.now()
	err := m.store.Put(ctx, &domain.Session{
		UserID:      userID,
		AccessToken: token,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	slog.Info("user logged in", "user_id", userID)
	return nil
}

// Token returns the stored token for userID.
func (m *Manager) Token(ctx context.Context, userID string) (string, error) {
	s, err := m.store.Get(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if !s.HasToken() {
		return "", ErrNotLoggedIn
	}
	return s.AccessToken, nil
}

// Check probes the stored token. A token GitHub rejects is revoked; any
// other probe failure leaves the session in place.
func (m *Manager) Check(ctx context.Context, userID string) Status {
	token, err := m.Token(ctx, userID)
	if errors.Is(err, ErrNotLoggedIn) {
		return Status{LoggedIn: false}
	}
	if err != nil {
		slog.Error("session lookup failed", "user_id", userID, "error", err)
		return Status{LoggedIn: false, Error: err.Error()}
	}

	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()

	id, err := m.prober.Probe(probeCtx, token)
	switch {
	case err == nil:
		return Status{LoggedIn: true, User: &id}
	case errors.Is(err, platform.ErrAuthentication):
		if rerr := m.Revoke(context.WithoutCancel(ctx), userID); rerr != nil {
			slog.Error("failed to revoke session", "user_id", userID, "error", rerr)
		}
		return Status{LoggedIn: false, Error: "GitHub token is no longer valid. Please log in again."}
	default:
		slog.Warn("token probe failed", "user_id", userID, "error", err)
		return Status{LoggedIn: false, Error: err.Error()}
	}
}

// Revoke forgets the token for userID.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if err := m.store.Invalidate(ctx, userID); err != nil {
		return fmt.Errorf("invalidate session: %w", err)
	}
	slog.Info("session revoked", "user_id", userID)
	return nil
}
