// Package oauth runs the GitHub OAuth web flow that yields per-user access tokens.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"
)

var (
	// ErrInvalidState is returned for unknown, reused or expired login states.
	ErrInvalidState = errors.New("invalid or expired oauth state")
	// ErrNotConfigured is returned when the OAuth app credentials are missing.
	ErrNotConfigured = errors.New("oauth not configured")
)

// Scopes requested from GitHub.
var Scopes = []string{"repo", "delete_repo", "user"}

const defaultStateTTL = 10 * time.Minute

// Config configures the OAuth app.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	StateTTL     time.Duration
	// Endpoint overrides GitHub's endpoint (GitHub Enterprise, tests).
	Endpoint *oauth2.Endpoint
}

type pendingLogin struct {
	userID  string
	expires time.Time
}

// Flow issues authorization URLs and exchanges callback codes for tokens.
type Flow struct {
	conf *oauth2.Config
	ttl  time.Duration
	now  func() time.Time

	mu     sync.Mutex
	states map[string]pendingLogin
}

// New creates a Flow.
func New(cfg Config) (*Flow, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET are required", ErrNotConfigured)
	}
	endpoint := githuboauth.Endpoint
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}
	ttl := cfg.StateTTL
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	return &Flow{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       Scopes,
			Endpoint:     endpoint,
		},
		ttl:    ttl,
		now:    time.Now,
		states: make(map[string]pendingLogin),
	}, nil
}

// AuthURL returns the GitHub authorization URL for userID. The state
// parameter is "<user_id>.<nonce>" and can be redeemed once.
func (f *Flow) AuthURL(userID string) string {
	state := userID + "." + uuid.NewString()

	f.mu.Lock()
	now := f.now()
	f.pruneLocked(now)
	f.states[state] = pendingLogin{userID: userID, expires: now.Add(f.ttl)}
	f.mu.Unlock()

	return f.conf.AuthCodeURL(state)
}

// Exchange redeems state and trades code for an access token.
func (f *Flow) Exchange(ctx context.Context, code, state string) (userID, token string, err error) {
	userID, err = f.consume(state)
	if err != nil {
		return "", "", err
	}
	if strings.TrimSpace(code) == "" {
		return "", "", errors.New("authorization code missing")
	}

	tok, err := f.conf.Exchange(ctx, code)
	if err != nil {
		return "", "", fmt.Errorf("exchange code: %w", err)
	}
	if tok.AccessToken == "" {
		return "", "", errors.New("token response carried no access token")
	}
	return userID, tok.AccessToken, nil
}

func (f *Flow) consume(state string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.states[state]
	if !ok {
		return "", ErrInvalidState
	}
	delete(f.states, state)
	if f.now().After(p.expires) {
		return "", ErrInvalidState
	}
	return p.userID, nil
}

func (f *Flow) pruneLocked(now time.Time) {
	for s, p := range f.states {
		if now.After(p.expires) {
			delete(f.states, s)
		}
	}
}
