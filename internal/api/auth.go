package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/repochat/internal/identity"
	"github.com/ashureev/repochat/internal/oauth"
	"github.com/ashureev/repochat/internal/session"
)

// Plain text callback answers.
const (
	MsgLoginSucceeded = "Authentication successful! You can close this window and return to the client."
	MsgLoginFailed    = "Failed to obtain access token. Please try again."
	MsgLoginExpired   = "This login link is invalid or has expired. Please start again from /login."
	msgOAuthDisabled  = "GitHub login is not configured on this server."
)

// Authorizer runs the OAuth web flow.
type Authorizer interface {
	AuthURL(userID string) string
	Exchange(ctx context.Context, code, state string) (userID, token string, err error)
}

// SessionManager is the session lifecycle used by the auth endpoints.
type SessionManager interface {
	Begin(ctx context.Context, userID, token string) error
	Check(ctx context.Context, userID string) session.Status
}

// AuthHandler serves /login, /callback and /check_auth.
type AuthHandler struct {
	oauth    Authorizer
	sessions SessionManager
}

// NewAuthHandler creates an auth handler. A nil authorizer disables
// /login and /callback.
func NewAuthHandler(a Authorizer, sessions SessionManager) *AuthHandler {
	return &AuthHandler{oauth: a, sessions: sessions}
}

// RegisterRoutes registers auth routes.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/login", h.Login)
	r.Get("/callback", h.Callback)
	r.Get("/check_auth", h.CheckAuth)
}

// Login redirects the browser to GitHub's authorization page.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.oauth == nil {
		Text(w, http.StatusServiceUnavailable, msgOAuthDisabled)
		return
	}
	userID := identity.UserIDFromContext(r.Context())
	slog.Info("login started", "user_id", userID)
	http.Redirect(w, r, h.oauth.AuthURL(userID), http.StatusFound)
}

// Callback completes the OAuth flow and stores the token.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if h.oauth == nil {
		Text(w, http.StatusServiceUnavailable, msgOAuthDisabled)
		return
	}

	q := r.URL.Query()
	userID, token, err := h.oauth.Exchange(r.Context(), q.Get("code"), q.Get("state"))
	if errors.Is(err, oauth.ErrInvalidState) {
		slog.Warn("oauth callback with unknown state")
		Text(w, http.StatusBadRequest, MsgLoginExpired)
		return
	}
	if err != nil {
		slog.Error("oauth exchange failed", "error", err)
		Text(w, http.StatusBadRequest, MsgLoginFailed)
		return
	}

	if err := h.sessions.Begin(r.Context(), userID, token); err != nil {
		slog.Error("failed to store session", "user_id", userID, "error", err)
		Text(w, http.StatusInternalServerError, MsgLoginFailed)
		return
	}
	Text(w, http.StatusOK, MsgLoginSucceeded)
}

// CheckAuth reports whether the requesting user holds a working token.
func (h *AuthHandler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	JSON(w, http.StatusOK, h.sessions.Check(r.Context(), userID))
}
