// Package identity resolves which chat user a request acts for.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/ashureev/repochat/internal/domain"
)

const (
	// HeaderName carries the user ID for clients that prefer headers over query strings.
	HeaderName = "X-User-ID"
	// QueryParam is the query string key for the user ID.
	QueryParam = "user_id"
	// DefaultUserID is used when a request names no user.
	DefaultUserID = "main_user"
)

// ErrInvalidUserID is returned for user IDs outside the allowed alphabet.
var ErrInvalidUserID = errors.New("invalid user_id")

// MsgInvalidUserID is the reply text for a rejected user ID.
const MsgInvalidUserID = "Invalid user_id. Use letters, digits, '.', '_', ':' or '-' (at most 128)."

type contextKey int

const userIDKey contextKey = iota

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// UserIDFromContext extracts the user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// WithUserID returns a context carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Normalize trims id and applies fallback when it is empty. Non-empty IDs
// must match the allowed pattern.
func Normalize(id, fallback string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		id = fallback
	}
	if !userIDPattern.MatchString(id) {
		return "", ErrInvalidUserID
	}
	return id, nil
}

func userIDFromRequest(r *http.Request) string {
	if id := r.URL.Query().Get(QueryParam); id != "" {
		return id
	}
	return r.Header.Get(HeaderName)
}

// Middleware resolves the user ID from the query string or header, falling
// back to defaultID, and stores it in the request context.
func Middleware(defaultID string) func(http.Handler) http.Handler {
	if defaultID == "" {
		defaultID = DefaultUserID
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := Normalize(userIDFromRequest(r), defaultID)
			if err != nil {
				WriteInvalid(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WriteInvalid answers 400 with the chat reply envelope, so clients that
// read "response" show the reason.
func WriteInvalid(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"response": MsgInvalidUserID,
		"status":   string(domain.StatusError),
		"error":    ErrInvalidUserID.Error(),
	})
}
