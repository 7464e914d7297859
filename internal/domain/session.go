// Package domain contains core domain types for the repochat service.
package domain

import (
	"time"
)

// Session binds a user identifier to a GitHub access token.
type Session struct {
	UserID      string    `json:"user_id"`
	AccessToken string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasToken returns true if the session carries a non-empty access token.
func (s *Session) HasToken() bool {
	return s != nil && s.AccessToken != ""
}

// Identity is the "who am I" summary of an authenticated GitHub user.
type Identity struct {
	Login             string `json:"login"`
	Name              string `json:"name,omitempty"`
	PublicRepos       int    `json:"public_repos"`
	OwnedPrivateRepos int64  `json:"owned_private_repos"`
	Followers         int    `json:"followers"`
}

// Summary renders the identity the way the chat surface prints it.
func (i Identity) Summary() string {
	name := i.Name
	if name == "" {
		name = i.Login
	}
	return "Logged in user: " + i.Login + " (" + name + ")"
}
