// Package platform implements the catalog operations against the GitHub REST API.
package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ashureev/repochat/internal/domain"
	"github.com/ashureev/repochat/internal/operation"
	"github.com/google/go-github/v66/github"
)

const (
	pageSize    = 100
	searchLimit = 10
)

var (
	// ErrAuthentication is returned when the token is empty or rejected by GitHub.
	ErrAuthentication = errors.New("github authentication failed")
	// ErrProbeFailed is returned when the identity probe fails for a reason
	// other than a rejected token (network, 5xx, timeout).
	ErrProbeFailed = errors.New("github identity probe failed")
)

// Ensure Client implements every catalog operation.
var _ operation.Platform = (*Client)(nil)

// Client performs authenticated GitHub calls with the token bound at construction.
type Client struct {
	gh   *github.Client
	user *github.User
}

// Factory opens clients against a GitHub API endpoint.
type Factory struct {
	// BaseURL overrides the API root, e.g. a GitHub Enterprise "https://ghe.example.com/api/v3/".
	BaseURL    string
	HTTPClient *http.Client
}

// Open builds a client for token and verifies it with a "who am I" probe.
func (f Factory) Open(ctx context.Context, token string) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: access token not provided", ErrAuthentication)
	}

	gh := github.NewClient(f.HTTPClient).WithAuthToken(token)
	if f.BaseURL != "" {
		u, err := url.Parse(f.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse github base url: %w", err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		gh.BaseURL = u
	}

	user, _, err := gh.Users.Get(ctx, "")
	if err != nil {
		if statusOf(err) == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: token rejected", ErrAuthentication)
		}
		return nil, fmt.Errorf("%w: %v", ErrProbeFailed, err)
	}

	return &Client{gh: gh, user: user}, nil
}

// Probe verifies token and returns the identity it belongs to.
func (f Factory) Probe(ctx context.Context, token string) (domain.Identity, error) {
	c, err := f.Open(ctx, token)
	if err != nil {
		return domain.Identity{}, err
	}
	return c.Identity(), nil
}

// Identity returns the authenticated user's summary captured by the probe.
func (c *Client) Identity() domain.Identity {
	return domain.Identity{
		Login:             c.user.GetLogin(),
		Name:              c.user.GetName(),
		PublicRepos:       c.user.GetPublicRepos(),
		OwnedPrivateRepos: int64(c.user.GetOwnedPrivateRepos()),
		Followers:         c.user.GetFollowers(),
	}
}

// GetUserInfo returns information about the authenticated user.
func (c *Client) GetUserInfo(_ context.Context) (domain.Result, error) {
	id := c.Identity()
	return domain.OK(id,
		"Logged in user: %s (%s)\nPublic Repos: %d\nPrivate Repos (Owned): %d\nFollowers: %d",
		id.Login, displayName(c.user), id.PublicRepos, id.OwnedPrivateRepos, id.Followers), nil
}

// GetAnyUserInfo returns public information of any user.
func (c *Client) GetAnyUserInfo(ctx context.Context, username string) (domain.Result, error) {
	user, _, err := c.gh.Users.Get(ctx, username)
	if err != nil {
		return c.fail(err, failure{action: "fetching user", notFound: fmt.Sprintf("User '%s'", username)})
	}
	data := map[string]any{
		"login":        user.GetLogin(),
		"name":         user.GetName(),
		"bio":          user.GetBio(),
		"public_repos": user.GetPublicRepos(),
		"followers":    user.GetFollowers(),
	}
	return domain.OK(data, "User: %s (%s)\nBio: %s\nPublic Repos: %d\nFollowers: %d",
		user.GetLogin(), displayName(user), orNone(user.GetBio()), user.GetPublicRepos(), user.GetFollowers()), nil
}

func displayName(u *github.User) string {
	if u.GetName() != "" {
		return u.GetName()
	}
	return u.GetLogin()
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}

// splitRepo splits "owner/name".
func splitRepo(fullName string) (string, string, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(fullName), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("%w: %q (expected 'owner/repo-name')", errInvalidRepoName, fullName)
	}
	return owner, name, nil
}

// getRepo fetches a repository by full name.
func (c *Client) getRepo(ctx context.Context, fullName string) (*github.Repository, error) {
	owner, name, err := splitRepo(fullName)
	if err != nil {
		return nil, err
	}
	repo, _, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func repoLabel(fullName string) string {
	return fmt.Sprintf("Repository '%s'", fullName)
}

// collect pages through a list endpoint until GitHub reports no next page.
func collect[T any](list func(opts github.ListOptions) ([]T, *github.Response, error)) ([]T, error) {
	opts := github.ListOptions{PerPage: pageSize}
	var all []T
	for {
		page, resp, err := list(opts)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if resp == nil || resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}
