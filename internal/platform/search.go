package platform

import (
	"context"

	"github.com/ashureev/repochat/internal/domain"
	"github.com/google/go-github/v66/github"
)

var searchOpts = &github.SearchOptions{ListOptions: github.ListOptions{PerPage: searchLimit}}

// SearchRepos returns up to ten repositories matching query.
func (c *Client) SearchRepos(ctx context.Context, query string) (domain.Result, error) {
	res, _, err := c.gh.Search.Repositories(ctx, query, searchOpts)
	if err != nil {
		return c.fail(err, failure{action: "searching repositories"})
	}
	repos := res.Repositories
	if len(repos) > searchLimit {
		repos = repos[:searchLimit]
	}
	if len(repos) == 0 {
		return domain.OK([]string{}, "No repositories found for '%s'.", query), nil
	}

	names := make([]string, 0, len(repos))
	for _, r := range repos {
		names = append(names, r.GetFullName())
	}
	return domain.OK(names, "Repository search results for '%s':\n%s", query, bulleted(names)), nil
}

// SearchUsers returns up to ten users matching query.
func (c *Client) SearchUsers(ctx context.Context, query string) (domain.Result, error) {
	res, _, err := c.gh.Search.Users(ctx, query, searchOpts)
	if err != nil {
		return c.fail(err, failure{action: "searching users"})
	}
	users := res.Users
	if len(users) > searchLimit {
		users = users[:searchLimit]
	}
	if len(users) == 0 {
		return domain.OK([]string{}, "No users found for '%s'.", query), nil
	}

	logins := make([]string, 0, len(users))
	for _, u := range users {
		logins = append(logins, u.GetLogin())
	}
	return domain.OK(logins, "User search results for '%s':\n%s", query, bulleted(logins)), nil
}
