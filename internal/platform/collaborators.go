package platform

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ashureev/repochat/internal/domain"
	"github.com/google/go-github/v66/github"
)

// ListCollaborators lists the collaborators of a repository.
func (c *Client) ListCollaborators(ctx context.Context, fullName string) (domain.Result, error) {
	owner, name, err := splitRepo(fullName)
	if err != nil {
		return c.fail(err, failure{})
	}
	users, err := collect(func(lo github.ListOptions) ([]*github.User, *github.Response, error) {
		return c.gh.Repositories.ListCollaborators(ctx, owner, name, &github.ListCollaboratorsOptions{ListOptions: lo})
	})
	if err != nil {
		return c.fail(err, failure{action: "listing collaborators", notFound: repoLabel(fullName)})
	}
	if len(users) == 0 {
		return domain.OK([]string{}, "No collaborators found in '%s'.", fullName), nil
	}

	logins := make([]string, 0, len(users))
	for _, u := range users {
		logins = append(logins, u.GetLogin())
	}
	return domain.OK(logins, "Collaborators in '%s':\n%s", fullName, bulleted(logins)), nil
}

// AddCollaborator invites username with the given permission.
func (c *Client) AddCollaborator(ctx context.Context, fullName, username, permission string) (domain.Result, error) {
	owner, name, err := splitRepo(fullName)
	if err != nil {
		return c.fail(err, failure{})
	}
	inv, resp, err := c.gh.Repositories.AddCollaborator(ctx, owner, name, username, &github.RepositoryAddCollaboratorOptions{
		Permission: permission,
	})
	if err != nil {
		return c.fail(err, failure{
			action:   "adding collaborator",
			notFound: fmt.Sprintf("Repository '%s' or user '%s'", fullName, username),
		})
	}
	// GitHub answers 204 without an invitation when the user already has access.
	if resp != nil && resp.StatusCode == http.StatusNoContent {
		return domain.OK(nil, "User '%s' is already a collaborator in '%s'.", username, fullName), nil
	}
	return domain.OK(map[string]any{"invitation_id": inv.GetID(), "permission": permission},
		"Invitation sent to user '%s' as collaborator in '%s'.", username, fullName), nil
}

// RemoveCollaborator revokes username's access.
func (c *Client) RemoveCollaborator(ctx context.Context, fullName, username string) (domain.Result, error) {
	owner, name, err := splitRepo(fullName)
	if err != nil {
		return c.fail(err, failure{})
	}
	if _, err := c.gh.Repositories.RemoveCollaborator(ctx, owner, name, username); err != nil {
		return c.fail(err, failure{
			action:   "removing collaborator",
			notFound: fmt.Sprintf("Repository '%s' or user '%s'", fullName, username),
		})
	}
	return domain.OK(nil, "User '%s' removed as collaborator from '%s'.", username, fullName), nil
}
