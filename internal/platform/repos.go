package platform

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ashureev/repochat/internal/domain"
	"github.com/google/go-github/v66/github"
)

// ListRepos lists repositories owned by the authenticated user.
func (c *Client) ListRepos(ctx context.Context, visibility string) (domain.Result, error) {
	repos, err := collect(func(lo github.ListOptions) ([]*github.Repository, *github.Response, error) {
		return c.gh.Repositories.ListByAuthenticatedUser(ctx, &github.RepositoryListByAuthenticatedUserOptions{
			Visibility:  visibility,
			Affiliation: "owner",
			ListOptions: lo,
		})
	})
	if err != nil {
		return c.fail(err, failure{action: "listing repositories"})
	}
	if len(repos) == 0 {
		return domain.OK([]string{}, "You have no '%s' repositories.", visibility), nil
	}

	names := make([]string, 0, len(repos))
	for _, r := range repos {
		names = append(names, r.GetFullName())
	}
	return domain.OK(names, "Your %s repositories:\n%s", visibility, bulleted(names)), nil
}

// CreateRepo creates a repository under the authenticated user.
func (c *Client) CreateRepo(ctx context.Context, name, description string, private bool) (domain.Result, error) {
	repo, _, err := c.gh.Repositories.Create(ctx, "", &github.Repository{
		Name:        github.String(name),
		Description: github.String(description),
		Private:     github.Bool(private),
	})
	if err != nil {
		return c.fail(err, failure{
			action:   "creating repository",
			conflict: fmt.Sprintf("Repository with name '%s'", name),
		})
	}
	data := map[string]any{
		"full_name": repo.GetFullName(),
		"html_url":  repo.GetHTMLURL(),
		"private":   repo.GetPrivate(),
	}
	return domain.OK(data, "Repository '%s' created successfully.", repo.GetFullName()), nil
}

// DeleteRepo deletes a repository, refusing repositories the user does not own.
func (c *Client) DeleteRepo(ctx context.Context, fullName string) (domain.Result, error) {
	repo, err := c.getRepo(ctx, fullName)
	if err != nil {
		return c.fail(err, failure{action: "deleting repository", notFound: repoLabel(fullName)})
	}
	if !strings.EqualFold(repo.GetOwner().GetLogin(), c.user.GetLogin()) {
		return domain.Fail(domain.StatusForbidden, "Error: You can only delete your own repository."), nil
	}
	if _, err := c.gh.Repositories.Delete(ctx, repo.GetOwner().GetLogin(), repo.GetName()); err != nil {
		return c.fail(err, failure{action: "deleting repository", notFound: repoLabel(fullName)})
	}
	return domain.OK(nil, "Repository '%s' deleted successfully.", repo.GetFullName()), nil
}

// ForkRepo forks a repository into the authenticated user's account.
func (c *Client) ForkRepo(ctx context.Context, fullName string) (domain.Result, error) {
	repo, err := c.getRepo(ctx, fullName)
	if err != nil {
		return c.fail(err, failure{action: "forking repository", notFound: repoLabel(fullName)})
	}

	fork, _, err := c.gh.Repositories.CreateFork(ctx, repo.GetOwner().GetLogin(), repo.GetName(), &github.RepositoryCreateForkOptions{})
	if err != nil {
		// GitHub creates forks asynchronously and answers 202.
		var accepted *github.AcceptedError
		if !errors.As(err, &accepted) {
			return c.fail(err, failure{action: "forking repository", notFound: repoLabel(fullName)})
		}
	}

	forkName := fork.GetFullName()
	if forkName == "" {
		forkName = c.user.GetLogin() + "/" + repo.GetName()
	}
	return domain.OK(map[string]any{"full_name": forkName},
		"Repository '%s' successfully forked as '%s'.", repo.GetFullName(), forkName), nil
}

// GetRepoStats reports stars, forks, watchers and language.
func (c *Client) GetRepoStats(ctx context.Context, fullName string) (domain.Result, error) {
	repo, err := c.getRepo(ctx, fullName)
	if err != nil {
		return c.fail(err, failure{action: "fetching repository", notFound: repoLabel(fullName)})
	}
	data := map[string]any{
		"stars":    repo.GetStargazersCount(),
		"forks":    repo.GetForksCount(),
		"watchers": repo.GetSubscribersCount(),
		"language": repo.GetLanguage(),
	}
	return domain.OK(data, "Stats for '%s':\n  - Stars: %d\n  - Forks: %d\n  - Watchers: %d\n  - Language: %s",
		repo.GetFullName(), repo.GetStargazersCount(), repo.GetForksCount(), repo.GetSubscribersCount(), orNone(repo.GetLanguage())), nil
}

// ListBranches lists the branches of a repository.
func (c *Client) ListBranches(ctx context.Context, fullName string) (domain.Result, error) {
	owner, name, err := splitRepo(fullName)
	if err != nil {
		return c.fail(err, failure{})
	}
	branches, err := collect(func(lo github.ListOptions) ([]*github.Branch, *github.Response, error) {
		return c.gh.Repositories.ListBranches(ctx, owner, name, &github.BranchListOptions{ListOptions: lo})
	})
	if err != nil {
		return c.fail(err, failure{action: "listing branches", notFound: repoLabel(fullName)})
	}
	if len(branches) == 0 {
		return domain.OK([]string{}, "No branches found in '%s'.", fullName), nil
	}

	names := make([]string, 0, len(branches))
	for _, b := range branches {
		names = append(names, b.GetName())
	}
	return domain.OK(names, "Branches in '%s':\n%s", fullName, bulleted(names)), nil
}

// CreateBranch creates branch from the head of source.
func (c *Client) CreateBranch(ctx context.Context, fullName, branch, source string) (domain.Result, error) {
	repo, err := c.getRepo(ctx, fullName)
	if err != nil {
		return c.fail(err, failure{action: "creating branch", notFound: repoLabel(fullName)})
	}
	owner, name := repo.GetOwner().GetLogin(), repo.GetName()

	ref, _, err := c.gh.Git.GetRef(ctx, owner, name, "heads/"+source)
	if err != nil {
		return c.fail(err, failure{
			action:   "creating branch",
			notFound: fmt.Sprintf("Source branch '%s' in '%s'", source, repo.GetFullName()),
		})
	}

	_, _, err = c.gh.Git.CreateRef(ctx, owner, name, &github.Reference{
		Ref:    github.String("refs/heads/" + branch),
		Object: &github.GitObject{SHA: ref.GetObject().SHA},
	})
	if err != nil {
		return c.fail(err, failure{
			action:   "creating branch",
			conflict: fmt.Sprintf("Branch '%s'", branch),
		})
	}
	return domain.OK(map[string]any{"branch": branch, "source": source, "sha": ref.GetObject().GetSHA()},
		"Branch '%s' created successfully from '%s'.", branch, source), nil
}

func bulleted(items []string) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(item)
	}
	return b.String()
}
