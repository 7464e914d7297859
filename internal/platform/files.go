package platform

import (
	"context"
	"fmt"

	"github.com/ashureev/repochat/internal/domain"
	"github.com/google/go-github/v66/github"
)

// ListFiles lists the entries of a folder. An empty path lists the root.
func (c *Client) ListFiles(ctx context.Context, fullName, path string) (domain.Result, error) {
	repo, err := c.getRepo(ctx, fullName)
	if err != nil {
		return c.fail(err, failure{action: "listing files", notFound: repoLabel(fullName)})
	}

	file, dir, _, err := c.gh.Repositories.GetContents(ctx, repo.GetOwner().GetLogin(), repo.GetName(), path, nil)
	if err != nil {
		return c.fail(err, failure{
			action:   "listing files",
			notFound: fmt.Sprintf("Path '%s' in '%s'", path, repo.GetFullName()),
		})
	}
	if file != nil {
		dir = []*github.RepositoryContent{file}
	}

	entries := make([]map[string]any, 0, len(dir))
	lines := make([]string, 0, len(dir))
	for _, item := range dir {
		entries = append(entries, map[string]any{
			"name": item.GetName(),
			"path": item.GetPath(),
			"type": item.GetType(),
		})
		lines = append(lines, fmt.Sprintf("[%s] %s", item.GetType(), item.GetName()))
	}
	if len(lines) == 0 {
		return domain.OK(entries, "'%s/%s' is empty.", repo.GetFullName(), path), nil
	}
	return domain.OK(entries, "Contents of '%s/%s':\n%s", repo.GetFullName(), path, bulleted(lines)), nil
}

// GetFileContent returns the decoded content of a file.
func (c *Client) GetFileContent(ctx context.Context, fullName, path string) (domain.Result, error) {
	repo, err := c.getRepo(ctx, fullName)
	if err != nil {
		return c.fail(err, failure{action: "reading file", notFound: repoLabel(fullName)})
	}

	file, _, _, err := c.gh.Repositories.GetContents(ctx, repo.GetOwner().GetLogin(), repo.GetName(), path, nil)
	if err != nil {
		return c.fail(err, failure{action: "reading file", notFound: fmt.Sprintf("File '%s'", path)})
	}
	if file == nil {
		return domain.Fail(domain.StatusError, "Error: Is '%s' a folder? I can only read file content.", path), nil
	}

	content, err := file.GetContent()
	if err != nil {
		return domain.Fail(domain.StatusError, "Error reading file '%s': %v", path, err), nil
	}
	return domain.OK(map[string]any{"path": file.GetPath(), "sha": file.GetSHA(), "content": content},
		"--- Content of '%s' ---\n%s", path, content), nil
}

// CreateFile commits a new file.
func (c *Client) CreateFile(ctx context.Context, fullName, path, message, content string) (domain.Result, error) {
	repo, err := c.getRepo(ctx, fullName)
	if err != nil {
		return c.fail(err, failure{action: "creating file", notFound: repoLabel(fullName)})
	}

	_, _, err = c.gh.Repositories.CreateFile(ctx, repo.GetOwner().GetLogin(), repo.GetName(), path, &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: []byte(content),
	})
	if err != nil {
		return c.fail(err, failure{action: "creating file", conflict: fmt.Sprintf("File '%s'", path)})
	}
	return domain.OK(map[string]any{"repository": repo.GetFullName(), "path": path},
		"File '%s' created successfully in '%s'.", path, repo.GetFullName()), nil
}

// UpdateFile replaces the content of an existing file.
func (c *Client) UpdateFile(ctx context.Context, fullName, path, message, content string) (domain.Result, error) {
	repo, err := c.getRepo(ctx, fullName)
	if err != nil {
		return c.fail(err, failure{action: "updating file", notFound: repoLabel(fullName)})
	}
	owner, name := repo.GetOwner().GetLogin(), repo.GetName()

	file, _, _, err := c.gh.Repositories.GetContents(ctx, owner, name, path, nil)
	if err != nil {
		return c.fail(err, failure{action: "updating file", notFound: fmt.Sprintf("File '%s'", path)})
	}
	if file == nil {
		return domain.Fail(domain.StatusError, "Error: '%s' is a folder, not a file.", path), nil
	}

	_, _, err = c.gh.Repositories.UpdateFile(ctx, owner, name, path, &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: []byte(content),
		SHA:     file.SHA,
	})
	if err != nil {
		return c.fail(err, failure{action: "updating file", notFound: fmt.Sprintf("File '%s'", path)})
	}
	return domain.OK(map[string]any{"repository": repo.GetFullName(), "path": path},
		"File '%s' updated successfully in '%s'.", path, repo.GetFullName()), nil
}

// DeleteFile removes a file.
func (c *Client) DeleteFile(ctx context.Context, fullName, path, message string) (domain.Result, error) {
	repo, err := c.getRepo(ctx, fullName)
	if err != nil {
		return c.fail(err, failure{action: "deleting file", notFound: repoLabel(fullName)})
	}
	owner, name := repo.GetOwner().GetLogin(), repo.GetName()

	file, _, _, err := c.gh.Repositories.GetContents(ctx, owner, name, path, nil)
	if err != nil {
		return c.fail(err, failure{action: "deleting file", notFound: fmt.Sprintf("File '%s'", path)})
	}
	if file == nil {
		return domain.Fail(domain.StatusError, "Error: '%s' is a folder, not a file.", path), nil
	}

	_, _, err = c.gh.Repositories.DeleteFile(ctx, owner, name, path, &github.RepositoryContentFileOptions{
		Message: github.String(message),
		SHA:     file.SHA,
	})
	if err != nil {
		return c.fail(err, failure{action: "deleting file", notFound: fmt.Sprintf("File '%s'", path)})
	}
	return domain.OK(map[string]any{"repository": repo.GetFullName(), "path": path},
		"File '%s' deleted successfully.", path), nil
}
