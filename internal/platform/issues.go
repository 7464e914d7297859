package platform

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashureev/repochat/internal/domain"
	"github.com/google/go-github/v66/github"
)

// CreateIssue opens an issue, optionally assigned.
func (c *Client) CreateIssue(ctx context.Context, fullName, title, body, assignee string) (domain.Result, error) {
	owner, name, err := splitRepo(fullName)
	if err != nil {
		return c.fail(err, failure{})
	}
	req := &github.IssueRequest{
		Title: github.String(title),
		Body:  github.String(body),
	}
	if assignee != "" {
		req.Assignee = github.String(assignee)
	}

	issue, _, err := c.gh.Issues.Create(ctx, owner, name, req)
	if err != nil {
		return c.fail(err, failure{action: "creating issue", notFound: repoLabel(fullName)})
	}
	return domain.OK(map[string]any{"number": issue.GetNumber(), "html_url": issue.GetHTMLURL()},
		"Issue #%d ('%s') created successfully.", issue.GetNumber(), issue.GetTitle()), nil
}

// ListIssues lists issues in the given state. Pull requests are skipped.
func (c *Client) ListIssues(ctx context.Context, fullName, state string) (domain.Result, error) {
	owner, name, err := splitRepo(fullName)
	if err != nil {
		return c.fail(err, failure{})
	}
	issues, err := collect(func(lo github.ListOptions) ([]*github.Issue, *github.Response, error) {
		return c.gh.Issues.ListByRepo(ctx, owner, name, &github.IssueListByRepoOptions{State: state, ListOptions: lo})
	})
	if err != nil {
		return c.fail(err, failure{action: "listing issues", notFound: repoLabel(fullName)})
	}

	items := make([]map[string]any, 0, len(issues))
	lines := make([]string, 0, len(issues))
	for _, is := range issues {
		if is.IsPullRequest() {
			continue
		}
		items = append(items, map[string]any{"number": is.GetNumber(), "title": is.GetTitle(), "state": is.GetState()})
		lines = append(lines, fmt.Sprintf("#%d: %s", is.GetNumber(), is.GetTitle()))
	}
	if len(lines) == 0 {
		return domain.OK(items, "No '%s' issues found in '%s'.", state, fullName), nil
	}
	return domain.OK(items, "%s issues in '%s':\n%s", capitalize(state), fullName, bulleted(lines)), nil
}

// CloseIssue closes issue number.
func (c *Client) CloseIssue(ctx context.Context, fullName string, number int) (domain.Result, error) {
	repo, err := c.getRepo(ctx, fullName)
	if err != nil {
		return c.fail(err, failure{action: "closing issue", notFound: repoLabel(fullName)})
	}
	_, _, err = c.gh.Issues.Edit(ctx, repo.GetOwner().GetLogin(), repo.GetName(), number, &github.IssueRequest{
		State: github.String("closed"),
	})
	if err != nil {
		return c.fail(err, failure{action: "closing issue", notFound: fmt.Sprintf("Issue #%d", number)})
	}
	return domain.OK(map[string]any{"number": number}, "Issue #%d closed successfully.", number), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
