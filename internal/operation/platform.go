package operation

import (
	"context"

	"github.com/ashureev/repochat/internal/domain"
)

// Platform is the hosting-platform surface every catalog operation is bound to.
// Expected remote failures (not found, conflict, rate limit) are reported in
// the Result; the error return is reserved for unexpected failures.
type Platform interface {
	GetUserInfo(ctx context.Context) (domain.Result, error)
	GetAnyUserInfo(ctx context.Context, username string) (domain.Result, error)

	ListRepos(ctx context.Context, visibility string) (domain.Result, error)
	CreateRepo(ctx context.Context, name, description string, private bool) (domain.Result, error)
	DeleteRepo(ctx context.Context, repoFullName string) (domain.Result, error)
	ForkRepo(ctx context.Context, repoFullName string) (domain.Result, error)
	GetRepoStats(ctx context.Context, repoFullName string) (domain.Result, error)

	ListFiles(ctx context.Context, repoFullName, path string) (domain.Result, error)
	GetFileContent(ctx context.Context, repoFullName, filePath string) (domain.Result, error)
	CreateFile(ctx context.Context, repoFullName, filePath, commitMessage, content string) (domain.Result, error)
	UpdateFile(ctx context.Context, repoFullName, filePath, commitMessage, content string) (domain.Result, error)
	DeleteFile(ctx context.Context, repoFullName, filePath, commitMessage string) (domain.Result, error)

	ListCollaborators(ctx context.Context, repoFullName string) (domain.Result, error)
	AddCollaborator(ctx context.Context, repoFullName, username, permission string) (domain.Result, error)
	RemoveCollaborator(ctx context.Context, repoFullName, username string) (domain.Result, error)

	CreateIssue(ctx context.Context, repoFullName, title, body, assignee string) (domain.Result, error)
	ListIssues(ctx context.Context, repoFullName, state string) (domain.Result, error)
	CloseIssue(ctx context.Context, repoFullName string, number int) (domain.Result, error)

	ListBranches(ctx context.Context, repoFullName string) (domain.Result, error)
	CreateBranch(ctx context.Context, repoFullName, branchName, sourceBranch string) (domain.Result, error)

	SearchRepos(ctx context.Context, query string) (domain.Result, error)
	SearchUsers(ctx context.Context, query string) (domain.Result, error)
}
