package operation

import (
	"context"
	"fmt"

	"github.com/ashureev/repochat/internal/domain"
)

// Invoker calls the Platform method bound to an operation with bound arguments.
type Invoker func(ctx context.Context, p Platform, a Args) (domain.Result, error)

// Operation pairs a descriptor with its invoker.
type Operation struct {
	Descriptor
	Invoke Invoker
}

const repoFullNameDesc = "Full name of the repository (e.g. 'owner/repo-name')."

var operations = []Operation{
	// User and authentication.
	{
		Descriptor: Descriptor{
			Name:        "get_user_info",
			Description: "Get the authenticated user's GitHub information.",
		},
		Invoke: func(ctx context.Context, p Platform, _ Args) (domain.Result, error) {
			return p.GetUserInfo(ctx)
		},
	},
	{
		Descriptor: Descriptor{
			Name:        "get_any_user_info",
			Description: "Get public information of any GitHub user.",
			Params:      []Param{requiredString("username", "GitHub username of the user.")},
		},
		Invoke: func(ctx context.Context, p Platform, a Args) (domain.Result, error) {
			return p.GetAnyUserInfo(ctx, a.String("username"))
		},
	},

	// Repositories.
	{
		Descriptor: Descriptor{
			Name:        "list_repos",
			Description: "List all repositories owned by the user.",
			Params: []Param{
				optionalString("visibility", "Visibility of the repositories to list.", "all", "all", "public", "private"),
			},
		},
		Invoke: func(ctx context.Context, p Platform, a Args) (domain.Result, error) {
			return p.ListRepos(ctx, a.String("visibility"))
		},
	},
	{
		Descriptor: Descriptor{
			Name:        "create_repo",
			Description: "Create a new GitHub repository.",
			Params: []Param{
				requiredString("name", "Name of the repository."),
				optionalString("description", "Description of the repository.", ""),
				optionalBool("private", "Whether the repository should be private.", false),
			},
		},
		Invoke: func(ctx context.Context, p Platform, a Args) (domain.Result, error) {
			return p.CreateRepo(ctx, a.String("name"), a.String("description"), a.Bool("private"))
		},
	},
	{
		Descriptor: Descriptor{
			Name:        "delete_repo",
			Description: "Delete a GitHub repository owned by the user.",
			Params:      []Param{requiredString("repo_full_name", "Full name of the repository to delete (e.g. 'username/repo-name').")},
		},
		Invoke: func(ctx context.Context, p Platform, a Args) (domain.Result, error) {
			return p.DeleteRepo(ctx, a.String("repo_full_name"))
		},
	},
	{
		Descriptor: Descriptor{
			Name:        "fork_repo",
			Description: "Fork another user's repository into your account.",
			Params:      []Param{requiredString("repo_full_name", "Full name of the repository to fork (e.g. 'owner/repo-name').")},
		},
		Invoke: func(ctx context.Context, p Platform, a Args) (domain.Result, error) {
			return p.ForkRepo(ctx, a.String("repo_full_name"))
		},
	},
	{
		Descriptor: Descriptor{
			Name:        "get_repo_stats",
			Description: "Get stats (stars, forks, watchers, language) of a repository.",
			Params:      []Param{requiredString("repo_full_name", repoFullNameDesc)},
		},
		Invoke: func(ctx context.Context, p Platform, a Args) (domain.Result, error) {
			return p.GetRepoStats(ctx, a.String("repo_full_name"))
		},
	},

	// Files and content.
	{
		Descriptor: Descriptor{
			Name:        "list_files",
			Description: "List contents of a folder in a repository.",
			Params: []Param{
				requiredString("repo_full_name", repoFullNameDesc),
				optionalString("path", "Path of the folder to view. Leave empty for root.", ""),
			},
		},
		Invoke: func(ctx context.Context, p Platform, a Args) (domain.Result, error) {
			return p.ListFiles(ctx, a.String("repo_full_name"), a.String("path"))
		},
	},
	{
		Descriptor: Descriptor{
			Name:        "get_file_content",
			Description: "Read the content of a file in a repository.",
			Params: []Param{
				requiredString("repo_full_name", repoFullNameDesc),
				requiredString("file_path", "Path of the file to read."),
			},
		},
		Invoke: func(ctx context.Context, p Platform, a Args) (domain.Result, error) {
			return p.GetFileContent(ctx, a.String("repo_full_name"), a.String("file_path"))
		},
	},
	{
		Descriptor: Descriptor{
			Name:        "create_file",
			Description: "Create a new file in a repository.",
			Params: []Param{
				requiredString("repo_full_name", repoFullNameDesc),
				requiredString("file_path", "Path of the file to create."),
				requiredString("commit_message", "Commit message."),
				requiredString("content", "Content of the file."),
			},
		},
		Invoke: func(ctx context.Context, p Platform, a Args) (domain.Result, error) {
			return p.CreateFile(ctx, a.String("repo_full_name"), a.String("file_path"), a.String("commit_message"), a.String("content"))
		},
	},
	{
		Descriptor: Descriptor{
			Name:        "update_file",
			Description: "Update an existing file in a repository.",
			Params: []Param{
				requiredString("repo_full_name", repoFullNameDesc),
				requiredString("file_path", "Path of the file to update."),
				requiredString("commit_message", "Commit message."),
				requiredString("content", "New file content."),
			},
		},
		Invoke: func(ctx context.Context, p Platform, a Args) (domain.Result, error) {
			return p.UpdateFile(ctx, a.String("repo_full_name"), a.String("file_path"), a.String("commit_message"), a.String("content"))
		},
	},
	{
		Descriptor: Descriptor{
			Name:        "delete_file",
			Description: "Delete a file from a repository.",
			Params: []Param{
				requiredString("repo_full_name", repoFullNameDesc),
				requiredString("file_path", "Path of the file to delete."),
				requiredString("commit_message", "Commit message."),
			},
		},
		Invoke: func(ctx context.Context, p Platform, a Args) (domain.Result, error) {
			return p.DeleteFile(ctx, a.String("repo_full_name"), a.String("file_path"), a.String("commit_message"))
		},
	},

	// Collaborators.
	{
		Descriptor: Descriptor{
			Name:        "list_collaborators",
			Description: "List all collaborators of a repository.",
			Params:      []Param{requiredString("repo_full_name", repoFullNameDesc)},
		},
		Invoke: func(ctx context.Context, p Platform, a Args) (domain.Result, error) {
			return p.ListCollaborators(ctx, a.String("repo_full_name"))
		},
	},
	{
		Descriptor: Descriptor{
			Name:        "add_collaborator",
			Description: "Add a collaborator to a repository.",
			Params: []Param{
				requiredString("repo_full_name", repoFullNameDesc),
				requiredString("username", "Username of the collaborator."),
				optionalString("permission", "Permission level to grant.", "push", "pull", "push", "admin"),
			},
		},
		Invoke: func(ctx context.Context, p Platform, a Args) (domain.Result, error) {
			return p.AddCollaborator(ctx, a.String("repo_full_name"), a.String("username"), a.String("permission"))
		},
	},
	{
		Descriptor: Descriptor{
			Name:        "remove_collaborator",
			Description: "Remove a collaborator from a repository.",
			Params: []Param{
				requiredString("repo_full_name", repoFullNameDesc),
				requiredString("username", "Username of the collaborator to remove."),
			},
		},
		Invoke: func(ctx context.Context, p Platform, a Args) (domain.Result, error) {
			return p.RemoveCollaborator(ctx, a.String("repo_full_name"), a.String("username"))
		},
	},

	// Issues.
	{
		Descriptor: Descriptor{
			Name:        "create_issue",
			Description: "Create a new issue in a repository.",
			Params: []Param{
				requiredString("repo_full_name", repoFullNameDesc),
				requiredString("title", "Title of the issue."),
				optionalString("body", "Optional description of the issue.", ""),
				optionalString("assignee", "Username to assign the issue to (optional).", ""),
			},
		},
		Invoke: func(ctx context.Context, p Platform, a Args) (domain.Result, error) {
			return p.CreateIssue(ctx, a.String("repo_full_name"), a.String("title"), a.String("body"), a.String("assignee"))
		},
	},
	{
		Descriptor: Descriptor{
			Name:        "list_issues",
			Description: "List issues of a repository.",
			Params: []Param{
				requiredString("repo_full_name", repoFullNameDesc),
				optionalString("state", "State of the issues to list.", "open", "open", "closed", "all"),
			},
		},
		Invoke: func(ctx context.Context, p Platform, a Args) (domain.Result, error) {
			return p.ListIssues(ctx, a.String("repo_full_name"), a.String("state"))
		},
	},
	{
		Descriptor: Descriptor{
			Name:        "close_issue",
			Description: "Close an issue.",
			Params: []Param{
				requiredString("repo_full_name", repoFullNameDesc),
				requiredInt("issue_number", "Number of the issue to close."),
			},
		},
		Invoke: func(ctx context.Context, p Platform, a Args) (domain.Result, error) {
			return p.CloseIssue(ctx, a.String("repo_full_name"), a.Int("issue_number"))
		},
	},

	// Branches.
	{
		Descriptor: Descriptor{
			Name:        "list_branches",
			Description: "List all branches of a repository.",
			Params:      []Param{requiredString("repo_full_name", repoFullNameDesc)},
		},
		Invoke: func(ctx context.Context, p Platform, a Args) (domain.Result, error) {
			return p.ListBranches(ctx, a.String("repo_full_name"))
		},
	},
	{
		Descriptor: Descriptor{
			Name:        "create_branch",
			Description: "Create a new branch in a repository.",
			Params: []Param{
				requiredString("repo_full_name", repoFullNameDesc),
				requiredString("branch_name", "Name of the new branch."),
				optionalString("source_branch", "Name of the source branch (e.g. 'main').", "main"),
			},
		},
		Invoke: func(ctx context.Context, p Platform, a Args) (domain.Result, error) {
			return p.CreateBranch(ctx, a.String("repo_full_name"), a.String("branch_name"), a.String("source_branch"))
		},
	},

	// Search.
	{
		Descriptor: Descriptor{
			Name:        "search_repos",
			Description: "Search for repositories on GitHub by keyword.",
			Params:      []Param{requiredString("query", "Query or keyword to search for.")},
		},
		Invoke: func(ctx context.Context, p Platform, a Args) (domain.Result, error) {
			return p.SearchRepos(ctx, a.String("query"))
		},
	},
	{
		Descriptor: Descriptor{
			Name:        "search_users",
			Description: "Search for users on GitHub by keyword.",
			Params:      []Param{requiredString("query", "Query or keyword to search for.")},
		},
		Invoke: func(ctx context.Context, p Platform, a Args) (domain.Result, error) {
			return p.SearchUsers(ctx, a.String("query"))
		},
	},
}

var byName = mustIndex(operations)

func mustIndex(ops []Operation) map[string]Operation {
	idx := make(map[string]Operation, len(ops))
	for _, op := range ops {
		if err := op.Validate(); err != nil {
			panic("operation: " + err.Error())
		}
		if op.Invoke == nil {
			panic("operation: " + op.Name + " has no invoker")
		}
		if _, dup := idx[op.Name]; dup {
			panic(fmt.Sprintf("operation: duplicate operation %q", op.Name))
		}
		idx[op.Name] = op
	}
	return idx
}

// Catalog returns every operation descriptor in declaration order.
func Catalog() []Descriptor {
	out := make([]Descriptor, len(operations))
	for i, op := range operations {
		out[i] = op.Descriptor
	}
	return out
}

// Lookup returns the operation with the given name.
func Lookup(name string) (Operation, bool) {
	op, ok := byName[name]
	return op, ok
}
