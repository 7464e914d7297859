package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ashureev/repochat/internal/domain"
)

const meJSON = `{"login":"me","name":"Me Myself","public_repos":3,"owned_private_repos":1,"followers":2}`

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			writeJSON(w, http.StatusUnauthorized, `{"message":"Bad credentials"}`)
			return
		}
		writeJSON(w, http.StatusOK, meJSON)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := Factory{BaseURL: srv.URL}.Open(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return c
}

func TestOpenEmptyToken(t *testing.T) {
	_, err := Factory{}.Open(context.Background(), "  ")
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
}

func TestOpenDistinguishesRevokedFromProbeFailure(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"revoked", http.StatusUnauthorized, ErrAuthentication},
		{"server error", http.StatusBadGateway, ErrProbeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, `{"message":"nope"}`)
			}))
			defer srv.Close()

			_, err := Factory{BaseURL: srv.URL}.Open(context.Background(), "tok")
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestProbeReturnsIdentity(t *testing.T) {
	mux := http.NewServeMux()
	c := newTestClient(t, mux)

	id := c.Identity()
	if id.Login != "me" || id.PublicRepos != 3 || id.OwnedPrivateRepos != 1 || id.Followers != 2 {
		t.Errorf("unexpected identity: %+v", id)
	}

	res, err := c.GetUserInfo(context.Background())
	if err != nil {
		t.Fatalf("GetUserInfo failed: %v", err)
	}
	if !strings.Contains(res.Message, "Logged in user: me (Me Myself)") {
		t.Errorf("unexpected message: %q", res.Message)
	}
}

func TestCreateRepo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /user/repos", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["name"] != "demo" || body["private"] != true {
			t.Errorf("unexpected request body: %v", body)
		}
		writeJSON(w, http.StatusCreated, `{"name":"demo","full_name":"me/demo","private":true,"html_url":"https://github.com/me/demo"}`)
	})
	c := newTestClient(t, mux)

	res, err := c.CreateRepo(context.Background(), "demo", "", true)
	if err != nil {
		t.Fatalf("CreateRepo failed: %v", err)
	}
	if res.Status != domain.StatusOK {
		t.Fatalf("expected ok, got %+v", res)
	}
	if res.Message != "Repository 'me/demo' created successfully." {
		t.Errorf("unexpected message: %q", res.Message)
	}
}

func TestCreateRepoAlreadyExists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /user/repos", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity,
			`{"message":"Repository creation failed.","errors":[{"resource":"Repository","code":"custom","field":"name","message":"name already exists on this account"}]}`)
	})
	c := newTestClient(t, mux)

	res, err := c.CreateRepo(context.Background(), "demo", "", false)
	if err != nil {
		t.Fatalf("expected result, got error %v", err)
	}
	if res.Status != domain.StatusConflict {
		t.Errorf("expected conflict, got %s", res.Status)
	}
	if !strings.Contains(res.Message, "might already exist") {
		t.Errorf("unexpected message: %q", res.Message)
	}
}

func TestRepoNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/me/missing", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"message":"Not Found"}`)
	})
	c := newTestClient(t, mux)

	res, err := c.GetRepoStats(context.Background(), "me/missing")
	if err != nil {
		t.Fatalf("GetRepoStats failed: %v", err)
	}
	if res.Status != domain.StatusNotFound || res.Message != "Error: Repository 'me/missing' not found." {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestInvalidRepoName(t *testing.T) {
	c := newTestClient(t, http.NewServeMux())

	res, err := c.ListBranches(context.Background(), "no-slash")
	if err != nil {
		t.Fatalf("ListBranches failed: %v", err)
	}
	if res.Status != domain.StatusError || !strings.Contains(res.Message, "owner/repo-name") {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestDeleteRepoRefusesForeignRepository(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/other/lib", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"name":"lib","full_name":"other/lib","owner":{"login":"other"}}`)
	})
	mux.HandleFunc("DELETE /repos/other/lib", func(w http.ResponseWriter, r *http.Request) {
		t.Error("delete must not be sent for a foreign repository")
	})
	c := newTestClient(t, mux)

	res, err := c.DeleteRepo(context.Background(), "other/lib")
	if err != nil {
		t.Fatalf("DeleteRepo failed: %v", err)
	}
	if res.Status != domain.StatusForbidden || res.Message != "Error: You can only delete your own repository." {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestForkAcceptedIsSuccess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/other/lib", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"name":"lib","full_name":"other/lib","owner":{"login":"other"}}`)
	})
	mux.HandleFunc("POST /repos/other/lib/forks", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusAccepted, `{"name":"lib","full_name":"me/lib"}`)
	})
	c := newTestClient(t, mux)

	res, err := c.ForkRepo(context.Background(), "other/lib")
	if err != nil {
		t.Fatalf("ForkRepo failed: %v", err)
	}
	if !res.Succeeded() || !strings.Contains(res.Message, "me/lib") {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestListReposFollowsPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /user/repos", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("affiliation") != "owner" {
			t.Errorf("expected affiliation=owner, got %q", r.URL.RawQuery)
		}
		if r.URL.Query().Get("page") == "2" {
			writeJSON(w, http.StatusOK, `[{"full_name":"me/b"}]`)
			return
		}
		w.Header().Set("Link", `</user/repos?page=2>; rel="next"`)
		writeJSON(w, http.StatusOK, `[{"full_name":"me/a"}]`)
	})
	c := newTestClient(t, mux)

	res, err := c.ListRepos(context.Background(), "all")
	if err != nil {
		t.Fatalf("ListRepos failed: %v", err)
	}
	names, ok := res.Data.([]string)
	if !ok || len(names) != 2 || names[0] != "me/a" || names[1] != "me/b" {
		t.Errorf("expected both pages, got %v", res.Data)
	}
}

func TestGetFileContentDecodes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/me/demo", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"name":"demo","full_name":"me/demo","owner":{"login":"me"}}`)
	})
	mux.HandleFunc("GET /repos/me/demo/contents/README.md", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"type":"file","name":"README.md","path":"README.md","sha":"s1","encoding":"base64","content":"aGVsbG8="}`)
	})
	mux.HandleFunc("GET /repos/me/demo/contents/docs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `[{"type":"file","name":"a.md","path":"docs/a.md"}]`)
	})
	c := newTestClient(t, mux)

	res, err := c.GetFileContent(context.Background(), "me/demo", "README.md")
	if err != nil {
		t.Fatalf("GetFileContent failed: %v", err)
	}
	if !strings.HasSuffix(res.Message, "hello") {
		t.Errorf("expected decoded content, got %q", res.Message)
	}

	res, err = c.GetFileContent(context.Background(), "me/demo", "docs")
	if err != nil {
		t.Fatalf("GetFileContent failed: %v", err)
	}
	if !strings.Contains(res.Message, "a folder") {
		t.Errorf("expected folder hint, got %q", res.Message)
	}
}

func TestUpdateFileSendsCurrentSHA(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/me/demo", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"name":"demo","full_name":"me/demo","owner":{"login":"me"}}`)
	})
	mux.HandleFunc("GET /repos/me/demo/contents/notes.txt", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"type":"file","name":"notes.txt","path":"notes.txt","sha":"old-sha"}`)
	})
	mux.HandleFunc("PUT /repos/me/demo/contents/notes.txt", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["sha"] != "old-sha" {
			t.Errorf("expected sha old-sha, got %v", body["sha"])
		}
		if body["message"] != "edit" {
			t.Errorf("expected commit message, got %v", body["message"])
		}
		writeJSON(w, http.StatusOK, `{"content":{"path":"notes.txt"},"commit":{"sha":"new"}}`)
	})
	c := newTestClient(t, mux)

	res, err := c.UpdateFile(context.Background(), "me/demo", "notes.txt", "edit", "new content")
	if err != nil {
		t.Fatalf("UpdateFile failed: %v", err)
	}
	if !res.Succeeded() {
		t.Errorf("expected ok, got %+v", res)
	}
}

func TestCreateBranchFromSource(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/me/demo", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"name":"demo","full_name":"me/demo","owner":{"login":"me"}}`)
	})
	mux.HandleFunc("GET /repos/me/demo/git/ref/heads/main", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"ref":"refs/heads/main","object":{"sha":"abc123","type":"commit"}}`)
	})
	mux.HandleFunc("POST /repos/me/demo/git/refs", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["ref"] != "refs/heads/feature" || body["sha"] != "abc123" {
			t.Errorf("unexpected ref body: %v", body)
		}
		writeJSON(w, http.StatusCreated, `{"ref":"refs/heads/feature","object":{"sha":"abc123"}}`)
	})
	c := newTestClient(t, mux)

	res, err := c.CreateBranch(context.Background(), "me/demo", "feature", "main")
	if err != nil {
		t.Fatalf("CreateBranch failed: %v", err)
	}
	if res.Message != "Branch 'feature' created successfully from 'main'." {
		t.Errorf("unexpected message: %q", res.Message)
	}
}

func TestCloseIssueNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/me/demo", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"name":"demo","full_name":"me/demo","owner":{"login":"me"}}`)
	})
	mux.HandleFunc("PATCH /repos/me/demo/issues/99", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"message":"Not Found"}`)
	})
	c := newTestClient(t, mux)

	res, err := c.CloseIssue(context.Background(), "me/demo", 99)
	if err != nil {
		t.Fatalf("CloseIssue failed: %v", err)
	}
	if res.Message != "Error: Issue #99 not found." {
		t.Errorf("unexpected message: %q", res.Message)
	}
}

func TestListIssuesSkipsPullRequests(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/me/demo/issues", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != "closed" {
			t.Errorf("expected state=closed, got %q", r.URL.RawQuery)
		}
		writeJSON(w, http.StatusOK, `[
			{"number":1,"title":"bug","state":"closed"},
			{"number":2,"title":"pr","state":"closed","pull_request":{"url":"x"}}
		]`)
	})
	c := newTestClient(t, mux)

	res, err := c.ListIssues(context.Background(), "me/demo", "closed")
	if err != nil {
		t.Fatalf("ListIssues failed: %v", err)
	}
	if !strings.Contains(res.Message, "#1: bug") || strings.Contains(res.Message, "#2") {
		t.Errorf("unexpected message: %q", res.Message)
	}
}

func TestSearchCapsResults(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search/repositories", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "golang" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		items := make([]string, 0, 15)
		for i := 0; i < 15; i++ {
			items = append(items, fmt.Sprintf(`{"full_name":"o/r%d"}`, i))
		}
		writeJSON(w, http.StatusOK, `{"total_count":15,"items":[`+strings.Join(items, ",")+`]}`)
	})
	c := newTestClient(t, mux)

	res, err := c.SearchRepos(context.Background(), "golang")
	if err != nil {
		t.Fatalf("SearchRepos failed: %v", err)
	}
	if names := res.Data.([]string); len(names) != searchLimit {
		t.Errorf("expected %d results, got %d", searchLimit, len(names))
	}
}

func TestRateLimitAndRevokedToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/limited", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", fmt.Sprint(time.Now().Add(time.Hour).Unix()))
		writeJSON(w, http.StatusForbidden, `{"message":"API rate limit exceeded for user."}`)
	})
	mux.HandleFunc("GET /repos/me/demo/branches", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"Bad credentials"}`)
	})
	c := newTestClient(t, mux)

	// Revocation first: a rate limited response blocks later calls client side.
	_, err := c.ListBranches(context.Background(), "me/demo")
	if !errors.Is(err, ErrAuthentication) {
		t.Errorf("expected ErrAuthentication for revoked token, got %v", err)
	}

	res, err := c.GetAnyUserInfo(context.Background(), "limited")
	if err != nil {
		t.Fatalf("GetAnyUserInfo failed: %v", err)
	}
	if res.Status != domain.StatusRateLimited {
		t.Errorf("expected rate_limited, got %+v", res)
	}
}
