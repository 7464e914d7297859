//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"golang.org/x/oauth2"

	"github.com/ashureev/repochat/internal/chat"
	"github.com/ashureev/repochat/internal/domain"
	"github.com/ashureev/repochat/internal/identity"
	"github.com/ashureev/repochat/internal/intent"
	"github.com/ashureev/repochat/internal/oauth"
	"github.com/ashureev/repochat/internal/operation"
	"github.com/ashureev/repochat/internal/platform"
	"github.com/ashureev/repochat/internal/session"
	"github.com/ashureev/repochat/internal/store"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

// fakeGitHub answers the handful of REST calls the server tests need.
// Tokens "gho_<login>" authenticate as <login>.
func fakeGitHub(mux *http.ServeMux) {
	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		login, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer gho_")
		if !ok || login == "revoked" {
			writeBody(w, http.StatusUnauthorized, `{"message":"Bad credentials"}`)
			return
		}
		writeBody(w, http.StatusOK, `{"login":"`+login+`","public_repos":1}`)
	})
	mux.HandleFunc("POST /user/repos", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name string `json:"name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Name == "taken" {
			writeBody(w, http.StatusUnprocessableEntity, `{"message":"Repository creation failed.","errors":[{"resource":"Repository","code":"custom","field":"name","message":"name already exists on this account"}]}`)
			return
		}
		writeBody(w, http.StatusCreated, `{"name":"`+body.Name+`","full_name":"alice/`+body.Name+`"}`)
	})
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		writeBody(w, http.StatusOK, `{"access_token":"gho_`+r.Form.Get("code")+`","token_type":"bearer"}`)
	})
}

func writeBody(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

type testServer struct {
	*httptest.Server
	sessions *session.Manager

	mu       sync.Mutex
	intent   *domain.Intent
	resolves int
}

func (s *testServer) setIntent(in *domain.Intent) {
	s.mu.Lock()
	s.intent = in
	s.mu.Unlock()
}

func (s *testServer) resolveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolves
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	upstream := http.NewServeMux()
	fakeGitHub(upstream)
	gh := httptest.NewServer(upstream)
	t.Cleanup(gh.Close)

	factory := platform.Factory{BaseURL: gh.URL}
	sessions := session.NewManager(store.NewMemory(), factory, 5*time.Second)

	flow, err := oauth.New(oauth.Config{
		ClientID:     "cid",
		ClientSecret: "secret",
		RedirectURL:  "http://127.0.0.1/callback",
		Endpoint: &oauth2.Endpoint{
			AuthURL:   gh.URL + "/authorize",
			TokenURL:  gh.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	})
	if err != nil {
		t.Fatalf("oauth.New failed: %v", err)
	}

	ts := &testServer{sessions: sessions}
	svc := chat.NewService(chat.Config{
		Resolver: intent.Func(func(context.Context, string, []operation.Descriptor) (*domain.Intent, error) {
			ts.mu.Lock()
			defer ts.mu.Unlock()
			ts.resolves++
			return ts.intent, nil
		}),
		Sessions: sessions,
		Open: func(ctx context.Context, token string) (operation.Platform, error) {
			c, err := factory.Open(ctx, token)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		OracleTimeout:   5 * time.Second,
		PlatformTimeout: 5 * time.Second,
	})

	router := NewRouter(RouterConfig{
		DefaultUserID: "main_user",
		Health:        NewHealthHandler(store.NewMemory(), svc.Configured),
		Auth:          NewAuthHandler(flow, sessions),
		Chat:          NewChatHandler(svc),
		WebSocket:     NewWebSocketHandler(svc, nil),
	})
	ts.Server = httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

// login runs /login and /callback for userID, with GitHub handing out gho_<code>.
func (s *testServer) login(t *testing.T, userID, code string) *http.Response {
	t.Helper()
	noRedirect := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := noRedirect.Get(s.URL + "/login?user_id=" + userID)
	if err != nil {
		t.Fatalf("GET /login: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 from /login, got %d", resp.StatusCode)
	}
	loc, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}

	cb, err := http.Get(s.URL + "/callback?code=" + code + "&state=" + url.QueryEscape(loc.Query().Get("state")))
	if err != nil {
		t.Fatalf("GET /callback: %v", err)
	}
	return cb
}

func (s *testServer) chat(t *testing.T, body string) (int, chat.Response) {
	t.Helper()
	resp, err := http.Post(s.URL+"/chat", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST /chat: %v", err)
	}
	defer resp.Body.Close()
	var out chat.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode chat response: %v", err)
	}
	return resp.StatusCode, out
}

func (s *testServer) checkAuth(t *testing.T, userID string) session.Status {
	t.Helper()
	resp, err := http.Get(s.URL + "/check_auth?user_id=" + userID)
	if err != nil {
		t.Fatalf("GET /check_auth: %v", err)
	}
	defer resp.Body.Close()
	var st session.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode check_auth: %v", err)
	}
	return st
}

func TestHome(t *testing.T) {
	s := newTestServer(t)
	resp, err := http.Get(s.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != Liveness {
		t.Errorf("unexpected liveness answer %d %q", resp.StatusCode, body)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp, err := http.Get(s.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	var got struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if resp.StatusCode != http.StatusOK || got.Status != "healthy" {
		t.Errorf("unexpected health %d %+v", resp.StatusCode, got)
	}
	if got.Checks["sessions"] != "ok" || got.Checks["llm"] != "ok" {
		t.Errorf("unexpected checks %v", got.Checks)
	}
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("disk gone") }

func TestHealthDegraded(t *testing.T) {
	w := httptest.NewRecorder()
	NewHealthHandler(failingPinger{}, nil).Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "degraded") {
		t.Errorf("unexpected answer %d %s", w.Code, w.Body.String())
	}
}

func TestCheckAuthUnknownUser(t *testing.T) {
	s := newTestServer(t)
	resp, err := http.Get(s.URL + "/check_auth?user_id=nobody")
	if err != nil {
		t.Fatalf("GET /check_auth: %v", err)
	}
	defer resp.Body.Close()

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if raw["logged_in"] != false {
		t.Errorf("expected logged_in false, got %v", raw)
	}
	if _, ok := raw["error"]; ok {
		t.Errorf("unknown user must not carry an error, got %v", raw)
	}
}

func TestCallbackSecondTokenWins(t *testing.T) {
	s := newTestServer(t)

	for _, code := range []string{"first", "second"} {
		resp := s.login(t, "alice", code)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK || string(body) != MsgLoginSucceeded {
			t.Fatalf("callback %s: %d %q", code, resp.StatusCode, body)
		}
	}

	st := s.checkAuth(t, "alice")
	if !st.LoggedIn || st.User == nil || st.User.Login != "second" {
		t.Errorf("expected second token active, got %+v", st)
	}
}

func TestCallbackRejectsUnknownState(t *testing.T) {
	s := newTestServer(t)
	resp, err := http.Get(s.URL + "/callback?code=x&state=alice.forged")
	if err != nil {
		t.Fatalf("GET /callback: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
	if st := s.checkAuth(t, "alice"); st.LoggedIn {
		t.Error("forged callback must not log anyone in")
	}
}

func TestLoginWithoutOAuth(t *testing.T) {
	h := NewAuthHandler(nil, nil)
	for _, path := range []string{"/login", "/callback"} {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, path, nil)
		if path == "/login" {
			h.Login(w, r)
		} else {
			h.Callback(w, r)
		}
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503, got %d", path, w.Code)
		}
	}
}

func TestCheckAuthRevokedToken(t *testing.T) {
	s := newTestServer(t)
	resp := s.login(t, "alice", "revoked")
	resp.Body.Close()

	st := s.checkAuth(t, "alice")
	if st.LoggedIn || st.Error == "" {
		t.Fatalf("expected revoked token reported, got %+v", st)
	}
	if st := s.checkAuth(t, "alice"); st.Error != "" {
		t.Errorf("revoked session should be gone, got %+v", st)
	}
}

func TestCheckAuthProbeTimeout(t *testing.T) {
	release := make(chan struct{})
	gh := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(gh.Close)
	t.Cleanup(func() { close(release) })

	sessions := session.NewManager(store.NewMemory(), platform.Factory{BaseURL: gh.URL}, 100*time.Millisecond)
	if err := sessions.Begin(context.Background(), "alice", "gho_alice"); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	srv := httptest.NewServer(NewRouter(RouterConfig{Auth: NewAuthHandler(nil, sessions)}))
	t.Cleanup(srv.Close)

	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(srv.URL + "/check_auth?user_id=alice")
	if err != nil {
		t.Fatalf("GET /check_auth should return once the probe times out: %v", err)
	}
	defer resp.Body.Close()

	var st session.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode check_auth: %v", err)
	}
	if st.LoggedIn || st.Error == "" {
		t.Errorf("expected a probe error, got %+v", st)
	}
	if tok, err := sessions.Token(context.Background(), "alice"); err != nil || tok != "gho_alice" {
		t.Errorf("a slow probe must not revoke the session, got %q, %v", tok, err)
	}
}

func TestChatEmptyPrompt(t *testing.T) {
	s := newTestServer(t)
	code, out := s.chat(t, `{"user_id":"alice","prompt":""}`)
	if code != http.StatusBadRequest || out.Response != chat.MsgEmptyPrompt {
		t.Errorf("unexpected answer %d %+v", code, out)
	}
}

func TestChatUnauthenticated(t *testing.T) {
	s := newTestServer(t)
	code, out := s.chat(t, `{"user_id":"alice","prompt":"list my repos"}`)
	if code != http.StatusUnauthorized || out.Response != chat.MsgNotLoggedIn {
		t.Errorf("unexpected answer %d %+v", code, out)
	}
	if n := s.resolveCount(); n != 0 {
		t.Errorf("resolver must not be invoked, got %d calls", n)
	}
}

func TestChatCreateRepo(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "alice", "alice").Body.Close()
	s.setIntent(&domain.Intent{Operation: "create_repo", Args: map[string]any{"name": "demo"}})

	code, out := s.chat(t, `{"user_id":"alice","prompt":"make a repo called demo"}`)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d %+v", code, out)
	}
	if !strings.Contains(out.Response, "demo") || !strings.Contains(out.Response, "created") {
		t.Errorf("unexpected response %q", out.Response)
	}
	if out.Status != domain.StatusOK || out.Operation != "create_repo" {
		t.Errorf("unexpected envelope %+v", out)
	}
}

func TestChatCreateRepoConflict(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "alice", "alice").Body.Close()
	s.setIntent(&domain.Intent{Operation: "create_repo", Args: map[string]any{"name": "taken"}})

	code, out := s.chat(t, `{"user_id":"alice","prompt":"make a repo called taken"}`)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d %+v", code, out)
	}
	if !strings.Contains(out.Response, "might already exist") || out.Status != domain.StatusConflict {
		t.Errorf("unexpected envelope %+v", out)
	}
}

func TestChatClarification(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "alice", "alice").Body.Close()

	code, out := s.chat(t, `{"user_id":"alice","prompt":"what's the weather"}`)
	if code != http.StatusOK || out.Response != chat.MsgClarify || out.Status != domain.StatusClarify {
		t.Errorf("unexpected answer %d %+v", code, out)
	}
}

func TestChatBodyUserIDWins(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "alice", "alice").Body.Close()

	resp, err := http.Post(s.URL+"/chat?user_id=bob", "application/json",
		strings.NewReader(`{"user_id":"alice","prompt":"hello"}`))
	if err != nil {
		t.Fatalf("POST /chat: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected alice's session to be used, got %d", resp.StatusCode)
	}
}

func TestChatInvalidUserID(t *testing.T) {
	s := newTestServer(t)
	code, out := s.chat(t, `{"user_id":"not a valid id","prompt":"hello"}`)
	if code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", code)
	}
	if out.Response != identity.MsgInvalidUserID || out.Status != domain.StatusError {
		t.Errorf("expected chat envelope, got %+v", out)
	}
}

func TestWebSocketChat(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "alice", "alice").Body.Close()
	s.setIntent(&domain.Intent{Operation: "create_repo", Args: map[string]any{"name": "demo"}})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ws, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(s.URL, "http")+"/ws/chat?user_id=alice", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.CloseNow()

	for _, prompt := range []string{"", "create demo"} {
		if err := ws.Write(ctx, websocket.MessageText, []byte(prompt)); err != nil {
			t.Fatalf("write: %v", err)
		}
		_, data, err := ws.Read(ctx)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var reply WSReply
		if err := json.Unmarshal(data, &reply); err != nil {
			t.Fatalf("decode reply: %v", err)
		}
		switch prompt {
		case "":
			if reply.Code != http.StatusBadRequest || reply.Response.Response != chat.MsgEmptyPrompt {
				t.Errorf("unexpected reply to empty prompt %+v", reply)
			}
		default:
			if reply.Code != http.StatusOK || !strings.Contains(reply.Response.Response, "created") {
				t.Errorf("unexpected reply %+v", reply)
			}
		}
	}
	_ = ws.Close(websocket.StatusNormalClosure, "")
}
