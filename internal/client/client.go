// Package client is the terminal front end that talks to the chat server.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
)

// Terminal messages.
const (
	MsgWelcome      = "--- Welcome to the GitHub AI Agent ---"
	MsgGoodbye      = "Goodbye!"
	MsgNotLoggedIn  = "Error: You are not logged in. Please restart the app to authenticate."
	MsgNoResponse   = "No response received."
	msgConnectError = "Failed to connect to the server: %v"
)

const defaultTimeout = 2 * time.Minute

// Client talks to one chat server as one user.
type Client struct {
	server string
	userID string
	http   *http.Client
	useWS  bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithWebSocket sends prompts over /ws/chat instead of POST /chat.
func WithWebSocket(enabled bool) Option {
	return func(c *Client) { c.useWS = enabled }
}

// New creates a client for server acting as userID.
func New(server, userID string, opts ...Option) *Client {
	c := &Client{
		server: strings.TrimRight(server, "/"),
		userID: userID,
		http:   &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthStatus mirrors the server's /check_auth answer.
type AuthStatus struct {
	LoggedIn bool `json:"logged_in"`
	User     *struct {
		Login string `json:"login"`
		Name  string `json:"name"`
	} `json:"user,omitempty"`
	Error string `json:"error,omitempty"`
}

// LoginURL is the browser URL that starts the OAuth flow for this user.
func (c *Client) LoginURL() string {
	return c.server + "/login?" + url.Values{"user_id": {c.userID}}.Encode()
}

// CheckAuth asks the server whether this user is logged in.
func (c *Client) CheckAuth(ctx context.Context) (AuthStatus, error) {
	u := c.server + "/check_auth?" + url.Values{"user_id": {c.userID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return AuthStatus{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return AuthStatus{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return AuthStatus{}, fmt.Errorf("check_auth returned %s", resp.Status)
	}
	var st AuthStatus
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return AuthStatus{}, fmt.Errorf("decode check_auth: %w", err)
	}
	return st, nil
}

// reply is the part of a chat answer the terminal prints.
type reply struct {
	Response string `json:"response"`
	Code     int    `json:"code"`
}

// Chat sends prompt over HTTP and returns the line to show the user.
func (c *Client) Chat(ctx context.Context, prompt string) string {
	body, _ := json.Marshal(map[string]string{"user_id": c.userID, "prompt": prompt})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.server+"/chat", bytes.NewReader(body))
	if err != nil {
		return fmt.Sprintf(msgConnectError, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Sprintf(msgConnectError, err)
	}
	defer resp.Body.Close()

	var r reply
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil && resp.StatusCode < 300 {
		return MsgNoResponse
	}
	return render(resp.StatusCode, r.Response)
}

func render(code int, response string) string {
	switch {
	case code == http.StatusUnauthorized:
		return MsgNotLoggedIn
	case code >= 300:
		if response == "" {
			response = http.StatusText(code)
		}
		return fmt.Sprintf("Server error (%d): %s", code, response)
	case response == "":
		return MsgNoResponse
	default:
		return response
	}
}

// wsSession keeps one websocket open for a whole REPL run.
type wsSession struct {
	conn *websocket.Conn
}

func (c *Client) dialWS(ctx context.Context) (*wsSession, error) {
	u, err := url.Parse(c.server + "/ws/chat")
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.RawQuery = url.Values{"user_id": {c.userID}}.Encode()

	conn, _, err := websocket.Dial(ctx, u.String(), &websocket.DialOptions{HTTPClient: c.http})
	if err != nil {
		return nil, err
	}
	return &wsSession{conn: conn}, nil
}

func (s *wsSession) chat(ctx context.Context, prompt string) string {
	if err := s.conn.Write(ctx, websocket.MessageText, []byte(prompt)); err != nil {
		return fmt.Sprintf(msgConnectError, err)
	}
	_, data, err := s.conn.Read(ctx)
	if err != nil {
		return fmt.Sprintf(msgConnectError, err)
	}
	var r reply
	if err := json.Unmarshal(data, &r); err != nil {
		return MsgNoResponse
	}
	return render(r.Code, r.Response)
}

func (s *wsSession) close() {
	_ = s.conn.Close(websocket.StatusNormalClosure, "bye")
}

// Run checks the login state and then reads prompts from in until exit,
// EOF or ctx cancellation.
func (c *Client) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, MsgWelcome)

	st, err := c.CheckAuth(ctx)
	if err != nil {
		fmt.Fprintf(out, msgConnectError+"\n", err)
		fmt.Fprintln(out, "Did you start the server?")
		return nil
	}
	if !st.LoggedIn {
		if st.Error != "" {
			fmt.Fprintln(out, st.Error)
		}
		fmt.Fprintln(out, "You are not logged in.")
		fmt.Fprintf(out, "Please visit this URL to authenticate: %s\n", c.LoginURL())
		fmt.Fprintln(out, "\nPlease restart this client after logging in.")
		return nil
	}
	login := "Unknown"
	if st.User != nil && st.User.Login != "" {
		login = st.User.Login
	}
	fmt.Fprintf(out, "You are logged in as '%s'.\n", login)

	send := c.Chat
	if c.useWS {
		ws, err := c.dialWS(ctx)
		if err != nil {
			fmt.Fprintf(out, msgConnectError+"\n", err)
			return nil
		}
		defer ws.close()
		send = ws.chat
	}

	fmt.Fprintln(out, "\nYou can start chatting with the bot. Type 'exit' to quit.")

	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-readCtx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, "\nYou: ")
		var prompt string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\n"+MsgGoodbye)
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(out, "\n"+MsgGoodbye)
				return nil
			}
			prompt = strings.TrimSpace(line)
		}

		if strings.EqualFold(prompt, "exit") {
			fmt.Fprintln(out, MsgGoodbye)
			return nil
		}
		if prompt == "" {
			continue
		}

		fmt.Fprintln(out, "Bot: Thinking...")
		answer := send(ctx, prompt)
		if errors.Is(ctx.Err(), context.Canceled) {
			fmt.Fprintln(out, "\n"+MsgGoodbye)
			return nil
		}
		fmt.Fprintf(out, "Bot: %s\n", answer)
	}
}
