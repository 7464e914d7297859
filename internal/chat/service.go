// Package chat turns a user's prompt into exactly one GitHub operation.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ashureev/repochat/internal/domain"
	"github.com/ashureev/repochat/internal/intent"
	"github.com/ashureev/repochat/internal/operation"
	"github.com/ashureev/repochat/internal/platform"
	"github.com/ashureev/repochat/internal/session"
)

// User-facing messages.
const (
	MsgEmptyPrompt     = "Please provide a message so I can understand."
	MsgNotLoggedIn     = "You are not logged in. Please log in first."
	MsgNotConfigured   = "LLM handler is not properly configured."
	MsgRateLimited     = "Too many requests. Please wait a moment and try again."
	MsgClarify         = "I couldn't understand which GitHub action to perform. Please clarify."
	MsgTokenRejected   = "Your GitHub authorization is no longer valid. Please log in again."
	msgUnexpectedError = "An unexpected error occurred: %v"
)

const defaultTimeout = 30 * time.Second

// Sessions is the part of the session manager the chat flow needs.
type Sessions interface {
	Token(ctx context.Context, userID string) (string, error)
	Revoke(ctx context.Context, userID string) error
}

// OpenPlatform builds an authenticated platform client for token.
type OpenPlatform func(ctx context.Context, token string) (operation.Platform, error)

// Config wires a Service. Resolver may be nil, in which case every
// authenticated prompt is answered with 503.
type Config struct {
	Resolver        intent.Resolver
	Sessions        Sessions
	Open            OpenPlatform
	Limiter         *RateLimiter
	OracleTimeout   time.Duration
	PlatformTimeout time.Duration
}

// Service orchestrates session lookup, intent resolution and dispatch.
type Service struct {
	resolver        intent.Resolver
	sessions        Sessions
	open            OpenPlatform
	limiter         *RateLimiter
	oracleTimeout   time.Duration
	platformTimeout time.Duration
}

// NewService creates a chat service.
func NewService(cfg Config) *Service {
	s := &Service{
		resolver:        cfg.Resolver,
		sessions:        cfg.Sessions,
		open:            cfg.Open,
		limiter:         cfg.Limiter,
		oracleTimeout:   cfg.OracleTimeout,
		platformTimeout: cfg.PlatformTimeout,
	}
	if s.oracleTimeout <= 0 {
		s.oracleTimeout = defaultTimeout
	}
	if s.platformTimeout <= 0 {
		s.platformTimeout = defaultTimeout
	}
	return s
}

// Configured reports whether an intent resolver is available.
func (s *Service) Configured() bool {
	return s.resolver != nil
}

// Outcome is the result of one chat turn together with its HTTP status.
type Outcome struct {
	HTTPStatus int
	Result     domain.Result
	Operation  string
}

// Response is the JSON body of a chat reply.
type Response struct {
	Response  string        `json:"response"`
	Status    domain.Status `json:"status"`
	Operation string        `json:"operation,omitempty"`
	Data      any           `json:"data,omitempty"`
}

// Body renders the outcome as a chat reply.
func (o Outcome) Body() Response {
	return Response{
		Response:  o.Result.Message,
		Status:    o.Result.Status,
		Operation: o.Operation,
		Data:      o.Result.Data,
	}
}

func fail(httpStatus int, status domain.Status, format string, args ...any) Outcome {
	return Outcome{HTTPStatus: httpStatus, Result: domain.Fail(status, format, args...)}
}

// Handle runs one prompt for userID.
func (s *Service) Handle(ctx context.Context, userID, prompt string) Outcome {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return fail(http.StatusBadRequest, domain.StatusError, MsgEmptyPrompt)
	}

	token, err := s.sessions.Token(ctx, userID)
	if errors.Is(err, session.ErrNotLoggedIn) {
		return fail(http.StatusUnauthorized, domain.StatusError, MsgNotLoggedIn)
	}
	if err != nil {
		slog.Error("session lookup failed", "user_id", userID, "error", err)
		return fail(http.StatusInternalServerError, domain.StatusError, msgUnexpectedError, err)
	}

	if s.resolver == nil {
		return fail(http.StatusServiceUnavailable, domain.StatusError, MsgNotConfigured)
	}
	if s.limiter != nil && !s.limiter.Allow(userID) {
		return fail(http.StatusTooManyRequests, domain.StatusRateLimited, MsgRateLimited)
	}

	slog.Info("chat request", "user_id", userID, "prompt_length", len(prompt))

	in := s.resolve(ctx, userID, prompt)
	if in == nil {
		return Outcome{HTTPStatus: http.StatusOK, Result: domain.Fail(domain.StatusClarify, MsgClarify)}
	}

	call, err := operation.Prepare(*in)
	switch {
	case errors.Is(err, operation.ErrUnknownOperation):
		slog.Error("resolver returned an operation outside the catalog", "user_id", userID, "operation", in.Operation)
		return fail(http.StatusBadRequest, domain.StatusError, "Error: No action named '%s' found.", in.Operation)
	case errors.Is(err, operation.ErrInvalidArguments):
		slog.Warn("resolver returned invalid arguments", "user_id", userID, "operation", in.Operation, "error", err)
		out := fail(http.StatusBadRequest, domain.StatusError, "Error: %v", err)
		out.Operation = in.Operation
		return out
	case err != nil:
		return fail(http.StatusInternalServerError, domain.StatusError, msgUnexpectedError, err)
	}

	out := s.run(ctx, userID, token, call)
	out.Operation = call.Operation.Name
	return out
}

// resolve asks the oracle for an intent. Oracle failures are logged and
// treated as "no intent".
func (s *Service) resolve(ctx context.Context, userID, prompt string) *domain.Intent {
	ctx, cancel := context.WithTimeout(ctx, s.oracleTimeout)
	defer cancel()

	in, err := s.resolver.Resolve(ctx, prompt, operation.Catalog())
	if err != nil {
		slog.Error("intent resolution failed", "user_id", userID, "error", err)
		return nil
	}
	return in
}

func (s *Service) run(ctx context.Context, userID, token string, call *operation.Call) Outcome {
	ctx, cancel := context.WithTimeout(ctx, s.platformTimeout)
	defer cancel()

	p, err := s.open(ctx, token)
	if err != nil {
		return s.platformError(ctx, userID, call.Operation.Name, err)
	}

	res, err := call.Run(ctx, p)
	if err != nil {
		return s.platformError(ctx, userID, call.Operation.Name, err)
	}

	slog.Info("operation completed", "user_id", userID, "operation", call.Operation.Name, "status", res.Status)
	return Outcome{HTTPStatus: http.StatusOK, Result: res}
}

func (s *Service) platformError(ctx context.Context, userID, op string, err error) Outcome {
	if errors.Is(err, platform.ErrAuthentication) {
		// The request context may already be done; revocation must still happen.
		if rerr := s.sessions.Revoke(context.WithoutCancel(ctx), userID); rerr != nil {
			slog.Error("failed to revoke session", "user_id", userID, "error", rerr)
		}
		return fail(http.StatusUnauthorized, domain.StatusError, MsgTokenRejected)
	}
	slog.Error("operation failed", "user_id", userID, "operation", op, "error", err)
	return fail(http.StatusInternalServerError, domain.StatusError, msgUnexpectedError, err)
}
