// repochat - natural-language GitHub assistant server
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ashureev/repochat/internal/api"
	"github.com/ashureev/repochat/internal/chat"
	"github.com/ashureev/repochat/internal/config"
	"github.com/ashureev/repochat/internal/health"
	"github.com/ashureev/repochat/internal/intent"
	"github.com/ashureev/repochat/internal/middleware"
	"github.com/ashureev/repochat/internal/oauth"
	"github.com/ashureev/repochat/internal/operation"
	"github.com/ashureev/repochat/internal/platform"
	"github.com/ashureev/repochat/internal/session"
	"github.com/ashureev/repochat/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting server", "port", cfg.Port, "llm_provider", cfg.LLM.Provider, "session_store", cfg.Session.Store)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize dependencies.
	sessions, err := store.Open(cfg.Session.Store, cfg.Session.DBPath)
	if err != nil {
		slog.Error("Failed to initialize session store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := sessions.Close(); closeErr != nil {
			slog.Error("Failed to close session store", "error", closeErr)
		}
	}()

	if err := sessions.Ping(ctx); err != nil {
		slog.Error("Session store health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Session store ready")

	factory := platform.Factory{BaseURL: cfg.GitHub.APIURL}
	manager := session.NewManager(sessions, factory, cfg.Timeout.Platform)

	resolver, err := intent.New(ctx, intent.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		slog.Warn("Intent resolver unavailable, /chat will answer 503", "error", err)
	} else if c, ok := resolver.(io.Closer); ok {
		defer c.Close()
	}

	var authorizer api.Authorizer
	flow, err := oauth.New(oauth.Config{
		ClientID:     cfg.GitHub.ClientID,
		ClientSecret: cfg.GitHub.ClientSecret,
		RedirectURL:  cfg.CallbackURL(),
		StateTTL:     cfg.GitHub.StateTTL,
	})
	switch {
	case errors.Is(err, oauth.ErrNotConfigured):
		slog.Warn("GitHub OAuth not configured, /login and /callback will answer 503")
	case err != nil:
		slog.Error("Failed to initialize OAuth", "error", err)
		os.Exit(1)
	default:
		authorizer = flow
	}

	limiter := chat.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	defer limiter.Close()

	// Initialize services.
	svc := chat.NewService(chat.Config{
		Resolver: resolver,
		Sessions: manager,
		Open: func(ctx context.Context, token string) (operation.Platform, error) {
			c, err := factory.Open(ctx, token)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		Limiter:         limiter,
		OracleTimeout:   cfg.Timeout.Oracle,
		PlatformTimeout: cfg.Timeout.Platform,
	})

	// Setup router.
	r := api.NewRouter(api.RouterConfig{
		DefaultUserID:  cfg.DefaultUserID,
		AllowedOrigins: cfg.CORSOrigins,
		Health:         api.NewHealthHandler(sessions, svc.Configured),
		Auth:           api.NewAuthHandler(authorizer, manager),
		Chat:           api.NewChatHandler(svc),
		WebSocket:      api.NewWebSocketHandler(svc, middleware.OriginPatterns(cfg.CORSOrigins)),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // websocket chats stay open; oracle and platform calls carry their own timeouts
		IdleTimeout:  120 * time.Second,
	}

	if cfg.GRPCHealthPort != "" {
		hs := health.New(map[string]health.Check{
			"sessions": sessions.Ping,
			"llm": func(context.Context) error {
				if !svc.Configured() {
					return intent.ErrNotConfigured
				}
				return nil
			},
		}, 0, logger)
		go func() {
			if err := hs.ListenAndServe(ctx, net.JoinHostPort("", cfg.GRPCHealthPort)); err != nil {
				slog.Error("gRPC health server failed", "error", err)
			}
		}()
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr, "login_url", cfg.PublicURL+"/login")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
