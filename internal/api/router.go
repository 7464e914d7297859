package api

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ashureev/repochat/internal/identity"
	"github.com/ashureev/repochat/internal/middleware"
)

// RouterConfig collects the handlers mounted by NewRouter.
type RouterConfig struct {
	DefaultUserID  string
	AllowedOrigins []string
	Health         *HealthHandler
	Auth           *AuthHandler
	Chat           *ChatHandler
	WebSocket      *WebSocketHandler
}

// NewRouter builds the server's chi router.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(identity.Middleware(cfg.DefaultUserID))

	r.Get("/", Home)
	if cfg.Health != nil {
		cfg.Health.RegisterHealth(r)
	}
	if cfg.Auth != nil {
		cfg.Auth.RegisterRoutes(r)
	}
	if cfg.Chat != nil {
		cfg.Chat.RegisterRoutes(r)
	}
	if cfg.WebSocket != nil {
		cfg.WebSocket.RegisterRoutes(r)
	}
	return r
}
