package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"

	"github.com/ashureev/repochat/internal/chat"
	"github.com/ashureev/repochat/internal/identity"
)

// WSReply is one websocket answer. Code mirrors the HTTP status POST /chat
// would have returned for the same prompt.
type WSReply struct {
	chat.Response
	Code int `json:"code"`
}

// WebSocketHandler serves GET /ws/chat. Every text frame is a prompt and
// gets exactly one JSON reply.
type WebSocketHandler struct {
	chat           Chatter
	originPatterns []string
}

// NewWebSocketHandler creates a websocket chat handler.
func NewWebSocketHandler(c Chatter, originPatterns []string) *WebSocketHandler {
	return &WebSocketHandler{chat: c, originPatterns: originPatterns}
}

// RegisterRoutes registers the websocket route.
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/chat", h.ServeHTTP)
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	slog.Info("WebSocket connection request", "user_id", userID, "ip", r.RemoteAddr)

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "chat ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()

	h.readLoop(r.Context(), ws, userID)
	slog.Info("WebSocket chat ended", "user_id", userID)
}

func (h *WebSocketHandler) readLoop(ctx context.Context, ws *websocket.Conn, userID string) {
	for {
		typ, message, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "user_id", userID)
			} else {
				slog.Warn("WebSocket read error", "error", err, "user_id", userID)
			}
			return
		}
		if typ != websocket.MessageText {
			_ = ws.Close(websocket.StatusUnsupportedData, "prompts must be text frames")
			return
		}

		out := h.chat.Handle(ctx, userID, string(message))
		if err := writeJSON(ctx, ws, WSReply{Response: out.Body(), Code: out.HTTPStatus}); err != nil {
			slog.Warn("WebSocket write error", "error", err, "user_id", userID)
			return
		}
	}
}

func writeJSON(ctx context.Context, ws *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}
