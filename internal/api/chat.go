package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/repochat/internal/chat"
	"github.com/ashureev/repochat/internal/domain"
	"github.com/ashureev/repochat/internal/identity"
)

const maxChatBody = 64 << 10

// Chatter answers one prompt for a user.
type Chatter interface {
	Handle(ctx context.Context, userID, prompt string) chat.Outcome
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	UserID string `json:"user_id"`
	Prompt string `json:"prompt"`
}

// ChatHandler serves POST /chat.
type ChatHandler struct {
	chat Chatter
}

// NewChatHandler creates a chat handler.
func NewChatHandler(c Chatter) *ChatHandler {
	return &ChatHandler{chat: c}
}

// RegisterRoutes registers chat routes.
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.Chat)
}

// Chat runs one prompt and writes the reply envelope.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		JSON(w, http.StatusBadRequest, chat.Response{
			Response: chat.MsgEmptyPrompt,
			Status:   domain.StatusError,
		})
		return
	}

	// A user_id in the body wins over the query string and header.
	userID, err := identity.Normalize(req.UserID, identity.UserIDFromContext(r.Context()))
	if err != nil {
		identity.WriteInvalid(w)
		return
	}

	out := h.chat.Handle(r.Context(), userID, req.Prompt)
	JSON(w, out.HTTPStatus, out.Body())
}
