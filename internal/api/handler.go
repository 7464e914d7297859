// Package api provides the HTTP and websocket handlers of the chat server.
package api

import (
	"encoding/json"
	"io"
	"net/http"
)

// Liveness is the body of GET /.
const Liveness = "GitHub chatbot server is running. Use the client to authenticate."

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Text writes a plain text response.
func Text(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// Home answers the liveness probe at GET /.
func Home(w http.ResponseWriter, _ *http.Request) {
	Text(w, http.StatusOK, Liveness)
}
