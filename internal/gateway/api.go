// ABOUTME: HTTP API handlers for the chat endpoints
// ABOUTME: Maps pipeline failures to status codes without leaking internals

package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cloakchat/cloak/internal/auth"
	"github.com/cloakchat/cloak/internal/chat"
	"github.com/cloakchat/cloak/internal/llm"
	"github.com/cloakchat/cloak/internal/seal"
	"github.com/cloakchat/cloak/internal/store"
)

// MessageView is one conversation turn as returned by GET /api/chat/history.
type MessageView struct {
	Content string `json:"content"`
	Sender  string `json:"sender"`
}

// PostMessageRequest is the JSON request body for POST /api/chat/message.
type PostMessageRequest struct {
	Message string `json:"message"`
}

// PostMessageResponse is the JSON response for POST /api/chat/message.
type PostMessageResponse struct {
	Response string `json:"response"`
}

// handleHistory returns the ordered conversation for the authenticated
// user. A user with no prior conversation gets an empty array, not an
// error.
func (g *Gateway) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	userID := auth.UserFromContext(r.Context())
	if userID == "" {
		g.sendJSONError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	messages, err := g.service.GetHistory(r.Context(), userID)
	if err != nil {
		g.logger.Error("failed to fetch chat history", "user_id", userID, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "failed to fetch chat history")
		return
	}

	views := make([]MessageView, len(messages))
	for i, m := range messages {
		views[i] = MessageView{Content: m.Content, Sender: string(m.Sender)}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
}

// handleMessage appends a user turn, obtains the assistant reply, and
// returns it. The full sequence is not echoed back; the client already
// holds prior turns.
func (g *Gateway) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	userID := auth.UserFromContext(r.Context())
	if userID == "" {
		g.sendJSONError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	reply, err := g.service.PostMessage(r.Context(), userID, req.Message)
	if err != nil {
		g.writeMessageError(w, userID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(PostMessageResponse{Response: reply})
}

// writeMessageError maps a pipeline failure to a status code and a generic
// message. The detailed cause is logged; provider error bodies and
// cryptographic internals never reach the client.
func (g *Gateway) writeMessageError(w http.ResponseWriter, userID string, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		g.sendJSONError(w, http.StatusBadRequest, "message is required")
	case errors.Is(err, store.ErrConflict):
		g.sendJSONError(w, http.StatusConflict, "conversation was updated concurrently, retry")
	case errors.Is(err, llm.ErrCompletion):
		g.logger.Error("completion failed", "user_id", userID, "error", err)
		g.sendJSONError(w, http.StatusBadGateway, "failed to process message")
	case errors.Is(err, seal.ErrDecrypt):
		g.logger.Error("conversation decrypt failed", "user_id", userID, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "failed to process message")
	default:
		g.logger.Error("message pipeline failed", "user_id", userID, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "failed to process message")
	}
}

// sendJSONError writes a JSON error response.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
