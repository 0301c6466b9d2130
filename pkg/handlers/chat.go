package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/loyaltyiq/loyalty-engine/pkg/agent"
	"github.com/loyaltyiq/loyalty-engine/pkg/apperrors"
	"github.com/loyaltyiq/loyalty-engine/pkg/chat"
)

// ChatHandler serves the chat session endpoints.
type ChatHandler struct {
	agent  *agent.Agent
	logger *zap.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(a *agent.Agent, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{agent: a, logger: logger}
}

// RegisterRoutes registers the chat handler's routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat/session", h.CreateSession)
	mux.HandleFunc("GET /api/chat/history/{session_id}", h.GetHistory)
	mux.HandleFunc("DELETE /api/chat/history/{session_id}", h.ClearHistory)
}

// CreateSession handles POST /api/chat/session requests.
func (h *ChatHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := h.agent.CreateChatSession(r.Context())
	if err != nil {
		h.logger.Error("Failed to create chat session", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "session_error", "Could not create chat session")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]string{"session_id": sessionID}); err != nil {
		h.logger.Error("Failed to encode session response", zap.Error(err))
	}
}

// GetHistory handles GET /api/chat/history/{session_id} requests.
func (h *ChatHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")

	history, err := h.agent.GetChatHistory(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			_ = ErrorResponse(w, http.StatusNotFound, "session_not_found", "Chat session not found")
			return
		}
		h.logger.Error("Failed to read chat history", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "history_error", "Could not read chat history")
		return
	}

	if history == nil {
		history = []chat.Entry{}
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{"history": history}); err != nil {
		h.logger.Error("Failed to encode history response", zap.Error(err))
	}
}

// ClearHistory handles DELETE /api/chat/history/{session_id} requests.
func (h *ChatHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")

	if err := h.agent.ClearChatHistory(r.Context(), sessionID); err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			_ = ErrorResponse(w, http.StatusNotFound, "session_not_found", "Chat session not found")
			return
		}
		h.logger.Error("Failed to clear chat history", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "history_error", "Could not clear chat history")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]string{"status": "success"}); err != nil {
		h.logger.Error("Failed to encode clear response", zap.Error(err))
	}
}
