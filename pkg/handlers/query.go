package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/loyaltyiq/loyalty-engine/pkg/agent"
)

// QueryRequest is the body for POST /api/query.
type QueryRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
	ClientID  int    `json:"client_id,omitempty"`
}

// QueryHandler serves the question answering endpoint.
type QueryHandler struct {
	agent  *agent.Agent
	logger *zap.Logger
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(a *agent.Agent, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{agent: a, logger: logger}
}

// RegisterRoutes registers the query handler's routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/query", h.Query)
}

// Query handles POST /api/query requests.
//
// Handled business errors are encoded in-body with HTTP 200; only a missing
// question (400) or an unhandled failure (500) changes the status code.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Request body must be valid JSON")
		return
	}

	if req.Question == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "missing_question", "No question provided")
		return
	}

	response := h.agent.ProcessQuestion(r.Context(), req.Question, req.SessionID, req.ClientID)

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode query response", zap.Error(err))
	}
}
