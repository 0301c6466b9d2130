package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/loyaltyiq/loyalty-engine/pkg/agent"
	"github.com/loyaltyiq/loyalty-engine/pkg/schema"
)

// SchemaResponse is the body for GET /api/schema.
type SchemaResponse struct {
	Schema *schema.Schema `json:"schema"`
}

// SchemaHandler serves the database schema endpoint.
type SchemaHandler struct {
	agent  *agent.Agent
	logger *zap.Logger
}

// NewSchemaHandler creates a new SchemaHandler.
func NewSchemaHandler(a *agent.Agent, logger *zap.Logger) *SchemaHandler {
	return &SchemaHandler{agent: a, logger: logger}
}

// RegisterRoutes registers the schema handler's routes on the given mux.
func (h *SchemaHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/schema", h.Schema)
}

// Schema handles GET /api/schema requests.
func (h *SchemaHandler) Schema(w http.ResponseWriter, r *http.Request) {
	if err := WriteJSON(w, http.StatusOK, SchemaResponse{Schema: h.agent.GetSchema()}); err != nil {
		h.logger.Error("Failed to encode schema response", zap.Error(err))
	}
}
