package tools

import (
	"context"

	"go.uber.org/zap"

	"github.com/loyaltyiq/loyalty-engine/pkg/logging"
	"github.com/loyaltyiq/loyalty-engine/pkg/models"
	"github.com/loyaltyiq/loyalty-engine/pkg/sqlguard"
)

// SecurityValidator screens the incoming question before any model call.
// It is purely rule-based; a rejection here is always a hard failure.
type SecurityValidator struct {
	logger *zap.Logger
}

var _ Tool = (*SecurityValidator)(nil)

// NewSecurityValidator creates the input screening tool.
func NewSecurityValidator(logger *zap.Logger) *SecurityValidator {
	return &SecurityValidator{logger: logger.Named("security")}
}

// Name implements Tool.
func (t *SecurityValidator) Name() string { return NameSecurityValidator }

// Run implements Tool.
func (t *SecurityValidator) Run(_ context.Context, state *models.WorkflowState) *models.ToolError {
	if toolErr := sqlguard.ValidateQuestion(state.Question); toolErr != nil {
		t.logger.Warn("question rejected",
			zap.String("error_type", toolErr.Type),
			zap.String("question", logging.SanitizeQuestion(state.Question)))
		return toolErr
	}

	t.logger.Debug("question passed security screening")
	return nil
}
