package tools

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/loyaltyiq/loyalty-engine/pkg/llm"
	"github.com/loyaltyiq/loyalty-engine/pkg/models"
	"github.com/loyaltyiq/loyalty-engine/pkg/prompts"
)

// validationVerdict is the model's judgement on whether the query results
// answer the question.
type validationVerdict struct {
	IsValid      bool    `json:"is_valid"`
	NeedsRetry   bool    `json:"needs_retry"`
	ErrorMessage string  `json:"error_message"`
	ErrorType    string  `json:"error_type"`
	Confidence   float64 `json:"confidence"`
}

// errorIndicators are scanned in raw model output when the verdict cannot
// be parsed as JSON.
var errorIndicators = []string{"error:", "invalid:", "failed:", "cannot", "unable"}

// ResponseValidator asks the model whether the executed query and its
// results actually answer the question.
type ResponseValidator struct {
	client llm.Client
	logger *zap.Logger
}

var _ Tool = (*ResponseValidator)(nil)

// NewResponseValidator creates the response validation tool.
func NewResponseValidator(client llm.Client, logger *zap.Logger) *ResponseValidator {
	return &ResponseValidator{client: client, logger: logger.Named("validator")}
}

// Name implements Tool.
func (t *ResponseValidator) Name() string { return NameResponseValidator }

// Run implements Tool.
func (t *ResponseValidator) Run(ctx context.Context, state *models.WorkflowState) *models.ToolError {
	prompt := prompts.ResponseValidation(state.Question, state.CurrentSQLQuery, state.CurrentData)

	raw, err := t.client.GenerateResponse(ctx, prompt, "", 0)
	if err != nil {
		return &models.ToolError{
			Type:       models.ErrTypeValidation,
			Message:    "Error validating response: " + err.Error(),
			NeedsRetry: true,
		}
	}

	verdict, parseErr := llm.ParseJSONResponse[validationVerdict](raw)
	if parseErr != nil {
		// Unparseable verdict: fall back to scanning the raw text for error
		// indicators, and assume valid when none are found.
		lower := strings.ToLower(raw)
		for _, indicator := range errorIndicators {
			if strings.Contains(lower, indicator) {
				return &models.ToolError{
					Type:       models.ErrTypeValidation,
					Message:    "Response validation failed",
					NeedsRetry: true,
				}
			}
		}
		t.logger.Debug("verdict unparseable with no error indicators, assuming valid")
		return nil
	}

	if !verdict.IsValid {
		errType := verdict.ErrorType
		if errType == "" {
			errType = models.ErrTypeValidation
		}
		message := verdict.ErrorMessage
		if message == "" {
			message = "Response does not answer the question"
		}
		t.logger.Info("response rejected by validator",
			zap.String("error_type", errType),
			zap.Bool("needs_retry", verdict.NeedsRetry),
			zap.Float64("confidence", verdict.Confidence))
		return &models.ToolError{
			Type:       errType,
			Message:    message,
			NeedsRetry: verdict.NeedsRetry,
		}
	}

	return nil
}
