package workflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/loyaltyiq/loyalty-engine/pkg/models"
	"github.com/loyaltyiq/loyalty-engine/pkg/tools"
)

// DefaultMaxRetries bounds how often a single step may be retried.
const DefaultMaxRetries = 3

// RetryArena tracks per-step retry counters for one request. A fresh arena
// is created per execution so concurrent requests never share counters.
type RetryArena map[string]int

// NewRetryArena creates an empty per-request retry arena.
func NewRetryArena() RetryArena {
	return make(RetryArena)
}

// Supervisor wraps one tool invocation with retry accounting, failure
// classification and next-step routing. It writes its verdict to the
// state's StepStatus, NextStep and Error fields.
type Supervisor struct {
	maxRetries int
	logger     *zap.Logger
}

// NewSupervisor creates a step supervisor. maxRetries <= 0 selects the
// default ceiling.
func NewSupervisor(maxRetries int, logger *zap.Logger) *Supervisor {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Supervisor{maxRetries: maxRetries, logger: logger.Named("supervisor")}
}

// Supervise executes one step and stamps the routing verdict on the state.
//
// On success the step's retry counter resets and next_step advances. On
// failure the step-specific retry policy decides between a retry (counter
// incremented, error cleared, possibly redirected back to SQL generation)
// and a terminal error carrying the failed step's name.
func (s *Supervisor) Supervise(ctx context.Context, arena RetryArena, step PlanStep, tool tools.Tool, state *models.WorkflowState, nextStep string) {
	stepName := step.StepName

	s.logger.Info("executing step", zap.String("step", stepName), zap.String("tool", tool.Name()))
	toolErr := runTool(ctx, tool, state, stepName)

	if toolErr == nil {
		// A query that ran but produced no rows for generated SQL is treated
		// as a soft failure of execution: regenerate the SQL and try again.
		if stepName == StepExecuteQuery && state.CurrentSQLQuery != "" && len(state.CurrentData) == 0 {
			toolErr = &models.ToolError{
				Type:    models.ErrTypeQueryExecution,
				Message: "Query returned no data when data was expected",
			}
		} else {
			s.logger.Info("step completed", zap.String("step", stepName))
			arena[stepName] = 0
			state.Error = nil
			state.NextStep = nextStep
			state.StepStatus = models.StepStatusSuccess
			return
		}
	}

	redirect, wantRetry := s.retryPolicy(stepName, toolErr)

	if wantRetry {
		if arena[stepName] >= s.maxRetries {
			s.logger.Warn("max retries exceeded",
				zap.String("step", stepName),
				zap.Int("max_retries", s.maxRetries))
			s.failTerminal(state, stepName, &models.ToolError{
				Type:    models.ErrTypeMaxRetriesExceeded,
				Message: toolErr.Message,
			})
			return
		}

		arena[stepName]++
		s.logger.Info("retrying step",
			zap.String("step", stepName),
			zap.Int("attempt", arena[stepName]),
			zap.Int("max_retries", s.maxRetries),
			zap.String("redirect", redirect))

		state.StepStatus = models.StepStatusRetry
		state.Error = nil
		if redirect != "" {
			state.NextStep = redirect
		}
		return
	}

	s.failTerminal(state, stepName, toolErr)
}

// runTool invokes the tool, converting a panic into a hard failure so a
// misbehaving tool cannot take down the request.
func runTool(ctx context.Context, tool tools.Tool, state *models.WorkflowState, stepName string) (toolErr *models.ToolError) {
	defer func() {
		if r := recover(); r != nil {
			toolErr = &models.ToolError{
				Type:    stepName + "_error",
				Message: fmt.Sprintf("panic in tool: %v", r),
			}
		}
	}()
	return tool.Run(ctx, state)
}

// retryPolicy returns whether a failed step should be retried, and the step
// to redirect to when the retry should not simply repeat the same step.
//
//	validate_input:    retry only on a soft (transient) signal
//	execute_query:     retry, redirected to SQL generation
//	validate_response: retry, redirected to SQL generation, only when the
//	                   validator asked for a retry
//	all other steps:   any failure is terminal
func (s *Supervisor) retryPolicy(stepName string, toolErr *models.ToolError) (redirect string, wantRetry bool) {
	switch stepName {
	case StepValidateInput:
		return "", toolErr.Soft
	case StepExecuteQuery:
		return StepGenerateSQL, true
	case StepValidateResponse:
		if toolErr.NeedsRetry {
			return StepGenerateSQL, true
		}
	}
	return "", false
}

func (s *Supervisor) failTerminal(state *models.WorkflowState, stepName string, toolErr *models.ToolError) {
	s.logger.Error("step failed",
		zap.String("step", stepName),
		zap.String("error_type", toolErr.Type),
		zap.String("error", toolErr.Message))

	state.StepStatus = models.StepStatusError
	state.NextStep = ""
	state.Error = &models.ToolError{
		Type:       toolErr.Type,
		Message:    fmt.Sprintf("Failed in step '%s': %s", stepName, toolErr.Message),
		FailedStep: stepName,
	}
}
