package workflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/loyaltyiq/loyalty-engine/pkg/models"
	"github.com/loyaltyiq/loyalty-engine/pkg/tools"
)

// Executor walks a validated plan, routing between steps on the
// supervisor's verdicts until the plan completes or a terminal error is
// produced. Termination is guaranteed by the supervisor's per-step retry
// ceiling; the executor itself imposes no iteration cap.
type Executor struct {
	supervisor *Supervisor
	registry   tools.Registry
	logger     *zap.Logger
}

// NewExecutor creates a plan executor over the given tool registry.
func NewExecutor(supervisor *Supervisor, registry tools.Registry, logger *zap.Logger) *Executor {
	return &Executor{
		supervisor: supervisor,
		registry:   registry,
		logger:     logger.Named("workflow"),
	}
}

// Execute runs the plan against the state and returns the same state in
// its final form: either complete with data and insights, or carrying a
// terminal error with user-safe insights attached.
func (e *Executor) Execute(ctx context.Context, plan Plan, state *models.WorkflowState) *models.WorkflowState {
	if err := plan.Validate(); err != nil {
		state.Error = &models.ToolError{
			Type:    models.ErrTypeSystem,
			Message: fmt.Sprintf("Invalid workflow plan: %v", err),
		}
		applyTerminalError(state)
		return state
	}

	arena := NewRetryArena()
	i := 0

	for i < len(plan.Steps) {
		if err := ctx.Err(); err != nil {
			state.Error = &models.ToolError{
				Type:    models.ErrTypeSystem,
				Message: fmt.Sprintf("Workflow cancelled: %v", err),
			}
			applyTerminalError(state)
			return state
		}

		step := plan.Steps[i]
		tool, ok := e.registry.Lookup(step.ToolName)
		if !ok {
			state.Error = &models.ToolError{
				Type:       models.ErrTypeSystem,
				Message:    fmt.Sprintf("No tool registered for %q", step.ToolName),
				FailedStep: step.StepName,
			}
			applyTerminalError(state)
			return state
		}

		e.supervisor.Supervise(ctx, arena, step, tool, state, step.NextStep)

		switch state.StepStatus {
		case models.StepStatusSuccess:
			foldContribution(step.ToolName, state)
			if i == len(plan.Steps)-1 {
				state.StepStatus = models.StepStatusComplete
				e.logger.Info("workflow complete",
					zap.Bool("has_data", state.CurrentData != nil),
					zap.Bool("has_insights", state.Insights != nil))
				return state
			}
			// Success always advances to the following step. Jumping to
			// NextStep here would let a plan with a backward success edge
			// cycle forever, since every success resets its retry counter.
			i++

		case models.StepStatusRetry:
			// A redirect sends control back to an earlier step (SQL
			// regeneration); otherwise the same step runs again.
			if state.NextStep != step.StepName {
				if next := plan.indexOf(state.NextStep); next >= 0 {
					i = next
					continue
				}
			}
			// same index, loop

		case models.StepStatusError:
			applyTerminalError(state)
			return state
		}
	}

	return state
}

// foldContribution appends a successful step's output into the rolling
// conversation context, so later steps and the next turn's prompt
// construction see it.
func foldContribution(toolName string, state *models.WorkflowState) {
	if state.ChatContext == nil {
		return
	}
	switch toolName {
	case tools.NameSQLGenerator:
		state.ChatContext.AppendSQLQuery(state.CurrentSQLQuery)
	case tools.NameQueryExecutor:
		state.ChatContext.AppendData(state.CurrentData)
	case tools.NameInsightsGenerator:
		state.ChatContext.AppendInsights(state.Insights)
	}
}
