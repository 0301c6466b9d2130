package workflow

import (
	"context"

	"go.uber.org/zap"

	"github.com/loyaltyiq/loyalty-engine/pkg/llm"
	"github.com/loyaltyiq/loyalty-engine/pkg/models"
	"github.com/loyaltyiq/loyalty-engine/pkg/prompts"
	"github.com/loyaltyiq/loyalty-engine/pkg/tools"
)

// Planner asks the model for a question-specific step sequence. Any failure
// along the way, model error, unparseable output, or a plan that does not
// validate, falls back to the default plan rather than failing the request.
type Planner struct {
	client llm.Client
	logger *zap.Logger
}

// NewPlanner creates a model-driven workflow planner.
func NewPlanner(client llm.Client, logger *zap.Logger) *Planner {
	return &Planner{client: client, logger: logger.Named("planner")}
}

// CreatePlan produces a validated plan for the question.
func (p *Planner) CreatePlan(ctx context.Context, state *models.WorkflowState) Plan {
	prompt := prompts.Plan(state.Question, tools.Descriptions(), state.ChatContext)

	raw, err := p.client.GenerateResponse(ctx, prompt, "", 0)
	if err != nil {
		p.logger.Warn("planner model call failed, using default plan", zap.Error(err))
		return DefaultPlan()
	}

	steps, err := llm.ParseJSONResponse[[]PlanStep](raw)
	if err != nil {
		p.logger.Warn("planner output unparseable, using default plan", zap.Error(err))
		return DefaultPlan()
	}

	plan := Plan{Steps: steps}
	if err := plan.Validate(); err != nil {
		p.logger.Warn("planner produced an invalid plan, using default plan", zap.Error(err))
		return DefaultPlan()
	}

	p.logger.Info("plan created", zap.Int("steps", len(plan.Steps)))
	return plan
}
