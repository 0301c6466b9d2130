package tools

import (
	"context"

	"go.uber.org/zap"

	"github.com/loyaltyiq/loyalty-engine/pkg/llm"
	"github.com/loyaltyiq/loyalty-engine/pkg/models"
	"github.com/loyaltyiq/loyalty-engine/pkg/prompts"
)

// InsightsGenerator turns query results into a titled set of insights and
// recommendations.
type InsightsGenerator struct {
	client llm.Client
	logger *zap.Logger
}

var _ Tool = (*InsightsGenerator)(nil)

// NewInsightsGenerator creates the insight synthesis tool.
func NewInsightsGenerator(client llm.Client, logger *zap.Logger) *InsightsGenerator {
	return &InsightsGenerator{client: client, logger: logger.Named("insights")}
}

// Name implements Tool.
func (t *InsightsGenerator) Name() string { return NameInsightsGenerator }

// Run implements Tool.
func (t *InsightsGenerator) Run(ctx context.Context, state *models.WorkflowState) *models.ToolError {
	prompt := prompts.Insights(state.Question, state.CurrentSQLQuery, state.CurrentData, state.ChatContext)

	raw, err := t.client.GenerateResponse(ctx, prompt, "", 0)
	if err != nil {
		return models.NewToolError(models.ErrTypeInsightsGeneration, err.Error())
	}

	insights, parseErr := llm.ParseJSONResponse[models.Insights](raw)
	if parseErr != nil {
		t.logger.Warn("insights output unparseable", zap.Error(parseErr))
		return models.NewToolError(models.ErrTypeInsightsParse,
			"Failed to parse insights from model output")
	}

	state.Insights = &insights
	t.logger.Info("insights generated",
		zap.String("title", insights.Title),
		zap.Int("insights", len(insights.Insights)),
		zap.Int("recommendations", len(insights.Recommendations)))
	return nil
}
