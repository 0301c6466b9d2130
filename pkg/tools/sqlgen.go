package tools

import (
	"context"

	"go.uber.org/zap"

	"github.com/loyaltyiq/loyalty-engine/pkg/llm"
	"github.com/loyaltyiq/loyalty-engine/pkg/logging"
	"github.com/loyaltyiq/loyalty-engine/pkg/models"
	"github.com/loyaltyiq/loyalty-engine/pkg/prompts"
	"github.com/loyaltyiq/loyalty-engine/pkg/schema"
	"github.com/loyaltyiq/loyalty-engine/pkg/sqlguard"
)

// SQLGenerator converts the question into a SQL query over the selected
// tables and screens the result before it can reach the executor.
type SQLGenerator struct {
	client llm.Client
	schema *schema.Schema
	logger *zap.Logger
}

var _ Tool = (*SQLGenerator)(nil)

// NewSQLGenerator creates the SQL generation tool.
func NewSQLGenerator(client llm.Client, s *schema.Schema, logger *zap.Logger) *SQLGenerator {
	return &SQLGenerator{client: client, schema: s, logger: logger.Named("sqlgen")}
}

// Name implements Tool.
func (t *SQLGenerator) Name() string { return NameSQLGenerator }

// Run implements Tool.
func (t *SQLGenerator) Run(ctx context.Context, state *models.WorkflowState) *models.ToolError {
	tables := t.schema.Select(state.RelevantTables)
	if len(tables) == 0 {
		return models.NewToolError(models.ErrTypeNoRelevantTables,
			"No relevant tables found for the question")
	}

	prompt := prompts.SQLGeneration(
		state.Question,
		schema.FormatForPrompt(tables),
		state.ClientID,
		state.ChatContext,
	)

	raw, err := t.client.GenerateResponse(ctx, prompt, "", 0)
	if err != nil {
		return models.NewToolError(models.ErrTypeSQLGeneration, err.Error())
	}

	sqlQuery := sqlguard.NormalizeSQL(llm.StripCodeFences(raw))
	if sqlQuery == "" {
		return models.NewToolError(models.ErrTypeSQLGeneration, "Empty SQL query generated")
	}

	if toolErr := sqlguard.ValidateSQL(sqlQuery, state.ClientID); toolErr != nil {
		t.logger.Warn("generated SQL rejected",
			zap.String("error_type", toolErr.Type),
			zap.String("query", logging.SanitizeQuery(sqlQuery)))
		return toolErr
	}

	state.CurrentSQLQuery = sqlQuery
	t.logger.Info("SQL query generated", zap.String("query", logging.SanitizeQuery(sqlQuery)))
	return nil
}
