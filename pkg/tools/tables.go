package tools

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/loyaltyiq/loyalty-engine/pkg/llm"
	"github.com/loyaltyiq/loyalty-engine/pkg/models"
	"github.com/loyaltyiq/loyalty-engine/pkg/prompts"
	"github.com/loyaltyiq/loyalty-engine/pkg/schema"
)

// TableSelector asks the model which tables a question needs, falling back
// to keyword matching against table names and descriptions when the model
// call or its output cannot be used.
type TableSelector struct {
	client llm.Client
	schema *schema.Schema
	logger *zap.Logger
}

var _ Tool = (*TableSelector)(nil)

// NewTableSelector creates the table selection tool.
func NewTableSelector(client llm.Client, s *schema.Schema, logger *zap.Logger) *TableSelector {
	return &TableSelector{client: client, schema: s, logger: logger.Named("tables")}
}

// Name implements Tool.
func (t *TableSelector) Name() string { return NameTableSelector }

// Run implements Tool.
func (t *TableSelector) Run(ctx context.Context, state *models.WorkflowState) *models.ToolError {
	names, err := t.selectWithModel(ctx, state)
	usedFallback := false
	if err != nil {
		t.logger.Warn("model-driven table selection failed, using keyword fallback", zap.Error(err))
		names = tableNames(t.schema.KeywordMatch(state.Question))
		usedFallback = true
	}

	// Keep only names the schema actually knows
	known := tableNames(t.schema.Select(names))
	if len(known) == 0 {
		if usedFallback {
			return models.NewToolError(models.ErrTypeTableSelection,
				"Table selection failed and keyword matching found no tables")
		}
		return models.NewToolError(models.ErrTypeNoRelevantTables,
			"No relevant tables found for the question")
	}

	state.RelevantTables = known
	t.logger.Info("relevant tables selected", zap.Strings("tables", known))
	return nil
}

func (t *TableSelector) selectWithModel(ctx context.Context, state *models.WorkflowState) ([]string, error) {
	prompt := prompts.TableSelection(state.Question, t.schema.Descriptions(), state.ChatContext)

	raw, err := t.client.GenerateResponse(ctx, prompt, "", 0)
	if err != nil {
		return nil, err
	}

	names, err := llm.ParseJSONResponse[[]string](raw)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out, nil
}

func tableNames(tables []schema.Table) []string {
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		names = append(names, t.Name)
	}
	return names
}
