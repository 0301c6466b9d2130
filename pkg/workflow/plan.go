// Package workflow implements the supervised step pipeline that turns a
// question into executed SQL and synthesized insights: plan construction
// and validation, per-step retry accounting, and routing between steps.
package workflow

import (
	"fmt"

	"github.com/loyaltyiq/loyalty-engine/pkg/apperrors"
	"github.com/loyaltyiq/loyalty-engine/pkg/tools"
)

// Canonical step names. Plans produced by the planner may use other step
// names, but retry redirects always target the canonical ones.
const (
	StepValidateInput    = "validate_input"
	StepSelectTables     = "select_tables"
	StepGenerateSQL      = "generate_sql"
	StepExecuteQuery     = "execute_query"
	StepValidateResponse = "validate_response"
	StepGenerateInsights = "generate_insights"
)

// stepTools maps canonical step names to the tool each one invokes.
var stepTools = map[string]string{
	StepValidateInput:    tools.NameSecurityValidator,
	StepSelectTables:     tools.NameTableSelector,
	StepGenerateSQL:      tools.NameSQLGenerator,
	StepExecuteQuery:     tools.NameQueryExecutor,
	StepValidateResponse: tools.NameResponseValidator,
	StepGenerateInsights: tools.NameInsightsGenerator,
}

// PlanStep is one step of a workflow plan.
type PlanStep struct {
	StepName    string `json:"step_name"`
	ToolName    string `json:"tool_name"`
	Description string `json:"description"`
	NextStep    string `json:"next_step"`
}

// Plan is an ordered sequence of steps.
type Plan struct {
	Steps []PlanStep `json:"steps"`
}

// DefaultPlan is the fixed six-step chain used when no planner is configured
// or the planner's output cannot be used.
func DefaultPlan() Plan {
	return Plan{Steps: []PlanStep{
		{StepName: StepValidateInput, ToolName: tools.NameSecurityValidator, Description: "Validate the question for security violations", NextStep: StepSelectTables},
		{StepName: StepSelectTables, ToolName: tools.NameTableSelector, Description: "Determine which tables the question needs", NextStep: StepGenerateSQL},
		{StepName: StepGenerateSQL, ToolName: tools.NameSQLGenerator, Description: "Convert the question into a SQL query", NextStep: StepExecuteQuery},
		{StepName: StepExecuteQuery, ToolName: tools.NameQueryExecutor, Description: "Execute the generated query", NextStep: StepValidateResponse},
		{StepName: StepValidateResponse, ToolName: tools.NameResponseValidator, Description: "Check that the results answer the question", NextStep: StepGenerateInsights},
		{StepName: StepGenerateInsights, ToolName: tools.NameInsightsGenerator, Description: "Synthesize insights from the results", NextStep: ""},
	}}
}

// Validate checks the structural invariants every plan must satisfy:
// non-empty, security screening first, no query execution without a
// preceding SQL generation step, known tools only, unique step names.
func (p Plan) Validate() error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("%w: plan has no steps", apperrors.ErrPlanInvalid)
	}

	if p.Steps[0].ToolName != tools.NameSecurityValidator {
		return fmt.Errorf("%w: first step must invoke the security validator, got %q",
			apperrors.ErrPlanInvalid, p.Steps[0].ToolName)
	}

	known := tools.Descriptions()
	seen := make(map[string]bool, len(p.Steps))
	sawSQLGeneration := false

	for _, step := range p.Steps {
		if step.StepName == "" {
			return fmt.Errorf("%w: step with empty name", apperrors.ErrPlanInvalid)
		}
		if seen[step.StepName] {
			return fmt.Errorf("%w: duplicate step name %q", apperrors.ErrPlanInvalid, step.StepName)
		}
		seen[step.StepName] = true

		if _, ok := known[step.ToolName]; !ok {
			return fmt.Errorf("%w: unknown tool %q", apperrors.ErrPlanInvalid, step.ToolName)
		}

		switch step.ToolName {
		case tools.NameSQLGenerator:
			sawSQLGeneration = true
		case tools.NameQueryExecutor:
			if !sawSQLGeneration {
				return fmt.Errorf("%w: query execution without a preceding SQL generation step",
					apperrors.ErrPlanInvalid)
			}
		}
	}

	return nil
}

// indexOf locates the step a redirect targets: first by step name, then by
// the tool the canonical step name maps to. Returns -1 when nothing matches.
func (p Plan) indexOf(stepName string) int {
	for i, step := range p.Steps {
		if step.StepName == stepName {
			return i
		}
	}
	if toolName, ok := stepTools[stepName]; ok {
		for i, step := range p.Steps {
			if step.ToolName == toolName {
				return i
			}
		}
	}
	return -1
}
