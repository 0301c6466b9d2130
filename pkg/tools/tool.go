// Package tools implements the capability tools the workflow executor
// invokes: security screening, table selection, SQL generation, query
// execution, response validation and insight synthesis.
//
// Each tool mutates specific fields of the workflow state and returns a
// *models.ToolError, nil meaning success. Tools never decide routing;
// that is the step supervisor's job.
package tools

import (
	"context"

	"github.com/loyaltyiq/loyalty-engine/pkg/models"
)

// Tool names, referenced by workflow plans.
const (
	NameSecurityValidator = "security_validator"
	NameTableSelector     = "table_selector"
	NameSQLGenerator      = "sql_generator"
	NameQueryExecutor     = "query_executor"
	NameResponseValidator = "response_validator"
	NameInsightsGenerator = "insights_generator"
)

// Tool is a single workflow capability.
type Tool interface {
	Name() string
	Run(ctx context.Context, state *models.WorkflowState) *models.ToolError
}

// Descriptions maps tool names to the descriptions shown to the planner.
func Descriptions() map[string]string {
	return map[string]string{
		NameSecurityValidator: "Validates the user's question for security violations and disallowed identifier references",
		NameTableSelector:     "Determines which database tables are needed to answer the question",
		NameSQLGenerator:      "Converts the question into a SQL query over the selected tables",
		NameQueryExecutor:     "Executes the generated SQL query and returns the result rows",
		NameResponseValidator: "Checks whether the query results actually answer the question",
		NameInsightsGenerator: "Produces a titled set of insights and recommendations from the results",
	}
}

// Registry resolves plan tool names to tool implementations.
type Registry map[string]Tool

// NewRegistry builds a registry from the given tools.
func NewRegistry(toolList ...Tool) Registry {
	r := make(Registry, len(toolList))
	for _, t := range toolList {
		r[t.Name()] = t
	}
	return r
}

// Lookup returns the tool registered under name.
func (r Registry) Lookup(name string) (Tool, bool) {
	t, ok := r[name]
	return t, ok
}
