package models

import "fmt"

// StepStatus is the routing status stamped on state by the step supervisor.
type StepStatus string

const (
	StepStatusSuccess  StepStatus = "success"
	StepStatusRetry    StepStatus = "retry"
	StepStatusError    StepStatus = "error"
	StepStatusComplete StepStatus = "complete"
)

// Error types produced by tools and the workflow core.
const (
	ErrTypeSecurityViolation  = "security_violation"
	ErrTypeClientIDViolation  = "client_id_violation"
	ErrTypeIDViolation        = "id_violation"
	ErrTypeMissingClientID    = "missing_client_id"
	ErrTypeDangerousOperation = "dangerous_operation"
	ErrTypeTableSelection     = "table_selection_error"
	ErrTypeNoRelevantTables   = "no_relevant_tables"
	ErrTypeSQLGeneration      = "sql_generation_error"
	ErrTypeQueryExecution     = "query_execution_error"
	ErrTypeValidation         = "validation_error"
	ErrTypeInsightsGeneration = "insights_generation_error"
	ErrTypeInsightsParse      = "insights_parse_error"
	ErrTypeMaxRetriesExceeded = "max_retries_exceeded"
	ErrTypeUnexpected         = "unexpected_error"
	ErrTypeSystem             = "system_error"
)

// ToolError is the structured failure signal a capability tool attaches to
// workflow state. A nil *ToolError means the step succeeded.
//
// Soft marks a transient condition that is not a hard validation failure
// (the input validator's retry path). NeedsRetry is the response
// validator's explicit hint that regenerating the query may fix the result.
type ToolError struct {
	Type       string
	Message    string
	Soft       bool
	NeedsRetry bool
	FailedStep string
}

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e.FailedStep != "" {
		return fmt.Sprintf("%s: failed in step '%s': %s", e.Type, e.FailedStep, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// NewToolError creates a hard tool failure of the given type.
func NewToolError(errType, message string) *ToolError {
	return &ToolError{Type: errType, Message: message}
}

// Insight is a single generated observation about query results.
type Insight struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Recommendation is an actionable suggestion derived from insights.
// Type is one of "email", "award" or "other".
type Recommendation struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// Insights is the structured output of the insights generator, also used
// for the titled user-safe message of terminal error states.
type Insights struct {
	Title           string           `json:"title"`
	Insights        []Insight        `json:"insights"`
	Recommendations []Recommendation `json:"recommendations"`
}

// WorkflowState is the unit of truth for one question's processing pass.
// Question, SessionID and ClientID are set once at creation and never
// mutated; everything else is written by the capability tools and the
// step supervisor as the workflow advances.
type WorkflowState struct {
	Question  string
	SessionID string
	ClientID  int

	ChatContext *ChatContext

	RelevantTables []string

	CurrentSQLQuery string
	CurrentData     []map[string]any
	ResultCount     *int
	QueryTime       *float64

	Insights *Insights

	Error *ToolError

	// Routing control, written by the supervisor, read by the executor.
	NextStep   string
	StepStatus StepStatus
}

// NewWorkflowState creates the initial state for a question.
func NewWorkflowState(question, sessionID string, clientID int) *WorkflowState {
	return &WorkflowState{
		Question:    question,
		SessionID:   sessionID,
		ClientID:    clientID,
		ChatContext: NewChatContext(),
	}
}

// IsWorkflowComplete reports whether the state carries everything a
// successful run produces: a query, its data, the result count and timing,
// and no error.
func (s *WorkflowState) IsWorkflowComplete() bool {
	if s.CurrentSQLQuery == "" || s.CurrentData == nil {
		return false
	}
	if s.ResultCount == nil || s.QueryTime == nil {
		return false
	}
	return s.Error == nil
}

// ClearResults drops query artifacts when a terminal error is produced.
// Data must never survive into an error response.
func (s *WorkflowState) ClearResults() {
	s.CurrentSQLQuery = ""
	s.CurrentData = nil
	s.ResultCount = nil
	s.QueryTime = nil
}
