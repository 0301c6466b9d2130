package workflow

import (
	"github.com/loyaltyiq/loyalty-engine/pkg/models"
)

// errorTitles maps error types to the short title shown to the user.
var errorTitles = map[string]string{
	models.ErrTypeSecurityViolation:  "Security Check Failed",
	models.ErrTypeClientIDViolation:  "Invalid Client ID",
	models.ErrTypeIDViolation:        "Invalid Question",
	models.ErrTypeMissingClientID:    "System Error",
	models.ErrTypeDangerousOperation: "Invalid Operation",
	models.ErrTypeMaxRetriesExceeded: "Unable to Process",
	models.ErrTypeValidation:         "Unable to Process",
	models.ErrTypeSQLGeneration:      "Query Generation Error",
	models.ErrTypeQueryExecution:     "Database Query Error",
	models.ErrTypeInsightsGeneration: "Analysis Error",
	models.ErrTypeUnexpected:         "System Error",
}

// userMessages maps error types to the safe message returned to the user in
// place of the technical error.
var userMessages = map[string]string{
	models.ErrTypeSecurityViolation:  "Your question contains potentially harmful content. Please rephrase it.",
	models.ErrTypeClientIDViolation:  "I cannot process questions that reference specific client IDs.",
	models.ErrTypeIDViolation:        "ID specifications are not allowed in questions. Please describe the data you need instead.",
	models.ErrTypeMissingClientID:    "I'm unable to process your request at this time. Please try again.",
	models.ErrTypeDangerousOperation: "The requested operation is not allowed.",
	models.ErrTypeValidation:         "I couldn't validate the results properly. Please try rephrasing your question.",
	models.ErrTypeMaxRetriesExceeded: "I'm having trouble understanding your question. Could you please rephrase it?",
	models.ErrTypeSQLGeneration:      "I'm having trouble converting your question into a database query. Please try rephrasing it.",
	models.ErrTypeQueryExecution:     "I encountered an error while retrieving the data. Please try again.",
	models.ErrTypeTableSelection:     "I'm having trouble identifying the relevant data for your question. Please try rephrasing it.",
	models.ErrTypeNoRelevantTables:   "I couldn't find data relevant to your question. Please try rephrasing it.",
	models.ErrTypeInsightsGeneration: "I'm having trouble analyzing the data. Please try a different question.",
	models.ErrTypeInsightsParse:      "I'm having trouble interpreting the analysis results. Please try again.",
	models.ErrTypeUnexpected:         "An unexpected error occurred. Please try again later.",
}

// ErrorTitle returns the user-facing title for an error type.
func ErrorTitle(errType string) string {
	if title, ok := errorTitles[errType]; ok {
		return title
	}
	return "Error"
}

// UserFriendlyMessage converts a technical error into the message shown to
// the user. Unknown error types fall back to the technical message when one
// exists, otherwise to a generic apology.
func UserFriendlyMessage(errType, errMessage string) string {
	if msg, ok := userMessages[errType]; ok {
		return msg
	}
	if errMessage != "" {
		return errMessage
	}
	return "I'm having trouble processing your request. Please try rephrasing your question."
}

// applyTerminalError standardizes a terminal error state: query artifacts
// are dropped and the insights slot carries a titled, user-safe explanation.
func applyTerminalError(state *models.WorkflowState) {
	if state.Error == nil {
		return
	}

	state.ClearResults()
	state.Insights = &models.Insights{
		Title: ErrorTitle(state.Error.Type),
		Insights: []models.Insight{
			{ID: 1, Text: UserFriendlyMessage(state.Error.Type, state.Error.Message)},
		},
		Recommendations: []models.Recommendation{
			{
				ID:          1,
				Title:       "Try Again",
				Description: "Please rephrase your question or try different parameters.",
				Type:        "other",
			},
		},
	}
	state.StepStatus = models.StepStatusComplete
}
