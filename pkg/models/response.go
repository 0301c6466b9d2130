package models

// DatabaseResults summarizes query execution for the response body.
type DatabaseResults struct {
	Count int     `json:"count"`
	Time  float64 `json:"time"`
}

// ResponseError carries the original technical error for diagnostics.
// The user-facing title and insight text always come from the safe
// message lookup, never from here.
type ResponseError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Response is the external response shape for POST /api/query. The same
// schema is used for success and handled business errors; errors are
// encoded in-body with HTTP 200.
type Response struct {
	AgentResponse      string           `json:"agent_response,omitempty"`
	QueryUnderstanding string           `json:"queryUnderstanding,omitempty"`
	SQLQuery           string           `json:"sqlQuery"`
	DatabaseResults    DatabaseResults  `json:"databaseResults"`
	Title              string           `json:"title"`
	Data               []map[string]any `json:"data"`
	Insights           []Insight        `json:"insights"`
	Recommendations    []Recommendation `json:"recommendations"`
	Error              *ResponseError   `json:"error,omitempty"`
}
