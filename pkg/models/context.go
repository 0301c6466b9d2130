package models

// MaxContextTurns bounds the rolling conversation history injected into
// prompts. The underlying session log is unbounded; only the view used
// for prompting is capped.
const MaxContextTurns = 3

// ChatContext is the bounded cross-turn conversational context threaded
// through a question's processing pass. History slices hold at most
// MaxContextTurns entries, newest last.
type ChatContext struct {
	PreviousQuestions  []string
	PreviousSQLQueries []string
	PreviousResponses  []string
	PreviousData       [][]map[string]any
	PreviousInsights   []*Insights
}

// NewChatContext returns an empty context.
func NewChatContext() *ChatContext {
	return &ChatContext{}
}

func boundStrings(s []string) []string {
	if len(s) > MaxContextTurns {
		return s[len(s)-MaxContextTurns:]
	}
	return s
}

// AppendQuestion records a question, keeping the last MaxContextTurns.
func (c *ChatContext) AppendQuestion(q string) {
	c.PreviousQuestions = boundStrings(append(c.PreviousQuestions, q))
}

// AppendSQLQuery records a generated SQL query.
func (c *ChatContext) AppendSQLQuery(sql string) {
	c.PreviousSQLQueries = boundStrings(append(c.PreviousSQLQueries, sql))
}

// AppendResponse records a final agent response shown to the user.
func (c *ChatContext) AppendResponse(resp string) {
	c.PreviousResponses = boundStrings(append(c.PreviousResponses, resp))
}

// AppendData records a turn's query results.
func (c *ChatContext) AppendData(data []map[string]any) {
	c.PreviousData = append(c.PreviousData, data)
	if len(c.PreviousData) > MaxContextTurns {
		c.PreviousData = c.PreviousData[len(c.PreviousData)-MaxContextTurns:]
	}
}

// AppendInsights records a turn's generated insights.
func (c *ChatContext) AppendInsights(ins *Insights) {
	c.PreviousInsights = append(c.PreviousInsights, ins)
	if len(c.PreviousInsights) > MaxContextTurns {
		c.PreviousInsights = c.PreviousInsights[len(c.PreviousInsights)-MaxContextTurns:]
	}
}

// Merge folds other into c: history lists are appended then bounded,
// so the receiver keeps the most recent entries across both.
func (c *ChatContext) Merge(other *ChatContext) {
	if other == nil {
		return
	}
	for _, q := range other.PreviousQuestions {
		c.AppendQuestion(q)
	}
	for _, sql := range other.PreviousSQLQueries {
		c.AppendSQLQuery(sql)
	}
	for _, r := range other.PreviousResponses {
		c.AppendResponse(r)
	}
	for _, d := range other.PreviousData {
		c.AppendData(d)
	}
	for _, i := range other.PreviousInsights {
		c.AppendInsights(i)
	}
}

// IsEmpty reports whether the context carries any prior turns.
func (c *ChatContext) IsEmpty() bool {
	return len(c.PreviousQuestions) == 0 &&
		len(c.PreviousSQLQueries) == 0 &&
		len(c.PreviousResponses) == 0 &&
		len(c.PreviousData) == 0 &&
		len(c.PreviousInsights) == 0
}
