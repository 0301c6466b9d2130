package prompts

import (
	"fmt"
	"strings"

	"github.com/loyaltyiq/loyalty-engine/pkg/models"
)

// Plan builds the planning prompt that asks the model to produce an ordered
// sequence of tool steps for a question.
func Plan(question string, toolDescriptions map[string]string, chatContext *models.ChatContext) string {
	var b strings.Builder

	b.WriteString("You are a workflow planner for a loyalty program data analysis system. ")
	b.WriteString("Your task is to create a sequence of steps to process a user's question.\n\n")
	fmt.Fprintf(&b, "User question: %s\n\n", question)
	fmt.Fprintf(&b, "Available tools and their descriptions:\n%s\n\n", mustJSON(toolDescriptions))
	fmt.Fprintf(&b, "Chat context: %s\n\n", mustJSON(chatContext))
	b.WriteString(`Guidelines for tool selection:
1. ALWAYS start with security validation
2. For follow-up questions or requests for analysis:
   - If the previous question already retrieved relevant data, skip SQL generation and execution
   - Only use insights generation if the question asks for analysis, trends, recommendations, or deeper understanding
   - If the question is just asking for raw data or simple metrics, skip insights generation
3. For new questions:
   - Include SQL generation and query execution for data retrieval
   - Only include insights generation if the question asks for analysis, trends, recommendations, business implications, or "why"
   - Skip insights generation for raw data, simple counts, basic filtering, or schema questions

Return a JSON array of steps, where each step has:
{
    "step_name": "unique_step_name",
    "tool_name": "name_of_tool_to_use",
    "description": "what this step does",
    "next_step": "name_of_next_step_on_success"
}`)

	return b.String()
}

// TableSelection builds the prompt that picks which tables a question needs.
func TableSelection(question string, tableDescriptions map[string]string, chatContext *models.ChatContext) string {
	var b strings.Builder

	b.WriteString("You are a database expert helping to identify relevant tables for a loyalty program query. ")
	b.WriteString("Your task is to determine which tables are needed to answer the user's question.\n\n")
	fmt.Fprintf(&b, "Current question: %s\n\n", question)
	fmt.Fprintf(&b, "Available tables and their descriptions:\n%s\n\n", mustJSON(tableDescriptions))
	b.WriteString("Historical Context (use to understand the context of follow-up questions if needed):\n")
	fmt.Fprintf(&b, "Previous questions: %s\n", compactJSON(chatContext.PreviousQuestions))
	fmt.Fprintf(&b, "Previous SQL queries: %s\n\n", compactJSON(chatContext.PreviousSQLQueries))
	b.WriteString(`Guidelines:
1. Carefully analyze the question and table descriptions to identify ONLY the tables that contain the specific data needed
2. For each selected table, you must be able to explain why its data is essential for answering the question
3. Do not select tables just because they might be related - only select if their data is directly needed
4. Consider the specific metrics, dimensions, or data points mentioned in the question
5. If the question is about:
   - Points/earnings: only select tables that track points or earnings
   - Customer activity: only select tables that track customer actions
   - Campaign performance: only select tables that track campaign metrics
   - Time-based analysis: ensure tables have relevant date/time fields
6. If you're not confident about which tables are needed, return an empty array []
7. If the question is unclear or ambiguous, return an empty array []
8. If the question requires data that isn't available in any table, return an empty array []

IMPORTANT:
- You must respond with a valid JSON array of strings containing ONLY the table names
- If you're not sure, return an empty array []
- Do not include any other text or explanation, just the JSON array
- Be selective - it's better to return fewer tables than to include unnecessary ones

Example response format:
["table1", "table2"] or [] if uncertain`)

	return b.String()
}

// SQLGeneration builds the prompt that converts a question into a SQL query
// over the selected tables. The schema argument is the output of
// schema.FormatForPrompt.
func SQLGeneration(question, schemaPrompt string, clientID int, chatContext *models.ChatContext) string {
	var b strings.Builder

	b.WriteString("You are a SQL expert. Your task is to convert a natural language question into a SQL query.\n\n")
	fmt.Fprintf(&b, "Current question: %s\n\n", question)
	fmt.Fprintf(&b, "Relevant database schema:\n%s\n", schemaPrompt)
	b.WriteString("Historical Context (use only if relevant to current question):\n")
	fmt.Fprintf(&b, "Previous questions: %s\n", compactJSON(chatContext.PreviousQuestions))
	fmt.Fprintf(&b, "Previous SQL queries: %s\n\n", compactJSON(chatContext.PreviousSQLQueries))
	fmt.Fprintf(&b, `Important guidelines:
1. ALWAYS filter by client_id = %d
2. Use proper SQL syntax and formatting
3. Include only necessary columns
4. Use appropriate JOINs if multiple tables are needed
5. Add ORDER BY if the question implies any sorting
6. Use LIMIT if the question implies any limit
7. Use appropriate aggregation functions (COUNT, SUM, AVG, etc.) if needed
8. Format the output as a single, properly formatted SQL query
9. If the current question is a follow-up or references previous questions, ensure the SQL query is consistent with previous queries
10. If the current question asks for comparison or changes over time, reference the appropriate previous queries

Return ONLY the SQL query, nothing else.`, clientID)

	return b.String()
}

// ResponseValidation builds the prompt that checks whether query results
// actually answer the question.
func ResponseValidation(question, sqlQuery string, data []map[string]any) string {
	var b strings.Builder

	b.WriteString("Evaluate if this response properly answers the question.\n\n")
	fmt.Fprintf(&b, "Original Question: %s\n", question)
	fmt.Fprintf(&b, "Generated SQL: %s\n", sqlQuery)
	fmt.Fprintf(&b, "Response: %s\n\n", compactJSON(data))
	b.WriteString(`Check for:
1. Does the SQL query match the question's intent?
2. Are the results relevant to the question?
3. Is there any missing information?
4. Are there any SQL syntax issues?
5. Are the results empty when they shouldn't be?

Return a JSON with:
{
    "is_valid": boolean,
    "needs_retry": boolean,
    "error_message": string,
    "error_type": string,
    "confidence": float between 0 and 1
}`)

	return b.String()
}

// Insights builds the prompt that turns query results into a titled set of
// insights and recommendations.
func Insights(question, sqlQuery string, data []map[string]any, chatContext *models.ChatContext) string {
	var b strings.Builder

	b.WriteString("You are a business intelligence analyst for a loyalty program. ")
	b.WriteString("Your primary task is to analyze the current data and provide insights that directly answer the user's current question.\n\n")
	fmt.Fprintf(&b, "Current Question: %s\n", question)
	fmt.Fprintf(&b, "SQL query that was executed: %s\n", sqlQuery)
	fmt.Fprintf(&b, "Current Query Results: %s\n\n", compactJSON(data))
	b.WriteString("Historical Context (use only if relevant to current question):\n")
	fmt.Fprintf(&b, "Previous questions: %s\n", compactJSON(chatContext.PreviousQuestions))
	fmt.Fprintf(&b, "Previous responses: %s\n\n", compactJSON(chatContext.PreviousResponses))
	b.WriteString(`Your primary focus should be on providing insights that directly answer the current question. Only reference historical context if it helps provide a better answer to the current question.

Please provide:
1. A suitable title for this data analysis (keep it short and informative)
2. 3-5 key insights from the current data that directly address the current question
3. 0-3 actionable business recommendations based on these insights (only include recommendations if they are truly valuable and actionable)

Important guidelines:
- Your primary focus MUST be on answering the current question using the current data
- Only reference historical context if it helps provide a better answer to the current question
- If the current question is a follow-up, only use previous context if it's directly relevant
- Never reference internal client IDs in the insights or recommendations
- Frame recommendations from the client's perspective (e.g., "Send targeted emails to your customers")
- Only include recommendations if they are truly valuable and actionable
- Focus on customer-centric insights and recommendations
- Use "your customers" or "your loyalty program" instead of referencing specific client IDs
- If the current question can be answered without insights or recommendations, focus on providing a clear, direct answer

Format your response as a JSON object with the following structure:
{
  "title": "Analysis title",
  "insights": [
    {"id": 1, "text": "First insight..."},
    {"id": 2, "text": "Second insight..."}
  ],
  "recommendations": [
    {"id": 1, "title": "Recommendation title", "description": "Details...", "type": "email|award|other"}
  ]
}

Note:
- The recommendations array can be empty if no actionable recommendations are warranted
- Always prioritize answering the current question over providing historical context`)

	return b.String()
}
