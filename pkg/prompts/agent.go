// Package prompts builds the prompt text sent to the model for each
// decision and tool call.
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/loyaltyiq/loyalty-engine/pkg/models"
)

// mustJSON renders v as indented JSON for embedding in prompts.
// Marshal failures degrade to an empty object rather than aborting
// prompt construction.
func mustJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// compactJSON renders v as single-line JSON.
func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// Decision builds the prompt that decides between answering directly from
// chat context and running the data workflow.
func Decision(question string, chatContext *models.ChatContext) string {
	var b strings.Builder

	b.WriteString("You are a decision-making agent for a loyalty program data analysis system. ")
	b.WriteString("Your task is to decide whether to answer the user's question directly (if you already have the information) or to use the workflow to get the data.\n\n")
	fmt.Fprintf(&b, "User question: %s\n\n", question)
	fmt.Fprintf(&b, "Chat context: %s\n\n", mustJSON(chatContext))
	b.WriteString(`Decision criteria:
1. Answer directly if:
   - The question can be answered using EXACT information in the chat context
   - The question is asking for clarification of previously shown data (e.g., "what does this number mean?")
   - The question is asking for an opinion about data we already have
   - The question is a simple greeting or non-data related question
2. Use workflow if:
   - The question requires new data not in the chat context
   - The question is asking for different metrics or dimensions of data we already have
   - The question is asking for distribution or breakdown of data we only have in aggregate
   - The question is asking for comparisons with different parameters
   - The question is asking for trends or patterns not visible in current data
   - The question is asking for additional details about data we only have in summary form
   - The question is asking "where did this come from?" or "how was this calculated?" about aggregated data

Return a JSON object with:
{
    "decision": "direct" or "workflow",
    "reasoning": "explanation of your decision"
}`)

	return b.String()
}

// DirectResponse builds the prompt for answering a question from chat
// context alone, without running the workflow.
func DirectResponse(question string, chatContext *models.ChatContext) string {
	var b strings.Builder

	b.WriteString("You are a Loyalty Program Data Analysis Assistant. ")
	b.WriteString("Your purpose is to help users understand and analyze their loyalty program data.\n\n")
	fmt.Fprintf(&b, "Current Question: %s\n\n", question)
	fmt.Fprintf(&b, "Chat context: %s\n\n", mustJSON(chatContext))
	b.WriteString(`Guidelines:
- If it's a greeting or simple question, be friendly and explain your capabilities
- If it's a follow-up, reference the previous context and data
- If it's asking for clarification, explain the data clearly
- If it's asking for an opinion, provide a data-informed assessment
- Keep the response concise and clear
- If you can't answer with the available context, explain what kind of data would be needed
- Always maintain a helpful and professional tone
- Focus on loyalty program insights and customer behavior
- If asked about capabilities, explain what kind of loyalty program analysis you can do`)

	return b.String()
}

// WorkflowResponse builds the prompt that turns a completed workflow state
// into a conversational summary answer.
func WorkflowResponse(question string, state *models.WorkflowState) string {
	var b strings.Builder

	b.WriteString("You are a Loyalty Program Data Analysis Assistant. ")
	b.WriteString("Your purpose is to help users understand and analyze their loyalty program data.\n\n")
	fmt.Fprintf(&b, "Current Question: %s\n\n", question)
	b.WriteString("Chat History Context:\n")
	fmt.Fprintf(&b, "- Previous Questions: %s\n", mustJSON(state.ChatContext.PreviousQuestions))
	fmt.Fprintf(&b, "- Previous Data: %s\n", mustJSON(state.ChatContext.PreviousData))
	fmt.Fprintf(&b, "- Previous Insights: %s\n\n", mustJSON(state.ChatContext.PreviousInsights))
	b.WriteString("Current Data and Insights:\n")
	fmt.Fprintf(&b, "- Current Data: %s\n", mustJSON(state.CurrentData))
	fmt.Fprintf(&b, "- Current Insights: %s\n\n", mustJSON(state.Insights))
	b.WriteString(`Guidelines:
1. First, analyze if the current data and insights directly answer the question:
   - If yes, provide a clear, direct answer using the data
   - Include relevant context from chat history if it helps explain the answer
   - Add any relevant insights that help understand the data better

2. If the current data doesn't fully answer the question:
   - Check if combining current data with chat history provides a complete answer
   - If yes, provide a comprehensive answer using both sources
   - If no, explain what specific information is missing

3. If the data seems irrelevant to the question:
   - Explain why the current data doesn't answer the question
   - Suggest what kind of data would be needed
   - Provide examples of how to rephrase the question

4. Response Structure:
   - Start with a direct answer if available
   - Add context and insights that help understand the answer
   - If data is missing or irrelevant, explain why and what's needed
   - Keep the response focused on the user's question
   - Use a professional but conversational tone

5. Special Cases:
   - If the question is unclear, explain what aspects need clarification
   - If the data shows unexpected patterns, highlight these
   - If there are significant changes from previous data, point these out
   - If the question requires historical context, use chat history to provide it

6. CRITICAL - Client Privacy:
   - NEVER mention client IDs or internal identifiers in your response
   - Do not explain how data was filtered by client
   - Do not mention "for the specified client ID" or similar phrases
   - Do not reference any internal identifiers or technical details about data filtering
   - Focus on the business insights and customer data only`)

	return b.String()
}
