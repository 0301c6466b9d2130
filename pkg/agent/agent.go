// Package agent is the top-level façade over the workflow engine: it
// decides whether a question can be answered directly from conversation
// context or needs the full data workflow, runs the chosen path, and shapes
// the result into the external response.
package agent

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/loyaltyiq/loyalty-engine/pkg/apperrors"
	"github.com/loyaltyiq/loyalty-engine/pkg/chat"
	"github.com/loyaltyiq/loyalty-engine/pkg/llm"
	"github.com/loyaltyiq/loyalty-engine/pkg/logging"
	"github.com/loyaltyiq/loyalty-engine/pkg/models"
	"github.com/loyaltyiq/loyalty-engine/pkg/prompts"
	"github.com/loyaltyiq/loyalty-engine/pkg/schema"
	"github.com/loyaltyiq/loyalty-engine/pkg/workflow"
)

// summaryFallback is returned when the summary model call itself fails.
const summaryFallback = "I'm having trouble generating a response. Please try again."

// Config holds agent behavior settings.
type Config struct {
	// DefaultClientID is applied when a request does not carry one.
	DefaultClientID int

	// UsePlanner selects model-driven planning; when false every workflow
	// question runs the default plan.
	UsePlanner bool
}

// Agent processes natural language questions about loyalty program data.
type Agent struct {
	cfg      Config
	client   llm.Client
	planner  *workflow.Planner
	executor *workflow.Executor
	store    chat.Store
	schema   *schema.Schema
	logger   *zap.Logger
}

// New creates the agent façade. planner may be nil when planning is
// disabled.
func New(cfg Config, client llm.Client, planner *workflow.Planner, executor *workflow.Executor, store chat.Store, s *schema.Schema, logger *zap.Logger) *Agent {
	return &Agent{
		cfg:      cfg,
		client:   client,
		planner:  planner,
		executor: executor,
		store:    store,
		schema:   s,
		logger:   logger.Named("agent"),
	}
}

// decisionVerdict is the model's routing choice for a question.
type decisionVerdict struct {
	Decision  string `json:"decision"`
	Reasoning string `json:"reasoning"`
}

// ProcessQuestion is the top-level entry point. It always returns a usable
// response; internal failures are folded into an error-shaped response
// rather than propagated.
func (a *Agent) ProcessQuestion(ctx context.Context, question, sessionID string, clientID int) (resp *models.Response) {
	if clientID == 0 {
		clientID = a.cfg.DefaultClientID
	}

	a.logger.Info("processing question",
		zap.String("question", logging.SanitizeQuestion(question)),
		zap.String("session_id", sessionID),
		zap.Int("client_id", clientID))

	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("panic while processing question", zap.Any("panic", r))
			resp = a.unexpectedErrorResponse(ctx, question, sessionID, fmt.Sprintf("%v", r))
		}
	}()

	chatContext := a.loadChatContext(ctx, sessionID)

	if a.decide(ctx, question, chatContext) == "direct" {
		return a.answerDirect(ctx, question, sessionID, chatContext)
	}
	return a.runWorkflow(ctx, question, sessionID, clientID, chatContext)
}

// loadChatContext builds the bounded prompting context from the last
// history turns. A missing or unreadable session yields an empty context,
// never an error.
func (a *Agent) loadChatContext(ctx context.Context, sessionID string) *models.ChatContext {
	chatContext := models.NewChatContext()
	if sessionID == "" {
		return chatContext
	}

	history, err := a.store.GetHistory(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrSessionNotFound) {
			a.logger.Warn("could not load chat history", zap.Error(err))
		}
		return chatContext
	}

	if len(history) > models.MaxContextTurns {
		history = history[len(history)-models.MaxContextTurns:]
	}

	for _, entry := range history {
		chatContext.AppendQuestion(entry.Question)
		if entry.Response == nil {
			continue
		}
		chatContext.AppendResponse(entry.Response.AgentResponse)
		if entry.Response.SQLQuery != "" {
			chatContext.AppendSQLQuery(entry.Response.SQLQuery)
		}
		if entry.Response.Data != nil {
			chatContext.AppendData(entry.Response.Data)
		}
		if len(entry.Response.Insights) > 0 || entry.Response.Title != "" {
			chatContext.AppendInsights(&models.Insights{
				Title:           entry.Response.Title,
				Insights:        entry.Response.Insights,
				Recommendations: entry.Response.Recommendations,
			})
		}
	}

	return chatContext
}

// decide routes the question. Any failure defaults to the workflow path,
// which can always produce an answer from scratch.
func (a *Agent) decide(ctx context.Context, question string, chatContext *models.ChatContext) string {
	raw, err := a.client.GenerateResponse(ctx, prompts.Decision(question, chatContext), "", 0)
	if err != nil {
		a.logger.Warn("decision call failed, defaulting to workflow", zap.Error(err))
		return "workflow"
	}

	verdict, err := llm.ParseJSONResponse[decisionVerdict](raw)
	if err != nil || verdict.Decision != "direct" {
		return "workflow"
	}

	a.logger.Info("answering directly", zap.String("reasoning", logging.TruncateString(verdict.Reasoning, 200)))
	return "direct"
}

func (a *Agent) answerDirect(ctx context.Context, question, sessionID string, chatContext *models.ChatContext) *models.Response {
	text, err := a.client.GenerateResponse(ctx, prompts.DirectResponse(question, chatContext), "", 0)
	if err != nil {
		a.logger.Warn("direct response generation failed", zap.Error(err))
		text = summaryFallback
	}

	resp := &models.Response{
		AgentResponse:   text,
		Data:            []map[string]any{},
		Insights:        []models.Insight{},
		Recommendations: []models.Recommendation{},
	}
	a.persist(ctx, sessionID, question, resp)
	return resp
}

func (a *Agent) runWorkflow(ctx context.Context, question, sessionID string, clientID int, chatContext *models.ChatContext) *models.Response {
	state := models.NewWorkflowState(question, sessionID, clientID)
	state.ChatContext = chatContext

	plan := workflow.DefaultPlan()
	if a.cfg.UsePlanner && a.planner != nil {
		plan = a.planner.CreatePlan(ctx, state)
	}

	final := a.executor.Execute(ctx, plan, state)

	if final.Error != nil {
		return a.errorResponse(ctx, question, sessionID, final)
	}

	summary, err := a.client.GenerateResponse(ctx, prompts.WorkflowResponse(question, final), "", 0)
	if err != nil {
		a.logger.Warn("summary generation failed", zap.Error(err))
		summary = summaryFallback
	}

	resp := &models.Response{
		AgentResponse:      summary,
		QueryUnderstanding: fmt.Sprintf("I'm looking for loyalty program data that answers: '%s'", question),
		SQLQuery:           final.CurrentSQLQuery,
		Title:              "Data Analysis",
		Data:               final.CurrentData,
		Insights:           []models.Insight{},
		Recommendations:    []models.Recommendation{},
	}
	if final.ResultCount != nil {
		resp.DatabaseResults.Count = *final.ResultCount
	}
	if final.QueryTime != nil {
		resp.DatabaseResults.Time = *final.QueryTime
	}
	if final.Insights != nil {
		if final.Insights.Title != "" {
			resp.Title = final.Insights.Title
		}
		if final.Insights.Insights != nil {
			resp.Insights = final.Insights.Insights
		}
		if final.Insights.Recommendations != nil {
			resp.Recommendations = final.Insights.Recommendations
		}
	}

	a.persist(ctx, sessionID, question, resp)
	return resp
}

// errorResponse shapes a terminal workflow error into the external response:
// user-safe title and insight text, no query artifacts, and the original
// error type preserved in the error field.
func (a *Agent) errorResponse(ctx context.Context, question, sessionID string, final *models.WorkflowState) *models.Response {
	userMessage := workflow.UserFriendlyMessage(final.Error.Type, final.Error.Message)

	resp := &models.Response{
		AgentResponse:      userMessage,
		QueryUnderstanding: final.Error.Message,
		Title:              workflow.ErrorTitle(final.Error.Type),
		Data:               []map[string]any{},
		Insights:           []models.Insight{},
		Recommendations:    []models.Recommendation{},
		Error: &models.ResponseError{
			Type:    final.Error.Type,
			Message: final.Error.Message,
		},
	}
	if final.Insights != nil {
		resp.Insights = final.Insights.Insights
		resp.Recommendations = final.Insights.Recommendations
	}

	a.persist(ctx, sessionID, question, resp)
	return resp
}

// unexpectedErrorResponse is the catch-all shape for failures outside the
// workflow's own error handling. It is persisted like any other turn.
func (a *Agent) unexpectedErrorResponse(ctx context.Context, question, sessionID, detail string) *models.Response {
	resp := &models.Response{
		AgentResponse:   workflow.UserFriendlyMessage(models.ErrTypeUnexpected, detail),
		Title:           workflow.ErrorTitle(models.ErrTypeUnexpected),
		Data:            []map[string]any{},
		Insights:        []models.Insight{},
		Recommendations: []models.Recommendation{},
		Error: &models.ResponseError{
			Type:    models.ErrTypeUnexpected,
			Message: detail,
		},
	}
	a.persist(ctx, sessionID, question, resp)
	return resp
}

func (a *Agent) persist(ctx context.Context, sessionID, question string, resp *models.Response) {
	if sessionID == "" {
		return
	}
	if err := a.store.AddMessage(ctx, sessionID, question, resp); err != nil {
		a.logger.Warn("could not persist chat turn", zap.Error(err))
	}
}

// CreateChatSession starts a new conversation and returns its ID.
func (a *Agent) CreateChatSession(ctx context.Context) (string, error) {
	return a.store.CreateSession(ctx)
}

// GetChatHistory returns all turns of a session.
func (a *Agent) GetChatHistory(ctx context.Context, sessionID string) ([]chat.Entry, error) {
	return a.store.GetHistory(ctx, sessionID)
}

// ClearChatHistory empties a session without deleting it.
func (a *Agent) ClearChatHistory(ctx context.Context, sessionID string) error {
	return a.store.ClearHistory(ctx, sessionID)
}

// GetSchema returns the loaded database schema.
func (a *Agent) GetSchema() *schema.Schema {
	return a.schema
}
