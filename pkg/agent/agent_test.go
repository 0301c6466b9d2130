package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/loyaltyiq/loyalty-engine/pkg/chat"
	"github.com/loyaltyiq/loyalty-engine/pkg/llm"
	"github.com/loyaltyiq/loyalty-engine/pkg/models"
	"github.com/loyaltyiq/loyalty-engine/pkg/schema"
	"github.com/loyaltyiq/loyalty-engine/pkg/tools"
	"github.com/loyaltyiq/loyalty-engine/pkg/workflow"
)

// scriptedClient answers each prompt kind the way a cooperative model
// would, so the full pipeline can run without a real inference backend.
func scriptedClient() *llm.MockClient {
	mock := llm.NewMockClient()
	mock.GenerateResponseFunc = func(_ context.Context, prompt, _ string, _ float64) (string, error) {
		switch {
		case strings.Contains(prompt, "decision-making agent"):
			return `{"decision": "workflow", "reasoning": "needs fresh data"}`, nil
		case strings.Contains(prompt, "identify relevant tables"):
			return `["points_transactions"]`, nil
		case strings.Contains(prompt, "convert a natural language question into a SQL query"):
			return "SELECT SUM(points) AS total_earned_points FROM points_transactions WHERE client_id = 5252", nil
		case strings.Contains(prompt, "Evaluate if this response properly answers"):
			return `{"is_valid": true, "needs_retry": false, "error_message": "", "error_type": "", "confidence": 0.95}`, nil
		case strings.Contains(prompt, "business intelligence analyst"):
			return `{"title": "Weekly Points Earned", "insights": [{"id": 1, "text": "Customers earned over 170M points"}], "recommendations": []}`, nil
		default:
			return "Your customers earned 170,618,272 points last week.", nil
		}
	}
	return mock
}

func testAgent(t *testing.T, client llm.Client) (*Agent, chat.Store) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"total_earned_points": 170618272}]`))
	}))
	t.Cleanup(srv.Close)

	s := &schema.Schema{Tables: []schema.Table{
		{
			Name:        "points_transactions",
			Description: "Records of points earned or redeemed by customers",
			Columns: []schema.Column{
				{Name: "points", Type: "integer", Description: "Number of points"},
			},
		},
	}}

	logger := zap.NewNop()
	registry := tools.NewRegistry(
		tools.NewSecurityValidator(logger),
		tools.NewTableSelector(client, s, logger),
		tools.NewSQLGenerator(client, s, logger),
		tools.NewQueryExecutor(tools.NewHTTPBackend(srv.URL, 5*time.Second), 5*time.Second, logger),
		tools.NewResponseValidator(client, logger),
		tools.NewInsightsGenerator(client, logger),
	)

	executor := workflow.NewExecutor(workflow.NewSupervisor(3, logger), registry, logger)
	store := chat.NewMemoryStore()

	a := New(
		Config{DefaultClientID: 5252, UsePlanner: false},
		client,
		nil,
		executor,
		store,
		s,
		logger,
	)
	return a, store
}

func TestProcessQuestionWorkflowPath(t *testing.T) {
	a, _ := testAgent(t, scriptedClient())

	resp := a.ProcessQuestion(context.Background(), "How many points did my customers earn last week?", "", 0)

	require.NotNil(t, resp)
	assert.Nil(t, resp.Error)
	assert.Contains(t, resp.SQLQuery, "client_id = 5252")
	require.Len(t, resp.Data, 1)
	assert.Equal(t, float64(170618272), resp.Data[0]["total_earned_points"])
	assert.Equal(t, 1, resp.DatabaseResults.Count)
	assert.Equal(t, "Weekly Points Earned", resp.Title)
	assert.Equal(t, "I'm looking for loyalty program data that answers: 'How many points did my customers earn last week?'", resp.QueryUnderstanding)
	assert.NotEmpty(t, resp.AgentResponse)
}

func TestProcessQuestionRejectsClientIDReference(t *testing.T) {
	a, _ := testAgent(t, scriptedClient())

	resp := a.ProcessQuestion(context.Background(), "What is client_id 42's balance?", "", 0)

	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, models.ErrTypeClientIDViolation, resp.Error.Type)
	assert.Empty(t, resp.Data)
	assert.Empty(t, resp.SQLQuery)
	assert.Equal(t, "Invalid Client ID", resp.Title)
	assert.Equal(t, "I cannot process questions that reference specific client IDs.", resp.AgentResponse)
}

func TestProcessQuestionDirectPath(t *testing.T) {
	mock := llm.NewMockClient()
	mock.GenerateResponseFunc = func(_ context.Context, prompt, _ string, _ float64) (string, error) {
		if strings.Contains(prompt, "decision-making agent") {
			return `{"decision": "direct", "reasoning": "greeting"}`, nil
		}
		return "Hello! I can help you analyze your loyalty program data.", nil
	}
	a, store := testAgent(t, mock)

	sessionID, err := store.CreateSession(context.Background())
	require.NoError(t, err)

	resp := a.ProcessQuestion(context.Background(), "Hi there!", sessionID, 0)

	require.NotNil(t, resp)
	assert.Nil(t, resp.Error)
	assert.Empty(t, resp.SQLQuery)
	assert.Equal(t, "Hello! I can help you analyze your loyalty program data.", resp.AgentResponse)

	history, err := store.GetHistory(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Hi there!", history[0].Question)
}

func TestProcessQuestionUnparseableDecisionUsesWorkflow(t *testing.T) {
	mock := scriptedClient()
	inner := mock.GenerateResponseFunc
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, system string, temp float64) (string, error) {
		if strings.Contains(prompt, "decision-making agent") {
			return "hmm, hard to say", nil
		}
		return inner(ctx, prompt, system, temp)
	}
	a, _ := testAgent(t, mock)

	resp := a.ProcessQuestion(context.Background(), "How many points did my customers earn last week?", "", 0)

	require.NotNil(t, resp)
	assert.Nil(t, resp.Error)
	assert.NotEmpty(t, resp.SQLQuery, "workflow path should have produced SQL")
}

func TestProcessQuestionPersistsWorkflowTurns(t *testing.T) {
	a, store := testAgent(t, scriptedClient())

	sessionID, err := store.CreateSession(context.Background())
	require.NoError(t, err)

	resp := a.ProcessQuestion(context.Background(), "How many points did my customers earn last week?", sessionID, 0)
	require.Nil(t, resp.Error)

	history, err := store.GetHistory(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, resp.SQLQuery, history[0].Response.SQLQuery)
}

func TestProcessQuestionUnknownSessionStillAnswers(t *testing.T) {
	a, _ := testAgent(t, scriptedClient())

	resp := a.ProcessQuestion(context.Background(), "How many points did my customers earn last week?", "no-such-session", 0)

	require.NotNil(t, resp)
	assert.Nil(t, resp.Error, "a missing session must not fail the question")
}

func TestProcessQuestionErrorTurnPersisted(t *testing.T) {
	a, store := testAgent(t, scriptedClient())

	sessionID, err := store.CreateSession(context.Background())
	require.NoError(t, err)

	resp := a.ProcessQuestion(context.Background(), "What is client_id 42's balance?", sessionID, 0)
	require.NotNil(t, resp.Error)

	history, err := store.GetHistory(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].Response.Error)
	assert.Equal(t, models.ErrTypeClientIDViolation, history[0].Response.Error.Type)
}
