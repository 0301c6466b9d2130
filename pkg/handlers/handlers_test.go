package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/loyaltyiq/loyalty-engine/pkg/agent"
	"github.com/loyaltyiq/loyalty-engine/pkg/chat"
	"github.com/loyaltyiq/loyalty-engine/pkg/config"
	"github.com/loyaltyiq/loyalty-engine/pkg/llm"
	"github.com/loyaltyiq/loyalty-engine/pkg/models"
	"github.com/loyaltyiq/loyalty-engine/pkg/schema"
	"github.com/loyaltyiq/loyalty-engine/pkg/tools"
	"github.com/loyaltyiq/loyalty-engine/pkg/workflow"
)

// scriptedClient answers each prompt kind so the full pipeline runs
// without a real inference backend.
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

// testServer builds the full routing surface backed by an in-memory
// chat store and a fake query service.
func testServer(t *testing.T) (*httptest.Server, chat.Store) {
	t.Helper()

	querySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"total_earned_points": 170618272}]`))
	}))
	t.Cleanup(querySrv.Close)

	s := &schema.Schema{Tables: []schema.Table{
		{
			Name:        "points_transactions",
			Description: "Records of points earned or redeemed by customers",
			Columns: []schema.Column{
				{Name: "points", Type: "integer", Description: "Number of points"},
			},
		},
	}}

	client := scriptedClient()
	logger := zap.NewNop()
	registry := tools.NewRegistry(
		tools.NewSecurityValidator(logger),
		tools.NewTableSelector(client, s, logger),
		tools.NewSQLGenerator(client, s, logger),
		tools.NewQueryExecutor(tools.NewHTTPBackend(querySrv.URL, 5*time.Second), 5*time.Second, logger),
		tools.NewResponseValidator(client, logger),
		tools.NewInsightsGenerator(client, logger),
	)

	executor := workflow.NewExecutor(workflow.NewSupervisor(3, logger), registry, logger)
	store := chat.NewMemoryStore()

	a := agent.New(
		agent.Config{DefaultClientID: 5252, UsePlanner: false},
		client,
		nil,
		executor,
		store,
		s,
		logger,
	)

	cfg := &config.Config{Version: "test", Env: "test"}

	mux := http.NewServeMux()
	NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	NewQueryHandler(a, logger).RegisterRoutes(mux)
	NewSchemaHandler(a, logger).RegisterRoutes(mux)
	NewChatHandler(a, logger).RegisterRoutes(mux)

	srv := httptest.NewServer(RequestLogger(logger, mux))
	t.Cleanup(srv.Close)
	return srv, store
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/ping")
	require.NoError(t, err)
	defer resp2.Body.Close()

	var ping PingResponse
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&ping))
	assert.Equal(t, "ok", ping.Status)
	assert.Equal(t, "loyalty-engine", ping.Service)
	assert.Equal(t, "test", ping.Version)
}

func TestQueryRejectsInvalidJSON(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Post(srv.URL+"/api/query", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "invalid_request", body["error"])
}

func TestQueryRejectsMissingQuestion(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Post(srv.URL+"/api/query", "application/json", strings.NewReader(`{"session_id": "abc"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "missing_question", body["error"])
}

func TestQueryAnswersQuestion(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Post(srv.URL+"/api/query", "application/json",
		strings.NewReader(`{"question": "How many points did my customers earn last week?"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body models.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Nil(t, body.Error)
	assert.Contains(t, body.SQLQuery, "client_id = 5252")
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Weekly Points Earned", body.Title)
}

func TestQueryReturnsBusinessErrorInBody(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Post(srv.URL+"/api/query", "application/json",
		strings.NewReader(`{"question": "What is client_id 42's balance?"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	// Screened questions still answer with HTTP 200; the error rides in the body.
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body models.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotNil(t, body.Error)
	assert.Equal(t, models.ErrTypeClientIDViolation, body.Error.Type)
	assert.Equal(t, "Invalid Client ID", body.Title)
	assert.Empty(t, body.Data)
}

func TestSchemaEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/api/schema")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body SchemaResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotNil(t, body.Schema)
	require.Len(t, body.Schema.Tables, 1)
	assert.Equal(t, "points_transactions", body.Schema.Tables[0].Name)
}

func TestChatSessionLifecycle(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Post(srv.URL+"/api/chat/session", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var created map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	sessionID := created["session_id"]
	require.NotEmpty(t, sessionID)

	// New session starts with an empty history, not null.
	histResp, err := http.Get(srv.URL + "/api/chat/history/" + sessionID)
	require.NoError(t, err)
	defer histResp.Body.Close()
	require.Equal(t, http.StatusOK, histResp.StatusCode)

	var hist struct {
		History []chat.Entry `json:"history"`
	}
	require.NoError(t, json.NewDecoder(histResp.Body).Decode(&hist))
	assert.Empty(t, hist.History)

	// Ask a question in the session, then the turn shows up.
	queryResp, err := http.Post(srv.URL+"/api/query", "application/json",
		strings.NewReader(`{"question": "How many points did my customers earn last week?", "session_id": "`+sessionID+`"}`))
	require.NoError(t, err)
	queryResp.Body.Close()

	histResp2, err := http.Get(srv.URL + "/api/chat/history/" + sessionID)
	require.NoError(t, err)
	defer histResp2.Body.Close()
	require.NoError(t, json.NewDecoder(histResp2.Body).Decode(&hist))
	require.Len(t, hist.History, 1)
	assert.Equal(t, "How many points did my customers earn last week?", hist.History[0].Question)

	// Clearing empties the history but keeps the session valid.
	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/chat/history/"+sessionID, nil)
	require.NoError(t, err)
	clearResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer clearResp.Body.Close()
	assert.Equal(t, http.StatusOK, clearResp.StatusCode)

	histResp3, err := http.Get(srv.URL + "/api/chat/history/" + sessionID)
	require.NoError(t, err)
	defer histResp3.Body.Close()
	require.Equal(t, http.StatusOK, histResp3.StatusCode)
	require.NoError(t, json.NewDecoder(histResp3.Body).Decode(&hist))
	assert.Empty(t, hist.History)
}

func TestChatHistoryUnknownSession(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/api/chat/history/no-such-session")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/chat/history/no-such-session", nil)
	require.NoError(t, err)
	clearResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer clearResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, clearResp.StatusCode)
}
