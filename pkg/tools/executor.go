package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/loyaltyiq/loyalty-engine/pkg/logging"
	"github.com/loyaltyiq/loyalty-engine/pkg/models"
	"github.com/loyaltyiq/loyalty-engine/pkg/retry"
)

// QueryBackend executes a validated SQL query and returns the result rows.
type QueryBackend interface {
	Query(ctx context.Context, sqlQuery string) ([]map[string]any, error)
}

// defaultQueryTimeout bounds a query execution call when no timeout is
// configured. A hung backend must never wedge the pipeline.
const defaultQueryTimeout = 30 * time.Second

// QueryExecutor runs the generated query against the configured backend and
// records the rows, row count and elapsed time on the state.
type QueryExecutor struct {
	backend  QueryBackend
	timeout  time.Duration
	retryCfg *retry.Config
	logger   *zap.Logger
}

var _ Tool = (*QueryExecutor)(nil)

// NewQueryExecutor creates the query execution tool. timeout <= 0 selects
// the default bound.
func NewQueryExecutor(backend QueryBackend, timeout time.Duration, logger *zap.Logger) *QueryExecutor {
	if timeout <= 0 {
		timeout = defaultQueryTimeout
	}
	return &QueryExecutor{
		backend:  backend,
		timeout:  timeout,
		retryCfg: retry.DefaultConfig(),
		logger:   logger.Named("executor"),
	}
}

// Name implements Tool.
func (t *QueryExecutor) Name() string { return NameQueryExecutor }

// Run implements Tool.
func (t *QueryExecutor) Run(ctx context.Context, state *models.WorkflowState) *models.ToolError {
	if state.CurrentSQLQuery == "" {
		return models.NewToolError(models.ErrTypeQueryExecution, "No SQL query to execute")
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	start := time.Now()

	var rows []map[string]any
	err := retry.DoIfRetryable(ctx, t.retryCfg, func() error {
		var queryErr error
		rows, queryErr = t.backend.Query(ctx, state.CurrentSQLQuery)
		return queryErr
	})

	elapsed := time.Since(start).Seconds()

	if err != nil {
		t.logger.Error("query execution failed",
			zap.String("query", logging.SanitizeQuery(state.CurrentSQLQuery)),
			zap.Float64("elapsed_seconds", elapsed),
			zap.Error(err))
		state.CurrentData = []map[string]any{}
		count := 0
		state.ResultCount = &count
		return models.NewToolError(models.ErrTypeQueryExecution, logging.SanitizeError(err))
	}

	if rows == nil {
		rows = []map[string]any{}
	}

	count := len(rows)
	state.CurrentData = rows
	state.ResultCount = &count
	state.QueryTime = &elapsed

	t.logger.Info("query executed",
		zap.Int("rows", count),
		zap.Float64("elapsed_seconds", elapsed))
	return nil
}

// HTTPBackend sends queries to an HTTP query service, GET {base}/query with
// the SQL in the query parameter. The service may answer with a JSON array
// of rows, a single object, or a {results, count} envelope.
type HTTPBackend struct {
	baseURL string
	client  *http.Client
}

var _ QueryBackend = (*HTTPBackend)(nil)

// NewHTTPBackend creates an HTTP query backend.
func NewHTTPBackend(baseURL string, timeout time.Duration) *HTTPBackend {
	return &HTTPBackend{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Query implements QueryBackend.
func (b *HTTPBackend) Query(ctx context.Context, sqlQuery string) ([]map[string]any, error) {
	endpoint := fmt.Sprintf("%s/query?%s", b.baseURL, url.Values{"query": {sqlQuery}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "loyalty-engine/1.0")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read query response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("query service returned %d: %s", resp.StatusCode, logging.TruncateString(string(body), 200))
	}

	return decodeRows(body)
}

// decodeRows accepts the response shapes the query service may produce and
// normalizes them to a list of rows.
func decodeRows(body []byte) ([]map[string]any, error) {
	var asList []map[string]any
	if err := json.Unmarshal(body, &asList); err == nil {
		return asList, nil
	}

	var asObject map[string]any
	if err := json.Unmarshal(body, &asObject); err == nil {
		// {results: [...], count: n} envelope
		if results, ok := asObject["results"].([]any); ok {
			rows := make([]map[string]any, 0, len(results))
			for _, item := range results {
				if row, ok := item.(map[string]any); ok {
					rows = append(rows, row)
				}
			}
			return rows, nil
		}
		// Single object is a single row
		return []map[string]any{asObject}, nil
	}

	var scalar any
	if err := json.Unmarshal(body, &scalar); err == nil {
		return []map[string]any{{"value": scalar}}, nil
	}

	return nil, fmt.Errorf("unparseable query response")
}
