package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querypilot/internal/apis/dtos"
	"querypilot/pkg/dbmanager"
	"querypilot/pkg/llm"
	"querypilot/pkg/querycache"
	"querypilot/pkg/retry"
)

type stubDriver struct {
	connectCount int32
	executeCount int32
	schema       *dbmanager.SchemaInfo
	rows         []dbmanager.Row
	executeErr   error
}

func (d *stubDriver) Connect(ctx context.Context, config dbmanager.ConnectionConfig, opts dbmanager.PoolOptions) (*dbmanager.Conn, error) {
	atomic.AddInt32(&d.connectCount, 1)
	return &dbmanager.Conn{Type: config.Type, Config: config}, nil
}

func (d *stubDriver) ExtractSchema(ctx context.Context, conn *dbmanager.Conn) (*dbmanager.SchemaInfo, error) {
	return d.schema, nil
}

func (d *stubDriver) ExecuteQuery(ctx context.Context, conn *dbmanager.Conn, sql string, params []interface{}) ([]dbmanager.Row, error) {
	atomic.AddInt32(&d.executeCount, 1)
	if d.executeErr != nil {
		return nil, d.executeErr
	}
	return d.rows, nil
}

func (d *stubDriver) Close(conn *dbmanager.Conn) error {
	return nil
}

type scriptedClient struct {
	text string
}

func (c *scriptedClient) GenerateCompletion(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{Content: []llm.ContentBlock{{Type: "text", Text: c.text}}}, nil
}

func (c *scriptedClient) GetModelInfo() llm.ModelInfo {
	return llm.ModelInfo{Name: "scripted", Provider: "scripted"}
}

func testSchema() *dbmanager.SchemaInfo {
	return &dbmanager.SchemaInfo{
		TableOrder: []string{"users"},
		Tables: map[string]dbmanager.TableSchema{
			"users": {
				Name: "users",
				Columns: []dbmanager.ColumnInfo{
					{Name: "id", Type: "integer", PrimaryKey: true},
					{Name: "name", Type: "text"},
					{Name: "age", Type: "integer"},
				},
			},
		},
	}
}

func newTestService(t *testing.T, driver *stubDriver, client llm.Client) (QueryService, *dbmanager.Manager) {
	t.Helper()

	manager := dbmanager.NewManager(dbmanager.PoolOptions{
		IdleTimeout:     time.Hour,
		CleanupInterval: time.Hour,
	})
	manager.RegisterDriver(dbmanager.TypeSQLite, driver)
	t.Cleanup(manager.Shutdown)

	cache := querycache.NewMemoryStore(querycache.Config{Enabled: true})
	t.Cleanup(func() { cache.Close() })

	pipeline := llm.NewPipeline(client, llm.PipelineConfig{
		RetryOptions: retry.Options{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond},
	})

	return NewQueryService(manager, cache, pipeline, time.Minute), manager
}

func sqliteRequest(query string) *dtos.ProcessQueryRequest {
	return &dtos.ProcessQueryRequest{
		Query:      query,
		Connection: &dtos.ConnectionRequest{Type: "sqlite", FilePath: "/tmp/analytics.db"},
	}
}

func TestProcessQueryEndToEnd(t *testing.T) {
	driver := &stubDriver{
		schema: testSchema(),
		rows: []dbmanager.Row{
			{"id": 1, "name": "ada", "age": 36},
		},
	}
	svc, _ := newTestService(t, driver, nil)

	resp, status, err := svc.ProcessQuery(context.Background(), sqliteRequest("Show me all users who are older than 30"))
	require.NoError(t, err)
	assert.Equal(t, uint32(http.StatusOK), status)
	assert.Equal(t, "SELECT * FROM users WHERE age > 30;", resp.SQLQuery)
	assert.Len(t, resp.Results, 1)
	assert.False(t, resp.FromCache)
	assert.NotEmpty(t, resp.RequestID)
	require.NotNil(t, resp.Visualization)
	assert.Contains(t, resp.Visualization.RecommendedChartTypes, "bar")
}

func TestProcessQueryRejectsShortQueryBeforeAnyWork(t *testing.T) {
	driver := &stubDriver{schema: testSchema()}
	svc, _ := newTestService(t, driver, nil)

	_, status, err := svc.ProcessQuery(context.Background(), sqliteRequest("hi"))

	var validationErr *llm.InputValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, uint32(http.StatusBadRequest), status)
	assert.Equal(t, int32(0), atomic.LoadInt32(&driver.connectCount))
	assert.Equal(t, int32(0), atomic.LoadInt32(&driver.executeCount))
}

func TestProcessQueryCachesCacheableResults(t *testing.T) {
	driver := &stubDriver{
		schema: testSchema(),
		rows:   []dbmanager.Row{{"id": 1}},
	}
	svc, _ := newTestService(t, driver, nil)

	first, _, err := svc.ProcessQuery(context.Background(), sqliteRequest("Show me all users who are older than 30"))
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, _, err := svc.ProcessQuery(context.Background(), sqliteRequest("Show me all users who are older than 30"))
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, int32(1), atomic.LoadInt32(&driver.executeCount))
}

func TestProcessQuerySkipsCacheForNonDeterministicSQL(t *testing.T) {
	driver := &stubDriver{
		schema: testSchema(),
		rows:   []dbmanager.Row{{"now": "2026-09-01"}},
	}
	client := &scriptedClient{text: `{"sql": "SELECT NOW() AS now FROM users;", "visualization": null}`}
	svc, _ := newTestService(t, driver, client)

	for i := 0; i < 2; i++ {
		resp, _, err := svc.ProcessQuery(context.Background(), sqliteRequest("what time is it in the database"))
		require.NoError(t, err)
		assert.False(t, resp.FromCache)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&driver.executeCount))
}

func TestProcessQueryWrapsExecutionFailure(t *testing.T) {
	driver := &stubDriver{
		schema:     testSchema(),
		executeErr: errors.New("table is locked"),
	}
	svc, _ := newTestService(t, driver, nil)

	_, status, err := svc.ProcessQuery(context.Background(), sqliteRequest("list the users"))

	var dbErr *DatabaseError
	require.True(t, errors.As(err, &dbErr))
	assert.Equal(t, uint32(http.StatusInternalServerError), status)
}

func TestProcessQueryReportsEmptyDatabase(t *testing.T) {
	driver := &stubDriver{schema: &dbmanager.SchemaInfo{Tables: map[string]dbmanager.TableSchema{}}}
	svc, _ := newTestService(t, driver, nil)

	_, status, err := svc.ProcessQuery(context.Background(), sqliteRequest("list the users"))

	var notFoundErr *NotFoundError
	require.True(t, errors.As(err, &notFoundErr))
	assert.Equal(t, uint32(http.StatusNotFound), status)
}

func TestProcessQueryReusesPoolAcrossRequests(t *testing.T) {
	driver := &stubDriver{
		schema: testSchema(),
		rows:   []dbmanager.Row{{"id": 1}},
	}
	svc, manager := newTestService(t, driver, nil)

	for i := 0; i < 3; i++ {
		_, _, err := svc.ProcessQuery(context.Background(), sqliteRequest("how many users are there"))
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&driver.connectCount))
	assert.Equal(t, 1, manager.Metrics().TotalPools)
}

func TestGetSchema(t *testing.T) {
	driver := &stubDriver{schema: testSchema()}
	svc, _ := newTestService(t, driver, nil)

	resp, status, err := svc.GetSchema(context.Background(), &dtos.SchemaRequest{
		Connection: &dtos.ConnectionRequest{Type: "sqlite", FilePath: "/tmp/analytics.db"},
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(http.StatusOK), status)
	require.Len(t, resp.Tables, 1)
	assert.Equal(t, "users", resp.Tables[0].Name)
	assert.Equal(t, []string{"id", "name", "age"}, resp.Tables[0].Columns)
}
