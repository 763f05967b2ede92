package services

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"querypilot/internal/apis/dtos"
	"querypilot/internal/observability"
	"querypilot/pkg/dbmanager"
	"querypilot/pkg/llm"
	"querypilot/pkg/querycache"
)

// QueryService orchestrates the full question-to-results path
type QueryService interface {
	ProcessQuery(ctx context.Context, req *dtos.ProcessQueryRequest) (*dtos.ProcessQueryResponse, uint32, error)
	GetSchema(ctx context.Context, req *dtos.SchemaRequest) (*dtos.SchemaResponse, uint32, error)
}

type queryService struct {
	dbManager *dbmanager.Manager
	cache     querycache.Store
	pipeline  *llm.Pipeline
	cacheTTL  time.Duration
}

func NewQueryService(dbManager *dbmanager.Manager, cache querycache.Store, pipeline *llm.Pipeline, cacheTTL time.Duration) QueryService {
	return &queryService{
		dbManager: dbManager,
		cache:     cache,
		pipeline:  pipeline,
		cacheTTL:  cacheTTL,
	}
}

// ProcessQuery validates the question, generates SQL against the live schema
// and executes it, consulting the result cache for cacheable statements.
func (s *queryService) ProcessQuery(ctx context.Context, req *dtos.ProcessQueryRequest) (*dtos.ProcessQueryResponse, uint32, error) {
	start := time.Now()
	requestID := uuid.New().String()

	resp, err := s.processQuery(ctx, requestID, req)
	if err != nil {
		observability.ObserveQuery("error", time.Since(start))
		return nil, StatusForError(err), err
	}

	resp.ExecutionTime = int(time.Since(start).Milliseconds())
	observability.ObserveQuery("success", time.Since(start))
	return resp, http.StatusOK, nil
}

func (s *queryService) processQuery(ctx context.Context, requestID string, req *dtos.ProcessQueryRequest) (*dtos.ProcessQueryResponse, error) {
	if err := llm.ValidateUserQuery(req.Query); err != nil {
		return nil, err
	}
	if req.Connection == nil {
		return nil, &ValidationError{Message: "connection is required"}
	}

	config, err := req.Connection.ToConfig()
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	log.Printf("QueryService -> ProcessQuery -> request %s for %s database %q", requestID, config.Type, config.Database)

	pool, err := s.dbManager.Acquire(ctx, config)
	if err != nil {
		return nil, &DatabaseError{Operation: "connect", Err: err}
	}
	defer s.dbManager.Release(pool)

	driver, err := s.dbManager.Driver(config.Type)
	if err != nil {
		return nil, &DatabaseError{Operation: "connect", Err: err}
	}

	schema, err := driver.ExtractSchema(ctx, pool.Conn)
	if err != nil {
		return nil, &DatabaseError{Operation: "schema extraction", Err: err}
	}
	if schema.TableCount() == 0 {
		return nil, &NotFoundError{Resource: "tables in database"}
	}

	genStart := time.Now()
	result, err := s.pipeline.Generate(ctx, string(config.Type), req.Query, schema)
	if err != nil {
		return nil, err
	}
	observability.ObserveGeneration(time.Since(genStart))

	resp := &dtos.ProcessQueryResponse{
		RequestID:     requestID,
		SQLQuery:      result.SQLQuery,
		Visualization: result.Visualization,
	}

	connectionID := config.ConnectionID()
	cacheable := dbmanager.IsCacheable(result.SQLQuery)

	if cacheable {
		if rows, ok := s.cache.Get(ctx, connectionID, result.SQLQuery, nil); ok {
			observability.ObserveCacheLookup(true)
			log.Printf("QueryService -> ProcessQuery -> request %s served from cache", requestID)
			resp.Results = rows
			resp.FromCache = true
			return resp, nil
		}
		observability.ObserveCacheLookup(false)
	}

	rows, err := driver.ExecuteQuery(ctx, pool.Conn, result.SQLQuery, nil)
	if err != nil {
		return nil, &DatabaseError{Operation: "query execution", Err: err}
	}
	resp.Results = rows

	if cacheable {
		if err := s.cache.Set(ctx, connectionID, result.SQLQuery, nil, rows, s.cacheTTL); err != nil {
			log.Printf("QueryService -> ProcessQuery -> failed to cache result: %v", err)
		}
	}

	return resp, nil
}

// GetSchema returns the table layout of the target database
func (s *queryService) GetSchema(ctx context.Context, req *dtos.SchemaRequest) (*dtos.SchemaResponse, uint32, error) {
	if req.Connection == nil {
		return nil, http.StatusBadRequest, &ValidationError{Message: "connection is required"}
	}

	config, err := req.Connection.ToConfig()
	if err != nil {
		return nil, http.StatusBadRequest, &ValidationError{Message: err.Error()}
	}

	pool, err := s.dbManager.Acquire(ctx, config)
	if err != nil {
		return nil, http.StatusInternalServerError, &DatabaseError{Operation: "connect", Err: err}
	}
	defer s.dbManager.Release(pool)

	driver, err := s.dbManager.Driver(config.Type)
	if err != nil {
		return nil, http.StatusInternalServerError, &DatabaseError{Operation: "connect", Err: err}
	}

	schema, err := driver.ExtractSchema(ctx, pool.Conn)
	if err != nil {
		return nil, http.StatusInternalServerError, &DatabaseError{Operation: "schema extraction", Err: err}
	}

	resp := &dtos.SchemaResponse{}
	for _, name := range schema.TableOrder {
		table := schema.Tables[name]
		info := dtos.TableInfo{Name: name}
		for _, col := range table.Columns {
			info.Columns = append(info.Columns, col.Name)
		}
		resp.Tables = append(resp.Tables, info)
	}
	return resp, http.StatusOK, nil
}
