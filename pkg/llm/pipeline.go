package llm

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"querypilot/internal/constants"
	"querypilot/pkg/dbmanager"
	"querypilot/pkg/retry"
)

// PipelineConfig controls SQL generation behavior
type PipelineConfig struct {
	// ValidateSQL rejects generated statements that do not look like SQL.
	// Defaults to on.
	ValidateSQL *bool

	// OptimizeSchema enables schema reduction for large schemas
	OptimizeSchema bool

	// MaxTables is the table ceiling for schema reduction
	MaxTables int

	// ExpandViaFKs widens reduced schemas along foreign keys
	ExpandViaFKs bool

	IncludeExamples       bool
	IncludeChainOfThought bool

	RetryOptions retry.Options
}

const (
	minQueryLength = 3
	maxQueryLength = 1000
)

// Pipeline turns a natural-language question and a schema into a SQL query.
// It retries transient provider failures, validates output, and degrades to
// the deterministic client when the provider rejects its credentials. The
// degradation is permanent for the pipeline's lifetime so a bad key does not
// cost a failed network round trip on every request.
type Pipeline struct {
	client        Client
	deterministic Client
	reducer       *SchemaReducer
	config        PipelineConfig

	mu       sync.Mutex
	degraded bool
}

func NewPipeline(client Client, config PipelineConfig) *Pipeline {
	if config.MaxTables <= 0 {
		config.MaxTables = DefaultMaxTables
	}

	deterministic := NewDeterministicClient()
	if client == nil {
		client = deterministic
	}

	p := &Pipeline{
		client:        client,
		deterministic: deterministic,
		config:        config,
	}
	if config.OptimizeSchema {
		p.reducer = NewSchemaReducer(client, ReducerOptions{
			MaxTables:    config.MaxTables,
			ExpandViaFKs: config.ExpandViaFKs,
			RetryOptions: config.RetryOptions,
		})
	}
	return p
}

// Degraded reports whether the pipeline has permanently fallen back to
// deterministic generation
func (p *Pipeline) Degraded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.degraded
}

// Generate produces a SQL query for the question against the schema
func (p *Pipeline) Generate(ctx context.Context, dbType string, userQuery string, schema *dbmanager.SchemaInfo) (*GenerationResult, error) {
	if err := ValidateUserQuery(userQuery); err != nil {
		return nil, err
	}

	client := p.activeClient()

	if p.reducer != nil && schema.TableCount() > p.config.MaxTables {
		schema = p.reducer.Reduce(ctx, userQuery, schema)
	}

	req := CompletionRequest{
		SystemPrompt: BuildSystemPrompt(dbType, schema, PromptOptions{
			IncludeExamples:       p.config.IncludeExamples,
			IncludeChainOfThought: p.config.IncludeChainOfThought,
		}),
		Messages:    []Message{{Role: "user", Content: userQuery}},
		Temperature: constants.LLMTemperature,
		UserQuery:   userQuery,
		Schema:      schema,
	}

	result, err := p.complete(ctx, client, req)
	if err != nil {
		if retry.Categorize(err) == retry.CategoryAuthentication && client != p.deterministic {
			p.degrade(err)
			result, err = p.complete(ctx, p.deterministic, req)
		}
		if err != nil {
			return nil, err
		}
	}

	if p.shouldValidate() {
		if err := ValidateSQL(result.SQLQuery); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (p *Pipeline) complete(ctx context.Context, client Client, req CompletionRequest) (*GenerationResult, error) {
	attempts := 0
	opts := p.config.RetryOptions
	userOnRetry := opts.OnRetry
	opts.OnRetry = func(err error, attempt int, delay time.Duration) {
		attempts = attempt
		if userOnRetry != nil {
			userOnRetry(err, attempt, delay)
		} else {
			log.Printf("Pipeline -> Generate -> attempt %d failed, retrying in %v: %s",
				attempt, delay, retry.Describe(err))
		}
	}

	resp, err := retry.Do(ctx, func(ctx context.Context) (*CompletionResponse, error) {
		return client.GenerateCompletion(ctx, req)
	}, opts)
	if err != nil {
		return nil, &CompletionServiceError{
			Attempts: attempts + 1,
			Category: retry.Categorize(err),
			Err:      err,
		}
	}

	return ParseGenerationResponse(resp.Text())
}

func (p *Pipeline) activeClient() Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.degraded {
		return p.deterministic
	}
	return p.client
}

func (p *Pipeline) degrade(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.degraded {
		p.degraded = true
		log.Printf("Pipeline -> Generate -> provider authentication failed, degrading to deterministic generation: %v", err)
	}
}

func (p *Pipeline) shouldValidate() bool {
	if p.config.ValidateSQL == nil {
		return true
	}
	return *p.config.ValidateSQL
}

// ValidateUserQuery rejects questions that are empty, too short or too long.
// Callers on the request path run it before any pool or cache work.
func ValidateUserQuery(userQuery string) error {
	trimmed := strings.TrimSpace(userQuery)
	if trimmed == "" {
		return &InputValidationError{Reason: "query is empty"}
	}
	if len(trimmed) < minQueryLength {
		return &InputValidationError{Reason: "query too short"}
	}
	if len(trimmed) > maxQueryLength {
		return &InputValidationError{Reason: "query too long"}
	}
	return nil
}
