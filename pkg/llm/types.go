package llm

import (
	"context"
	"fmt"
	"strings"

	"querypilot/pkg/dbmanager"
	"querypilot/pkg/retry"
)

// Message is a single chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the uniform request every client accepts. Live
// clients consume SystemPrompt and Messages; the deterministic client works
// from the structured UserQuery and Schema instead of rendered prompt text.
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	Messages     []Message
	MaxTokens    int
	Temperature  float64

	UserQuery string
	Schema    *dbmanager.SchemaInfo
}

// ContentBlock is one piece of assistant output
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CompletionResponse is the uniform response shape
type CompletionResponse struct {
	Content []ContentBlock `json:"content"`
}

// Text concatenates the text blocks of a response
func (r *CompletionResponse) Text() string {
	var b strings.Builder
	for _, block := range r.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

func textResponse(text string) *CompletionResponse {
	return &CompletionResponse{Content: []ContentBlock{{Type: "text", Text: text}}}
}

// Client is the contract every completion backend satisfies
type Client interface {
	GenerateCompletion(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	GetModelInfo() ModelInfo
}

// ModelInfo describes a client's underlying model
type ModelInfo struct {
	Name      string
	Provider  string
	MaxTokens int
}

// Config holds configuration for LLM clients
type Config struct {
	Provider    string
	Model       string
	APIKey      string
	MaxTokens   int
	Temperature float64
}

// Visualization is the chart recommendation attached to a generated query
type Visualization struct {
	RecommendedChartTypes []string `json:"recommended_chart_types"`
	XAxis                 string   `json:"x_axis,omitempty"`
	YAxis                 string   `json:"y_axis,omitempty"`
	Labels                []string `json:"labels,omitempty"`
	Values                []string `json:"values,omitempty"`
	Reasoning             string   `json:"reasoning,omitempty"`
}

// GenerationResult is the pipeline's output for one user query
type GenerationResult struct {
	SQLQuery      string         `json:"sql_query"`
	Visualization *Visualization `json:"visualization,omitempty"`
}

// InputValidationError rejects a malformed user query before any network
// or database work happens
type InputValidationError struct {
	Reason string
}

func (e *InputValidationError) Error() string {
	return fmt.Sprintf("invalid user query: %s", e.Reason)
}

// SQLValidationError rejects generated text that is not a usable SQL
// statement. Terminal: the request is not retried.
type SQLValidationError struct {
	Reason string
	SQL    string
}

func (e *SQLValidationError) Error() string {
	sql := e.SQL
	if len(sql) > 120 {
		sql = sql[:120] + "..."
	}
	return fmt.Sprintf("generated SQL rejected (%s): %q", e.Reason, sql)
}

// CompletionServiceError wraps an exhausted completion call with its
// attempt count and error category
type CompletionServiceError struct {
	Attempts int
	Category retry.Category
	Err      error
}

func (e *CompletionServiceError) Error() string {
	return fmt.Sprintf("completion service failed after %d attempts (%s): %v", e.Attempts, e.Category, e.Err)
}

func (e *CompletionServiceError) Unwrap() error {
	return e.Err
}
