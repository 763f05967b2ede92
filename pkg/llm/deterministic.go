package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"querypilot/internal/constants"
	"querypilot/pkg/dbmanager"
)

// DeterministicClient generates SQL from keyword rules without any network
// access. It backs the pipeline when no provider key is configured and when
// a live provider is degraded after an authentication failure. Given the
// same question and schema it always produces the same query.
type DeterministicClient struct{}

func NewDeterministicClient() *DeterministicClient {
	return &DeterministicClient{}
}

var numberPattern = regexp.MustCompile(`\d+`)

func (c *DeterministicClient) GenerateCompletion(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Schema == nil {
		return nil, fmt.Errorf("deterministic generation requires a schema")
	}

	result, err := GenerateDeterministic(req.UserQuery, req.Schema)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]interface{}{
		"sql":           result.SQLQuery,
		"visualization": result.Visualization,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode deterministic result: %v", err)
	}
	return textResponse(string(payload)), nil
}

func (c *DeterministicClient) GetModelInfo() ModelInfo {
	return ModelInfo{
		Name:     constants.Deterministic,
		Provider: constants.Deterministic,
	}
}

// GenerateDeterministic maps a natural-language question onto a small set of
// query shapes. Table choice is by name mention, falling back to the first
// table in schema order.
func GenerateDeterministic(userQuery string, schema *dbmanager.SchemaInfo) (*GenerationResult, error) {
	if schema.TableCount() == 0 {
		return nil, fmt.Errorf("schema has no tables")
	}

	query := strings.ToLower(userQuery)
	table := pickTable(query, schema)
	tableSchema := schema.Tables[table]

	switch {
	case strings.Contains(query, "how many") || strings.Contains(query, "count"):
		return &GenerationResult{
			SQLQuery: fmt.Sprintf("SELECT COUNT(*) FROM %s;", table),
			Visualization: &Visualization{
				RecommendedChartTypes: []string{"number"},
				Reasoning:             "A single count reads best as a number.",
			},
		}, nil

	case strings.Contains(query, "average") || strings.Contains(query, "avg"):
		col := pickNumericColumn(query, tableSchema)
		if col == "" {
			break
		}
		return &GenerationResult{
			SQLQuery: fmt.Sprintf("SELECT AVG(%s) FROM %s;", col, table),
			Visualization: &Visualization{
				RecommendedChartTypes: []string{"number"},
				Reasoning:             "A single aggregate value reads best as a number.",
			},
		}, nil

	case strings.Contains(query, "older than") || strings.Contains(query, "greater than") || strings.Contains(query, "more than"):
		if sql, viz := comparisonQuery(query, table, tableSchema, ">"); sql != "" {
			return &GenerationResult{SQLQuery: sql, Visualization: viz}, nil
		}

	case strings.Contains(query, "younger than") || strings.Contains(query, "less than") || strings.Contains(query, "fewer than"):
		if sql, viz := comparisonQuery(query, table, tableSchema, "<"); sql != "" {
			return &GenerationResult{SQLQuery: sql, Visualization: viz}, nil
		}

	case strings.Contains(query, "top "):
		limit := firstNumber(query)
		if limit == "" {
			limit = "10"
		}
		col := pickNumericColumn(query, tableSchema)
		if col == "" {
			break
		}
		return &GenerationResult{
			SQLQuery: fmt.Sprintf("SELECT * FROM %s ORDER BY %s DESC LIMIT %s;", table, col, limit),
			Visualization: &Visualization{
				RecommendedChartTypes: []string{"bar", "table"},
				Reasoning:             "Ranked rows compare well as bars.",
			},
		}, nil
	}

	return &GenerationResult{
		SQLQuery: fmt.Sprintf("SELECT * FROM %s LIMIT 100;", table),
		Visualization: &Visualization{
			RecommendedChartTypes: []string{"table"},
			Reasoning:             "Unfiltered rows are best browsed as a table.",
		},
	}, nil
}

func comparisonQuery(query, table string, tableSchema dbmanager.TableSchema, op string) (string, *Visualization) {
	value := firstNumber(query)
	if value == "" {
		return "", nil
	}
	col := pickNumericColumn(query, tableSchema)
	if col == "" {
		return "", nil
	}
	viz := &Visualization{
		RecommendedChartTypes: []string{"bar", "table"},
		Reasoning:             "Filtered rows on a numeric threshold compare well as bars.",
	}
	return fmt.Sprintf("SELECT * FROM %s WHERE %s %s %s;", table, col, op, value), viz
}

// pickTable prefers a table whose name appears in the question
func pickTable(query string, schema *dbmanager.SchemaInfo) string {
	for _, name := range schema.TableOrder {
		lower := strings.ToLower(name)
		if strings.Contains(query, lower) || strings.Contains(query, strings.TrimSuffix(lower, "s")) {
			return name
		}
	}
	return schema.TableOrder[0]
}

// pickNumericColumn prefers a column named in the question, then age, then
// the first non-key numeric column
func pickNumericColumn(query string, tableSchema dbmanager.TableSchema) string {
	var firstNumeric string
	for _, col := range tableSchema.Columns {
		if !isNumericType(col.Type) {
			continue
		}
		if strings.Contains(query, strings.ToLower(col.Name)) {
			return col.Name
		}
		if strings.EqualFold(col.Name, "age") {
			return col.Name
		}
		if firstNumeric == "" && !col.PrimaryKey {
			firstNumeric = col.Name
		}
	}
	return firstNumeric
}

func isNumericType(colType string) bool {
	t := strings.ToLower(colType)
	for _, kind := range []string{"int", "serial", "numeric", "decimal", "float", "double", "real"} {
		if strings.Contains(t, kind) {
			return true
		}
	}
	return false
}

func firstNumber(query string) string {
	return numberPattern.FindString(query)
}
