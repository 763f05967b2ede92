package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"querypilot/internal/constants"
	"querypilot/pkg/dbmanager"
	"querypilot/pkg/retry"
)

// ReducerOptions control schema reduction
type ReducerOptions struct {
	MaxTables    int
	ExpandViaFKs bool
	RetryOptions retry.Options
}

// DefaultMaxTables is the table ceiling when none is configured
const DefaultMaxTables = 10

// SchemaReducer trims a large schema to the tables relevant to a question
// before the generation prompt is built. It is best effort: when the model
// call fails or returns nothing usable, the first MaxTables tables in schema
// order are kept so generation still proceeds.
type SchemaReducer struct {
	client Client
	opts   ReducerOptions
}

func NewSchemaReducer(client Client, opts ReducerOptions) *SchemaReducer {
	if opts.MaxTables <= 0 {
		opts.MaxTables = DefaultMaxTables
	}
	return &SchemaReducer{client: client, opts: opts}
}

// Reduce returns the schema restricted to relevant tables. Schemas already
// at or under the ceiling are returned unchanged.
func (r *SchemaReducer) Reduce(ctx context.Context, userQuery string, schema *dbmanager.SchemaInfo) *dbmanager.SchemaInfo {
	if schema.TableCount() <= r.opts.MaxTables {
		return schema
	}

	tables, err := r.selectTables(ctx, userQuery, schema)
	if err != nil {
		log.Printf("SchemaReducer -> Reduce -> selection failed, keeping first %d tables: %v", r.opts.MaxTables, err)
		return r.fallback(schema)
	}

	if r.opts.ExpandViaFKs {
		tables = expandViaForeignKeys(tables, schema, r.opts.MaxTables)
	}

	reduced := schema.Subset(tables)
	if reduced.TableCount() == 0 {
		log.Printf("SchemaReducer -> Reduce -> no known tables selected, keeping first %d tables", r.opts.MaxTables)
		return r.fallback(schema)
	}
	return reduced
}

func (r *SchemaReducer) selectTables(ctx context.Context, userQuery string, schema *dbmanager.SchemaInfo) ([]string, error) {
	prompt := fmt.Sprintf(constants.SchemaReductionPrompt, r.opts.MaxTables)
	if r.opts.ExpandViaFKs {
		prompt += "\n" + constants.SchemaReductionFKHint
	}
	prompt += "\n\nDatabase schema:\n" + schema.FormatForPrompt()

	resp, err := retry.Do(ctx, func(ctx context.Context) (*CompletionResponse, error) {
		return r.client.GenerateCompletion(ctx, CompletionRequest{
			SystemPrompt: prompt,
			Messages:     []Message{{Role: "user", Content: userQuery}},
			UserQuery:    userQuery,
			Schema:       schema,
		})
	}, r.opts.RetryOptions)
	if err != nil {
		return nil, err
	}

	names := parseTableList(resp.Text())
	if len(names) == 0 {
		return nil, fmt.Errorf("no table names in reducer response")
	}

	known := make([]string, 0, len(names))
	seen := make(map[string]bool)
	for _, name := range names {
		if _, ok := schema.Tables[name]; ok && !seen[name] {
			known = append(known, name)
			seen[name] = true
		}
	}
	if len(known) > r.opts.MaxTables {
		known = known[:r.opts.MaxTables]
	}
	return known, nil
}

func (r *SchemaReducer) fallback(schema *dbmanager.SchemaInfo) *dbmanager.SchemaInfo {
	return schema.Subset(schema.TableOrder[:r.opts.MaxTables])
}

var quotedNamePattern = regexp.MustCompile(`"([^"]+)"`)

// parseTableList reads a JSON array of names, falling back to scraping
// quoted substrings when the array does not parse
func parseTableList(text string) []string {
	text = stripCodeFences(strings.TrimSpace(text))

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		var names []string
		if err := json.Unmarshal([]byte(text[start:end+1]), &names); err == nil {
			return names
		}
	}

	var names []string
	for _, match := range quotedNamePattern.FindAllStringSubmatch(text, -1) {
		names = append(names, match[1])
	}
	return names
}

// expandViaForeignKeys adds tables referenced by the chosen tables' foreign
// keys, up to the ceiling
func expandViaForeignKeys(tables []string, schema *dbmanager.SchemaInfo, maxTables int) []string {
	seen := make(map[string]bool, len(tables))
	for _, name := range tables {
		seen[name] = true
	}
	for _, name := range tables {
		if len(seen) >= maxTables {
			break
		}
		for _, fk := range schema.Tables[name].ForeignKeys {
			if _, ok := schema.Tables[fk.RefTable]; ok && !seen[fk.RefTable] {
				tables = append(tables, fk.RefTable)
				seen[fk.RefTable] = true
				if len(seen) >= maxTables {
					break
				}
			}
		}
	}
	return tables
}
