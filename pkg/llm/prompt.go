package llm

import (
	"strings"

	"querypilot/internal/constants"
	"querypilot/pkg/dbmanager"
)

// PromptOptions control optional prompt sections
type PromptOptions struct {
	IncludeExamples       bool
	IncludeChainOfThought bool
}

// BuildSystemPrompt assembles the system prompt for SQL generation from the
// role, the target dialect notes, the rendered schema, and the response
// format contract.
func BuildSystemPrompt(dbType string, schema *dbmanager.SchemaInfo, opts PromptOptions) string {
	var b strings.Builder

	b.WriteString(constants.SystemPromptRole)
	b.WriteString("\n\n")
	b.WriteString(constants.GetDialectNotes(dbType))
	b.WriteString("\n\nDatabase schema:\n")
	b.WriteString(schema.FormatForPrompt())
	b.WriteString("\n")
	b.WriteString(constants.ResponseFormatInstructions)

	if opts.IncludeExamples {
		b.WriteString("\n\n")
		b.WriteString(constants.WorkedExamples)
	}
	if opts.IncludeChainOfThought {
		b.WriteString("\n\n")
		b.WriteString(constants.ChainOfThoughtInstructions)
	}

	return b.String()
}
