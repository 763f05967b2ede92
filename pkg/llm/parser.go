package llm

import (
	"encoding/json"
	"strings"
)

var sqlLeadingKeywords = []string{
	"select", "insert", "update", "delete", "create",
	"alter", "drop", "truncate", "begin", "commit", "rollback", "with",
}

type generationPayload struct {
	SQL           string         `json:"sql"`
	Visualization *Visualization `json:"visualization"`
}

// ParseGenerationResponse extracts the SQL query and optional visualization
// from raw model output. JSON is the expected shape; bare SQL is accepted as
// a fallback since models sometimes ignore the format contract.
func ParseGenerationResponse(text string) (*GenerationResult, error) {
	cleaned := stripCodeFences(strings.TrimSpace(text))
	if cleaned == "" {
		return nil, &SQLValidationError{Reason: "empty response"}
	}

	if strings.HasPrefix(cleaned, "{") {
		var payload generationPayload
		if err := json.Unmarshal([]byte(cleaned), &payload); err == nil {
			return &GenerationResult{
				SQLQuery:      strings.TrimSpace(payload.SQL),
				Visualization: payload.Visualization,
			}, nil
		}
	}

	if startsWithSQLKeyword(cleaned) {
		return &GenerationResult{SQLQuery: cleaned}, nil
	}

	return nil, &SQLValidationError{Reason: "response is neither JSON nor SQL", SQL: cleaned}
}

// ValidateSQL rejects output that is clearly not a usable statement
func ValidateSQL(sql string) error {
	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return &SQLValidationError{Reason: "empty statement"}
	}
	if len(trimmed) < 10 {
		return &SQLValidationError{Reason: "statement too short", SQL: trimmed}
	}
	if !startsWithSQLKeyword(trimmed) {
		return &SQLValidationError{Reason: "does not start with a SQL keyword", SQL: trimmed}
	}
	return nil
}

func startsWithSQLKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range sqlLeadingKeywords {
		if strings.HasPrefix(lower, kw+" ") || strings.HasPrefix(lower, kw+"\n") || lower == kw {
			return true
		}
	}
	return false
}

// stripCodeFences unwraps ``` and ```json blocks around model output
func stripCodeFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		// drop the language tag line, e.g. "json"
		firstLine := strings.TrimSpace(text[:idx])
		if len(firstLine) <= 10 && !strings.ContainsAny(firstLine, "{}(") {
			text = text[idx+1:]
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
