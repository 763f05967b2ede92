package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGenerationResponseJSON(t *testing.T) {
	result, err := ParseGenerationResponse(`{"sql": "SELECT * FROM users;", "visualization": {"recommended_chart_types": ["table"]}}`)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users;", result.SQLQuery)
	require.NotNil(t, result.Visualization)
	assert.Equal(t, []string{"table"}, result.Visualization.RecommendedChartTypes)
}

func TestParseGenerationResponseFencedJSON(t *testing.T) {
	text := "```json\n{\"sql\": \"SELECT COUNT(*) FROM orders;\", \"visualization\": null}\n```"
	result, err := ParseGenerationResponse(text)
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM orders;", result.SQLQuery)
	assert.Nil(t, result.Visualization)
}

func TestParseGenerationResponseBareSQL(t *testing.T) {
	result, err := ParseGenerationResponse("SELECT name FROM users WHERE age > 30;")
	require.NoError(t, err)
	assert.Equal(t, "SELECT name FROM users WHERE age > 30;", result.SQLQuery)
	assert.Nil(t, result.Visualization)
}

func TestParseGenerationResponseFencedBareSQL(t *testing.T) {
	result, err := ParseGenerationResponse("```sql\nWITH recent AS (SELECT * FROM orders) SELECT * FROM recent;\n```")
	require.NoError(t, err)
	assert.Equal(t, "WITH recent AS (SELECT * FROM orders) SELECT * FROM recent;", result.SQLQuery)
}

func TestParseGenerationResponseGarbage(t *testing.T) {
	_, err := ParseGenerationResponse("I am sorry, I cannot help with that.")
	var sqlErr *SQLValidationError
	require.True(t, errors.As(err, &sqlErr))
}

func TestParseGenerationResponseEmpty(t *testing.T) {
	_, err := ParseGenerationResponse("   ")
	var sqlErr *SQLValidationError
	require.True(t, errors.As(err, &sqlErr))
}

func TestValidateSQL(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		wantErr bool
	}{
		{"select", "SELECT * FROM users;", false},
		{"lowercase with", "with t as (select 1) select * from t;", false},
		{"insert", "INSERT INTO users (name) VALUES ('a');", false},
		{"empty", "", true},
		{"too short", "SELECT 1", true},
		{"not sql", "here is your query: SELECT * FROM users;", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSQL(tt.sql)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
