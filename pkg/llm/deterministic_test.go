package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querypilot/pkg/dbmanager"
)

func usersSchema() *dbmanager.SchemaInfo {
	return &dbmanager.SchemaInfo{
		TableOrder: []string{"users", "orders"},
		Tables: map[string]dbmanager.TableSchema{
			"users": {
				Name: "users",
				Columns: []dbmanager.ColumnInfo{
					{Name: "id", Type: "integer", PrimaryKey: true},
					{Name: "name", Type: "text"},
					{Name: "age", Type: "integer"},
				},
			},
			"orders": {
				Name: "orders",
				Columns: []dbmanager.ColumnInfo{
					{Name: "id", Type: "integer", PrimaryKey: true},
					{Name: "user_id", Type: "integer"},
					{Name: "total", Type: "numeric"},
				},
				ForeignKeys: []dbmanager.ForeignKey{
					{Column: "user_id", RefTable: "users", RefColumn: "id"},
				},
			},
		},
	}
}

func wideSchema(tableCount int) *dbmanager.SchemaInfo {
	schema := &dbmanager.SchemaInfo{
		Tables: make(map[string]dbmanager.TableSchema, tableCount),
	}
	for i := 0; i < tableCount; i++ {
		name := fmt.Sprintf("table_%02d", i)
		schema.TableOrder = append(schema.TableOrder, name)
		schema.Tables[name] = dbmanager.TableSchema{
			Name: name,
			Columns: []dbmanager.ColumnInfo{
				{Name: "id", Type: "integer", PrimaryKey: true},
			},
		}
	}
	return schema
}

func TestGenerateDeterministicOlderThan(t *testing.T) {
	result, err := GenerateDeterministic("Show me all users who are older than 30", usersSchema())
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users WHERE age > 30;", result.SQLQuery)
	require.NotNil(t, result.Visualization)
	assert.Contains(t, result.Visualization.RecommendedChartTypes, "bar")
}

func TestGenerateDeterministicCount(t *testing.T) {
	result, err := GenerateDeterministic("How many orders are there?", usersSchema())
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM orders;", result.SQLQuery)
}

func TestGenerateDeterministicAverage(t *testing.T) {
	result, err := GenerateDeterministic("What is the average total of orders?", usersSchema())
	require.NoError(t, err)
	assert.Equal(t, "SELECT AVG(total) FROM orders;", result.SQLQuery)
}

func TestGenerateDeterministicDefault(t *testing.T) {
	result, err := GenerateDeterministic("list the users", usersSchema())
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users LIMIT 100;", result.SQLQuery)
}

func TestGenerateDeterministicStable(t *testing.T) {
	first, err := GenerateDeterministic("Show me all users who are older than 30", usersSchema())
	require.NoError(t, err)
	second, err := GenerateDeterministic("Show me all users who are older than 30", usersSchema())
	require.NoError(t, err)
	assert.Equal(t, first.SQLQuery, second.SQLQuery)
}

func TestGenerateDeterministicEmptySchema(t *testing.T) {
	_, err := GenerateDeterministic("anything", &dbmanager.SchemaInfo{Tables: map[string]dbmanager.TableSchema{}})
	assert.Error(t, err)
}

func TestDeterministicClientEmitsParsableJSON(t *testing.T) {
	client := NewDeterministicClient()
	resp, err := client.GenerateCompletion(context.Background(), CompletionRequest{
		UserQuery: "how many users are there",
		Schema:    usersSchema(),
	})
	require.NoError(t, err)

	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(resp.Text()), &payload))

	result, err := ParseGenerationResponse(resp.Text())
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM users;", result.SQLQuery)
}

func TestDeterministicClientRequiresSchema(t *testing.T) {
	client := NewDeterministicClient()
	_, err := client.GenerateCompletion(context.Background(), CompletionRequest{UserQuery: "anything"})
	assert.Error(t, err)
}
