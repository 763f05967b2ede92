package constants

// SystemPromptRole frames every SQL generation request
const SystemPromptRole = `You are an expert SQL engineer. You translate natural-language questions into a single SQL query for the database described below. Use only the tables and columns listed in the schema. Prefer explicit column lists over SELECT * when aggregating.`

// Dialect notes appended to the system prompt per database type
const (
	SQLiteDialectNotes = `Target dialect: SQLite.
- Use ? as the parameter placeholder.
- No RIGHT JOIN or FULL OUTER JOIN; rewrite with LEFT JOIN.
- Date arithmetic uses strftime and the date() family of functions.`

	PostgreSQLDialectNotes = `Target dialect: PostgreSQL.
- Use $1, $2, ... as parameter placeholders.
- ILIKE is available for case-insensitive matching.
- Use double quotes for mixed-case identifiers.`

	MySQLDialectNotes = `Target dialect: MySQL.
- Use ? as the parameter placeholder.
- Identifiers are quoted with backticks.
- LIMIT takes the form LIMIT offset, count.`

	ClickhouseDialectNotes = `Target dialect: ClickHouse.
- Use ? as the parameter placeholder.
- Prefer aggregate combinators (countIf, sumIf) over correlated subqueries.
- JOINs are expensive; filter before joining where possible.`
)

// ResponseFormatInstructions tells the model how to shape its answer
const ResponseFormatInstructions = `Respond with a single JSON object and nothing else:
{
  "sql": "<the SQL query>",
  "visualization": {
    "recommended_chart_types": ["bar", "line", "pie", "table" or "number"],
    "x_axis": "<column for the x axis, if applicable>",
    "y_axis": "<column for the y axis, if applicable>",
    "labels": ["<label columns>"],
    "values": ["<value columns>"],
    "reasoning": "<one sentence on why this chart fits>"
  }
}
Set "visualization" to null when no chart is meaningful.`

// WorkedExamples are optional few-shot examples appended to the prompt
const WorkedExamples = `Example:
Question: How many orders were placed last month?
{"sql": "SELECT COUNT(*) AS order_count FROM orders WHERE created_at >= date_trunc('month', CURRENT_DATE - INTERVAL '1 month') AND created_at < date_trunc('month', CURRENT_DATE);", "visualization": {"recommended_chart_types": ["number"], "reasoning": "A single aggregate value reads best as a number."}}`

// ChainOfThoughtInstructions is optionally appended to encourage stepwise
// reasoning before the final JSON
const ChainOfThoughtInstructions = `Before answering, silently work through which tables and joins the question needs. Output only the final JSON object.`

// GetDialectNotes returns the dialect section for a database type
func GetDialectNotes(dbType string) string {
	switch dbType {
	case DatabaseTypeSQLite:
		return SQLiteDialectNotes
	case DatabaseTypePostgreSQL:
		return PostgreSQLDialectNotes
	case DatabaseTypeMySQL:
		return MySQLDialectNotes
	case DatabaseTypeClickhouse:
		return ClickhouseDialectNotes
	default:
		return PostgreSQLDialectNotes
	}
}

// SchemaReductionPrompt asks the model to pick the relevant tables
const SchemaReductionPrompt = `You are helping trim a database schema before SQL generation. Given the full schema and a user question, name the tables needed to answer the question.
Respond with a JSON array of table names only, for example: ["users", "orders"].
Never name a table that is not in the schema. Return at most %d tables.`

// SchemaReductionFKHint is appended when foreign-key expansion is requested
const SchemaReductionFKHint = `Also include tables connected by foreign keys to your chosen tables when the question may need them for joins.`
