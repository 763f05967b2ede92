package constants

const (
	DatabaseTypeSQLite     = "sqlite"
	DatabaseTypePostgreSQL = "postgresql"
	DatabaseTypeMySQL      = "mysql"
	DatabaseTypeClickhouse = "clickhouse"
)
