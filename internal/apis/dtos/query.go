package dtos

import (
	"querypilot/pkg/dbmanager"
	"querypilot/pkg/llm"
)

type ProcessQueryRequest struct {
	Query      string             `json:"query" binding:"required"`
	Connection *ConnectionRequest `json:"connection" binding:"required"`
}

type ProcessQueryResponse struct {
	RequestID     string             `json:"request_id"`
	SQLQuery      string             `json:"sql_query"`
	Results       []dbmanager.Row    `json:"results"`
	Visualization *llm.Visualization `json:"visualization,omitempty"`
	FromCache     bool               `json:"from_cache"`
	ExecutionTime int                `json:"execution_time_ms"`
}

type SchemaRequest struct {
	Connection *ConnectionRequest `json:"connection" binding:"required"`
}

type SchemaResponse struct {
	Tables []TableInfo `json:"tables"`
}

type TableInfo struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}
