package dtos

import (
	"querypilot/pkg/dbmanager"
)

// ConnectionRequest names the database a query should run against. Either a
// URL (server kinds), a FilePath (sqlite), or the structured host fields.
type ConnectionRequest struct {
	Type     string `json:"type" binding:"required,oneof=sqlite postgresql mysql clickhouse"`
	URL      string `json:"url,omitempty"`
	FilePath string `json:"file_path,omitempty"`

	Host     string `json:"host,omitempty"`
	Port     string `json:"port,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Database string `json:"database,omitempty"`
}

// ToConfig resolves the request into a tagged connection descriptor
func (r *ConnectionRequest) ToConfig() (dbmanager.ConnectionConfig, error) {
	dbType := dbmanager.DatabaseType(r.Type)

	if r.URL != "" {
		return dbmanager.ParseDescriptor(dbType, r.URL)
	}
	if r.FilePath != "" {
		return dbmanager.ParseDescriptor(dbType, r.FilePath)
	}

	config := dbmanager.ConnectionConfig{
		Type:     dbType,
		Host:     r.Host,
		Port:     r.Port,
		Username: r.Username,
		Password: r.Password,
		Database: r.Database,
	}
	if err := config.Validate(); err != nil {
		return dbmanager.ConnectionConfig{}, err
	}
	return config, nil
}
