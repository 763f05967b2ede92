package dbmanager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
)

// DatabaseType identifies a supported backend
type DatabaseType string

const (
	TypeSQLite     DatabaseType = "sqlite"
	TypePostgres   DatabaseType = "postgresql"
	TypeMySQL      DatabaseType = "mysql"
	TypeClickHouse DatabaseType = "clickhouse"
)

// ErrUnsupportedType is wrapped by errors returned for unknown database types
var ErrUnsupportedType = errors.New("unsupported database type")

// ConnectionConfig is the immutable descriptor for a database connection. It
// is resolved once at the boundary (see ParseDescriptor); downstream code
// only ever switches on Type.
type ConnectionConfig struct {
	Type     DatabaseType `json:"type"`
	Host     string       `json:"host,omitempty"`
	Port     string       `json:"port,omitempty"`
	Username string       `json:"username,omitempty"`
	Password string       `json:"password,omitempty"`
	Database string       `json:"database,omitempty"`
	FilePath string       `json:"file_path,omitempty"` // embedded store only
}

// Row is a single result row keyed by column name
type Row map[string]interface{}

// Conn is a live handle to one backend. For client-server backends the
// underlying gorm handle owns a bounded connection pool; for SQLite it is a
// single long-lived connection.
type Conn struct {
	Type   DatabaseType
	DB     *gorm.DB
	Config ConnectionConfig

	mu     sync.Mutex
	closed bool
}

// PoolOptions bounds pool creation and idle lifetime
type PoolOptions struct {
	MaxClients      int
	AcquireTimeout  time.Duration
	IdleTimeout     time.Duration
	CleanupInterval time.Duration
}

// DefaultPoolOptions mirrors the production defaults
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		MaxClients:      10,
		AcquireTimeout:  10 * time.Second,
		IdleTimeout:     time.Hour,
		CleanupInterval: time.Hour,
	}
}

// Driver is the uniform adapter contract every backend implements
type Driver interface {
	Connect(ctx context.Context, config ConnectionConfig, opts PoolOptions) (*Conn, error)
	ExtractSchema(ctx context.Context, conn *Conn) (*SchemaInfo, error)
	ExecuteQuery(ctx context.Context, conn *Conn, sql string, params []interface{}) ([]Row, error)
	Close(conn *Conn) error
}

// SchemaInfo describes the tables of one database. TableOrder preserves the
// order tables were enumerated in, which downstream fallbacks rely on.
type SchemaInfo struct {
	TableOrder []string               `json:"table_order"`
	Tables     map[string]TableSchema `json:"tables"`
}

// TableSchema describes a single base table
type TableSchema struct {
	Name        string       `json:"name"`
	Columns     []ColumnInfo `json:"columns"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty"`
	Indexes     []IndexInfo  `json:"indexes,omitempty"`
}

// ColumnInfo describes one column of a table
type ColumnInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	Default    string `json:"default,omitempty"`
	PrimaryKey bool   `json:"primary_key"`
}

// ForeignKey describes a single column-level reference
type ForeignKey struct {
	Column    string `json:"column"`
	RefTable  string `json:"ref_table"`
	RefColumn string `json:"ref_column"`
	OnUpdate  string `json:"on_update,omitempty"`
	OnDelete  string `json:"on_delete,omitempty"`
}

// IndexInfo describes an index by name and uniqueness
type IndexInfo struct {
	Name   string `json:"name"`
	Unique bool   `json:"unique"`
}

// TableCount returns the number of tables in the schema
func (s *SchemaInfo) TableCount() int {
	if s == nil {
		return 0
	}
	return len(s.TableOrder)
}

// Subset returns a new SchemaInfo containing only the named tables, keeping
// the original enumeration order. Unknown names are skipped.
func (s *SchemaInfo) Subset(tables []string) *SchemaInfo {
	keep := make(map[string]bool, len(tables))
	for _, t := range tables {
		keep[t] = true
	}

	subset := &SchemaInfo{Tables: make(map[string]TableSchema)}
	for _, name := range s.TableOrder {
		if keep[name] {
			subset.TableOrder = append(subset.TableOrder, name)
			subset.Tables[name] = s.Tables[name]
		}
	}
	return subset
}

func unsupportedTypeError(dbType DatabaseType) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedType, dbType)
}
