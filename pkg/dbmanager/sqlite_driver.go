package dbmanager

import (
	"context"

	"gorm.io/driver/sqlite"
)

// SQLiteDriver implements Driver for the embedded file-based store
type SQLiteDriver struct {
	baseDriver
}

func NewSQLiteDriver() *SQLiteDriver {
	return &SQLiteDriver{baseDriver{dbType: TypeSQLite}}
}

func (d *SQLiteDriver) Connect(ctx context.Context, config ConnectionConfig, opts PoolOptions) (*Conn, error) {
	return d.open(ctx, sqlite.Open(config.FilePath), config, opts)
}

func (d *SQLiteDriver) ExtractSchema(ctx context.Context, conn *Conn) (*SchemaInfo, error) {
	return fetchSQLiteSchema(ctx, conn)
}
