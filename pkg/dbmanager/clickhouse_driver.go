package dbmanager

import (
	"context"
	"fmt"
	"net/url"

	"gorm.io/driver/clickhouse"
)

// ClickHouseDriver implements Driver for ClickHouse
type ClickHouseDriver struct {
	baseDriver
}

func NewClickHouseDriver() *ClickHouseDriver {
	return &ClickHouseDriver{baseDriver{dbType: TypeClickHouse}}
}

func (d *ClickHouseDriver) Connect(ctx context.Context, config ConnectionConfig, opts PoolOptions) (*Conn, error) {
	dsn := fmt.Sprintf("clickhouse://%s:%s@%s:%s/%s",
		url.QueryEscape(config.Username), url.QueryEscape(config.Password),
		config.Host, config.Port, config.Database)

	return d.open(ctx, clickhouse.Open(dsn), config, opts)
}

func (d *ClickHouseDriver) ExtractSchema(ctx context.Context, conn *Conn) (*SchemaInfo, error) {
	return fetchClickHouseSchema(ctx, conn)
}
