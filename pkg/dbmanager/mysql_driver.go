package dbmanager

import (
	"context"
	"fmt"
	"time"

	driver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
)

// MySQLDriver implements Driver for MySQL
type MySQLDriver struct {
	baseDriver
}

func NewMySQLDriver() *MySQLDriver {
	return &MySQLDriver{baseDriver{dbType: TypeMySQL}}
}

func (d *MySQLDriver) Connect(ctx context.Context, config ConnectionConfig, opts PoolOptions) (*Conn, error) {
	cfg := driver.NewConfig()
	cfg.User = config.Username
	cfg.Passwd = config.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%s", config.Host, config.Port)
	cfg.DBName = config.Database
	cfg.ParseTime = true
	cfg.Timeout = opts.AcquireTimeout
	cfg.ReadTimeout = 30 * time.Second

	return d.open(ctx, mysql.Open(cfg.FormatDSN()), config, opts)
}

func (d *MySQLDriver) ExtractSchema(ctx context.Context, conn *Conn) (*SchemaInfo, error) {
	return fetchMySQLSchema(ctx, conn)
}
