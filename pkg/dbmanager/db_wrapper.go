package dbmanager

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// baseDriver carries the behavior shared by every gorm-backed driver:
// opening the handle with bounded pool settings, a proof-of-life ping,
// row-map query execution and idempotent close.
type baseDriver struct {
	dbType DatabaseType
}

// open creates the gorm handle, applies pool bounds and verifies liveness
// with one round trip before the connection is handed out.
func (d baseDriver) open(ctx context.Context, dialector gorm.Dialector, config ConnectionConfig, opts PoolOptions) (*Conn, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %v", d.dbType, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access %s connection pool: %v", d.dbType, err)
	}

	maxClients := opts.MaxClients
	if d.dbType == TypeSQLite {
		// the embedded store is a single long-lived handle
		maxClients = 1
	}
	sqlDB.SetMaxOpenConns(maxClients)
	sqlDB.SetMaxIdleConns(maxClients)
	sqlDB.SetConnMaxIdleTime(opts.IdleTimeout)

	pingCtx, cancel := context.WithTimeout(ctx, opts.AcquireTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		if closeErr := sqlDB.Close(); closeErr != nil {
			log.Printf("DBManager -> open -> Failed to close %s handle after ping failure: %v", d.dbType, closeErr)
		}
		return nil, fmt.Errorf("%s connection check failed: %v", d.dbType, err)
	}

	return &Conn{
		Type:   d.dbType,
		DB:     db,
		Config: config,
	}, nil
}

// ExecuteQuery runs a single statement and returns ordered row maps
func (d baseDriver) ExecuteQuery(ctx context.Context, conn *Conn, sql string, params []interface{}) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []map[string]interface{}
	if err := conn.DB.WithContext(ctx).Raw(sql, params...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query execution failed: %v", err)
	}

	result := make([]Row, len(rows))
	for i, row := range rows {
		result[i] = Row(row)
	}
	return result, nil
}

// Close closes the underlying handle. Idempotent: a double close is logged
// and ignored.
func (d baseDriver) Close(conn *Conn) error {
	if conn == nil {
		return nil
	}

	conn.mu.Lock()
	defer conn.mu.Unlock()

	if conn.closed {
		log.Printf("DBManager -> Close -> %s connection already closed, ignoring", d.dbType)
		return nil
	}
	conn.closed = true

	sqlDB, err := conn.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access %s connection for close: %v", d.dbType, err)
	}
	return sqlDB.Close()
}

// queryRows scans an introspection query into dest, for the schema fetchers
func queryRows(ctx context.Context, conn *Conn, dest interface{}, sql string, params ...interface{}) error {
	return conn.DB.WithContext(ctx).Raw(sql, params...).Scan(dest).Error
}

// LastUsedAge is a test hook reporting how stale a pool is
func (p *Pool) LastUsedAge() time.Duration {
	p.Mutex.Lock()
	defer p.Mutex.Unlock()
	return time.Since(p.LastUsed)
}
