package dbmanager

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq" // PostgreSQL driver
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PostgresDriver implements Driver for PostgreSQL
type PostgresDriver struct {
	baseDriver
}

func NewPostgresDriver() *PostgresDriver {
	return &PostgresDriver{baseDriver{dbType: TypePostgres}}
}

func (d *PostgresDriver) Connect(ctx context.Context, config ConnectionConfig, opts PoolOptions) (*Conn, error) {
	dsn := fmt.Sprintf("host=%s port=%s dbname=%s sslmode=disable",
		config.Host, config.Port, config.Database)
	if config.Username != "" {
		dsn += fmt.Sprintf(" user=%s", config.Username)
	}
	if config.Password != "" {
		dsn += fmt.Sprintf(" password=%s", config.Password)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgresql connection: %v", err)
	}

	db.SetMaxOpenConns(opts.MaxClients)
	db.SetMaxIdleConns(opts.MaxClients)
	db.SetConnMaxIdleTime(opts.IdleTimeout)

	pingCtx, cancel := context.WithTimeout(ctx, opts.AcquireTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Printf("DBManager -> Connect -> Failed to close postgresql handle after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("postgresql connection check failed: %v", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Printf("DBManager -> Connect -> Failed to close postgresql handle: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to wrap postgresql connection: %v", err)
	}

	return &Conn{
		Type:   TypePostgres,
		DB:     gormDB,
		Config: config,
	}, nil
}

func (d *PostgresDriver) ExtractSchema(ctx context.Context, conn *Conn) (*SchemaInfo, error) {
	return fetchPostgresSchema(ctx, conn)
}
