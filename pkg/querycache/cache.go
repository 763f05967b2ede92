package querycache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"querypilot/pkg/dbmanager"
)

// Store caches executed query results. The cache is a pure accelerator:
// disabling it or losing every entry changes latency, never correctness.
type Store interface {
	Get(ctx context.Context, connectionID, query string, params []interface{}) ([]dbmanager.Row, bool)
	Set(ctx context.Context, connectionID, query string, params []interface{}, result []dbmanager.Row, ttl time.Duration) error
	Invalidate(ctx context.Context, connectionID, query string, params []interface{}) error
	InvalidateConnection(ctx context.Context, connectionID string) error
	Clear(ctx context.Context) error
	Close() error
}

// Config holds the cache tuning knobs
type Config struct {
	Enabled         bool
	MaxSize         int
	MaxRows         int
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
}

// DefaultConfig mirrors the production defaults
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		MaxSize:         100,
		MaxRows:         1000,
		DefaultTTL:      5 * time.Minute,
		CleanupInterval: 10 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxSize <= 0 {
		c.MaxSize = d.MaxSize
	}
	if c.MaxRows <= 0 {
		c.MaxRows = d.MaxRows
	}
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = d.DefaultTTL
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = d.CleanupInterval
	}
	return c
}

// cacheKey derives the entry key from the connection id, query text and
// parameters. Params are JSON-encoded so equal values produce equal keys.
func cacheKey(connectionID, query string, params []interface{}) string {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		paramsJSON = []byte(fmt.Sprintf("%v", params))
	}
	return connectionID + ":" + query + ":" + string(paramsJSON)
}

func connectionPrefix(connectionID string) string {
	return connectionID + ":"
}
