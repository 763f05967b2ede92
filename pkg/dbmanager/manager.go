package dbmanager

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"querypilot/internal/observability"
)

// Pool is the shared handle for one distinct descriptor. At most one Pool
// exists per config key at a time.
type Pool struct {
	Conn     *Conn
	Config   ConnectionConfig
	LastUsed time.Time
	RefCount int
	Mutex    sync.Mutex
}

// Touch updates the pool's last-used time
func (p *Pool) Touch() {
	p.Mutex.Lock()
	p.LastUsed = time.Now()
	p.Mutex.Unlock()
}

// PoolMetrics reports pool-level counters
type PoolMetrics struct {
	TotalPools   int `json:"total_pools"`
	CreateCount  int `json:"create_count"`
	ReuseCount   int `json:"reuse_count"`
	EvictedCount int `json:"evicted_count"`
}

// Manager owns one shared pool per distinct connection descriptor and the
// background idle sweep.
type Manager struct {
	drivers map[DatabaseType]Driver
	pools   map[string]*Pool
	mu      sync.Mutex
	opts    PoolOptions
	metrics PoolMetrics

	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewManager creates a connection manager with all default drivers
// registered and starts the idle sweep loop.
func NewManager(opts PoolOptions) *Manager {
	if opts.MaxClients <= 0 {
		opts.MaxClients = DefaultPoolOptions().MaxClients
	}
	if opts.AcquireTimeout <= 0 {
		opts.AcquireTimeout = DefaultPoolOptions().AcquireTimeout
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultPoolOptions().IdleTimeout
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = DefaultPoolOptions().CleanupInterval
	}

	m := &Manager{
		drivers:     make(map[DatabaseType]Driver),
		pools:       make(map[string]*Pool),
		opts:        opts,
		stopCleanup: make(chan struct{}),
	}

	m.RegisterDriver(TypeSQLite, NewSQLiteDriver())
	m.RegisterDriver(TypePostgres, NewPostgresDriver())
	m.RegisterDriver(TypeMySQL, NewMySQLDriver())
	m.RegisterDriver(TypeClickHouse, NewClickHouseDriver())

	go m.startCleanupRoutine()

	return m
}

// RegisterDriver registers a driver for a database type
func (m *Manager) RegisterDriver(dbType DatabaseType, driver Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[dbType] = driver
	log.Printf("DBManager -> Registered driver for type: %s", dbType)
}

// Driver returns the registered driver for a database type
func (m *Manager) Driver(dbType DatabaseType) (Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, exists := m.drivers[dbType]
	if !exists {
		return nil, unsupportedTypeError(dbType)
	}
	return driver, nil
}

// Acquire returns the shared pool for a descriptor, creating it on first
// use. Get-or-create is atomic per config key: concurrent callers for the
// same uncreated descriptor resolve to the same pool.
func (m *Manager) Acquire(ctx context.Context, config ConnectionConfig) (*Pool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	key := config.ConfigKey()

	m.mu.Lock()
	defer m.mu.Unlock()

	if pool, exists := m.pools[key]; exists {
		pool.Mutex.Lock()
		pool.RefCount++
		pool.LastUsed = time.Now()
		pool.Mutex.Unlock()
		m.metrics.ReuseCount++
		observability.ObservePoolAcquire(false)
		log.Printf("DBManager -> Acquire -> Reusing pool %s (refCount=%d)", key, pool.RefCount)
		return pool, nil
	}

	driver, exists := m.drivers[config.Type]
	if !exists {
		return nil, unsupportedTypeError(config.Type)
	}

	conn, err := driver.Connect(ctx, config, m.opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", config.Type, err)
	}

	pool := &Pool{
		Conn:     conn,
		Config:   config,
		LastUsed: time.Now(),
		RefCount: 1,
	}
	m.pools[key] = pool
	m.metrics.CreateCount++
	observability.ObservePoolAcquire(true)
	log.Printf("DBManager -> Acquire -> Created pool %s for %s database %q", key, config.Type, config.Database)

	return pool, nil
}

// Release marks a pool as no longer in use by the caller. The underlying
// connection pool stays open; only bookkeeping changes.
func (m *Manager) Release(pool *Pool) {
	if pool == nil {
		return
	}
	pool.Mutex.Lock()
	if pool.RefCount > 0 {
		pool.RefCount--
	}
	pool.LastUsed = time.Now()
	pool.Mutex.Unlock()
}

// Close removes and closes the pool for a descriptor, if one exists
func (m *Manager) Close(config ConnectionConfig) error {
	key := config.ConfigKey()

	m.mu.Lock()
	pool, exists := m.pools[key]
	if exists {
		delete(m.pools, key)
	}
	driver := m.drivers[config.Type]
	m.mu.Unlock()

	if !exists {
		return fmt.Errorf("no pool found for connection %s", key)
	}
	if driver == nil {
		return unsupportedTypeError(config.Type)
	}
	return driver.Close(pool.Conn)
}

// CloseAll closes every pool across all types. Best effort: individual
// failures are logged and the remaining pools are still attempted.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	pools := make([]*Pool, 0, len(m.pools))
	for key, pool := range m.pools {
		pools = append(pools, pool)
		delete(m.pools, key)
	}
	m.mu.Unlock()

	for _, pool := range pools {
		driver, err := m.Driver(pool.Config.Type)
		if err != nil {
			log.Printf("DBManager -> CloseAll -> %v", err)
			continue
		}
		if err := driver.Close(pool.Conn); err != nil {
			log.Printf("DBManager -> CloseAll -> Failed to close pool for %s: %v", pool.Config.Database, err)
		}
	}
}

// SweepIdle closes and removes every pool idle past the threshold. Close
// failures are logged, never propagated, and do not block sweeping the
// remaining pools.
func (m *Manager) SweepIdle() {
	now := time.Now()

	m.mu.Lock()
	var idle []*Pool
	for key, pool := range m.pools {
		pool.Mutex.Lock()
		expired := now.Sub(pool.LastUsed) > m.opts.IdleTimeout
		pool.Mutex.Unlock()
		if expired {
			idle = append(idle, pool)
			delete(m.pools, key)
			m.metrics.EvictedCount++
		}
	}
	m.mu.Unlock()

	for _, pool := range idle {
		driver, err := m.Driver(pool.Config.Type)
		if err != nil {
			log.Printf("DBManager -> SweepIdle -> %v", err)
			continue
		}
		log.Printf("DBManager -> SweepIdle -> Closing idle pool for %s database %q", pool.Config.Type, pool.Config.Database)
		if err := driver.Close(pool.Conn); err != nil {
			log.Printf("DBManager -> SweepIdle -> Failed to close idle pool: %v", err)
		}
	}
}

// Metrics returns a snapshot of the pool counters
func (m *Manager) Metrics() PoolMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.metrics
	snapshot.TotalPools = len(m.pools)
	return snapshot
}

// Shutdown stops the sweep loop and closes every pool
func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() {
		close(m.stopCleanup)
	})
	m.CloseAll()
}

func (m *Manager) startCleanupRoutine() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("DBManager -> Cleanup routine panic recovered: %v", r)
			go m.startCleanupRoutine()
		}
	}()

	ticker := time.NewTicker(m.opts.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.SweepIdle()
		case <-m.stopCleanup:
			return
		}
	}
}
