package querycache

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"querypilot/pkg/dbmanager"
)

type entry struct {
	result         []dbmanager.Row
	createdAt      time.Time
	lastAccessedAt time.Time
	expiresAt      time.Time
}

// MemoryStore is the in-process cache: TTL expiry checked lazily on read,
// oldest-access eviction at capacity and a periodic sweep for expired
// entries.
type MemoryStore struct {
	config  Config
	entries map[string]*entry
	mu      sync.Mutex

	stopSweep chan struct{}
	stopOnce  sync.Once
}

// NewMemoryStore creates the store and starts its sweep loop
func NewMemoryStore(config Config) *MemoryStore {
	s := &MemoryStore{
		config:    config.withDefaults(),
		entries:   make(map[string]*entry),
		stopSweep: make(chan struct{}),
	}

	go s.startSweepRoutine()
	return s
}

func (s *MemoryStore) Get(ctx context.Context, connectionID, query string, params []interface{}) ([]dbmanager.Row, bool) {
	if !s.config.Enabled {
		return nil, false
	}

	key := cacheKey(connectionID, query, params)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[key]
	if !exists {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		// expired entries are removed lazily on read
		delete(s.entries, key)
		return nil, false
	}

	e.lastAccessedAt = time.Now()
	return e.result, true
}

func (s *MemoryStore) Set(ctx context.Context, connectionID, query string, params []interface{}, result []dbmanager.Row, ttl time.Duration) error {
	if !s.config.Enabled {
		return nil
	}
	if len(result) > s.config.MaxRows {
		log.Printf("QueryCache -> Set -> Refusing to cache %d rows (ceiling %d)", len(result), s.config.MaxRows)
		return nil
	}
	if ttl <= 0 {
		ttl = s.config.DefaultTTL
	}

	key := cacheKey(connectionID, query, params)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.config.MaxSize {
		s.evictOldestLocked()
	}

	s.entries[key] = &entry{
		result:         result,
		createdAt:      now,
		lastAccessedAt: now,
		expiresAt:      now.Add(ttl),
	}
	return nil
}

// evictOldestLocked removes the entry with the oldest lastAccessedAt.
// Caller holds s.mu.
func (s *MemoryStore) evictOldestLocked() {
	var oldestKey string
	var oldestTime time.Time
	for key, e := range s.entries {
		if oldestKey == "" || e.lastAccessedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = e.lastAccessedAt
		}
	}
	if oldestKey != "" {
		delete(s.entries, oldestKey)
	}
}

func (s *MemoryStore) Invalidate(ctx context.Context, connectionID, query string, params []interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, cacheKey(connectionID, query, params))
	return nil
}

func (s *MemoryStore) InvalidateConnection(ctx context.Context, connectionID string) error {
	prefix := connectionPrefix(connectionID)

	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry)
	return nil
}

// Len reports the number of resident entries, expired or not
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close stops the sweep loop
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopSweep)
	})
	return nil
}

// SweepExpired removes every entry past its expiry
func (s *MemoryStore) SweepExpired() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

func (s *MemoryStore) startSweepRoutine() {
	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.SweepExpired()
		case <-s.stopSweep:
			return
		}
	}
}
