package querycache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"querypilot/pkg/dbmanager"
)

func testConfig() Config {
	return Config{
		Enabled:         true,
		MaxSize:         3,
		MaxRows:         5,
		DefaultTTL:      time.Minute,
		CleanupInterval: time.Hour, // swept manually in tests
	}
}

func rows(n int) []dbmanager.Row {
	out := make([]dbmanager.Row, n)
	for i := range out {
		out[i] = dbmanager.Row{"n": i}
	}
	return out
}

func newTestStore(t *testing.T, config Config) *MemoryStore {
	t.Helper()
	s := NewMemoryStore(config)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetThenGet(t *testing.T) {
	s := newTestStore(t, testConfig())
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "conn1", "SELECT * FROM t", nil, rows(2), 0))

	got, hit := s.Get(ctx, "conn1", "SELECT * FROM t", nil)
	require.True(t, hit)
	assert.Len(t, got, 2)

	_, hit = s.Get(ctx, "conn1", "SELECT * FROM other", nil)
	assert.False(t, hit)
}

func TestParamsDistinguishEntries(t *testing.T) {
	s := newTestStore(t, testConfig())
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "conn1", "SELECT * FROM t WHERE id = ?", []interface{}{1}, rows(1), 0))

	_, hit := s.Get(ctx, "conn1", "SELECT * FROM t WHERE id = ?", []interface{}{2})
	assert.False(t, hit)

	_, hit = s.Get(ctx, "conn1", "SELECT * FROM t WHERE id = ?", []interface{}{1})
	assert.True(t, hit)
}

func TestTTLExpiry(t *testing.T) {
	s := newTestStore(t, testConfig())
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "conn1", "q", nil, rows(1), 20*time.Millisecond))

	_, hit := s.Get(ctx, "conn1", "q", nil)
	require.True(t, hit)

	time.Sleep(40 * time.Millisecond)
	_, hit = s.Get(ctx, "conn1", "q", nil)
	assert.False(t, hit)
	// lazy expiry removed the entry on read
	assert.Equal(t, 0, s.Len())
}

func TestRowCeilingRefusesLargeResults(t *testing.T) {
	s := newTestStore(t, testConfig())
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "conn1", "big", nil, rows(6), 0))
	_, hit := s.Get(ctx, "conn1", "big", nil)
	assert.False(t, hit)
}

func TestCapacityEvictsOldestAccessed(t *testing.T) {
	s := newTestStore(t, testConfig())
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "c", "q1", nil, rows(1), 0))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, s.Set(ctx, "c", "q2", nil, rows(1), 0))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, s.Set(ctx, "c", "q3", nil, rows(1), 0))
	time.Sleep(2 * time.Millisecond)

	// touch q1 so q2 becomes the least recently accessed
	_, hit := s.Get(ctx, "c", "q1", nil)
	require.True(t, hit)
	time.Sleep(2 * time.Millisecond)

	require.NoError(t, s.Set(ctx, "c", "q4", nil, rows(1), 0))

	assert.Equal(t, 3, s.Len())
	_, hit = s.Get(ctx, "c", "q2", nil)
	assert.False(t, hit, "q2 should have been evicted")
	_, hit = s.Get(ctx, "c", "q1", nil)
	assert.True(t, hit)
	_, hit = s.Get(ctx, "c", "q4", nil)
	assert.True(t, hit)
}

func TestCapacityNeverExceeded(t *testing.T) {
	s := newTestStore(t, testConfig())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, s.Set(ctx, "c", fmt.Sprintf("q%d", i), nil, rows(1), 0))
		assert.LessOrEqual(t, s.Len(), 3)
	}
}

func TestInvalidateConnection(t *testing.T) {
	s := newTestStore(t, testConfig())
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "conn1", "q1", nil, rows(1), 0))
	require.NoError(t, s.Set(ctx, "conn1", "q2", nil, rows(1), 0))
	require.NoError(t, s.Set(ctx, "conn2", "q1", nil, rows(1), 0))

	require.NoError(t, s.InvalidateConnection(ctx, "conn1"))

	_, hit := s.Get(ctx, "conn1", "q1", nil)
	assert.False(t, hit)
	_, hit = s.Get(ctx, "conn1", "q2", nil)
	assert.False(t, hit)
	_, hit = s.Get(ctx, "conn2", "q1", nil)
	assert.True(t, hit, "other connections must be untouched")
}

func TestDisabledCacheAlwaysMisses(t *testing.T) {
	config := testConfig()
	config.Enabled = false
	s := newTestStore(t, config)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "c", "q", nil, rows(1), 0))
	_, hit := s.Get(ctx, "c", "q", nil)
	assert.False(t, hit)
	assert.Equal(t, 0, s.Len())
}

func TestSweepExpiredRemovesOnlyExpired(t *testing.T) {
	s := newTestStore(t, testConfig())
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "c", "short", nil, rows(1), 10*time.Millisecond))
	require.NoError(t, s.Set(ctx, "c", "long", nil, rows(1), time.Hour))

	time.Sleep(30 * time.Millisecond)
	s.SweepExpired()

	assert.Equal(t, 1, s.Len())
	_, hit := s.Get(ctx, "c", "long", nil)
	assert.True(t, hit)
}

func TestClear(t *testing.T) {
	s := newTestStore(t, testConfig())
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "c", "q", nil, rows(1), 0))
	require.NoError(t, s.Clear(ctx))
	assert.Equal(t, 0, s.Len())
}
