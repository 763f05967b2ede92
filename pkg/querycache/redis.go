package querycache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"querypilot/pkg/dbmanager"
)

const redisKeyPrefix = "querycache:"

// RedisStore backs the query result cache with Redis for multi-process
// deployments. TTL expiry is native; capacity is left to the Redis eviction
// policy, so MaxSize is not enforced here.
type RedisStore struct {
	client *redis.Client
	config Config
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(config Config, host, port, username, password string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Username: username,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &RedisStore{client: client, config: config.withDefaults()}, nil
}

func (s *RedisStore) Get(ctx context.Context, connectionID, query string, params []interface{}) ([]dbmanager.Row, bool) {
	if !s.config.Enabled {
		return nil, false
	}

	key := redisKeyPrefix + cacheKey(connectionID, query, params)
	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("QueryCache -> Get -> Redis error: %v", err)
		return nil, false
	}

	var result []dbmanager.Row
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		log.Printf("QueryCache -> Get -> Failed to decode cached result: %v", err)
		return nil, false
	}
	return result, true
}

func (s *RedisStore) Set(ctx context.Context, connectionID, query string, params []interface{}, result []dbmanager.Row, ttl time.Duration) error {
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

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result for cache: %v", err)
	}

	key := redisKeyPrefix + cacheKey(connectionID, query, params)
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *RedisStore) Invalidate(ctx context.Context, connectionID, query string, params []interface{}) error {
	key := redisKeyPrefix + cacheKey(connectionID, query, params)
	return s.client.Del(ctx, key).Err()
}

func (s *RedisStore) InvalidateConnection(ctx context.Context, connectionID string) error {
	return s.deleteByPattern(ctx, redisKeyPrefix+connectionPrefix(connectionID)+"*")
}

func (s *RedisStore) Clear(ctx context.Context) error {
	return s.deleteByPattern(ctx, redisKeyPrefix+"*")
}

func (s *RedisStore) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, nextCursor, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if nextCursor == 0 {
			return nil
		}
		cursor = nextCursor
	}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
