package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by Redis. Entry TTLs map directly onto
// Redis key expiry.
type RedisStore struct {
	rdb    *goredis.Client
	prefix string
}

// RedisStoreOpts holds parameters for creating a RedisStore.
type RedisStoreOpts struct {
	Addr   string
	Prefix string // key namespace, defaults to "fleetbot"
}

// NewRedisStore connects to Redis and verifies the connection with a ping.
func NewRedisStore(ctx context.Context, opts RedisStoreOpts) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("kv: redis store: addr is required")
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "fleetbot"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("kv: redis ping: %w", err)
	}

	return &RedisStore{rdb: rdb, prefix: prefix}, nil
}

func (s *RedisStore) redisKey(key Key) string {
	return s.prefix + ":" + key.String()
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key Key, dest interface{}) error {
	data, err := s.rdb.Get(ctx, s.redisKey(key)).Bytes()
	if err == goredis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("kv: get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("kv: decode %s: %w", key, err)
	}
	return nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key Key, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("kv: encode %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, s.redisKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("kv: set %s: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	if err := s.rdb.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("kv: delete %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
