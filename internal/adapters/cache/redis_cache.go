package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mikey/fraud-sentinel/internal/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "reputation:"

// RedisCache is a Redis implementation of the ReputationCache interface.
// Expiry rides on Redis key TTLs, so Cleanup is a no-op.
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisCache creates a new Redis reputation cache.
func NewRedisCache(addr, password string, db int, logger *zap.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client, logger: logger}, nil
}

// Get retrieves a cached record for an IP.
func (c *RedisCache) Get(ctx context.Context, ip string) (*core.ReputationRecord, error) {
	payload, err := c.client.Get(ctx, redisKeyPrefix+ip).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query reputation cache: %w", err)
	}

	var record core.ReputationRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("failed to decode reputation record: %w", err)
	}

	// Redis TTLs are coarse; double-check the recorded expiry.
	if time.Now().After(record.ExpiresAt) {
		return nil, ErrNotFound
	}

	return &record, nil
}

// Set stores a record with a TTL derived from its expiry.
func (c *RedisCache) Set(ctx context.Context, record *core.ReputationRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode reputation record: %w", err)
	}

	ttl := time.Until(record.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := c.client.Set(ctx, redisKeyPrefix+record.IP, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to insert reputation record: %w", err)
	}
	return nil
}

// Delete removes a record.
func (c *RedisCache) Delete(ctx context.Context, ip string) error {
	if err := c.client.Del(ctx, redisKeyPrefix+ip).Err(); err != nil {
		return fmt.Errorf("failed to delete reputation record: %w", err)
	}
	return nil
}

// Cleanup is a no-op; Redis evicts expired keys itself.
func (c *RedisCache) Cleanup(ctx context.Context) error {
	return nil
}

// Stop closes the Redis connection.
func (c *RedisCache) Stop() {
	if err := c.client.Close(); err != nil {
		c.logger.Error("Failed to close Redis client", zap.Error(err))
	}
}
