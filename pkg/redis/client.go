package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Nil is re-exported so callers don't need to import go-redis for the miss sentinel.
const Nil = redis.Nil

// Client wraps the Redis connection used as the key-value counter store
type Client struct {
	rdb        *redis.Client
	KeyBuilder *KeyBuilder
	log        *zap.Logger
}

// NewClient creates a new Redis client
func NewClient(redisURL string, environment string, log *zap.Logger) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = 50
	opts.MinIdleConns = 5
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb, KeyBuilder: NewKeyBuilder(environment), log: log}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Get retrieves a value from Redis
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	val, err := c.rdb.Get(ctx, key).Result()
	dur := time.Since(start)
	if err != nil && err != redis.Nil {
		c.log.Info("redis_get",
			zap.String("key_prefix", prefixForLog(key)),
			zap.Duration("duration", dur),
			zap.Error(err))
	} else {
		c.log.Debug("redis_get",
			zap.String("key_prefix", prefixForLog(key)),
			zap.Duration("duration", dur))
	}
	return val, err
}

// Set stores a value in Redis with TTL
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	start := time.Now()
	err := c.rdb.Set(ctx, key, value, ttl).Err()
	dur := time.Since(start)
	if err != nil {
		c.log.Info("redis_set",
			zap.String("key_prefix", prefixForLog(key)),
			zap.Duration("duration", dur),
			zap.Error(err))
	} else {
		c.log.Debug("redis_set",
			zap.String("key_prefix", prefixForLog(key)),
			zap.Duration("duration", dur))
	}
	return err
}

// Delete removes keys from Redis
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := c.rdb.Del(ctx, keys...).Err()
	dur := time.Since(start)
	c.log.Debug("redis_del",
		zap.Int("keys", len(keys)),
		zap.Duration("duration", dur),
		zap.Error(err))
	return err
}

// Health checks the Redis connection
func (c *Client) Health(ctx context.Context) error {
	start := time.Now()
	err := c.rdb.Ping(ctx).Err()
	dur := time.Since(start)
	if err != nil {
		c.log.Info("redis_ping",
			zap.Duration("duration", dur),
			zap.Error(err))
	} else {
		c.log.Debug("redis_ping", zap.Duration("duration", dur))
	}
	return err
}

// prefixForLog returns a safe prefix of a key to avoid logging PII
func prefixForLog(key string) string {
	if len(key) <= 24 {
		return key
	}
	return key[:24] + "…"
}
