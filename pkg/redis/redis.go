package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/richxcame/bus-booking/pkg/config"
)

// Client wraps the Redis client
type Client struct {
	*redis.Client
}

// NewRedisClient creates a new Redis client
func NewRedisClient(cfg *config.RedisConfig) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}

	return &Client{Client: client}, nil
}

// Wrap adapts an existing go-redis client (used by tests with redismock).
func Wrap(client *redis.Client) *Client {
	return &Client{Client: client}
}

// AcquireLock sets a short-lived lock key if it does not already exist.
// Returns false when another holder owns the lock.
func (c *Client) AcquireLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	return c.SetNX(ctx, key, owner, ttl).Result()
}

// ReleaseLock removes a lock key held by owner. A mismatched owner is left in
// place so an expired-and-reacquired lock is never released by the old holder.
func (c *Client) ReleaseLock(ctx context.Context, key, owner string) error {
	current, err := c.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if current != owner {
		return nil
	}
	return c.Del(ctx, key).Err()
}

// Close closes the Redis client
func (c *Client) Close() error {
	return c.Client.Close()
}
