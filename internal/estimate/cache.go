package estimate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-tax/internal/rating"
)

// Cache wraps Redis helpers for serialized rating responses.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached response for the key, or nil when absent.
func (c *Cache) Get(ctx context.Context, key string) (*rating.Response, error) {
	if c == nil || c.client == nil || key == "" {
		return nil, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var resp rating.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Set serializes the response and stores it with the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, resp *rating.Response) error {
	if c == nil || c.client == nil || key == "" || resp == nil {
		return nil
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}
