// Package redis shares the known-category list between server replicas.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/toolshelf/internal/domain"
)

// DefaultCategoryTTL bounds how long a replica may serve a list another
// replica has already invalidated.
const DefaultCategoryTTL = 5 * time.Minute

// CategoryCache stores the known-category list under a single key.
type CategoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCategoryCache creates a cache on client. A non-positive ttl selects
// DefaultCategoryTTL.
func NewCategoryCache(client *redis.Client, ttl time.Duration) *CategoryCache {
	if ttl <= 0 {
		ttl = DefaultCategoryTTL
	}
	return &CategoryCache{client: client, ttl: ttl}
}

// Get returns the cached list. ok is false on a miss.
func (c *CategoryCache) Get(ctx context.Context) ([]domain.CategoryRef, bool, error) {
	data, err := c.client.Get(ctx, KeyKnownCategories).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get known categories: %w", err)
	}
	var refs []domain.CategoryRef
	if err := json.Unmarshal(data, &refs); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal known categories: %w", err)
	}
	if refs == nil {
		refs = []domain.CategoryRef{}
	}
	return refs, true, nil
}

// Put replaces the cached list.
func (c *CategoryCache) Put(ctx context.Context, refs []domain.CategoryRef) error {
	data, err := json.Marshal(refs)
	if err != nil {
		return fmt.Errorf("failed to marshal known categories: %w", err)
	}
	if err := c.client.Set(ctx, KeyKnownCategories, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache known categories: %w", err)
	}
	return nil
}

// Invalidate drops the cached list.
func (c *CategoryCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, KeyKnownCategories).Err(); err != nil {
		return fmt.Errorf("failed to invalidate known categories: %w", err)
	}
	return nil
}

// Ping reports whether Redis answers.
func (c *CategoryCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
