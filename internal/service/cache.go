// internal/service/cache.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/meridianhq/meridian/internal/cache"
	"github.com/meridianhq/meridian/internal/domain"
)

// CacheService provides caching functionality with type safety and error handling
type CacheService struct {
	cache *cache.InMemoryCache
}

// CacheConfig holds configuration for the cache service
type CacheConfig struct {
	TTL         time.Duration
	CleanupFreq time.Duration
}

// NewCacheService creates a new cache service
func NewCacheService(config CacheConfig) *CacheService {
	c := cache.NewInMemoryCache(config.TTL, config.CleanupFreq)
	c.StartCleanup(context.Background())

	return &CacheService{cache: c}
}

// Set stores a value in the cache
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	if key == "" {
		return fmt.Errorf("%w: empty cache key", domain.ErrInvalidInput)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling cache value: %w", err)
	}

	s.cache.Set(key, data)
	return nil
}

// Get retrieves a value from the cache into out
func (s *CacheService) Get(ctx context.Context, key string, out interface{}) error {
	data, ok := s.cache.Get(key)
	if !ok {
		return domain.ErrNotFound
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("unmarshaling cache value: %w", err)
	}

	return nil
}

// Delete removes a key from the cache
func (s *CacheService) Delete(ctx context.Context, key string) {
	s.cache.Delete(key)
}

// GetOrSet returns the cached value for key, calling fetch and caching its
// result on a miss.
func (s *CacheService) GetOrSet(ctx context.Context, key string, out interface{}, fetch func() (interface{}, error)) error {
	if err := s.Get(ctx, key, out); err == nil {
		return nil
	}

	value, err := fetch()
	if err != nil {
		return err
	}

	if err := s.Set(ctx, key, value); err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling fetched value: %w", err)
	}

	return json.Unmarshal(data, out)
}

// Close stops the cache's background cleanup
func (s *CacheService) Close() {
	s.cache.Close()
}
