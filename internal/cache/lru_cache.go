package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2"

	"github.com/bbernstein/eventcast/internal/models"
)

// LRUCacheEntry wraps the cached data with metadata
type LRUCacheEntry struct {
	Data      models.ForecastResult
	ExpiresAt time.Time
}

// LRUStore is an in-process forecast store bounded by entry count.
// Expired entries are dropped lazily on read.
type LRUStore struct {
	lru   *lru.Cache[string, *LRUCacheEntry]
	clock clock
}

func NewLRUStore(size int) (*LRUStore, error) {
	return newLRUStore(size, realClock{})
}

func newLRUStore(size int, clk clock) (*LRUStore, error) {
	lruCache, err := lru.New[string, *LRUCacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("creating LRU cache: %w", err)
	}

	return &LRUStore{
		lru:   lruCache,
		clock: clk,
	}, nil
}

func (s *LRUStore) Get(ctx context.Context, key string) (*models.ForecastResult, error) {
	result, _, err := s.GetWithTTL(ctx, key)
	return result, err
}

// GetWithTTL returns a copy of the entry and how long it has left
func (s *LRUStore) GetWithTTL(_ context.Context, key string) (*models.ForecastResult, time.Duration, error) {
	entry, ok := s.lru.Get(key)
	if !ok {
		return nil, 0, nil
	}

	remaining := entry.ExpiresAt.Sub(s.clock.Now())
	if remaining <= 0 {
		s.lru.Remove(key)
		return nil, 0, nil
	}

	result := entry.Data
	return &result, remaining, nil
}

func (s *LRUStore) Set(_ context.Context, key string, value models.ForecastResult, ttl time.Duration) error {
	s.lru.Add(key, &LRUCacheEntry{
		Data:      value,
		ExpiresAt: s.clock.Now().Add(ttl),
	})
	return nil
}

// Len returns the number of entries, including expired ones not yet evicted
func (s *LRUStore) Len() int {
	return s.lru.Len()
}

// Clear removes all entries from the LRU cache
func (s *LRUStore) Clear() {
	s.lru.Purge()
}
