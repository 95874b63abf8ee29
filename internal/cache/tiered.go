package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/bbernstein/eventcast/internal/models"
)

// Store is implemented by every cache backend
type Store interface {
	Get(ctx context.Context, key string) (*models.ForecastResult, error)
	Set(ctx context.Context, key string, value models.ForecastResult, ttl time.Duration) error
}

// TTLStore is implemented by stores that can report how long an entry has
// left to live. A zero TTL means the remaining lifetime is unknown.
type TTLStore interface {
	GetWithTTL(ctx context.Context, key string) (*models.ForecastResult, time.Duration, error)
}

// TieredStore provides a two-layer cache using an LRU in front of a remote store.
// A remote hit is copied into the LRU for at most the local TTL and never past
// the remote entry's own expiry.
type TieredStore struct {
	local        *LRUStore
	remote       Store
	localTTL     time.Duration
	lruHits      atomic.Uint64
	lruMisses    atomic.Uint64
	remoteHits   atomic.Uint64
	remoteMisses atomic.Uint64
}

// NewTieredStore creates a store that serves from local first. localTTL bounds
// how long a remote hit is kept in process.
func NewTieredStore(local *LRUStore, remote Store, localTTL time.Duration) *TieredStore {
	return &TieredStore{
		local:    local,
		remote:   remote,
		localTTL: localTTL,
	}
}

func (t *TieredStore) Get(ctx context.Context, key string) (*models.ForecastResult, error) {
	if result, _ := t.local.Get(ctx, key); result != nil {
		t.lruHits.Add(1)
		return result, nil
	}
	t.lruMisses.Add(1)

	result, remaining, err := t.getRemote(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("getting forecast from remote cache: %w", err)
	}
	if result == nil {
		t.remoteMisses.Add(1)
		return nil, nil
	}
	t.remoteHits.Add(1)

	if localTTL := capTTL(t.localTTL, remaining); localTTL > 0 {
		_ = t.local.Set(ctx, key, *result, localTTL)
	}
	return result, nil
}

// getRemote reads from the remote layer along with the entry's remaining
// lifetime, when the remote store can tell
func (t *TieredStore) getRemote(ctx context.Context, key string) (*models.ForecastResult, time.Duration, error) {
	if ttlStore, ok := t.remote.(TTLStore); ok {
		return ttlStore.GetWithTTL(ctx, key)
	}
	result, err := t.remote.Get(ctx, key)
	return result, 0, err
}

// capTTL returns the shorter of localTTL and remaining. An unknown remaining
// lifetime yields zero so the entry stays remote-only.
func capTTL(localTTL, remaining time.Duration) time.Duration {
	if remaining <= 0 {
		return 0
	}
	if localTTL <= 0 || localTTL > remaining {
		return remaining
	}
	return localTTL
}

// Set writes to both layers. The local write always succeeds, so a remote
// failure still leaves this instance warm.
func (t *TieredStore) Set(ctx context.Context, key string, value models.ForecastResult, ttl time.Duration) error {
	if localTTL := capTTL(t.localTTL, ttl); localTTL > 0 {
		_ = t.local.Set(ctx, key, value, localTTL)
	}

	if err := t.remote.Set(ctx, key, value, ttl); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("cache_key", key).Msg("Remote cache write failed")
		return fmt.Errorf("saving forecast to remote cache: %w", err)
	}
	return nil
}

// GetCacheStats returns statistics about cache hits and misses
func (t *TieredStore) GetCacheStats() map[string]uint64 {
	return map[string]uint64{
		"lru_hits":      t.lruHits.Load(),
		"lru_misses":    t.lruMisses.Load(),
		"remote_hits":   t.remoteHits.Load(),
		"remote_misses": t.remoteMisses.Load(),
	}
}
