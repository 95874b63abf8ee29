package forecast

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/bbernstein/eventcast/internal/models"
)

// DefaultCacheTTL is how long a computed forecast is served from the cache
const DefaultCacheTTL = 2 * time.Hour

var tracer = otel.Tracer("github.com/bbernstein/eventcast/internal/forecast")

// ForecastCache computes event forecasts cache-aside: look up the store, and
// on a miss fetch, reduce and write the result back.
//
// There is no per-key locking. Concurrent misses for the same event may each
// fetch upstream and write the store; the last write wins and every writer
// stores a complete result.
type ForecastCache struct {
	store Store
	clock Clock
	ttl   time.Duration

	hits        atomic.Uint64
	misses      atomic.Uint64
	fetches     atomic.Uint64
	storeErrors atomic.Uint64
}

// NewForecastCache creates a cache-aside orchestrator over store
func NewForecastCache(store Store, clock Clock, ttl time.Duration) *ForecastCache {
	if clock == nil {
		clock = SystemClock()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ForecastCache{
		store: store,
		clock: clock,
		ttl:   ttl,
	}
}

// GetOrCompute returns the cached result for the window's event, or fetches
// the series, reduces it and caches the result.
//
// Upstream failures are returned as *UpstreamError and are not retried.
// ErrNoForecastData is returned, uncached, when nothing in the series is usable.
// It is the one outcome where upstream is not called at most once per entry
// lifetime: every repeat request for that event fetches again.
func (c *ForecastCache) GetOrCompute(ctx context.Context, window models.EventWindow, fetch FetchFunc) (models.ForecastResult, error) {
	key := window.CacheKey()
	logger := zerolog.Ctx(ctx).With().Str("cache_key", key).Logger()

	if cached := c.lookup(ctx, key, &logger); cached != nil {
		c.hits.Add(1)
		logger.Debug().Msg("Cache HIT for event forecast")
		return *cached, nil
	}
	c.misses.Add(1)
	logger.Debug().Msg("Cache MISS for event forecast, calling weather provider")

	series, err := c.fetch(ctx, window, fetch)
	if err != nil {
		return models.ForecastResult{}, err
	}

	// The horizon is re-sampled here rather than reusing the validation time.
	points := SelectPoints(series, window.Start, window.End, c.clock.Now().UTC())
	if len(points) == 0 {
		logger.Info().Int("series_size", len(series)).Msg("No usable forecast points for event window")
		return models.ForecastResult{}, ErrNoForecastData
	}

	result := Aggregate(points)
	logger.Debug().
		Int("series_size", len(series)).
		Int("selected", len(points)).
		Float64("air_temperature", result.AirTemperature).
		Float64("wind_speed", result.WindSpeed).
		Msg("Computed event forecast")

	if err := c.store.Set(ctx, key, result, c.ttl); err != nil {
		c.storeErrors.Add(1)
		logger.Warn().Err(err).Msg("Failed to cache event forecast")
	}

	return result, nil
}

// lookup treats any store failure, including undecodable payloads, as a miss
func (c *ForecastCache) lookup(ctx context.Context, key string, logger *zerolog.Logger) *models.ForecastResult {
	ctx, span := tracer.Start(ctx, "forecast.cache.get")
	defer span.End()

	cached, err := c.store.Get(ctx, key)
	if err != nil {
		c.storeErrors.Add(1)
		span.RecordError(err)
		logger.Warn().Err(err).Msg("Cache read failed, treating as miss")
		return nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", cached != nil))
	return cached
}

// fetch calls the provider exactly once. Cancellation of ctx is not passed on:
// once started the fetch runs until it completes or the client times out.
func (c *ForecastCache) fetch(ctx context.Context, window models.EventWindow, fetch FetchFunc) (models.RawSeries, error) {
	fetchCtx, span := tracer.Start(context.WithoutCancel(ctx), "forecast.upstream.fetch")
	defer span.End()
	span.SetAttributes(
		attribute.Float64("geo.latitude", window.Latitude),
		attribute.Float64("geo.longitude", window.Longitude),
	)

	c.fetches.Add(1)
	series, err := fetch(fetchCtx, window.Latitude, window.Longitude)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upstream fetch failed")
		return nil, asUpstreamError(err)
	}
	span.SetAttributes(attribute.Int("forecast.series_size", len(series)))
	return series, nil
}

// Stats returns counters for cache hits and misses, upstream fetches and
// store failures
func (c *ForecastCache) Stats() map[string]uint64 {
	return map[string]uint64{
		"hits":         c.hits.Load(),
		"misses":       c.misses.Load(),
		"fetches":      c.fetches.Load(),
		"store_errors": c.storeErrors.Load(),
	}
}
