package forecast

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/bbernstein/eventcast/internal/models"
)

// Service answers forecast requests for events: validate, then serve from
// the cache or compute from the weather provider.
type Service struct {
	fetch     FetchFunc
	validator *Validator
	cache     *ForecastCache
}

type serviceOptions struct {
	clock Clock
	ttl   time.Duration
}

// ServiceOption configures a Service
type ServiceOption func(*serviceOptions)

// WithClock sets the time source used by validation and selection
func WithClock(clock Clock) ServiceOption {
	return func(o *serviceOptions) {
		o.clock = clock
	}
}

// WithCacheTTL sets how long computed results stay cached
func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(o *serviceOptions) {
		o.ttl = ttl
	}
}

// NewService creates a forecast service fetching from fetch and caching in store
func NewService(fetch FetchFunc, store Store, opts ...ServiceOption) *Service {
	o := serviceOptions{
		clock: SystemClock(),
		ttl:   DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Service{
		fetch:     fetch,
		validator: NewValidator(o.clock),
		cache:     NewForecastCache(store, o.clock, o.ttl),
	}
}

// GetForecast returns the averaged forecast for an event.
//
// Errors are one of *ValidationError (bad input, nothing else was touched),
// *UpstreamError (the provider call failed), ErrNoForecastData, or an
// unexpected error.
func (s *Service) GetForecast(ctx context.Context, eventID string, latitude, longitude float64, startRaw, endRaw string) (models.ForecastResult, error) {
	ctx, span := tracer.Start(ctx, "forecast.GetForecast")
	defer span.End()
	span.SetAttributes(attribute.String("event.id", eventID))

	window, err := s.validator.Validate(latitude, longitude, startRaw, endRaw)
	if err != nil {
		zerolog.Ctx(ctx).Info().Err(err).Str("event_id", eventID).Msg("Rejected forecast request")
		return models.ForecastResult{}, err
	}
	window.EventID = eventID

	return s.cache.GetOrCompute(ctx, window, s.fetch)
}

// CacheStats exposes the cache counters
func (s *Service) CacheStats() map[string]uint64 {
	return s.cache.Stats()
}
