package forecast

import (
	"context"
	"time"

	"github.com/bbernstein/eventcast/internal/models"
)

// FetchFunc retrieves the raw forecast series for a coordinate from the
// weather provider. Implementations bound the call with their own timeout.
type FetchFunc func(ctx context.Context, latitude, longitude float64) (models.RawSeries, error)

// Store is the key-value backing store for forecast results.
// Get returns nil, nil when the key is absent or expired.
type Store interface {
	Get(ctx context.Context, key string) (*models.ForecastResult, error)
	Set(ctx context.Context, key string, value models.ForecastResult, ttl time.Duration) error
}

// Clock is the time source for validation and selection
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// SystemClock returns a Clock backed by the wall clock
func SystemClock() Clock {
	return systemClock{}
}
