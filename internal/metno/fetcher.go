package metno

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/bbernstein/eventcast/internal/forecast"
	"github.com/bbernstein/eventcast/internal/models"
	"github.com/bbernstein/eventcast/pkg/http/client"
)

const compactPath = "/weatherapi/locationforecast/2.0/compact?lat=%s&lon=%s"

var tracer = otel.Tracer("github.com/bbernstein/eventcast/internal/metno")

// Fetcher retrieves Locationforecast 2.0 compact series from met.no.
// Every call is a single attempt; the breaker only short-circuits calls
// while the provider keeps failing.
type Fetcher struct {
	httpClient client.Interface
	breaker    *gobreaker.CircuitBreaker
}

type BreakerSettings struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultBreakerSettings trips after 5 consecutive failures and probes again
// after a minute.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 5,
	}
}

func NewFetcher(httpClient client.Interface, settings BreakerSettings) *Fetcher {
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = DefaultBreakerSettings().FailureThreshold
	}
	threshold := settings.FailureThreshold

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "metno",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})

	return &Fetcher{
		httpClient: httpClient,
		breaker:    cb,
	}
}

// Fetch satisfies forecast.FetchFunc
func (f *Fetcher) Fetch(ctx context.Context, latitude, longitude float64) (models.RawSeries, error) {
	ctx, span := tracer.Start(ctx, "metno.Fetch")
	defer span.End()
	span.SetAttributes(
		attribute.Float64("latitude", latitude),
		attribute.Float64("longitude", longitude),
	)

	series, err := f.fetch(ctx, latitude, longitude)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("points", len(series)))
	return series, nil
}

func (f *Fetcher) fetch(ctx context.Context, latitude, longitude float64) (models.RawSeries, error) {
	path := fmt.Sprintf(compactPath, formatCoordinate(latitude), formatCoordinate(longitude))

	result, err := f.breaker.Execute(func() (interface{}, error) {
		resp, err := f.httpClient.Get(ctx, path)
		if err != nil {
			return nil, forecast.NewUpstreamError("requesting locationforecast", err)
		}
		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			return nil, &forecast.UpstreamError{
				Message:    fmt.Sprintf("unexpected status %d", resp.StatusCode),
				StatusCode: resp.StatusCode,
			}
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, forecast.NewUpstreamError("circuit open", err)
		}
		return nil, err
	}

	resp := result.(*client.Response)

	log.Debug().
		Float64("latitude", latitude).
		Float64("longitude", longitude).
		Int("bytes", len(resp.Body)).
		Msg("Fetched locationforecast from met.no")

	series, err := decodeCompact(resp.Body)
	if err != nil {
		upstreamErr := forecast.NewUpstreamError("decoding locationforecast", err)
		upstreamErr.StatusCode = resp.StatusCode
		return nil, upstreamErr
	}
	return series, nil
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type compactResponse struct {
	Properties struct {
		Timeseries []struct {
			Time string `json:"time"`
			Data struct {
				Instant struct {
					Details struct {
						AirTemperature float64 `json:"air_temperature"`
						WindSpeed      float64 `json:"wind_speed"`
					} `json:"details"`
				} `json:"instant"`
			} `json:"data"`
		} `json:"timeseries"`
	} `json:"properties"`
}

// decodeCompact keeps the provider's point order. Missing details decode as zero.
func decodeCompact(body []byte) (models.RawSeries, error) {
	var payload compactResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	series := make(models.RawSeries, 0, len(payload.Properties.Timeseries))
	for i, ts := range payload.Properties.Timeseries {
		t, err := time.Parse(time.RFC3339, ts.Time)
		if err != nil {
			return nil, fmt.Errorf("parsing time of entry %d: %w", i, err)
		}
		series = append(series, models.ForecastPoint{
			Time:           t.UTC(),
			AirTemperature: ts.Data.Instant.Details.AirTemperature,
			WindSpeed:      ts.Data.Instant.Details.WindSpeed,
		})
	}
	return series, nil
}
