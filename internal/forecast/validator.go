package forecast

import (
	"math"
	"time"

	"github.com/bbernstein/eventcast/internal/models"
)

// Horizon is how far ahead forecast data is considered usable
const Horizon = 7 * 24 * time.Hour

// Validator checks request parameters against the current time
type Validator struct {
	clock Clock
}

// NewValidator creates a validator reading the current time from clock
func NewValidator(clock Clock) *Validator {
	if clock == nil {
		clock = SystemClock()
	}
	return &Validator{clock: clock}
}

// Validate samples the clock and validates the request. See Validate.
func (v *Validator) Validate(latitude, longitude float64, startRaw, endRaw string) (models.EventWindow, error) {
	return Validate(latitude, longitude, startRaw, endRaw, v.clock.Now())
}

// Validate checks the event window parameters and returns the parsed window.
// Date rules are evaluated before coordinate rules and only the first
// violation is reported. The returned error is always a *ValidationError.
// All bounds are inclusive.
func Validate(latitude, longitude float64, startRaw, endRaw string, now time.Time) (models.EventWindow, error) {
	start, end, verr := validateDates(startRaw, endRaw, now.UTC())
	if verr != nil {
		return models.EventWindow{}, verr
	}

	if verr := validateCoordinates(latitude, longitude); verr != nil {
		return models.EventWindow{}, verr
	}

	return models.EventWindow{
		Latitude:  latitude,
		Longitude: longitude,
		Start:     start,
		End:       end,
	}, nil
}

func validateDates(startRaw, endRaw string, now time.Time) (time.Time, time.Time, *ValidationError) {
	if startRaw == "" || endRaw == "" {
		return time.Time{}, time.Time{}, NewValidationError(CodeInvalidDate)
	}

	start, err := parseInstant(startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, NewValidationError(CodeInvalidDateFormat)
	}
	end, err := parseInstant(endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, NewValidationError(CodeInvalidDateFormat)
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, NewValidationError(CodeStartAfterEnd)
	}

	if start.Before(now) || end.Before(now) {
		return time.Time{}, time.Time{}, NewValidationError(CodeDateInPast)
	}

	latest := now.Add(Horizon)
	if start.After(latest) || end.After(latest) {
		return time.Time{}, time.Time{}, NewValidationError(CodeNotWithin7Days)
	}

	return start, end, nil
}

// validateCoordinates runs the range checks before the NaN check; NaN fails
// no comparison so it always falls through to the format error
func validateCoordinates(latitude, longitude float64) *ValidationError {
	if latitude < -90 || latitude > 90 {
		return NewValidationError(CodeInvalidLatitude)
	}
	if longitude < -180 || longitude > 180 {
		return NewValidationError(CodeInvalidLongitude)
	}
	if math.IsNaN(latitude) || math.IsNaN(longitude) {
		return NewValidationError(CodeInvalidLocationFormat)
	}
	return nil
}

// parseInstant accepts RFC 3339 timestamps only. A zone offset (or Z) is
// mandatory, so local date-times never get a default zone.
func parseInstant(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
