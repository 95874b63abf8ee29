package forecast

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the kind of request validation failure
type ErrorCode string

const (
	CodeInvalidDate           ErrorCode = "INVALID_DATE"
	CodeInvalidDateFormat     ErrorCode = "INVALID_DATE_FORMAT"
	CodeStartAfterEnd         ErrorCode = "START_AFTER_END"
	CodeDateInPast            ErrorCode = "DATE_IN_PAST"
	CodeNotWithin7Days        ErrorCode = "NOT_WITHIN_7_DAYS"
	CodeInvalidLatitude       ErrorCode = "INVALID_LATITUDE"
	CodeInvalidLongitude      ErrorCode = "INVALID_LONGITUDE"
	CodeInvalidLocationFormat ErrorCode = "INVALID_LOCATION_FORMAT"
)

var descriptions = map[ErrorCode]string{
	CodeInvalidDate:           "Invalid start_date or end_date",
	CodeInvalidDateFormat:     "Invalid date format",
	CodeStartAfterEnd:         "Start date should be before end date",
	CodeDateInPast:            "Start/End date cannot be in the past",
	CodeNotWithin7Days:        "Event start date should be within 7 days",
	CodeInvalidLatitude:       "Invalid latitude",
	CodeInvalidLongitude:      "Invalid longitude",
	CodeInvalidLocationFormat: "Invalid format for location co-ordinates",
}

// ErrNoForecastData is returned when the upstream series had no usable point
// for the event window
var ErrNoForecastData = errors.New("no forecast data available")

// ValidationError is returned when the request parameters are not acceptable.
// The caller can fix it by resubmitting corrected input.
type ValidationError struct {
	Code        ErrorCode
	Description string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Code, e.Description)
}

// NewValidationError creates a validation error with the standard description for code
func NewValidationError(code ErrorCode) *ValidationError {
	return &ValidationError{
		Code:        code,
		Description: descriptions[code],
	}
}

// UpstreamError represents a failure talking to the weather provider
type UpstreamError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("weather provider error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("weather provider error: %s", e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError creates a new weather provider error
func NewUpstreamError(message string, err error) *UpstreamError {
	return &UpstreamError{
		Message: message,
		Err:     err,
	}
}

// asUpstreamError leaves provider errors untouched and wraps anything else
func asUpstreamError(err error) *UpstreamError {
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		return upstreamErr
	}
	return NewUpstreamError("fetching forecast", err)
}
