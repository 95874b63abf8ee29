package api

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/bbernstein/eventcast/internal/models"
)

const (
	CodeInvalidEventID      = "INVALID_EVENT_ID"
	CodeNoForecastData      = "NO_FORECAST_DATA"
	CodeInternalServerError = "INTERNAL_SERVER_ERROR"

	DescriptionInvalidEventID      = "Invalid event id"
	DescriptionNoForecastData      = "No forecast data available for the given location and time range"
	DescriptionInternalServerError = "Error occurred while processing the request"
)

type ErrorDetail struct {
	ErrorCode        string `json:"errorCode"`
	ErrorDescription string `json:"errorDescription"`
}

// ForecastResponse is the envelope returned for every forecast request.
// Exactly one of Error and ForecastData is set.
type ForecastResponse struct {
	Success      bool                   `json:"success"`
	Error        *ErrorDetail           `json:"error,omitempty"`
	ForecastData *models.ForecastResult `json:"forecastData,omitempty"`
}

func NewForecastResponse(result models.ForecastResult) *ForecastResponse {
	return &ForecastResponse{
		Success:      true,
		ForecastData: &result,
	}
}

func NewErrorResponse(code, description string) *ForecastResponse {
	return &ForecastResponse{
		Success: false,
		Error: &ErrorDetail{
			ErrorCode:        code,
			ErrorDescription: description,
		},
	}
}

// Response helpers
func Success(body interface{}, headers map[string]string) (events.APIGatewayProxyResponse, error) {
	return Respond(http.StatusOK, body, headers)
}

func Error(code, description string, statusCode int, headers map[string]string) (events.APIGatewayProxyResponse, error) {
	return Respond(statusCode, NewErrorResponse(code, description), headers)
}

// Respond encodes body as JSON. Extra headers are added to the defaults.
func Respond(statusCode int, body interface{}, headers map[string]string) (events.APIGatewayProxyResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		statusCode = http.StatusInternalServerError
		jsonBody, _ = json.Marshal(NewErrorResponse(CodeInternalServerError, DescriptionInternalServerError))
	}

	allHeaders := map[string]string{
		"Content-Type":                "application/json",
		"Access-Control-Allow-Origin": "*",
	}
	for k, v := range headers {
		allHeaders[k] = v
	}

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    allHeaders,
		Body:       string(jsonBody),
	}, nil
}

// Parameter parsing helpers

// ParseCoordinate reads a decimal coordinate. A missing or non-numeric value
// yields NaN so that range validation can report it after the date checks.
func ParseCoordinate(params map[string]string, key string) float64 {
	raw, ok := params[key]
	if !ok {
		return math.NaN()
	}
	return ParseCoordinateString(raw)
}

func ParseCoordinateString(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
