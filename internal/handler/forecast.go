package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"

	"github.com/bbernstein/eventcast/internal/api"
	"github.com/bbernstein/eventcast/internal/forecast"
	"github.com/bbernstein/eventcast/internal/models"
)

const RequestIDHeader = "X-Request-Id"

var validate = validator.New()

// ForecastService is the pipeline behind the boundary
type ForecastService interface {
	GetForecast(ctx context.Context, eventID string, latitude, longitude float64, startRaw, endRaw string) (models.ForecastResult, error)
}

// ForecastRequest is a transport-neutral forecast request. Coordinates that
// were missing or not numeric are NaN.
type ForecastRequest struct {
	EventID        string `validate:"required,uuid"`
	Latitude       float64
	Longitude      float64
	StartTimeStamp string
	EndTimeStamp   string
}

type ForecastHandler struct {
	service ForecastService
}

func NewForecastHandler(service ForecastService) *ForecastHandler {
	return &ForecastHandler{
		service: service,
	}
}

// Handle runs one request through the service and maps the outcome to an
// HTTP status and response envelope.
func (h *ForecastHandler) Handle(ctx context.Context, req ForecastRequest) (int, *api.ForecastResponse) {
	logger := zerolog.Ctx(ctx)

	req.EventID = strings.ToLower(strings.TrimSpace(req.EventID))
	if err := validate.Struct(req); err != nil {
		logger.Info().Str("event_id", req.EventID).Msg("Rejected request with invalid event id")
		return http.StatusBadRequest, api.NewErrorResponse(api.CodeInvalidEventID, api.DescriptionInvalidEventID)
	}

	logger.Info().
		Str("event_id", req.EventID).
		Float64("latitude", req.Latitude).
		Float64("longitude", req.Longitude).
		Msg("Forecast request received")

	result, err := h.service.GetForecast(ctx, req.EventID, req.Latitude, req.Longitude, req.StartTimeStamp, req.EndTimeStamp)
	if err == nil {
		return http.StatusOK, api.NewForecastResponse(result)
	}

	var validationErr *forecast.ValidationError
	var upstreamErr *forecast.UpstreamError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, api.NewErrorResponse(string(validationErr.Code), validationErr.Description)
	case errors.Is(err, forecast.ErrNoForecastData):
		logger.Info().Str("event_id", req.EventID).Msg("No forecast data for event window")
		return http.StatusBadRequest, api.NewErrorResponse(api.CodeNoForecastData, api.DescriptionNoForecastData)
	case errors.As(err, &upstreamErr):
		logger.Error().
			Err(err).
			Int("upstream_status", upstreamErr.StatusCode).
			Str("event_id", req.EventID).
			Msg("Error occurred while processing the request")
	default:
		logger.Error().Err(err).Str("event_id", req.EventID).Msg("Error occurred while processing the request")
	}
	return http.StatusInternalServerError, api.NewErrorResponse(api.CodeInternalServerError, api.DescriptionInternalServerError)
}

// withRequestLogger attaches a request-scoped logger carrying a fresh request id
func withRequestLogger(ctx context.Context) (context.Context, string) {
	requestID := uuid.NewString()

	lc := log.With().Str("request_id", requestID)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		lc = lc.Str("trace_id", sc.TraceID().String())
	}
	logger := lc.Logger()

	return logger.WithContext(ctx), requestID
}
