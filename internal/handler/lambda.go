package handler

import (
	"context"

	"github.com/aws/aws-lambda-go/events"

	"github.com/bbernstein/eventcast/internal/api"
)

// HandleRequest serves GET /api/v1/forecast/{eventId} behind API Gateway
func (h *ForecastHandler) HandleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	ctx, requestID := withRequestLogger(ctx)
	params := request.QueryStringParameters

	status, body := h.Handle(ctx, ForecastRequest{
		EventID:        request.PathParameters["eventId"],
		Latitude:       api.ParseCoordinate(params, "latitude"),
		Longitude:      api.ParseCoordinate(params, "longitude"),
		StartTimeStamp: params["startTimeStamp"],
		EndTimeStamp:   params["endTimeStamp"],
	})

	return api.Respond(status, body, map[string]string{RequestIDHeader: requestID})
}
