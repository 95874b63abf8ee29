package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/bbernstein/eventcast/internal/api"
)

// RegisterRoutes wires the forecast endpoint into the Fiber app
func RegisterRoutes(app *fiber.App, h *ForecastHandler) {
	v1 := app.Group("/api/v1")
	v1.Get("/forecast/:eventId", h.HandleFiber)
}

// HandleFiber serves the forecast route. Params and query values point into
// Fiber's reused request buffer, so strings that may outlive the handler (span
// attributes, cache keys, log fields) are copied first.
func (h *ForecastHandler) HandleFiber(c *fiber.Ctx) error {
	ctx, requestID := withRequestLogger(c.UserContext())

	status, body := h.Handle(ctx, ForecastRequest{
		EventID:        utils.CopyString(c.Params("eventId")),
		Latitude:       api.ParseCoordinateString(c.Query("latitude")),
		Longitude:      api.ParseCoordinateString(c.Query("longitude")),
		StartTimeStamp: utils.CopyString(c.Query("startTimeStamp")),
		EndTimeStamp:   utils.CopyString(c.Query("endTimeStamp")),
	})

	c.Set(RequestIDHeader, requestID)
	return c.Status(status).JSON(body)
}
