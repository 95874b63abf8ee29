package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/bbernstein/eventcast/internal/api"
	"github.com/bbernstein/eventcast/internal/app"
	"github.com/bbernstein/eventcast/internal/config"
	"github.com/bbernstein/eventcast/internal/handler"
	"github.com/bbernstein/eventcast/internal/telemetry"
)

const serviceName = "eventcast"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Err(err).Msg("No .env file loaded")
	}

	cfg := config.LoadFromEnv()
	cfg.InitializeLogging()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, serviceName, cfg.OTelEndpoint)
	if err != nil {
		log.Warn().Err(err).Msg("Tracing disabled")
	}

	pipeline, err := app.New(ctx, cfg, config.GetCacheConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize forecast pipeline")
	}

	server := newServer(pipeline)

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := server.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("Server stopped")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during shutdown")
	}
	if err := pipeline.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing cache store")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error flushing traces")
	}
}

func newServer(pipeline *app.App) *fiber.App {
	server := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          errorHandler,
	})

	server.Use(recover.New())
	server.Use(logger.New())

	server.Get("/health", healthHandler(pipeline))
	handler.RegisterRoutes(server, pipeline.Handler)

	return server
}

// errorHandler keeps framework errors (unknown routes, panics) in the response envelope
func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	code := api.CodeInternalServerError
	description := api.DescriptionInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status = fiberErr.Code
		if status < fiber.StatusInternalServerError {
			code = clientErrorCode(status)
			description = fiberErr.Message
		}
	}

	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
	}
	return c.Status(status).JSON(api.NewErrorResponse(code, description))
}

func clientErrorCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	default:
		return "BAD_REQUEST"
	}
}

func healthHandler(pipeline *app.App) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := fiber.Map{
			"status":        "ok",
			"service":       serviceName,
			"forecastStats": pipeline.Service.CacheStats(),
		}

		if pinger, ok := pipeline.Store.(interface{ Ping(context.Context) error }); ok {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := pinger.Ping(ctx); err != nil {
				log.Warn().Err(err).Msg("Cache store unreachable")
				body["status"] = "degraded"
				body["cache"] = "unreachable"
				return c.Status(fiber.StatusServiceUnavailable).JSON(body)
			}
		}

		if stats, ok := pipeline.Store.(interface{ GetCacheStats() map[string]uint64 }); ok {
			body["cacheStats"] = stats.GetCacheStats()
		}

		return c.JSON(body)
	}
}
