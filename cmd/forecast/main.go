package main

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/bbernstein/eventcast/internal/app"
	"github.com/bbernstein/eventcast/internal/config"
	"github.com/bbernstein/eventcast/internal/handler"
	"github.com/bbernstein/eventcast/internal/telemetry"
)

var (
	forecastHandler   *handler.ForecastHandler
	shutdownTelemetry = func(context.Context) error { return nil }
	setupOnce         sync.Once
	lambdaStart       = lambda.StartWithOptions
)

func init() {
	setupOnce.Do(func() {
		cfg := config.LoadFromEnv()
		cfg.InitializeLogging()

		log.Info().Str("env", cfg.Environment).Msg("Environment")

		ctx := context.Background()
		shutdown, err := telemetry.Setup(ctx, "eventcast-forecast", cfg.OTelEndpoint)
		if err != nil {
			log.Warn().Err(err).Msg("Tracing disabled")
		}
		shutdownTelemetry = shutdown

		pipeline, err := app.New(ctx, cfg, config.GetCacheConfig())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize forecast handler")
		}
		forecastHandler = pipeline.Handler
	})
}

func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	log.Debug().Str("path", request.Path).Msg("Handling forecast request")
	return forecastHandler.HandleRequest(ctx, request)
}

func main() {
	lambdaStart(handleRequest, lambda.WithEnableSIGTERM(func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			log.Error().Err(err).Msg("Error flushing traces")
		}
	}))
}
