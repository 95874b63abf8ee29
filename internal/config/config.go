package config

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultWeatherBaseURL = "https://api.met.no"
	// met.no rejects requests without an identifying User-Agent
	defaultUserAgent = "eventcast/1.0 github.com/bbernstein/eventcast"
	defaultPort      = "8080"
)

type Config struct {
	Environment    string
	LogLevel       zerolog.Level
	HTTPTimeout    time.Duration
	WeatherBaseURL string
	UserAgent      string
	Port           string
	OTelEndpoint   string
}

type Option func(*Config)

// WithEnvironment allows setting the environment
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithLogLevel allows setting the log level
func WithLogLevel(level string) Option {
	return func(c *Config) {
		parsedLevel, err := zerolog.ParseLevel(level)
		if err != nil {
			parsedLevel = zerolog.InfoLevel
		}
		c.LogLevel = parsedLevel
	}
}

// WithHTTPTimeout allows setting the upstream HTTP timeout
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.HTTPTimeout = timeout
	}
}

func WithWeatherBaseURL(baseURL string) Option {
	return func(c *Config) {
		c.WeatherBaseURL = baseURL
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Config) {
		c.UserAgent = userAgent
	}
}

func WithPort(port string) Option {
	return func(c *Config) {
		c.Port = port
	}
}

// WithOTelEndpoint enables trace export to the given OTLP/HTTP endpoint
func WithOTelEndpoint(endpoint string) Option {
	return func(c *Config) {
		c.OTelEndpoint = endpoint
	}
}

// New creates a new configuration with default values
func New(opts ...Option) *Config {
	cfg := &Config{
		Environment:    "production",
		LogLevel:       zerolog.InfoLevel,
		HTTPTimeout:    10 * time.Second,
		WeatherBaseURL: defaultWeatherBaseURL,
		UserAgent:      defaultUserAgent,
		Port:           defaultPort,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// IsLocal reports whether the process runs on a developer machine
func (c *Config) IsLocal() bool {
	return c.Environment == "local" || c.Environment == "development"
}

// InitializeLogging sets up logging based on the configuration
func (c *Config) InitializeLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(c.LogLevel)

	// Setup console logger for development environments
	if c.IsLocal() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	// zerolog.Ctx falls back to the global logger for contexts without one
	zerolog.DefaultContextLogger = &log.Logger
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	return New(
		WithEnvironment(getEnvOrDefault("ENV", "production")),
		WithLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
		WithHTTPTimeout(getDurationEnvOrDefault("HTTP_TIMEOUT", 10*time.Second)),
		WithWeatherBaseURL(getEnvOrDefault("WEATHER_BASE_URL", defaultWeatherBaseURL)),
		WithUserAgent(getEnvOrDefault("WEATHER_USER_AGENT", defaultUserAgent)),
		WithPort(getEnvOrDefault("PORT", defaultPort)),
		WithOTelEndpoint(os.Getenv("OTEL_EXPORTER_ENDPOINT")),
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
			return duration
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid duration in environment variable, using default")
	}
	return defaultValue
}
