package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

const (
	BackendLRU    = "lru"
	BackendRedis  = "redis"
	BackendDynamo = "dynamo"
	BackendS3     = "s3"
	// BackendTiered puts the in-process LRU in front of CacheConfig.RemoteBackend
	BackendTiered = "tiered"
)

// CacheConfig holds all cache-related configuration
type CacheConfig struct {
	Backend       string        `env:"CACHE_BACKEND"`
	RemoteBackend string        `env:"CACHE_REMOTE_BACKEND"`
	TTL           time.Duration `env:"CACHE_TTL"`
	LRUSize       int           `env:"CACHE_LRU_SIZE"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"`
	RedisTLS      bool   `env:"REDIS_TLS"`

	DynamoTable    string `env:"CACHE_DYNAMO_TABLE"`
	DynamoEndpoint string `env:"DYNAMODB_ENDPOINT"`

	S3Bucket string `env:"CACHE_S3_BUCKET"`
	S3Prefix string `env:"CACHE_S3_PREFIX"`
}

const (
	defaultTTL         = 2 * time.Hour
	defaultLRUSize     = 1000
	defaultRedisAddr   = "localhost:6379"
	defaultDynamoTable = "event-forecast-cache"
	defaultS3Prefix    = "forecasts/"
)

// DefaultCacheConfig returns the configuration used when no environment is set
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Backend:       BackendLRU,
		RemoteBackend: BackendRedis,
		TTL:           defaultTTL,
		LRUSize:       defaultLRUSize,
		RedisAddr:     defaultRedisAddr,
		DynamoTable:   defaultDynamoTable,
		S3Prefix:      defaultS3Prefix,
	}
}

// GetCacheConfig returns the cache configuration from environment variables or defaults.
// A value that cannot be parsed discards the environment and falls back to defaults.
func GetCacheConfig() *CacheConfig {
	// unset or empty variables keep their default
	cfg := DefaultCacheConfig()
	if err := env.Parse(cfg); err != nil {
		log.Warn().Err(err).Msg("Invalid cache configuration in environment, using defaults")
		cfg = DefaultCacheConfig()
	}
	cfg.normalize()

	log.Debug().
		Str("Backend", cfg.Backend).
		Str("RemoteBackend", cfg.RemoteBackend).
		Dur("TTL", cfg.TTL).
		Int("LRUSize", cfg.LRUSize).
		Str("RedisAddr", cfg.RedisAddr).
		Int("RedisDB", cfg.RedisDB).
		Bool("RedisTLS", cfg.RedisTLS).
		Str("DynamoTable", cfg.DynamoTable).
		Str("S3Bucket", cfg.S3Bucket).
		Msg("Cache configuration loaded")

	return cfg
}

func (c *CacheConfig) normalize() {
	defaults := DefaultCacheConfig()

	if !isKnownBackend(c.Backend) {
		log.Warn().Str("backend", c.Backend).Msg("Unknown cache backend, using default")
		c.Backend = defaults.Backend
	}
	if !isKnownBackend(c.RemoteBackend) || c.RemoteBackend == BackendLRU || c.RemoteBackend == BackendTiered {
		log.Warn().Str("backend", c.RemoteBackend).Msg("Unusable remote cache backend, using default")
		c.RemoteBackend = defaults.RemoteBackend
	}
	if c.TTL <= 0 {
		log.Warn().Dur("ttl", c.TTL).Msg("Non-positive cache TTL, using default")
		c.TTL = defaults.TTL
	}
	if c.LRUSize <= 0 {
		log.Warn().Int("size", c.LRUSize).Msg("Non-positive LRU size, using default")
		c.LRUSize = defaults.LRUSize
	}
}

func isKnownBackend(name string) bool {
	switch name {
	case BackendLRU, BackendRedis, BackendDynamo, BackendS3, BackendTiered:
		return true
	}
	return false
}
