package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bbernstein/eventcast/internal/models"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	UseTLS   bool
}

// RedisStore keeps forecast results as JSON strings with a native key expiry
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(cfg RedisConfig) *RedisStore {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	return &RedisStore{client: redis.NewClient(opts)}
}

func (r *RedisStore) Get(ctx context.Context, key string) (*models.ForecastResult, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("getting %s from redis: %w", key, err)
	}

	return decodeForecast(val)
}

// GetWithTTL reads the value and its PTTL in one round trip
func (r *RedisStore) GetWithTTL(ctx context.Context, key string) (*models.ForecastResult, time.Duration, error) {
	var get *redis.StringCmd
	var pttl *redis.DurationCmd
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.Get(ctx, key)
		pttl = pipe.PTTL(ctx, key)
		return nil
	})
	if errors.Is(err, redis.Nil) {
		return nil, 0, nil
	} else if err != nil {
		return nil, 0, fmt.Errorf("getting %s from redis: %w", key, err)
	}

	val, err := get.Bytes()
	if err != nil {
		return nil, 0, fmt.Errorf("getting %s from redis: %w", key, err)
	}
	result, err := decodeForecast(val)
	if err != nil {
		return nil, 0, err
	}

	// -1 (no expiry) and -2 (gone) come back as negative durations
	remaining := pttl.Val()
	if remaining < 0 {
		remaining = 0
	}
	return result, remaining, nil
}

func decodeForecast(val []byte) (*models.ForecastResult, error) {
	var result models.ForecastResult
	if err := json.Unmarshal(val, &result); err != nil {
		return nil, fmt.Errorf("decoding cached forecast: %w", err)
	}
	return &result, nil
}

func (r *RedisStore) Set(ctx context.Context, key string, value models.ForecastResult, ttl time.Duration) error {
	val, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding forecast: %w", err)
	}

	if err := r.client.Set(ctx, key, val, ttl).Err(); err != nil {
		return fmt.Errorf("setting %s in redis: %w", key, err)
	}
	return nil
}

// Ping checks connectivity, used by the local server health check
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
