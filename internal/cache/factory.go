package cache

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/bbernstein/eventcast/internal/config"
)

// localTierTTL caps how long a tiered store keeps a remote hit in process
const localTierTTL = 15 * time.Minute

// NewStore builds the backend selected by cfg.Backend
func NewStore(ctx context.Context, cfg *config.CacheConfig) (Store, error) {
	if cfg == nil {
		cfg = config.GetCacheConfig()
	}

	log.Info().Str("backend", cfg.Backend).Msg("Initializing forecast cache")

	switch cfg.Backend {
	case config.BackendTiered:
		local, err := NewLRUStore(cfg.LRUSize)
		if err != nil {
			return nil, err
		}
		remote, err := newRemoteStore(ctx, cfg.RemoteBackend, cfg)
		if err != nil {
			return nil, err
		}
		return NewTieredStore(local, remote, localTierTTL), nil
	case config.BackendLRU, "":
		return NewLRUStore(cfg.LRUSize)
	default:
		return newRemoteStore(ctx, cfg.Backend, cfg)
	}
}

func newRemoteStore(ctx context.Context, backend string, cfg *config.CacheConfig) (Store, error) {
	switch backend {
	case config.BackendRedis:
		return NewRedisStore(RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			UseTLS:   cfg.RedisTLS,
		}), nil
	case config.BackendDynamo:
		client, err := NewDynamoClient(ctx, cfg.DynamoEndpoint)
		if err != nil {
			return nil, fmt.Errorf("creating DynamoDB client: %w", err)
		}
		return NewDynamoStore(client, cfg.DynamoTable), nil
	case config.BackendS3:
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("s3 cache backend requires CACHE_S3_BUCKET")
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		return NewS3Store(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Prefix), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", backend)
	}
}
