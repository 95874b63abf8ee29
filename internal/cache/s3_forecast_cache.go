package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"

	"github.com/bbernstein/eventcast/internal/models"
)

// S3Client defines the interface for S3 operations we need
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store keeps one JSON ForecastRecord object per cache key under prefix
type S3Store struct {
	client     S3Client
	bucketName string
	prefix     string
	clock      clock
}

func NewS3Store(client S3Client, bucketName, prefix string) *S3Store {
	return &S3Store{
		client:     client,
		bucketName: bucketName,
		prefix:     prefix,
		clock:      realClock{},
	}
}

func (c *S3Store) objectKey(key string) string {
	return c.prefix + key + ".json"
}

func (c *S3Store) Get(ctx context.Context, key string) (*models.ForecastResult, error) {
	result, _, err := c.GetWithTTL(ctx, key)
	return result, err
}

// GetWithTTL returns the cached result and the time left until the record's ttl
func (c *S3Store) GetWithTTL(ctx context.Context, key string) (*models.ForecastResult, time.Duration, error) {
	if c.bucketName == "" {
		return nil, 0, fmt.Errorf("empty bucket name")
	}

	result, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(c.objectKey(key)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("getting forecast from S3: %w", err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			log.Error().Err(err).Msg("Error closing S3 object body")
		}
	}(result.Body)

	var record models.ForecastRecord
	if err := json.NewDecoder(result.Body).Decode(&record); err != nil {
		return nil, 0, fmt.Errorf("decoding cache record: %w", err)
	}

	if record.Key != key {
		return nil, 0, fmt.Errorf("cache record key mismatch: want %s, got %s", key, record.Key)
	}

	now := c.clock.Now()
	if record.IsExpired(now.Unix()) {
		log.Debug().Str("cache_key", key).Msg("Forecast cache object expired")
		return nil, 0, nil
	}

	return &record.Result, time.Unix(record.TTL, 0).Sub(now), nil
}

func (c *S3Store) Set(ctx context.Context, key string, value models.ForecastResult, ttl time.Duration) error {
	if c.bucketName == "" {
		return fmt.Errorf("empty bucket name")
	}

	now := c.clock.Now().Unix()
	record := models.ForecastRecord{
		Key:         key,
		Result:      value,
		LastUpdated: now,
		TTL:         now + int64(ttl.Seconds()),
	}
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid forecast record: %w", err)
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(record); err != nil {
		return fmt.Errorf("encoding cache record: %w", err)
	}

	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucketName),
		Key:         aws.String(c.objectKey(key)),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("saving to S3: %w", err)
	}

	log.Debug().Str("cache_key", key).Msg("Saved forecast to S3 cache")
	return nil
}
