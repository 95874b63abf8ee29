package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"

	"github.com/bbernstein/eventcast/internal/models"
)

// DynamoDBClient is the subset of the DynamoDB API used by the forecast store
type DynamoDBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoStore caches forecast results in a DynamoDB table keyed by "cacheKey".
// The table's TTL attribute is "ttl"; items past it are treated as misses
// because DynamoDB deletes expired items lazily.
type DynamoStore struct {
	client    DynamoDBClient
	tableName string
	clock     clock
}

func NewDynamoStore(client DynamoDBClient, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		clock:     realClock{},
	}
}

func (c *DynamoStore) Get(ctx context.Context, key string) (*models.ForecastResult, error) {
	result, _, err := c.GetWithTTL(ctx, key)
	return result, err
}

// GetWithTTL returns the cached result and the time left until its ttl attribute
func (c *DynamoStore) GetWithTTL(ctx context.Context, key string) (*models.ForecastResult, time.Duration, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"cacheKey": &types.AttributeValueMemberS{Value: key},
		},
	}

	result, err := c.client.GetItem(ctx, input)
	if err != nil {
		return nil, 0, fmt.Errorf("getting forecast from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, 0, nil
	}

	var record models.ForecastRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return nil, 0, fmt.Errorf("unmarshaling forecast record: %w", err)
	}

	now := c.clock.Now()
	if record.IsExpired(now.Unix()) {
		log.Debug().
			Str("cache_key", key).
			Int64("ttl", record.TTL).
			Msg("Cache expired")
		return nil, 0, nil
	}

	return &record.Result, time.Unix(record.TTL, 0).Sub(now), nil
}

func (c *DynamoStore) Set(ctx context.Context, key string, value models.ForecastResult, ttl time.Duration) error {
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

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshaling forecast record: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      item,
	}

	if _, err := c.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("putting forecast in DynamoDB: %w", err)
	}

	log.Debug().
		Str("cache_key", key).
		Int64("ttl", record.TTL).
		Msg("Saved forecast to cache")

	return nil
}
