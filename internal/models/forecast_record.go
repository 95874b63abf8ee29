package models

import (
	"fmt"
	"strings"
)

// ForecastRecord is the persisted envelope for a cached forecast result
type ForecastRecord struct {
	Key         string         `dynamodbav:"cacheKey" json:"cacheKey"`
	Result      ForecastResult `dynamodbav:"result" json:"result"`
	LastUpdated int64          `dynamodbav:"lastUpdated" json:"lastUpdated"`
	TTL         int64          `dynamodbav:"ttl" json:"ttl"`
}

// Validate checks if a ForecastRecord's fields are valid
func (r *ForecastRecord) Validate() error {
	if r.Key == "" {
		return fmt.Errorf("cache key is required")
	}

	if !strings.HasPrefix(r.Key, CacheKeyPrefix) {
		return fmt.Errorf("invalid cache key: %s", r.Key)
	}

	if r.TTL <= r.LastUpdated {
		return fmt.Errorf("ttl %d must be after lastUpdated %d", r.TTL, r.LastUpdated)
	}

	return nil
}

// IsExpired reports whether the record's TTL has passed at the given unix time
func (r *ForecastRecord) IsExpired(nowUnix int64) bool {
	return nowUnix >= r.TTL
}
