package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbernstein/eventcast/internal/models"
)

// Verify mockS3Client implements S3Client interface
var _ S3Client = (*mockS3Client)(nil)

type mockS3Client struct {
	getObjectFunc func(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	putObjectFunc func(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

func (m *mockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getObjectFunc != nil {
		return m.getObjectFunc(ctx, params, optFns...)
	}
	return nil, &types.NoSuchKey{}
}

func (m *mockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putObjectFunc != nil {
		return m.putObjectFunc(ctx, params, optFns...)
	}
	return &s3.PutObjectOutput{}, nil
}

func createTestS3Store(client S3Client, clk clock) *S3Store {
	store := NewS3Store(client, "test-bucket", "forecasts/")
	store.clock = clk
	return store
}

func objectBody(t *testing.T, record models.ForecastRecord) io.ReadCloser {
	t.Helper()
	data, err := json.Marshal(record)
	require.NoError(t, err)
	return io.NopCloser(bytes.NewReader(data))
}

func TestS3StoreGet(t *testing.T) {
	now := testStart

	tests := []struct {
		name      string
		setupMock func(*testing.T, *mockS3Client)
		want      *models.ForecastResult
		wantErr   bool
	}{
		{
			name: "successful retrieval of valid cache",
			setupMock: func(t *testing.T, client *mockS3Client) {
				client.getObjectFunc = func(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
					assert.Equal(t, "test-bucket", aws.ToString(params.Bucket))
					assert.Equal(t, "forecasts/"+testKey+".json", aws.ToString(params.Key))
					return &s3.GetObjectOutput{Body: objectBody(t, models.ForecastRecord{
						Key:         testKey,
						Result:      testResult,
						LastUpdated: now.Unix(),
						TTL:         now.Add(time.Hour).Unix(),
					})}, nil
				}
			},
			want: &testResult,
		},
		{
			name: "expired cache",
			setupMock: func(t *testing.T, client *mockS3Client) {
				client.getObjectFunc = func(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
					return &s3.GetObjectOutput{Body: objectBody(t, models.ForecastRecord{
						Key:         testKey,
						Result:      testResult,
						LastUpdated: now.Add(-3 * time.Hour).Unix(),
						TTL:         now.Add(-time.Hour).Unix(),
					})}, nil
				}
			},
			want: nil,
		},
		{
			name: "missing object",
			setupMock: func(t *testing.T, client *mockS3Client) {
				client.getObjectFunc = func(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
					return nil, &types.NoSuchKey{}
				}
			},
			want: nil,
		},
		{
			name: "access denied",
			setupMock: func(t *testing.T, client *mockS3Client) {
				client.getObjectFunc = func(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
					return nil, &types.NoSuchBucket{}
				}
			},
			wantErr: true,
		},
		{
			name: "invalid json",
			setupMock: func(t *testing.T, client *mockS3Client) {
				client.getObjectFunc = func(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
					return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("invalid json"))}, nil
				}
			},
			wantErr: true,
		},
		{
			name: "record for another key",
			setupMock: func(t *testing.T, client *mockS3Client) {
				client.getObjectFunc = func(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
					return &s3.GetObjectOutput{Body: objectBody(t, models.ForecastRecord{
						Key:         "EventID:someone-else",
						Result:      testResult,
						LastUpdated: now.Unix(),
						TTL:         now.Add(time.Hour).Unix(),
					})}, nil
				}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockS3Client{}
			tt.setupMock(t, client)
			store := createTestS3Store(client, newFakeClock(now))

			got, err := store.Get(context.Background(), testKey)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestS3StoreSet(t *testing.T) {
	now := testStart
	var saved models.ForecastRecord

	client := &mockS3Client{
		putObjectFunc: func(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			assert.Equal(t, "test-bucket", aws.ToString(params.Bucket))
			assert.Equal(t, "forecasts/"+testKey+".json", aws.ToString(params.Key))
			assert.Equal(t, "application/json", aws.ToString(params.ContentType))

			body, err := io.ReadAll(params.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(body, &saved))
			return &s3.PutObjectOutput{}, nil
		},
	}
	store := createTestS3Store(client, newFakeClock(now))

	require.NoError(t, store.Set(context.Background(), testKey, testResult, 2*time.Hour))

	assert.Equal(t, testKey, saved.Key)
	assert.Equal(t, testResult, saved.Result)
	assert.Equal(t, now.Unix(), saved.LastUpdated)
	assert.Equal(t, now.Add(2*time.Hour).Unix(), saved.TTL)
}

func TestS3StoreSetError(t *testing.T) {
	client := &mockS3Client{
		putObjectFunc: func(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			return nil, &types.NoSuchBucket{}
		},
	}
	store := createTestS3Store(client, newFakeClock(testStart))

	err := store.Set(context.Background(), testKey, testResult, time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "saving to S3")
}

func TestS3StoreRoundTrip(t *testing.T) {
	clock := newFakeClock(testStart)
	objects := map[string][]byte{}

	client := &mockS3Client{
		putObjectFunc: func(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			data, err := io.ReadAll(params.Body)
			if err != nil {
				return nil, err
			}
			objects[aws.ToString(params.Key)] = data
			return &s3.PutObjectOutput{}, nil
		},
		getObjectFunc: func(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
			data, ok := objects[aws.ToString(params.Key)]
			if !ok {
				return nil, &types.NoSuchKey{}
			}
			return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
		},
	}
	store := createTestS3Store(client, clock)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, testKey, testResult, 2*time.Hour))

	got, err := store.Get(ctx, testKey)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, testResult, *got)

	clock.Advance(2*time.Hour - time.Minute)
	got, remaining, err := store.GetWithTTL(ctx, testKey)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, time.Minute, remaining)

	clock.Advance(2 * time.Minute)
	expired, err := store.Get(ctx, testKey)
	require.NoError(t, err)
	assert.Nil(t, expired)
}

func TestS3StoreBucketValidation(t *testing.T) {
	store := NewS3Store(&mockS3Client{}, "", "forecasts/")

	err := store.Set(context.Background(), testKey, testResult, time.Hour)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "empty bucket name")

	got, err := store.Get(context.Background(), testKey)
	assert.Error(t, err)
	assert.Nil(t, got)
	assert.Contains(t, err.Error(), "empty bucket name")
}
