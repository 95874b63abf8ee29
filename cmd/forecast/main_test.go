package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbernstein/eventcast/internal/api"
	"github.com/bbernstein/eventcast/internal/app"
	"github.com/bbernstein/eventcast/internal/config"
)

var (
	mu sync.Mutex // Protect lambdaStart in tests
)

func TestMain(m *testing.M) {
	// Set up test environment
	if err := os.Setenv("LOG_LEVEL", "debug"); err != nil {
		return
	}
	if err := os.Setenv("ENV", "test"); err != nil {
		return
	}

	os.Exit(m.Run())
}

func TestLambdaInit(t *testing.T) {
	require.NotNil(t, forecastHandler, "init should wire the handler with default configuration")

	mu.Lock()
	originalStartFn := lambdaStart
	var startCalled bool
	var optionCount int
	lambdaStart = func(handler interface{}, options ...lambda.Option) {
		mu.Lock()
		startCalled = true
		optionCount = len(options)
		mu.Unlock()

		handlerType := reflect.TypeOf(handler)
		if handlerType.Kind() != reflect.Func {
			t.Error("Handler is not a function")
			return
		}

		contextInterface := reflect.TypeOf((*context.Context)(nil)).Elem()
		proxyRequest := reflect.TypeOf(events.APIGatewayProxyRequest{})
		proxyResponse := reflect.TypeOf(events.APIGatewayProxyResponse{})
		errorInterface := reflect.TypeOf((*error)(nil)).Elem()

		if handlerType.NumIn() != 2 || handlerType.NumOut() != 2 ||
			!handlerType.In(0).Implements(contextInterface) ||
			handlerType.In(1) != proxyRequest ||
			handlerType.Out(0) != proxyResponse ||
			!handlerType.Out(1).Implements(errorInterface) {
			t.Error("Handler does not match expected signature")
		}
	}
	mu.Unlock()

	defer func() {
		mu.Lock()
		lambdaStart = originalStartFn
		mu.Unlock()
	}()

	main()

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, startCalled, "Lambda start was not called")
	assert.Equal(t, 1, optionCount)
}

func TestHandleRequestAgainstStubProvider(t *testing.T) {
	start := time.Now().UTC().Add(3 * time.Hour).Truncate(time.Hour)

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weatherapi/locationforecast/2.0/compact", r.URL.Path)
		assert.Equal(t, "eventcast-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"properties":{"timeseries":[
			{"time":"` + start.Format(time.RFC3339) + `","data":{"instant":{"details":{"air_temperature":12.0,"wind_speed":3.0}}}},
			{"time":"` + start.Add(time.Hour).Format(time.RFC3339) + `","data":{"instant":{"details":{"air_temperature":13.0,"wind_speed":4.5}}}}
		]}}`))
	}))
	defer provider.Close()

	cfg := config.New(
		config.WithWeatherBaseURL(provider.URL),
		config.WithUserAgent("eventcast-test"),
		config.WithHTTPTimeout(2*time.Second),
	)
	pipeline, err := app.New(context.Background(), cfg, config.DefaultCacheConfig())
	require.NoError(t, err)

	original := forecastHandler
	forecastHandler = pipeline.Handler
	defer func() {
		forecastHandler = original
	}()

	response, err := handleRequest(context.Background(), events.APIGatewayProxyRequest{
		PathParameters: map[string]string{"eventId": "0f8fad5b-d9cb-469f-a165-70867728950e"},
		QueryStringParameters: map[string]string{
			"latitude":       "59.91",
			"longitude":      "10.75",
			"startTimeStamp": start.Format(time.RFC3339),
			"endTimeStamp":   start.Add(time.Hour).Format(time.RFC3339),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, response.StatusCode)

	var body api.ForecastResponse
	require.NoError(t, json.Unmarshal([]byte(response.Body), &body))
	require.True(t, body.Success)
	require.NotNil(t, body.ForecastData)
	assert.Equal(t, 12.5, body.ForecastData.AirTemperature)
	assert.Equal(t, 3.8, body.ForecastData.WindSpeed)
}
