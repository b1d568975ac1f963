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
	"github.com/mybus/backend-go/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mu sync.Mutex // Protect lambdaStart in tests

func TestMain(m *testing.M) {
	err := os.Setenv("LOG_LEVEL", "debug")
	if err != nil {
		return
	}
	err = os.Setenv("ENV", "test")
	if err != nil {
		return
	}

	os.Exit(m.Run())
}

func TestLambdaStartSignature(t *testing.T) {
	mu.Lock()
	originalStartFn := lambdaStart
	var startCalled bool
	lambdaStart = func(handler interface{}) {
		mu.Lock()
		startCalled = true
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
}

func TestHandleRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("Lattitude") == "0" {
			_, _ = w.Write([]byte(`"NO NEARBY STATIONS AVAILABLE"`))
			return
		}
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="utf-8"?>` +
			`<string xmlns="http://tempuri.org/">[{"RowNo":1,"StationId":"S1","StationName":"Central","Center_Lat":"20.29","Center_Lon":"85.82"}]</string>`))
	}))
	defer srv.Close()

	original := stationsHandler
	defer func() { stationsHandler = original }()

	cfg := config.New(config.WithTransitBaseURL(srv.URL), config.WithHTTPTimeout(5*time.Second))
	stationsHandler = newStationsHandler(context.Background(), cfg)

	tests := []struct {
		name           string
		params         map[string]string
		expectedStatus int
		expectedType   string
	}{
		{
			name:           "stations",
			params:         map[string]string{"lat": "20.2961", "lon": "85.8245"},
			expectedStatus: http.StatusOK,
			expectedType:   "stations",
		},
		{
			name:           "nothing nearby",
			params:         map[string]string{"lat": "0", "lon": "0"},
			expectedStatus: http.StatusOK,
			expectedType:   "noStations",
		},
		{
			name:           "no location",
			params:         nil,
			expectedStatus: http.StatusForbidden,
			expectedType:   "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response, err := handleRequest(context.Background(), events.APIGatewayProxyRequest{
				QueryStringParameters: tt.params,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, response.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(response.Body), &body))
			assert.Equal(t, tt.expectedType, body["responseType"])
		})
	}
}
