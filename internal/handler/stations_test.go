package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/mybus/backend-go/internal/models"
	"github.com/mybus/backend-go/internal/transit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const envelopeOneStation = `<?xml version="1.0" encoding="utf-8"?>
<string xmlns="http://tempuri.org/">[{"RowNo":1,"StationId":"S1","StationName":"Central","StationName_M":"","Distance":1.2,"TotalMinute":5,"RouteNames":"12A","RouteNo":"12A","Running_RouteNo":"12A","Sch_RouteNo":"12A","Center_Lat":"20.29","Center_Lon":"85.82"}]</string>`

// mockFetcher implements transit.StationFetcher interface for testing
type mockFetcher struct {
	fetchFn func(ctx context.Context, coords models.Coordinates) (string, error)
	calls   int
}

func (m *mockFetcher) Fetch(ctx context.Context, coords models.Coordinates) (string, error) {
	m.calls++
	if m.fetchFn != nil {
		return m.fetchFn(ctx, coords)
	}
	return "", nil
}

type mockRecorder struct {
	calls int
}

func (m *mockRecorder) RecordDecodeFailure(_ context.Context, _ models.Coordinates, _ string) error {
	m.calls++
	return nil
}

func returning(raw string, err error) *mockFetcher {
	return &mockFetcher{
		fetchFn: func(ctx context.Context, coords models.Coordinates) (string, error) {
			return raw, err
		},
	}
}

func TestStationsHandler_HandleRequest(t *testing.T) {
	tests := []struct {
		name           string
		params         map[string]string
		fetcher        *mockFetcher
		expectedStatus int
		expectedType   string
		expectedKind   string
		expectedError  string
		expectedCalls  int
		expectedRecord int
	}{
		{
			name:           "stations found",
			params:         map[string]string{"lat": "20.2961", "lon": "85.8245"},
			fetcher:        returning(envelopeOneStation, nil),
			expectedStatus: http.StatusOK,
			expectedType:   "stations",
			expectedCalls:  1,
		},
		{
			name:           "no stations nearby",
			params:         map[string]string{"lat": "20.2961", "lon": "85.8245"},
			fetcher:        returning(`"NO NEARBY STATIONS AVAILABLE"`, nil),
			expectedStatus: http.StatusOK,
			expectedType:   "noStations",
			expectedCalls:  1,
		},
		{
			name:           "location not shared",
			params:         map[string]string{},
			fetcher:        returning(envelopeOneStation, nil),
			expectedStatus: http.StatusForbidden,
			expectedType:   "error",
			expectedKind:   "PermissionDenied",
			expectedError:  "Permission to access location was denied",
			expectedCalls:  0,
		},
		{
			name:           "invalid latitude",
			params:         map[string]string{"lat": "91", "lon": "0"},
			fetcher:        returning(envelopeOneStation, nil),
			expectedStatus: http.StatusBadRequest,
			expectedType:   "error",
			expectedError:  "Invalid coordinates",
			expectedCalls:  0,
		},
		{
			name:           "upstream failure",
			params:         map[string]string{"lat": "20.2961", "lon": "85.8245"},
			fetcher:        returning("", transit.NewNetworkError(http.StatusInternalServerError, nil)),
			expectedStatus: http.StatusBadGateway,
			expectedType:   "error",
			expectedKind:   "NetworkError",
			expectedError:  "Network response was not ok",
			expectedCalls:  1,
		},
		{
			name:           "undecodable upstream response",
			params:         map[string]string{"lat": "20.2961", "lon": "85.8245"},
			fetcher:        returning("<html>502</html>", nil),
			expectedStatus: http.StatusBadGateway,
			expectedType:   "error",
			expectedKind:   "DecodeError",
			expectedCalls:  1,
			expectedRecord: 1,
		},
		{
			name:           "non finite distance",
			params:         map[string]string{"lat": "20.2961", "lon": "85.8245"},
			fetcher:        returning(`<string>[{"RowNo":1,"StationName":"Central","Distance":"NaN"}]</string>`, nil),
			expectedStatus: http.StatusBadGateway,
			expectedType:   "error",
			expectedKind:   "DecodeError",
			expectedCalls:  1,
			expectedRecord: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &mockRecorder{}
			h := NewStationsHandler(tt.fetcher, transit.NewDecoder(), recorder)

			response, err := h.HandleRequest(context.Background(), events.APIGatewayProxyRequest{
				QueryStringParameters: tt.params,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, response.StatusCode)
			assert.Equal(t, tt.expectedCalls, tt.fetcher.calls)
			assert.Equal(t, tt.expectedRecord, recorder.calls)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(response.Body), &body))
			assert.Equal(t, tt.expectedType, body["responseType"])
			if tt.expectedKind != "" {
				assert.Equal(t, tt.expectedKind, body["errorKind"])
			}
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, body["error"])
			}
		})
	}
}

func TestStationsHandler_StationsBody(t *testing.T) {
	h := NewStationsHandler(returning(envelopeOneStation, nil), transit.NewDecoder(), nil)

	response, err := h.HandleRequest(context.Background(), events.APIGatewayProxyRequest{
		QueryStringParameters: map[string]string{"lat": "20.2961", "lon": "85.8245"},
	})
	require.NoError(t, err)

	var body struct {
		ResponseType string                 `json:"responseType"`
		Location     models.Coordinates     `json:"location"`
		Stations     []models.StationRecord `json:"stations"`
	}
	require.NoError(t, json.Unmarshal([]byte(response.Body), &body))
	assert.Equal(t, "stations", body.ResponseType)
	assert.Equal(t, models.Coordinates{Latitude: 20.2961, Longitude: 85.8245}, body.Location)
	require.Len(t, body.Stations, 1)
	assert.Equal(t, "Central", body.Stations[0].StationName)
}
