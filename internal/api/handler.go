package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"github.com/mybus/backend-go/internal/models"
	"github.com/mybus/backend-go/internal/transit"
)

type APIResponse struct {
	ResponseType string `json:"responseType"`
}

type StationsResponse struct {
	APIResponse
	Location *models.Coordinates    `json:"location,omitempty"`
	Stations []models.StationRecord `json:"stations"`
}

type NoStationsResponse struct {
	APIResponse
	Location *models.Coordinates `json:"location,omitempty"`
	Message  string              `json:"message"`
}

type ErrorResponse struct {
	APIResponse
	ErrorKind string `json:"errorKind,omitempty"`
	Error     string `json:"error"`
}

func NewStationsResponse(location *models.Coordinates, stations []models.StationRecord) *StationsResponse {
	if stations == nil {
		stations = []models.StationRecord{}
	}
	return &StationsResponse{
		APIResponse: APIResponse{ResponseType: "stations"},
		Location:    location,
		Stations:    stations,
	}
}

func NewNoStationsResponse(location *models.Coordinates, message string) *NoStationsResponse {
	return &NoStationsResponse{
		APIResponse: APIResponse{ResponseType: "noStations"},
		Location:    location,
		Message:     message,
	}
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{
		APIResponse: APIResponse{ResponseType: "error"},
		Error:       message,
	}
}

// FromResult maps a pipeline result onto a response body and HTTP status.
func FromResult(result transit.Result) (interface{}, int) {
	if result.State == transit.StateReady {
		return NewStationsResponse(result.Coordinates, result.Stations), http.StatusOK
	}

	var pipelineErr *transit.Error
	if !errors.As(result.Err, &pipelineErr) {
		return NewErrorResponse("Internal Server Error"), http.StatusInternalServerError
	}

	if pipelineErr.Kind == transit.KindNoStationsAvailable {
		return NewNoStationsResponse(result.Coordinates, pipelineErr.Message), http.StatusOK
	}

	resp := NewErrorResponse(pipelineErr.Message)
	resp.ErrorKind = string(pipelineErr.Kind)
	return resp, StatusForKind(pipelineErr.Kind)
}

func StatusForKind(kind transit.ErrorKind) int {
	switch kind {
	case transit.KindPermissionDenied:
		return http.StatusForbidden
	case transit.KindNetworkError, transit.KindDecodeError:
		return http.StatusBadGateway
	case transit.KindNoStationsAvailable:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes body as JSON with the CORS headers API Gateway expects.
func Respond(body interface{}, statusCode int) (events.APIGatewayProxyResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return Error("Internal Server Error", http.StatusInternalServerError)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": "*",
		},
		Body: string(jsonBody),
	}, nil
}

func Error(message string, statusCode int) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(NewErrorResponse(message))

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers: map[string]string{
			"Content-Type":                "application/json",
			"Access-Control-Allow-Origin": "*",
		},
		Body: string(body),
	}, nil
}

// ParseCoordinates reads the lat/lon query parameters. It returns nil when
// the caller did not send a position.
func ParseCoordinates(params map[string]string) (*models.Coordinates, error) {
	latStr, hasLat := params["lat"]
	lonStr, hasLon := params["lon"]

	if !hasLat || !hasLon {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil, InvalidCoordinatesError{}
	}

	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return nil, InvalidCoordinatesError{}
	}

	coords := models.Coordinates{Latitude: lat, Longitude: lon}
	if err := coords.Validate(); err != nil {
		return nil, InvalidCoordinatesError{}
	}

	return &coords, nil
}

type InvalidCoordinatesError struct{}

func (e InvalidCoordinatesError) Error() string {
	return "Invalid coordinates"
}
