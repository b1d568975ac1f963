package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/mybus/backend-go/internal/api"
	"github.com/mybus/backend-go/internal/location"
	"github.com/mybus/backend-go/internal/transit"
	"github.com/rs/zerolog/log"
)

// StationsHandler serves GET ?lat=&lon= by running one nearby-stations
// pipeline per request. The caller's query string plays the device: no
// position means the location was not shared.
type StationsHandler struct {
	fetcher  transit.StationFetcher
	decoder  transit.ResponseDecoder
	recorder transit.FailureRecorder
}

func NewStationsHandler(fetcher transit.StationFetcher, decoder transit.ResponseDecoder, recorder transit.FailureRecorder) *StationsHandler {
	return &StationsHandler{
		fetcher:  fetcher,
		decoder:  decoder,
		recorder: recorder,
	}
}

func (h *StationsHandler) HandleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	coords, err := api.ParseCoordinates(request.QueryStringParameters)
	if err != nil {
		var invalidCoordErr api.InvalidCoordinatesError
		if errors.As(err, &invalidCoordErr) {
			return api.Error(err.Error(), http.StatusBadRequest)
		}
		return api.Error("Invalid parameters", http.StatusBadRequest)
	}

	var opts []transit.Option
	if h.recorder != nil {
		opts = append(opts, transit.WithFailureRecorder(h.recorder))
	}

	pipeline := transit.NewPipeline(location.NewStaticProvider(coords), h.fetcher, h.decoder, opts...)
	result := pipeline.Run(ctx)

	log.Info().Str("state", string(result.State)).Int("station_count", len(result.Stations)).Msg("Handled nearby stations request")

	body, status := api.FromResult(result)
	return api.Respond(body, status)
}
