package transit

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mybus/backend-go/internal/models"
	"github.com/mybus/backend-go/pkg/http/client"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBaseURL    = "https://bbsrmobileapp.capitalregiontransport.in"
	DefaultNearbyPath = "/TransistService.asmx/GetNearByDepotList"
)

// Field names of the GetNearByDepotList form. "Lattitude" is what the server
// expects.
const (
	formLatitude  = "Lattitude"
	formLongitude = "Longitude"
)

// StationFetcher posts a position to the transit service and returns the raw
// response text.
type StationFetcher interface {
	Fetch(ctx context.Context, coords models.Coordinates) (string, error)
}

type Fetcher struct {
	httpClient client.Interface
	path       string
}

func NewFetcher(httpClient client.Interface, path string) *Fetcher {
	if path == "" {
		path = DefaultNearbyPath
	}
	return &Fetcher{
		httpClient: httpClient,
		path:       path,
	}
}

// Fetch makes exactly one request. Transport failures and non-2xx statuses
// are returned as NetworkError.
func (f *Fetcher) Fetch(ctx context.Context, coords models.Coordinates) (string, error) {
	form := EncodeNearbyForm(coords)

	log.Debug().Str("path", f.path).Str("body", form.Encode()).Msg("Requesting nearby stations")

	resp, err := f.httpClient.PostForm(ctx, f.path, form)
	if err != nil {
		return "", NewNetworkError(0, fmt.Errorf("posting coordinates: %w", err))
	}

	log.Debug().Int("status", resp.StatusCode).Int("bytes", len(resp.Body)).Msg("Nearby stations response")

	if !resp.OK() {
		return "", NewNetworkError(resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	return string(resp.Body), nil
}

// EncodeNearbyForm builds the request form. Coordinates are written in their
// shortest decimal form with the sign preserved.
func EncodeNearbyForm(coords models.Coordinates) url.Values {
	return url.Values{
		formLatitude:  {strconv.FormatFloat(coords.Latitude, 'f', -1, 64)},
		formLongitude: {strconv.FormatFloat(coords.Longitude, 'f', -1, 64)},
	}
}
