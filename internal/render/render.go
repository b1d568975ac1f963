package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mybus/backend-go/internal/api"
	"github.com/mybus/backend-go/internal/models"
	"github.com/mybus/backend-go/internal/transit"
)

const header = "MyBus"

// Text writes the station screen. On failure the error message and its kind
// replace the list entirely.
func Text(w io.Writer, result transit.Result) error {
	var b strings.Builder

	if result.State != transit.StateReady {
		var pipelineErr *transit.Error
		switch {
		case errors.As(result.Err, &pipelineErr) && pipelineErr.Kind == transit.KindNoStationsAvailable:
			fmt.Fprintf(&b, "%s\n\n%s\n", header, pipelineErr.Message)
		case errors.As(result.Err, &pipelineErr):
			fmt.Fprintf(&b, "Error: %s (%s)\n", pipelineErr.Message, pipelineErr.Kind)
		case result.Err != nil:
			fmt.Fprintf(&b, "Error: %s\n", result.Err)
		default:
			fmt.Fprintf(&b, "Error: pipeline stopped in state %s\n", result.State)
		}
		_, err := io.WriteString(w, b.String())
		return err
	}

	fmt.Fprintf(&b, "%s\n\n", header)
	for _, s := range result.Stations {
		writeStation(&b, s, result.Coordinates)
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeStation(b *strings.Builder, s models.StationRecord, user *models.Coordinates) {
	fmt.Fprintf(b, "StationId: %s\n", s.StationID)
	fmt.Fprintf(b, "StationName: %s (%s)\n", s.StationName, s.StationNameM)
	fmt.Fprintf(b, "Distance: %s\n", formatNumber(float64(s.Distance)))
	fmt.Fprintf(b, "TotalMinute: %s\n", formatNumber(float64(s.TotalMinute)))
	fmt.Fprintf(b, "RouteName: %s\n", s.RouteNames)
	fmt.Fprintf(b, "RouteNo: %s\n", s.RouteNo)
	fmt.Fprintf(b, "Running_RouteNo: %s\n", s.RunningRouteNo)
	fmt.Fprintf(b, "Sch_RouteNo: %s\n", s.SchRouteNo)

	if user == nil {
		return
	}
	pos, ok, err := s.Position()
	if err != nil || !ok {
		return
	}
	fmt.Fprintf(b, "From you: %.2f km\n", user.DistanceTo(pos))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// JSON writes the same document the Lambda API returns.
func JSON(w io.Writer, result transit.Result) error {
	body, _ := api.FromResult(result)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(body)
}
