package transit

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mybus/backend-go/internal/models"
)

// NoStationsSentinel is sent by the server in place of an envelope when there
// is nothing near the requested position.
const NoStationsSentinel = "NO NEARBY STATIONS AVAILABLE"

var (
	errNotArray        = errors.New("payload is not a JSON array")
	errNullStation     = errors.New("station entry is null")
	errTrailingContent = errors.New("content after the envelope")
)

// ResponseDecoder turns raw response text into station records.
type ResponseDecoder interface {
	Decode(raw string) ([]models.StationRecord, error)
}

// envelope is the ASMX wrapper: <string xmlns="...">[...]</string>
type envelope struct {
	XMLName xml.Name `xml:"string"`
	Payload string   `xml:",chardata"`
}

type Decoder struct{}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode is pure: the same input always gives the same output. An empty JSON
// array yields an empty, non-nil slice.
func (d *Decoder) Decode(raw string) ([]models.StationRecord, error) {
	// The sentinel is not valid XML, so it must be checked first.
	if strings.Contains(raw, NoStationsSentinel) {
		return nil, NewNoStationsError()
	}

	payload, err := unwrapEnvelope(raw)
	if err != nil {
		return nil, NewDecodeError(raw, err)
	}

	stations, err := decodeStations(payload)
	if err != nil {
		return nil, NewDecodeError(raw, err)
	}

	return stations, nil
}

// unwrapEnvelope accepts exactly one <string> root. Only whitespace and
// comments may follow it.
func unwrapEnvelope(raw string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(raw))

	var env envelope
	if err := dec.Decode(&env); err != nil {
		return "", fmt.Errorf("parsing XML envelope: %w", err)
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return env.Payload, nil
		}
		if err != nil {
			return "", fmt.Errorf("parsing XML envelope: %w", err)
		}

		switch t := tok.(type) {
		case xml.Comment:
		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				return "", errTrailingContent
			}
		default:
			return "", errTrailingContent
		}
	}
}

func decodeStations(payload string) ([]models.StationRecord, error) {
	trimmed := bytes.TrimSpace([]byte(payload))
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, errNotArray
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("parsing station JSON: %w", err)
	}

	stations := make([]models.StationRecord, 0, len(items))
	for i, item := range items {
		if bytes.Equal(bytes.TrimSpace(item), []byte("null")) {
			return nil, fmt.Errorf("station %d: %w", i, errNullStation)
		}

		var station models.StationRecord
		if err := json.Unmarshal(item, &station); err != nil {
			return nil, fmt.Errorf("parsing station %d: %w", i, err)
		}
		if err := station.Validate(); err != nil {
			return nil, fmt.Errorf("station %d: %w", i, err)
		}
		stations = append(stations, station)
	}

	return stations, nil
}
