package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// StationRecord is one nearby station as returned by GetNearByDepotList.
// JSON keys match the server payload exactly.
type StationRecord struct {
	RowNo          FlexInt    `json:"RowNo"`
	StationID      FlexString `json:"StationId"`
	StationName    string     `json:"StationName"`
	StationNameM   string     `json:"StationName_M"`
	Distance       FlexFloat  `json:"Distance"`
	TotalMinute    FlexFloat  `json:"TotalMinute"`
	RouteNames     string     `json:"RouteNames"`
	RouteNo        FlexString `json:"RouteNo"`
	RunningRouteNo FlexString `json:"Running_RouteNo"`
	SchRouteNo     FlexString `json:"Sch_RouteNo"`
	CenterLat      FlexString `json:"Center_Lat" validate:"omitempty,latitude"`
	CenterLon      FlexString `json:"Center_Lon" validate:"omitempty,longitude"`
}

// Validate checks the fields the server sends as text but that must hold
// numbers.
func (s StationRecord) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("station row %d: %w", s.RowNo, err)
	}
	return nil
}

// Position parses Center_Lat/Center_Lon. ok is false when the server sent
// neither.
func (s StationRecord) Position() (pos Coordinates, ok bool, err error) {
	latStr := strings.TrimSpace(string(s.CenterLat))
	lonStr := strings.TrimSpace(string(s.CenterLon))
	if latStr == "" && lonStr == "" {
		return Coordinates{}, false, nil
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return Coordinates{}, false, fmt.Errorf("parsing Center_Lat %q: %w", latStr, err)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return Coordinates{}, false, fmt.Errorf("parsing Center_Lon %q: %w", lonStr, err)
	}

	pos = Coordinates{Latitude: lat, Longitude: lon}
	if err := pos.Validate(); err != nil {
		return Coordinates{}, false, err
	}
	return pos, true, nil
}

// FlexString accepts a JSON string or number. The server is not consistent
// about which one it sends for identifiers.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*f = FlexString(n.String())
	return nil
}

// FlexFloat accepts a JSON number or a numeric string. Empty strings and null
// decode as zero. NaN and infinities are rejected.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	var s FlexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	text := strings.TrimSpace(string(s))
	if text == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("invalid number %q: %w", text, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("invalid number %q: not finite", text)
	}
	*f = FlexFloat(v)
	return nil
}

// FlexInt accepts a JSON integer or an integer string.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	var s FlexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	text := strings.TrimSpace(string(s))
	if text == "" {
		*f = 0
		return nil
	}
	v, err := strconv.Atoi(text)
	if err != nil {
		return fmt.Errorf("invalid integer %q: %w", text, err)
	}
	*f = FlexInt(v)
	return nil
}
