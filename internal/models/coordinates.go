package models

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Coordinates is a single position fix in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// Validate reports whether the fix lies inside the valid lat/lon ranges.
func (c Coordinates) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid coordinates %v: %w", c, err)
	}
	return nil
}

func (c Coordinates) String() string {
	return fmt.Sprintf("(%g, %g)", c.Latitude, c.Longitude)
}

// DistanceTo returns the great-circle distance in kilometres.
func (c Coordinates) DistanceTo(other Coordinates) float64 {
	const earthRadius = 6371.0 // km

	dLat := toRadians(other.Latitude - c.Latitude)
	dLon := toRadians(other.Longitude - c.Longitude)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(c.Latitude))*math.Cos(toRadians(other.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadius * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
