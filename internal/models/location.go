package models

import (
	"fmt"
	"time"
)

type Coordinates struct {
	Latitude  float64 `json:"latitude" bson:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude" validate:"longitude"`
}

// IsZero reports whether no position was supplied.
func (c Coordinates) IsZero() bool {
	return c.Latitude == 0 && c.Longitude == 0
}

func (c Coordinates) IsValid() bool {
	return !c.IsZero() &&
		c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f, %.6f", c.Latitude, c.Longitude)
}

// DriverLocation is the payload published when a driver reports a position.
type DriverLocation struct {
	DriverID  string      `json:"driver_id"`
	Position  Coordinates `json:"position"`
	Available bool        `json:"available"`
	Timestamp time.Time   `json:"timestamp"`
}
