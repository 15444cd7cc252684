package maps

import (
	"context"
	"errors"
)

// ErrNoResults is returned when the provider answered but found nothing.
var ErrNoResults = errors.New("maps: no results")

type MapsProvider interface {
	SearchPlaces(ctx context.Context, request *PlaceSearchRequest) ([]Place, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
	GetRoute(ctx context.Context, request *RouteRequest) (*Route, error)
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type PlaceSearchRequest struct {
	Query     string    `json:"query"`
	Proximity *Location `json:"proximity,omitempty"`
	Limit     int       `json:"limit,omitempty"`
}

// Place is a search hit. Center is [longitude, latitude].
type Place struct {
	ID        string     `json:"id,omitempty"`
	PlaceName string     `json:"place_name"`
	Center    [2]float64 `json:"center"`
}

type RouteRequest struct {
	Origin      Location `json:"origin"`
	Destination Location `json:"destination"`
	// Profile is the travel mode; driving when empty.
	Profile string `json:"profile,omitempty"`
}

// LineString is a GeoJSON geometry with [longitude, latitude] positions.
type LineString struct {
	Type        string       `json:"type"`
	Coordinates [][2]float64 `json:"coordinates"`
}

type Route struct {
	Geometry        LineString `json:"geometry"`
	DistanceMeters  float64    `json:"distance"`
	DurationSeconds float64    `json:"duration"`
}

func newLineString(coordinates [][2]float64) LineString {
	return LineString{Type: "LineString", Coordinates: coordinates}
}
