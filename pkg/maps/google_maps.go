package maps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"
)

type GoogleMapsConfig struct {
	APIKey   string
	Language string
	Country  string
	// BaseURL overrides the API host, used by tests.
	BaseURL string
}

type GoogleMapsProvider struct {
	client   *maps.Client
	language string
	country  string
}

func NewGoogleMapsProvider(config GoogleMapsConfig) (*GoogleMapsProvider, error) {
	options := []maps.ClientOption{maps.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		options = append(options, maps.WithBaseURL(config.BaseURL))
	}

	client, err := maps.NewClient(options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return &GoogleMapsProvider{
		client:   client,
		language: config.Language,
		country:  strings.ToLower(config.Country),
	}, nil
}

func (g *GoogleMapsProvider) SearchPlaces(ctx context.Context, request *PlaceSearchRequest) ([]Place, error) {
	req := &maps.GeocodingRequest{
		Address:  request.Query,
		Language: g.language,
		Region:   g.country,
	}
	if g.country != "" {
		req.Components = map[maps.Component]string{maps.ComponentCountry: g.country}
	}

	resp, err := g.client.Geocode(ctx, req)
	if err != nil {
		if isZeroResults(err) {
			return []Place{}, nil
		}
		return nil, fmt.Errorf("geocoding failed: %w", err)
	}

	places := make([]Place, 0, len(resp))
	for _, result := range resp {
		places = append(places, Place{
			ID:        result.PlaceID,
			PlaceName: result.FormattedAddress,
			Center:    [2]float64{result.Geometry.Location.Lng, result.Geometry.Location.Lat},
		})
		if request.Limit > 0 && len(places) == request.Limit {
			break
		}
	}
	return places, nil
}

func (g *GoogleMapsProvider) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	req := &maps.GeocodingRequest{
		LatLng:   &maps.LatLng{Lat: lat, Lng: lng},
		Language: g.language,
	}

	resp, err := g.client.ReverseGeocode(ctx, req)
	if err != nil {
		if isZeroResults(err) {
			return "", ErrNoResults
		}
		return "", fmt.Errorf("reverse geocoding failed: %w", err)
	}

	if len(resp) == 0 || resp[0].FormattedAddress == "" {
		return "", ErrNoResults
	}
	return resp[0].FormattedAddress, nil
}

func (g *GoogleMapsProvider) GetRoute(ctx context.Context, request *RouteRequest) (*Route, error) {
	mode := maps.TravelModeDriving
	if request.Profile != "" {
		mode = maps.Mode(request.Profile)
	}

	req := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", request.Origin.Latitude, request.Origin.Longitude),
		Destination: fmt.Sprintf("%f,%f", request.Destination.Latitude, request.Destination.Longitude),
		Mode:        mode,
		Language:    g.language,
		Region:      g.country,
	}

	routes, _, err := g.client.Directions(ctx, req)
	if err != nil {
		if isZeroResults(err) {
			return nil, ErrNoResults
		}
		return nil, fmt.Errorf("directions request failed: %w", err)
	}
	if len(routes) == 0 {
		return nil, ErrNoResults
	}

	route := routes[0]
	points, err := route.OverviewPolyline.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode route polyline: %w", err)
	}

	coordinates := make([][2]float64, len(points))
	for i, point := range points {
		coordinates[i] = [2]float64{point.Lng, point.Lat}
	}

	result := &Route{Geometry: newLineString(coordinates)}
	for _, leg := range route.Legs {
		result.DistanceMeters += float64(leg.Distance.Meters)
		result.DurationSeconds += leg.Duration.Seconds()
	}
	return result, nil
}

func isZeroResults(err error) bool {
	return err != nil && (errors.Is(err, ErrNoResults) || strings.Contains(err.Error(), "ZERO_RESULTS"))
}
