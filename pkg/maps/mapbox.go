package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultMapboxBaseURL = "https://api.mapbox.com"

type MapboxConfig struct {
	AccessToken string
	BaseURL     string
	Language    string
	Country     string
	Timeout     time.Duration
}

type MapboxProvider struct {
	accessToken string
	httpClient  *http.Client
	baseURL     string
	language    string
	country     string
}

func NewMapboxProvider(config MapboxConfig) *MapboxProvider {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultMapboxBaseURL
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &MapboxProvider{
		accessToken: config.AccessToken,
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		language:    config.Language,
		country:     config.Country,
	}
}

type mapboxFeatureCollection struct {
	Features []struct {
		ID        string    `json:"id"`
		PlaceName string    `json:"place_name"`
		Center    []float64 `json:"center"`
	} `json:"features"`
}

func (m *MapboxProvider) SearchPlaces(ctx context.Context, request *PlaceSearchRequest) ([]Place, error) {
	params := m.geocodingParams()
	if request.Proximity != nil {
		params.Set("proximity", formatPosition(request.Proximity.Longitude, request.Proximity.Latitude))
	}
	if request.Limit > 0 {
		params.Set("limit", strconv.Itoa(request.Limit))
	}

	var collection mapboxFeatureCollection
	path := "/geocoding/v5/mapbox.places/" + url.PathEscape(request.Query) + ".json"
	if err := m.get(ctx, path, params, &collection); err != nil {
		return nil, err
	}

	places := make([]Place, 0, len(collection.Features))
	for _, feature := range collection.Features {
		if len(feature.Center) < 2 {
			continue
		}
		places = append(places, Place{
			ID:        feature.ID,
			PlaceName: feature.PlaceName,
			Center:    [2]float64{feature.Center[0], feature.Center[1]},
		})
	}
	return places, nil
}

func (m *MapboxProvider) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	var collection mapboxFeatureCollection
	path := "/geocoding/v5/mapbox.places/" + formatPosition(lng, lat) + ".json"
	if err := m.get(ctx, path, m.geocodingParams(), &collection); err != nil {
		return "", err
	}

	if len(collection.Features) == 0 || collection.Features[0].PlaceName == "" {
		return "", ErrNoResults
	}
	return collection.Features[0].PlaceName, nil
}

func (m *MapboxProvider) GetRoute(ctx context.Context, request *RouteRequest) (*Route, error) {
	profile := request.Profile
	if profile == "" {
		profile = "driving"
	}

	params := url.Values{}
	params.Set("access_token", m.accessToken)
	params.Set("geometries", "geojson")
	params.Set("overview", "full")

	coordinates := formatPosition(request.Origin.Longitude, request.Origin.Latitude) + ";" +
		formatPosition(request.Destination.Longitude, request.Destination.Latitude)

	var directions struct {
		Code   string `json:"code"`
		Routes []struct {
			Distance float64    `json:"distance"`
			Duration float64    `json:"duration"`
			Geometry LineString `json:"geometry"`
		} `json:"routes"`
	}
	if err := m.get(ctx, "/directions/v5/mapbox/"+profile+"/"+coordinates, params, &directions); err != nil {
		return nil, err
	}

	if len(directions.Routes) == 0 {
		return nil, ErrNoResults
	}

	route := directions.Routes[0]
	return &Route{
		Geometry:        newLineString(route.Geometry.Coordinates),
		DistanceMeters:  route.Distance,
		DurationSeconds: route.Duration,
	}, nil
}

func (m *MapboxProvider) geocodingParams() url.Values {
	params := url.Values{}
	params.Set("access_token", m.accessToken)
	if m.language != "" {
		params.Set("language", m.language)
	}
	if m.country != "" {
		params.Set("country", m.country)
	}
	return params
}

func (m *MapboxProvider) get(ctx context.Context, path string, params url.Values, dest interface{}) error {
	apiURL := m.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mapbox API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func formatPosition(first, second float64) string {
	return strconv.FormatFloat(first, 'f', 6, 64) + "," + strconv.FormatFloat(second, 'f', 6, 64)
}
