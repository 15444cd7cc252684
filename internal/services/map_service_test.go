package services

import (
	"context"
	"errors"
	"testing"

	"oustaa/internal/models"
	"oustaa/internal/utils"
	"oustaa/pkg/logger"
	"oustaa/pkg/maps"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMapsProvider struct {
	mock.Mock
}

func (m *mockMapsProvider) SearchPlaces(ctx context.Context, request *maps.PlaceSearchRequest) ([]maps.Place, error) {
	args := m.Called(ctx, request)
	places, _ := args.Get(0).([]maps.Place)
	return places, args.Error(1)
}

func (m *mockMapsProvider) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	args := m.Called(ctx, lat, lng)
	return args.String(0), args.Error(1)
}

func (m *mockMapsProvider) GetRoute(ctx context.Context, request *maps.RouteRequest) (*maps.Route, error) {
	args := m.Called(ctx, request)
	route, _ := args.Get(0).(*maps.Route)
	return route, args.Error(1)
}

func TestSearchLocation(t *testing.T) {
	provider := new(mockMapsProvider)
	svc := NewMapService(provider, nil, logger.NewNop())
	ctx := context.Background()

	places, err := svc.SearchLocation(ctx, "   ", nil)
	require.NoError(t, err)
	assert.Empty(t, places)
	provider.AssertNotCalled(t, "SearchPlaces", mock.Anything, mock.Anything)

	provider.On("SearchPlaces", mock.Anything, mock.MatchedBy(func(r *maps.PlaceSearchRequest) bool {
		return r.Query == "Souq al-Juma" && r.Proximity != nil && r.Limit == 5
	})).Return([]maps.Place{{PlaceName: "Souq al-Juma, Tripoli", Center: [2]float64{13.2, 32.88}}}, nil).Once()

	places, err = svc.SearchLocation(ctx, "Souq al-Juma", &tripoliPickup)
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, [2]float64{13.2, 32.88}, places[0].Center)

	provider.On("SearchPlaces", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()
	_, err = svc.SearchLocation(ctx, "anything", nil)
	assert.ErrorIs(t, err, utils.UpstreamError("", nil))
	provider.AssertExpectations(t)
}

func TestReverseGeocode_FallsBackToCoordinates(t *testing.T) {
	point := models.Coordinates{Latitude: 32.8872, Longitude: 13.1913}

	failing := new(mockMapsProvider)
	failing.On("ReverseGeocode", mock.Anything, point.Latitude, point.Longitude).Return("", errors.New("mapbox API error (status 401)"))
	assert.Equal(t, "32.887200, 13.191300", NewMapService(failing, nil, logger.NewNop()).ReverseGeocode(context.Background(), point))

	empty := new(mockMapsProvider)
	empty.On("ReverseGeocode", mock.Anything, point.Latitude, point.Longitude).Return("", maps.ErrNoResults)
	assert.Equal(t, "32.887200, 13.191300", NewMapService(empty, nil, logger.NewNop()).ReverseGeocode(context.Background(), point))

	named := new(mockMapsProvider)
	named.On("ReverseGeocode", mock.Anything, point.Latitude, point.Longitude).Return("Martyrs' Square, Tripoli", nil)
	assert.Equal(t, "Martyrs' Square, Tripoli", NewMapService(named, nil, logger.NewNop()).ReverseGeocode(context.Background(), point))
}

func TestRoute(t *testing.T) {
	provider := new(mockMapsProvider)
	svc := NewMapService(provider, nil, logger.NewNop())
	ctx := context.Background()

	route := &maps.Route{DistanceMeters: 1200, DurationSeconds: 180}
	provider.On("GetRoute", mock.Anything, mock.MatchedBy(func(r *maps.RouteRequest) bool {
		return r.Profile == "driving" && r.Origin.Latitude == tripoliPickup.Latitude
	})).Return(route, nil).Once()

	got, err := svc.Route(ctx, tripoliPickup, tripoliDestination)
	require.NoError(t, err)
	assert.Equal(t, 1200.0, got.DistanceMeters)

	provider.On("GetRoute", mock.Anything, mock.Anything).Return(nil, maps.ErrNoResults).Once()
	_, err = svc.Route(ctx, tripoliPickup, tripoliDestination)
	assert.ErrorIs(t, err, utils.NotFoundError(""))

	_, err = svc.Route(ctx, models.Coordinates{}, tripoliDestination)
	assert.ErrorIs(t, err, utils.ValidationError("", nil))
}
