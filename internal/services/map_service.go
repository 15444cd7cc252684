package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"oustaa/internal/models"
	"oustaa/internal/utils"
	"oustaa/pkg/cache"
	"oustaa/pkg/logger"
	"oustaa/pkg/maps"
)

type MapService interface {
	SearchLocation(ctx context.Context, query string, proximity *models.Coordinates) ([]maps.Place, error)
	// ReverseGeocode never fails: when the provider cannot name the point the
	// coordinates themselves are returned.
	ReverseGeocode(ctx context.Context, point models.Coordinates) string
	Route(ctx context.Context, start, end models.Coordinates) (*maps.Route, error)
}

const (
	searchResultLimit  = 5
	reverseGeocodeTTL  = 24 * time.Hour
	reverseCachePrefix = "maps:reverse:"
)

type mapService struct {
	provider maps.MapsProvider
	cache    cache.Cache
	logger   *logger.Logger
}

// NewMapService builds the map boundary. cache may be nil.
func NewMapService(provider maps.MapsProvider, c cache.Cache, logger *logger.Logger) MapService {
	return &mapService{provider: provider, cache: c, logger: logger}
}

func (s *mapService) SearchLocation(ctx context.Context, query string, proximity *models.Coordinates) ([]maps.Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []maps.Place{}, nil
	}

	request := &maps.PlaceSearchRequest{Query: query, Limit: searchResultLimit}
	if proximity != nil && proximity.IsValid() {
		request.Proximity = &maps.Location{Latitude: proximity.Latitude, Longitude: proximity.Longitude}
	}

	places, err := s.provider.SearchPlaces(ctx, request)
	if err != nil {
		if errors.Is(err, maps.ErrNoResults) {
			return []maps.Place{}, nil
		}
		return nil, utils.UpstreamError("location search failed", err)
	}
	if places == nil {
		places = []maps.Place{}
	}
	return places, nil
}

func (s *mapService) ReverseGeocode(ctx context.Context, point models.Coordinates) string {
	fallback := fmt.Sprintf("%.6f, %.6f", point.Latitude, point.Longitude)
	key := fmt.Sprintf("%s%.5f,%.5f", reverseCachePrefix, point.Latitude, point.Longitude)

	if s.cache != nil {
		var address string
		if err := s.cache.Get(ctx, key, &address); err == nil && address != "" {
			return address
		}
	}

	address, err := s.provider.ReverseGeocode(ctx, point.Latitude, point.Longitude)
	if err != nil || address == "" {
		if err != nil && !errors.Is(err, maps.ErrNoResults) {
			s.logger.WithError(err).WithField("point", fallback).Warn("Reverse geocoding failed")
		}
		return fallback
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, address, reverseGeocodeTTL); err != nil {
			s.logger.WithError(err).Debug("Failed to cache reverse geocode result")
		}
	}
	return address
}

func (s *mapService) Route(ctx context.Context, start, end models.Coordinates) (*maps.Route, error) {
	if err := validateTrip(start, end); err != nil {
		return nil, err
	}

	route, err := s.provider.GetRoute(ctx, &maps.RouteRequest{
		Origin:      maps.Location{Latitude: start.Latitude, Longitude: start.Longitude},
		Destination: maps.Location{Latitude: end.Latitude, Longitude: end.Longitude},
		Profile:     "driving",
	})
	if err != nil {
		if errors.Is(err, maps.ErrNoResults) {
			return nil, utils.NotFoundError("route")
		}
		return nil, utils.UpstreamError("route lookup failed", err)
	}
	return route, nil
}
