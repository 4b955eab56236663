package service

import (
	"context"
	stderrors "errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"TripMate/internal/cache"
	"TripMate/internal/model/dto"
	pkgerrors "TripMate/pkg/errors"
	"TripMate/pkg/geocode"
	"TripMate/pkg/logger"
	"TripMate/pkg/metrics"
)

// PlaceService 地点搜索：缓存 → 熔断 → 地图服务
type PlaceService struct {
	deps  Deps
	group singleflight.Group
}

func (s *PlaceService) Search(ctx context.Context, query string) ([]dto.PlaceResult, error) {
	key := geocode.NormalizeQuery(query)
	if key == "" {
		return nil, pkgerrors.ValidationFailed.WithMessage("query is required")
	}

	g := s.deps.Geocoder
	if g == nil || !g.Available() {
		return nil, pkgerrors.GeocodeUnavailable
	}

	if s.deps.PlaceCache != nil {
		var cached []dto.PlaceResult
		hit, err := s.deps.PlaceCache.Get(ctx, key, &cached)
		if err != nil {
			logger.Logger.Warn("Failed to read place cache", zap.String("query", key), zap.Error(err))
		}
		if hit {
			metrics.RecordGeocode(ctx, g.Provider(), "cache", nil)
			if cached == nil {
				cached = []dto.PlaceResult{}
			}
			return cached, nil
		}
	}

	// 相同关键字的并发请求只打一次上游
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.fetch(ctx, g, key)
	})
	if err != nil {
		return nil, err
	}
	return v.([]dto.PlaceResult), nil
}

func (s *PlaceService) fetch(ctx context.Context, g geocode.Client, key string) ([]dto.PlaceResult, error) {
	var places []geocode.Place
	call := func() error {
		var err error
		places, err = g.Search(ctx, key)
		return err
	}

	var err error
	if s.deps.Breaker != nil {
		err = s.deps.Breaker.Call(ctx, call)
	} else {
		err = call()
	}
	metrics.RecordGeocode(ctx, g.Provider(), "provider", err)

	if err != nil {
		logger.Logger.Warn("Place search failed",
			zap.String("provider", g.Provider()),
			zap.String("query", key),
			zap.Error(err),
		)
		if stderrors.Is(err, pkgerrors.GeocodeUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", pkgerrors.GeocodeUnavailable, err)
	}

	results := make([]dto.PlaceResult, 0, len(places))
	for _, p := range places {
		results = append(results, dto.PlaceResult{
			Name:             p.Name,
			FormattedAddress: p.FormattedAddress,
			Lat:              p.Lat,
			Lng:              p.Lng,
			PlaceID:          p.PlaceID,
		})
	}

	if s.deps.PlaceCache != nil {
		if err := s.deps.PlaceCache.Set(ctx, key, results); err != nil {
			logger.Logger.Warn("Failed to write place cache", zap.String("query", key), zap.Error(err))
		}
	}
	return results, nil
}

var _ Breaker = (*cache.CircuitBreaker)(nil)
var _ PlaceCache = (*cache.ProtectedCache)(nil)
