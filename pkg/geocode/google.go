package geocode

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
	"googlemaps.github.io/maps"

	"TripMate/pkg/errors"
)

// GoogleClient 基于 Places Text Search
type GoogleClient struct {
	client   *maps.Client
	limiter  *rate.Limiter
	language string
}

func NewGoogleClient(apiKey string, qps float64, language string) (*GoogleClient, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create google maps client: %w", err)
	}

	limit := rate.Inf
	if qps > 0 {
		limit = rate.Limit(qps)
	}

	return &GoogleClient{
		client:   c,
		limiter:  rate.NewLimiter(limit, 1),
		language: language,
	}, nil
}

func (g *GoogleClient) Search(ctx context.Context, query string) ([]Place, error) {
	// 本地限流，等待超时按上游不可用处理
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.GeocodeUnavailable, err)
	}

	resp, err := g.client.TextSearch(ctx, &maps.TextSearchRequest{
		Query:    query,
		Language: g.language,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.GeocodeUnavailable, err)
	}

	places := make([]Place, 0, len(resp.Results))
	for _, r := range resp.Results {
		places = append(places, Place{
			Name:             r.Name,
			FormattedAddress: r.FormattedAddress,
			Lat:              r.Geometry.Location.Lat,
			Lng:              r.Geometry.Location.Lng,
			PlaceID:          r.PlaceID,
		})
	}
	return places, nil
}

func (g *GoogleClient) Provider() string {
	return "google"
}

func (g *GoogleClient) Available() bool {
	return true
}
