package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"lifebridge/internal/domain"
)

// routeCacheTTL bounds how long a resolved leg is reused. Road distances do
// not change, but provider outages should not pin empty results forever.
const routeCacheTTL = 24 * time.Hour

// CachedDistanceClient fronts a DistanceClient with a Redis cache keyed by the
// rounded coordinate pair. Cache failures fall through to the provider.
type CachedDistanceClient struct {
	inner  DistanceClient
	rdb    *redis.Client
	logger *slog.Logger
}

func NewCachedDistanceClient(inner DistanceClient, rdb *redis.Client, logger *slog.Logger) *CachedDistanceClient {
	return &CachedDistanceClient{inner: inner, rdb: rdb, logger: logger}
}

func routeKey(origin, destination domain.Location) string {
	// Four decimal places keeps entries ~11m apart; good enough for km-scale
	// transport distances.
	return fmt.Sprintf("route:%.4f,%.4f:%.4f,%.4f", origin.Lat, origin.Lng, destination.Lat, destination.Lng)
}

func (c *CachedDistanceClient) GetDistance(ctx context.Context, origin, destination domain.Location) Route {
	key := routeKey(origin, destination)

	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var cached Route
		if json.Unmarshal(raw, &cached) == nil && cached.DistanceKm != nil {
			return cached
		}
	}

	route := c.inner.GetDistance(ctx, origin, destination)
	if route.DistanceKm == nil {
		// Do not cache failures.
		return route
	}

	if raw, err := json.Marshal(route); err == nil {
		if err := c.rdb.Set(ctx, key, raw, routeCacheTTL).Err(); err != nil {
			c.logger.Warn("route cache write failed", "error", err)
		}
	}
	return route
}
