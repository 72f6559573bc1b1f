// Package geo wraps the external distance and geocoding collaborators. The
// distance contract never fails: lookups return nil fields when the provider
// is unreachable, and callers treat that as an unknown distance.
package geo

import (
	"context"

	"lifebridge/internal/domain"
)

// Route is a distance lookup result. Nil fields mean the provider could not
// resolve the leg.
type Route struct {
	DistanceKm      *float64 `json:"distanceKm"`
	DurationMinutes *float64 `json:"durationMinutes"`
}

// DistanceClient resolves the driving distance between two points. It never
// returns an error; failure is expressed as an empty Route.
type DistanceClient interface {
	GetDistance(ctx context.Context, origin, destination domain.Location) Route
}

// Geocoder resolves an address string to coordinates. Unresolvable addresses
// fail with a location_not_found domain error.
type Geocoder interface {
	GetCoordinates(ctx context.Context, address string) (domain.Location, error)
}
