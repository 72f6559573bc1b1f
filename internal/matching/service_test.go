package matching

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifebridge/internal/domain"
	"lifebridge/internal/geo"
	"lifebridge/internal/organ"
	"lifebridge/internal/user"
	dErrors "lifebridge/pkg/domainerrors"
)

// fakeDistances returns a canned distance per destination, keyed by lat.
type fakeDistances struct {
	byLat map[float64]float64
}

func (f fakeDistances) GetDistance(_ context.Context, _, destination domain.Location) geo.Route {
	d, ok := f.byLat[destination.Lat]
	if !ok {
		return geo.Route{}
	}
	duration := d / 60 * 60
	return geo.Route{DistanceKm: &d, DurationMinutes: &duration}
}

func seedRequester(t *testing.T, users *user.InMemoryStore, withLocation bool) string {
	t.Helper()
	u := &domain.User{
		ID:    "doctor-1",
		Name:  "Dr. Rao",
		Email: "rao@example.com",
		Role:  domain.RoleDoctor,
	}
	if withLocation {
		u.Location = &domain.Location{Lat: 0, Lng: 0}
	}
	require.NoError(t, users.Create(context.Background(), u))
	return u.ID
}

func seedKidney(t *testing.T, organs *organ.InMemoryStore, id string, lat float64, createdAt time.Time) {
	t.Helper()
	require.NoError(t, organs.Create(context.Background(), &domain.Organ{
		ID:         id,
		Type:       domain.OrganKidney,
		BloodGroup: domain.BloodOPos,
		Location:   &domain.Location{Lat: lat, Lng: 0},
		DonorID:    "donor-" + id,
		Status:     domain.OrganAvailable,
		CreatedAt:  createdAt,
	}))
}

func newTestService(organs *organ.InMemoryStore, users *user.InMemoryStore, distances geo.DistanceClient) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(organs, users, distances, logger, nil)
}

func TestFindAvailableOrgansRanksNearerFirst(t *testing.T) {
	organs := organ.NewInMemoryStore()
	users := user.NewInMemoryStore()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// Two O+ kidneys: one 100km away, one 1800km away.
	seedKidney(t, organs, "kidney-near", 1, base)
	seedKidney(t, organs, "kidney-far", 2, base)

	svc := newTestService(organs, users, fakeDistances{byLat: map[float64]float64{
		1: 100,
		2: 1800,
	}})
	requester := seedRequester(t, users, true)

	got, err := svc.FindAvailableOrgans(context.Background(), domain.OrganKidney, domain.BloodOPos, requester, 7)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "kidney-near", got[0].Organ.ID)
	assert.Equal(t, "kidney-far", got[1].Organ.ID)
	assert.Greater(t, got[0].MatchScore, got[1].MatchScore)

	// 100km is well inside half the kidney window; 1800km is outside it.
	assert.Equal(t, domain.RiskLow, got[0].RiskLevel)
	assert.Equal(t, domain.RecommendationRecommended, got[0].Recommendation)
	assert.Equal(t, domain.RiskHigh, got[1].RiskLevel)
	assert.Equal(t, domain.RecommendationRisky, got[1].Recommendation)
}

func TestFindAvailableOrgansRequiresRequesterLocation(t *testing.T) {
	organs := organ.NewInMemoryStore()
	users := user.NewInMemoryStore()
	svc := newTestService(organs, users, fakeDistances{})
	requester := seedRequester(t, users, false)

	_, err := svc.FindAvailableOrgans(context.Background(), domain.OrganKidney, domain.BloodOPos, requester, 5)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeRequesterLocationMissing))
}

func TestFindAvailableOrgansDegradesUnresolvableLegs(t *testing.T) {
	organs := organ.NewInMemoryStore()
	users := user.NewInMemoryStore()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	seedKidney(t, organs, "kidney-reachable", 1, base)
	seedKidney(t, organs, "kidney-unroutable", 9, base)
	// An organ with no stored location at all.
	require.NoError(t, organs.Create(context.Background(), &domain.Organ{
		ID:         "kidney-unlocated",
		Type:       domain.OrganKidney,
		BloodGroup: domain.BloodOPos,
		DonorID:    "donor-x",
		Status:     domain.OrganAvailable,
		CreatedAt:  base,
	}))

	svc := newTestService(organs, users, fakeDistances{byLat: map[float64]float64{1: 200}})
	requester := seedRequester(t, users, true)

	got, err := svc.FindAvailableOrgans(context.Background(), domain.OrganKidney, domain.BloodOPos, requester, 5)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// The scored organ ranks first; degraded candidates trail with score 0.
	assert.Equal(t, "kidney-reachable", got[0].Organ.ID)
	for _, c := range got[1:] {
		assert.Nil(t, c.DistanceKm)
		assert.Zero(t, c.MatchScore)
		assert.Equal(t, domain.RiskUnknown, c.RiskLevel)
		assert.Equal(t, domain.RecommendationInsufficientData, c.Recommendation)
	}
}

func TestFindAvailableOrgansTiebreaksOnOrganAge(t *testing.T) {
	organs := organ.NewInMemoryStore()
	users := user.NewInMemoryStore()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// Same distance, so identical scores; the older donation wins.
	seedKidney(t, organs, "kidney-newer", 1, base.Add(48*time.Hour))
	seedKidney(t, organs, "kidney-older", 2, base)

	svc := newTestService(organs, users, fakeDistances{byLat: map[float64]float64{
		1: 300,
		2: 300,
	}})
	requester := seedRequester(t, users, true)

	got, err := svc.FindAvailableOrgans(context.Background(), domain.OrganKidney, domain.BloodOPos, requester, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, got[0].MatchScore, got[1].MatchScore)
	assert.Equal(t, "kidney-older", got[0].Organ.ID)
}

func TestFindAvailableOrgansEmptyPool(t *testing.T) {
	organs := organ.NewInMemoryStore()
	users := user.NewInMemoryStore()
	svc := newTestService(organs, users, fakeDistances{})
	requester := seedRequester(t, users, true)

	got, err := svc.FindAvailableOrgans(context.Background(), domain.OrganHeart, domain.BloodABNeg, requester, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}
