package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lifebridge/internal/domain"
)

func km(v float64) *float64 { return &v }

func TestCalculateScore_Deterministic(t *testing.T) {
	in := ScoreInput{Organ: domain.OrganLiver, UrgencyScore: 7, DistanceKm: km(350)}
	assert.Equal(t, CalculateScore(in), CalculateScore(in))
}

func TestCalculateScore_PerfectHeartMatch(t *testing.T) {
	got := CalculateScore(ScoreInput{Organ: domain.OrganHeart, UrgencyScore: 10, DistanceKm: km(0)})
	assert.Equal(t, 100, got.MatchScore)
	assert.Equal(t, domain.RiskLow, got.RiskLevel)
	assert.Equal(t, domain.RecommendationRecommended, got.Recommendation)
}

func TestCalculateScore_DistantHeart(t *testing.T) {
	got := CalculateScore(ScoreInput{Organ: domain.OrganHeart, UrgencyScore: 5, DistanceKm: km(2000)})
	assert.Less(t, got.MatchScore, 40)
	assert.Equal(t, domain.RiskHigh, got.RiskLevel)
	assert.Equal(t, domain.RecommendationRisky, got.Recommendation)
}

func TestCalculateScore_MissingDistanceSentinel(t *testing.T) {
	unknown := CalculateScore(ScoreInput{Organ: domain.OrganKidney, UrgencyScore: 5, DistanceKm: nil})
	explicit := CalculateScore(ScoreInput{Organ: domain.OrganKidney, UrgencyScore: 5, DistanceKm: km(2000)})
	assert.Equal(t, explicit, unknown, "nil distance must behave exactly like 2000 km")
}

func TestCalculateScore_UrgencyDefaultsToFive(t *testing.T) {
	defaulted := CalculateScore(ScoreInput{Organ: domain.OrganLungs, DistanceKm: km(100)})
	explicit := CalculateScore(ScoreInput{Organ: domain.OrganLungs, UrgencyScore: 5, DistanceKm: km(100)})
	assert.Equal(t, explicit, defaulted)
}

func TestCalculateScore_RiskBands(t *testing.T) {
	cases := []struct {
		name     string
		organ    domain.OrganType
		distance float64
		risk     domain.RiskLevel
		rec      domain.Recommendation
	}{
		{"heart at half window", domain.OrganHeart, 250, domain.RiskLow, domain.RecommendationRecommended},
		{"heart inside window", domain.OrganHeart, 400, domain.RiskModerate, domain.RecommendationAcceptable},
		{"heart beyond window", domain.OrganHeart, 501, domain.RiskHigh, domain.RecommendationRisky},
		{"liver inside window", domain.OrganLiver, 800, domain.RiskModerate, domain.RecommendationAcceptable},
		{"kidney travels far", domain.OrganKidney, 700, domain.RiskLow, domain.RecommendationRecommended},
		{"eye uses default window", domain.OrganEye, 900, domain.RiskModerate, domain.RecommendationAcceptable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateScore(ScoreInput{Organ: tc.organ, UrgencyScore: 5, DistanceKm: km(tc.distance)})
			assert.Equal(t, tc.risk, got.RiskLevel)
			assert.Equal(t, tc.rec, got.Recommendation)
		})
	}
}

func TestCalculateScore_NearerScoresHigher(t *testing.T) {
	near := CalculateScore(ScoreInput{Organ: domain.OrganKidney, UrgencyScore: 8, DistanceKm: km(100)})
	far := CalculateScore(ScoreInput{Organ: domain.OrganKidney, UrgencyScore: 8, DistanceKm: km(1800)})
	assert.Greater(t, near.MatchScore, far.MatchScore)
}
