// Package matching ranks candidate organs for a request. The score engine is a
// pure function; the discovery service layers distance lookups and ranking on
// top of it.
package matching

import (
	"math"

	"lifebridge/internal/domain"
)

const (
	defaultUrgency = 5

	// unknownDistanceKm is the sentinel for a missing distance: an organ we
	// cannot locate is treated as far away, never as adjacent.
	unknownDistanceKm = 2000

	urgencyWeight  = 70
	distanceWeight = 30
)

// safeTransportKm is the per-organ clinical transport-viability window.
var safeTransportKm = map[domain.OrganType]float64{
	domain.OrganHeart:  500,
	domain.OrganLiver:  800,
	domain.OrganKidney: 1500,
}

const defaultSafeTransportKm = 1000

// SafeTransportDistance returns the km threshold for an organ type.
func SafeTransportDistance(organ domain.OrganType) float64 {
	if d, ok := safeTransportKm[organ]; ok {
		return d
	}
	return defaultSafeTransportKm
}

// ScoreInput feeds CalculateScore. UrgencyScore 0 means unspecified and
// defaults to 5. DistanceKm nil means the distance is unknown.
type ScoreInput struct {
	Organ        domain.OrganType
	UrgencyScore int
	DistanceKm   *float64
}

// Score is the ranked outcome for one candidate organ.
type Score struct {
	MatchScore     int                   `json:"matchScore"`
	RiskLevel      domain.RiskLevel      `json:"riskLevel"`
	Recommendation domain.Recommendation `json:"recommendation"`
}

// CalculateScore combines urgency (70%) with an exponential distance decay
// (30%) and bands risk against the organ's safe transport distance.
// Deterministic for identical inputs.
func CalculateScore(in ScoreInput) Score {
	urgency := float64(in.UrgencyScore)
	if in.UrgencyScore == 0 {
		urgency = defaultUrgency
	}

	distance := float64(unknownDistanceKm)
	if in.DistanceKm != nil {
		distance = *in.DistanceKm
	}

	safe := SafeTransportDistance(in.Organ)

	distanceFactor := math.Exp(-distance / safe)
	matchScore := urgency/10*urgencyWeight + distanceFactor*distanceWeight

	var risk domain.RiskLevel
	var recommendation domain.Recommendation
	switch {
	case distance <= safe*0.5:
		risk, recommendation = domain.RiskLow, domain.RecommendationRecommended
	case distance <= safe:
		risk, recommendation = domain.RiskModerate, domain.RecommendationAcceptable
	default:
		risk, recommendation = domain.RiskHigh, domain.RecommendationRisky
	}

	return Score{
		MatchScore:     int(math.Round(matchScore)),
		RiskLevel:      risk,
		Recommendation: recommendation,
	}
}
