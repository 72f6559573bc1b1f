package matching

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"lifebridge/internal/domain"
	"lifebridge/internal/geo"
	"lifebridge/internal/organ"
	"lifebridge/internal/platform/metrics"
	"lifebridge/internal/user"
	dErrors "lifebridge/pkg/domainerrors"
	"lifebridge/pkg/sentinel"
)

// distanceLookupConcurrency bounds parallel calls to the distance provider.
const distanceLookupConcurrency = 8

// Candidate is one ranked organ offered to a requesting doctor. DistanceKm
// and DurationMinutes are nil when the leg could not be resolved; such
// candidates carry score 0 and INSUFFICIENT_DATA so they rank last but stay
// visible.
type Candidate struct {
	Organ           *domain.Organ
	DistanceKm      *float64
	DurationMinutes *float64
	MatchScore      int
	RiskLevel       domain.RiskLevel
	Recommendation  domain.Recommendation
}

// Service ranks available organs for a requester by urgency and transport
// distance.
type Service struct {
	organs    organ.Store
	users     user.Store
	distances geo.DistanceClient
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewService(organs organ.Store, users user.Store, distances geo.DistanceClient, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		organs:    organs,
		users:     users,
		distances: distances,
		logger:    logger,
		metrics:   m,
	}
}

// FindAvailableOrgans returns AVAILABLE organs of the given type and blood
// group ranked best-first for the requesting user. UrgencyScore comes from
// the caller's request context; 0 means unspecified.
func (s *Service) FindAvailableOrgans(ctx context.Context, organType domain.OrganType, bloodGroup domain.BloodGroup, requesterID string, urgencyScore int) ([]Candidate, error) {
	requester, err := s.users.Get(ctx, requesterID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "requesting user not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "load requester", err)
	}
	if requester.Location == nil {
		return nil, dErrors.New(dErrors.CodeRequesterLocationMissing,
			"requester has no registered location; update the profile address first")
	}

	organs, err := s.organs.ListAvailable(ctx, organ.AvailableFilter{
		Type:       organType,
		BloodGroup: bloodGroup,
	})
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list available organs", err)
	}
	if len(organs) == 0 {
		return []Candidate{}, nil
	}

	candidates := make([]Candidate, len(organs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(distanceLookupConcurrency)
	for i, o := range organs {
		g.Go(func() error {
			candidates[i] = s.score(gctx, *requester.Location, o, urgencyScore)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "score candidates", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].MatchScore != candidates[j].MatchScore {
			return candidates[i].MatchScore > candidates[j].MatchScore
		}
		// Equal scores favor the organ that has waited longest.
		ci, cj := candidates[i].Organ, candidates[j].Organ
		if !ci.CreatedAt.Equal(cj.CreatedAt) {
			return ci.CreatedAt.Before(cj.CreatedAt)
		}
		return ci.ID < cj.ID
	})

	if s.metrics != nil {
		s.metrics.MatchesScored.Add(float64(len(candidates)))
	}
	s.logger.InfoContext(ctx, "organs ranked",
		"requester_id", requesterID, "organ_type", organType, "candidates", len(candidates))
	return candidates, nil
}

// score resolves the transport leg for one organ. A missing organ location or
// an unresolvable route degrades the candidate instead of failing discovery.
func (s *Service) score(ctx context.Context, origin domain.Location, o *domain.Organ, urgencyScore int) Candidate {
	c := Candidate{
		Organ:          o,
		RiskLevel:      domain.RiskUnknown,
		Recommendation: domain.RecommendationInsufficientData,
	}
	if o.Location == nil {
		return c
	}

	route := s.distances.GetDistance(ctx, origin, *o.Location)
	if route.DistanceKm == nil {
		return c
	}

	result := CalculateScore(ScoreInput{
		Organ:        o.Type,
		UrgencyScore: urgencyScore,
		DistanceKm:   route.DistanceKm,
	})
	c.DistanceKm = route.DistanceKm
	c.DurationMinutes = route.DurationMinutes
	c.MatchScore = result.MatchScore
	c.RiskLevel = result.RiskLevel
	c.Recommendation = result.Recommendation
	return c
}
