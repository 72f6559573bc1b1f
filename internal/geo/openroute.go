package geo

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"lifebridge/internal/domain"
)

const openRouteMatrixURL = "https://api.openrouteservice.org/v2/matrix/driving-car"

// OpenRouteClient queries the openrouteservice distance matrix.
type OpenRouteClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewOpenRouteClient(apiKey string, logger *slog.Logger) *OpenRouteClient {
	return &OpenRouteClient{
		apiKey:  apiKey,
		baseURL: openRouteMatrixURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

type matrixRequest struct {
	Locations [][]float64 `json:"locations"`
	Metrics   []string    `json:"metrics"`
}

type matrixResponse struct {
	Distances [][]float64 `json:"distances"`
	Durations [][]float64 `json:"durations"`
}

func (c *OpenRouteClient) GetDistance(ctx context.Context, origin, destination domain.Location) Route {
	body, err := json.Marshal(matrixRequest{
		Locations: [][]float64{
			{origin.Lng, origin.Lat},
			{destination.Lng, destination.Lat},
		},
		Metrics: []string{"distance", "duration"},
	})
	if err != nil {
		return Route{}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return Route{}
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("distance lookup failed", "error", err)
		return Route{}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("distance provider rejected request", "http_status", resp.StatusCode)
		return Route{}
	}

	var out matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.logger.Warn("distance response undecodable", "error", err)
		return Route{}
	}
	if len(out.Distances) == 0 || len(out.Distances[0]) < 2 {
		return Route{}
	}

	distanceKm := out.Distances[0][1] / 1000
	route := Route{DistanceKm: &distanceKm}
	if len(out.Durations) > 0 && len(out.Durations[0]) >= 2 {
		durationMinutes := out.Durations[0][1] / 60
		route.DurationMinutes = &durationMinutes
	}
	return route
}
