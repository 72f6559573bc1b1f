package geo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"lifebridge/internal/domain"
	dErrors "lifebridge/pkg/domainerrors"
)

const openCageURL = "https://api.opencagedata.com/geocode/v1/json"

// OpenCageGeocoder resolves address text through the OpenCage forward
// geocoding API.
type OpenCageGeocoder struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewOpenCageGeocoder(apiKey string) *OpenCageGeocoder {
	return &OpenCageGeocoder{
		apiKey:  apiKey,
		baseURL: openCageURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type geocodeResponse struct {
	Results []struct {
		Geometry struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"geometry"`
	} `json:"results"`
}

func (g *OpenCageGeocoder) GetCoordinates(ctx context.Context, address string) (domain.Location, error) {
	if address == "" {
		return domain.Location{}, dErrors.New(dErrors.CodeBadRequest, "address is required for geocoding")
	}

	q := url.Values{}
	q.Set("q", address)
	q.Set("key", g.apiKey)
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return domain.Location{}, dErrors.Wrap(dErrors.CodeInternal, "geocoding request failed", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return domain.Location{}, dErrors.Wrap(dErrors.CodeInternal, "geocoding request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.Location{}, dErrors.New(dErrors.CodeInternal, "geocoding provider unavailable")
	}

	var out geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.Location{}, dErrors.Wrap(dErrors.CodeInternal, "geocoding response undecodable", err)
	}
	if len(out.Results) == 0 {
		return domain.Location{}, dErrors.New(dErrors.CodeLocationNotFound, "location not found for address")
	}
	return domain.Location{
		Lat: out.Results[0].Geometry.Lat,
		Lng: out.Results[0].Geometry.Lng,
	}, nil
}
