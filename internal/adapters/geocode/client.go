package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"fieldwork/internal/domain"
)

// Client resolves street addresses to coordinates through a Google-style
// geocoding endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL, apiKey string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		AddressComponents []struct {
			LongName  string   `json:"long_name"`
			ShortName string   `json:"short_name"`
			Types     []string `json:"types"`
		} `json:"address_components"`
	} `json:"results"`
}

func (c *Client) Geocode(ctx context.Context, address string) (domain.GeocodeResult, error) {
	if address == "" {
		return domain.GeocodeResult{}, &domain.ValidationError{Field: "address", Message: "must not be empty"}
	}

	params := url.Values{}
	params.Set("address", address)
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.GeocodeResult{}, fmt.Errorf("build geocode request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.GeocodeResult{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.GeocodeResult{}, fmt.Errorf("geocode request: unexpected status %d", resp.StatusCode)
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.GeocodeResult{}, &domain.ParseError{Source: "geocoder", Message: "response is not valid JSON", Err: err}
	}

	if body.Status != "OK" || len(body.Results) == 0 {
		return domain.GeocodeResult{}, fmt.Errorf("geocode failed for address: status %s", body.Status)
	}

	first := body.Results[0]
	result := domain.GeocodeResult{
		Lat: first.Geometry.Location.Lat,
		Lng: first.Geometry.Location.Lng,
	}
	for _, comp := range first.AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "locality":
				city := comp.LongName
				result.City = &city
			case "administrative_area_level_1":
				state := comp.ShortName
				result.State = &state
			}
		}
	}

	c.logger.Debug("geocoded address",
		zap.Float64("lat", result.Lat),
		zap.Float64("lng", result.Lng),
	)
	return result, nil
}
