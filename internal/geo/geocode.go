package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Location is a resolved coordinate for a human-readable address.
type Location struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formattedAddress"`
}

// Geocoder resolves addresses through the Google geocoding API. Without an
// API key it hands back a jittered mock coordinate so registration keeps
// working in development.
type Geocoder struct {
	apiKey string
	client *http.Client
}

func NewGeocoder() *Geocoder {
	return &Geocoder{
		apiKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

const geocodeEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

// Mock coordinates are jittered around New Delhi.
const (
	mockLat = 28.6139
	mockLng = 77.2090
)

type geocodeResponse struct {
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves an address to a coordinate. A nil result with nil error
// means the address could not be resolved; callers treat that as "no
// coordinate", never as a failure.
func (g *Geocoder) Geocode(ctx context.Context, address string) (*Location, error) {
	if g.apiKey == "" {
		return &Location{
			Lat:              mockLat + (rand.Float64()-0.5)*0.1,
			Lng:              mockLng + (rand.Float64()-0.5)*0.1,
			FormattedAddress: address,
		}, nil
	}

	q := url.Values{}
	q.Set("address", address)
	q.Set("key", g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, geocodeEndpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building geocode request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling geocode api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode api returned %s", resp.Status)
	}

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding geocode response: %w", err)
	}
	if len(decoded.Results) == 0 {
		return nil, nil
	}

	first := decoded.Results[0]
	return &Location{
		Lat:              first.Geometry.Location.Lat,
		Lng:              first.Geometry.Location.Lng,
		FormattedAddress: first.FormattedAddress,
	}, nil
}
