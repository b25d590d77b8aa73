package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Geocoder resolves a free-text address to coordinates. Implementations
// must treat failures as expected: order creation falls back to skipping the
// distance check when resolution fails.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (Coordinates, error)
}

// ErrNoResult means the address could not be resolved to any location.
var ErrNoResult = errors.New("geocode: no result for address")

// HTTPGeocoder queries a Nominatim-compatible search endpoint.
type HTTPGeocoder struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGeocoder builds a geocoder against the given base URL
// (e.g. "https://nominatim.openstreetmap.org").
func NewHTTPGeocoder(baseURL string) *HTTPGeocoder {
	return &HTTPGeocoder{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type geocodeResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves the first search hit for the address.
func (g *HTTPGeocoder) Geocode(ctx context.Context, address string) (Coordinates, error) {
	u := fmt.Sprintf("%s/search?format=json&limit=1&q=%s", g.baseURL, url.QueryEscape(address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocode: build request: %w", err)
	}
	req.Header.Set("User-Agent", "storefront/1.0")

	res, err := g.client.Do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocode: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return Coordinates{}, fmt.Errorf("geocode: unexpected status %d", res.StatusCode)
	}

	var results []geocodeResult
	if err := json.NewDecoder(res.Body).Decode(&results); err != nil {
		return Coordinates{}, fmt.Errorf("geocode: decode response: %w", err)
	}
	if len(results) == 0 {
		return Coordinates{}, ErrNoResult
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocode: parse lat %q: %w", results[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocode: parse lon %q: %w", results[0].Lon, err)
	}
	return Coordinates{Lat: lat, Lng: lng}, nil
}
