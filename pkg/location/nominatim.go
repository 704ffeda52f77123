package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Geocoder turns a position into a readable address.
type Geocoder interface {
	Reverse(ctx context.Context, c Coords) (string, error)
}

type NominatimClient struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

func NewNominatimClient(baseURL string, timeout time.Duration) *NominatimClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NominatimClient{
		baseURL:   baseURL,
		userAgent: "startup-kafe-kiosk/1.0",
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type nominatimAddress struct {
	Road          string `json:"road"`
	Pedestrian    string `json:"pedestrian"`
	Neighbourhood string `json:"neighbourhood"`
	Suburb        string `json:"suburb"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
}

type nominatimResponse struct {
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// format joins street, neighbourhood and city, falling back to the display
// name when none is known.
func (r nominatimResponse) format() string {
	var parts []string
	for _, part := range []string{
		firstNonEmpty(r.Address.Road, r.Address.Pedestrian),
		firstNonEmpty(r.Address.Neighbourhood, r.Address.Suburb),
		firstNonEmpty(r.Address.City, r.Address.Town, r.Address.Village),
	} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return r.DisplayName
	}
	return strings.Join(parts, ", ")
}

func (c *NominatimClient) Reverse(ctx context.Context, coords Coords) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	q.Set("zoom", "18")
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build geocoding request: %w", err)
	}
	req.Header.Set("Accept-Language", "en")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocoding failed: status %d", resp.StatusCode)
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode geocoding response: %w", err)
	}
	return body.format(), nil
}
