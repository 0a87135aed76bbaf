package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultIPInfoURL = "https://ipinfo.io/json"

// IPProvider queries ipinfo for the public address and an approximate
// location.
type IPProvider struct {
	interval time.Duration
	client   *http.Client
	url      string
}

type ipinfoResponse struct {
	IP      string `json:"ip"`
	City    string `json:"city"`
	Country string `json:"country"`
	Loc     string `json:"loc"`
}

func NewIPProvider(interval time.Duration) *IPProvider {
	return &IPProvider{
		interval: interval,
		client:   &http.Client{Timeout: 10 * time.Second},
		url:      defaultIPInfoURL,
	}
}

func (p *IPProvider) Name() string { return "ip" }

func (p *IPProvider) RefreshInterval() time.Duration { return p.interval }

func (p *IPProvider) Refresh(ctx context.Context) (map[string]interface{}, error) {
	info, err := p.query(ctx)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"address":          info.address,
		"approx_city":      info.city,
		"approx_country":   info.country,
		"approx_latitude":  info.latitude,
		"approx_longitude": info.longitude,
	}, nil
}

type ipInfo struct {
	address   string
	city      string
	country   string
	latitude  float64
	longitude float64
}

func (p *IPProvider) query(ctx context.Context) (*ipInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ipinfo query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ipinfo query returned status %d", resp.StatusCode)
	}

	var decoded ipinfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode ipinfo response: %w", err)
	}

	latitude, longitude, err := parseLoc(decoded.Loc)
	if err != nil {
		return nil, err
	}

	return &ipInfo{
		address:   decoded.IP,
		city:      decoded.City,
		country:   decoded.Country,
		latitude:  latitude,
		longitude: longitude,
	}, nil
}

// parseLoc splits ipinfo's "lat,long" location field.
func parseLoc(loc string) (float64, float64, error) {
	parts := strings.SplitN(loc, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed ipinfo location %q", loc)
	}

	latitude, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed ipinfo latitude %q", parts[0])
	}
	longitude, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed ipinfo longitude %q", parts[1])
	}

	return latitude, longitude, nil
}
