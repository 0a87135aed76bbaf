package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lumenbar/lumen/internal/config"
)

const defaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

// WeatherProvider queries open-meteo for current conditions. When no
// coordinates are configured it falls back to the ip provider's approximate
// location.
type WeatherProvider struct {
	interval time.Duration
	cfg      config.WeatherConfig
	ip       *IPProvider
	client   *http.Client
	url      string
}

type openMeteoResponse struct {
	CurrentWeather struct {
		Temperature float64 `json:"temperature"`
		WindSpeed   float64 `json:"windspeed"`
		WeatherCode int     `json:"weathercode"`
		IsDay       int     `json:"is_day"`
	} `json:"current_weather"`
}

func NewWeatherProvider(interval time.Duration, cfg config.WeatherConfig, ip *IPProvider) *WeatherProvider {
	return &WeatherProvider{
		interval: interval,
		cfg:      cfg,
		ip:       ip,
		client:   &http.Client{Timeout: 10 * time.Second},
		url:      defaultOpenMeteoURL,
	}
}

func (p *WeatherProvider) Name() string { return "weather" }

func (p *WeatherProvider) RefreshInterval() time.Duration { return p.interval }

func (p *WeatherProvider) Refresh(ctx context.Context) (map[string]interface{}, error) {
	latitude, longitude, err := p.coordinates(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{
		"temperature_unit": {"celsius"},
		"latitude":         {strconv.FormatFloat(latitude, 'f', -1, 64)},
		"longitude":        {strconv.FormatFloat(longitude, 'f', -1, 64)},
		"current_weather":  {"true"},
		"timezone":         {"auto"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather query returned status %d", resp.StatusCode)
	}

	var decoded openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}

	current := decoded.CurrentWeather
	isDaytime := current.IsDay == 1
	celsius := current.Temperature
	fahrenheit := celsius*9/5 + 32

	temp := celsius
	if p.cfg.Unit == "fahrenheit" {
		temp = fahrenheit
	}

	return map[string]interface{}{
		"is_daytime":      isDaytime,
		"status":          weatherStatus(current.WeatherCode, isDaytime),
		"celsius_temp":    celsius,
		"fahrenheit_temp": fahrenheit,
		"temp":            temp,
		"wind_speed":      current.WindSpeed,
	}, nil
}

func (p *WeatherProvider) coordinates(ctx context.Context) (float64, float64, error) {
	if p.cfg.Latitude != nil && p.cfg.Longitude != nil {
		return *p.cfg.Latitude, *p.cfg.Longitude, nil
	}

	info, err := p.ip.query(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("no coordinates configured and ip lookup failed: %w", err)
	}
	return info.latitude, info.longitude, nil
}

// weatherStatus maps a WMO weather code to a display status. Codes are
// documented at https://open-meteo.com/en/docs#weathervariables.
func weatherStatus(code int, isDaytime bool) string {
	var base string
	switch {
	case code == 0:
		base = "clear"
	case code <= 50:
		base = "cloudy"
	case code <= 62:
		base = "light_rain"
	case code <= 70:
		base = "heavy_rain"
	case code <= 79:
		base = "snow"
	case code <= 84:
		base = "heavy_rain"
	case code <= 94:
		base = "snow"
	default:
		base = "thunder"
	}

	if isDaytime {
		return base + "_day"
	}
	return base + "_night"
}
