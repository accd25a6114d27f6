package sidecar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"golf-concierge-be/pkg/render"
)

const (
	openMeteoForecastURL = "https://api.open-meteo.com/v1/forecast"
	forecastTTL          = 30 * time.Minute
	ForecastDays         = 3
)

type Forecaster interface {
	Forecast(ctx context.Context, lat, lon float64, days int) ([]render.WeatherDay, error)
}

type OpenMeteoForecaster struct {
	baseURL string
	client  *http.Client
	cache   *cache.Cache
}

func NewOpenMeteoForecaster(baseURL string) *OpenMeteoForecaster {
	if baseURL == "" {
		baseURL = openMeteoForecastURL
	}
	return &OpenMeteoForecaster{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   cache.New(forecastTTL, 10*time.Minute),
	}
}

type openMeteoResponse struct {
	Daily struct {
		Time        []string  `json:"time"`
		WeatherCode []int     `json:"weather_code"`
		TempMax     []float64 `json:"temperature_2m_max"`
		TempMin     []float64 `json:"temperature_2m_min"`
		PrecipProb  []float64 `json:"precipitation_probability_max"`
		WindMax     []float64 `json:"wind_speed_10m_max"`
	} `json:"daily"`
}

func (f *OpenMeteoForecaster) Forecast(ctx context.Context, lat, lon float64, days int) ([]render.WeatherDay, error) {
	if days <= 0 {
		days = ForecastDays
	}
	// Two decimals is about a kilometre, close enough to share a forecast.
	cacheKey := fmt.Sprintf("%.2f:%.2f:%d", lat, lon, days)
	if val, ok := f.cache.Get(cacheKey); ok {
		return val.([]render.WeatherDay), nil
	}

	params := url.Values{}
	params.Add("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	params.Add("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	params.Add("daily", "weather_code,temperature_2m_max,temperature_2m_min,precipitation_probability_max,wind_speed_10m_max")
	params.Add("forecast_days", strconv.Itoa(days))
	params.Add("timezone", "auto")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build forecast request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forecast request: status %d", resp.StatusCode)
	}

	var body openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode forecast response: %w", err)
	}

	d := body.Daily
	out := make([]render.WeatherDay, 0, len(d.Time))
	for i, raw := range d.Time {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			continue
		}
		out = append(out, render.WeatherDay{
			Date:              date,
			Summary:           describeCode(d.WeatherCode, i),
			MinC:              at(d.TempMin, i),
			MaxC:              at(d.TempMax, i),
			PrecipProbability: at(d.PrecipProb, i),
			WindKph:           at(d.WindMax, i),
		})
		if len(out) == days {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("forecast response has no days")
	}

	f.cache.Set(cacheKey, out, cache.DefaultExpiration)
	return out, nil
}

func at(xs []float64, i int) float64 {
	if i < len(xs) {
		return xs[i]
	}
	return 0
}

// describeCode maps the i-th WMO weather code to a short summary.
func describeCode(codes []int, i int) string {
	if i >= len(codes) {
		return "Unknown"
	}
	switch c := codes[i]; {
	case c == 0:
		return "Clear"
	case c <= 2:
		return "Partly cloudy"
	case c == 3:
		return "Overcast"
	case c == 45 || c == 48:
		return "Fog"
	case c >= 51 && c <= 57:
		return "Drizzle"
	case c >= 61 && c <= 67:
		return "Rain"
	case c >= 71 && c <= 77:
		return "Snow"
	case c >= 80 && c <= 82:
		return "Showers"
	case c == 85 || c == 86:
		return "Snow showers"
	case c >= 95:
		return "Thunderstorms"
	default:
		return "Mixed"
	}
}
