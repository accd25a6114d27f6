package sidecar

import (
	"context"

	"golf-concierge-be/internal/pkg/logger"
	"golf-concierge-be/pkg/render"
)

const moduleName = "Sidecar"

// Sidecar turns a free-text query into a small weather card for the place it
// mentions.
type Sidecar struct {
	geocoder   Geocoder
	forecaster Forecaster
	logger     logger.ILogger
}

func NewSidecar(geocoder Geocoder, forecaster Forecaster, log logger.ILogger) *Sidecar {
	return &Sidecar{geocoder: geocoder, forecaster: forecaster, logger: log}
}

// Render returns the card HTML, or "" when the query names no place or any
// lookup fails.
func (s *Sidecar) Render(ctx context.Context, query string) string {
	place, ok := ExtractPlace(query)
	if !ok {
		return ""
	}

	loc, err := s.geocoder.Geocode(ctx, place)
	if err != nil {
		s.logger.Warn(moduleName, "Geocode failed", map[string]interface{}{
			"place": place,
			"error": err.Error(),
		})
		return ""
	}

	days, err := s.forecaster.Forecast(ctx, loc.Latitude, loc.Longitude, ForecastDays)
	if err != nil {
		s.logger.Warn(moduleName, "Forecast failed", map[string]interface{}{
			"place": loc.Name,
			"error": err.Error(),
		})
		return ""
	}

	html, err := render.WeatherCard{Place: loc.Name, Days: days}.HTML()
	if err != nil {
		s.logger.Error(moduleName, "Render weather card failed", map[string]interface{}{
			"error": err.Error(),
		})
		return ""
	}
	return string(html)
}
