package render

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

type WeatherDay struct {
	Date              time.Time
	Summary           string
	MinC              float64
	MaxC              float64
	PrecipProbability float64
	WindKph           float64
}

type WeatherCard struct {
	Place string
	Days  []WeatherDay
}

func (c WeatherCard) HTML() (template.HTML, error) {
	if len(c.Days) == 0 {
		return "", nil
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "weather", c); err != nil {
		return "", fmt.Errorf("render weather card: %w", err)
	}
	return template.HTML(buf.String()), nil
}
