package sidecar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"golf-concierge-be/pkg/store"
)

var ErrPlaceNotFound = errors.New("place not found")

const (
	geoapifySearchURL = "https://api.geoapify.com/v1/geocode/search"
	geocodeTTL        = 24 * time.Hour
)

type Geocoder interface {
	Geocode(ctx context.Context, place string) (*store.Location, error)
}

type GeoapifyGeocoder struct {
	apiKey  string
	baseURL string
	client  *http.Client
	cache   *cache.Cache
}

func NewGeoapifyGeocoder(apiKey, baseURL string) *GeoapifyGeocoder {
	if baseURL == "" {
		baseURL = geoapifySearchURL
	}
	return &GeoapifyGeocoder{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   cache.New(geocodeTTL, time.Hour),
	}
}

type geoapifyResponse struct {
	Results []struct {
		Lat       float64 `json:"lat"`
		Lon       float64 `json:"lon"`
		Formatted string  `json:"formatted"`
		City      string  `json:"city"`
	} `json:"results"`
}

func (g *GeoapifyGeocoder) Geocode(ctx context.Context, place string) (*store.Location, error) {
	cacheKey := strings.ToLower(strings.TrimSpace(place))
	if val, ok := g.cache.Get(cacheKey); ok {
		loc := val.(store.Location)
		return &loc, nil
	}

	params := url.Values{}
	params.Add("text", place)
	params.Add("limit", "1")
	params.Add("format", "json")
	params.Add("apiKey", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build geocode request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode request: status %d", resp.StatusCode)
	}

	var body geoapifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(body.Results) == 0 {
		return nil, ErrPlaceNotFound
	}

	r := body.Results[0]
	name := r.Formatted
	if name == "" {
		name = place
	}
	loc := store.Location{Name: name, Latitude: r.Lat, Longitude: r.Lon, HasCoords: true}
	g.cache.Set(cacheKey, loc, cache.DefaultExpiration)
	return &loc, nil
}
