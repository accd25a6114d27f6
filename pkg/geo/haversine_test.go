package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKm(t *testing.T) {
	// St Andrews to Pebble Beach
	d := DistanceKm(56.3398, -2.7967, 36.5725, -121.9486)
	assert.InDelta(t, 8205, d, 10)

	assert.InDelta(t, 0, DistanceKm(35.19, -79.47, 35.19, -79.47), 1e-9)
}

func TestBoundingBoxContainsRadius(t *testing.T) {
	minLat, maxLat, minLon, maxLon := BoundingBox(35.19, -79.47, 80)
	assert.Less(t, minLat, 35.19)
	assert.Greater(t, maxLat, 35.19)
	assert.InDelta(t, 80, DistanceKm(35.19, -79.47, maxLat, -79.47), 0.5)
	assert.GreaterOrEqual(t, DistanceKm(35.19, -79.47, 35.19, maxLon), 79.5)
	assert.Less(t, minLon, -79.47)
}
