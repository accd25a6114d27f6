package geo

import "math"

const EarthRadiusKm = 6371.0

// DistanceKm is the great-circle distance between two WGS84 points.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusKm * 2 * math.Asin(math.Min(1, math.Sqrt(a)))
}

// BoundingBox returns the lat/lon extremes of a circle, used to prefilter
// before the exact distance check.
func BoundingBox(lat, lon, radiusKm float64) (minLat, maxLat, minLon, maxLon float64) {
	dLat := radiusKm / EarthRadiusKm * 180 / math.Pi
	minLat, maxLat = math.Max(-90, lat-dLat), math.Min(90, lat+dLat)

	cos := math.Cos(radians(lat))
	if cos < 1e-6 || maxLat == 90 || minLat == -90 {
		return minLat, maxLat, -180, 180
	}
	dLon := dLat / cos
	return minLat, maxLat, math.Max(-180, lon-dLon), math.Min(180, lon+dLon)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
