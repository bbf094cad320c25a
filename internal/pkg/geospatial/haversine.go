package geospatial

import "math"

const earthRadiusKm = 6371.0

// HaversineKm calculates the great-circle distance in kilometres between two points.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Envelope returns the square of half-width degrees centred on a point.
func Envelope(lat, lon, degrees float64) (minLat, minLon, maxLat, maxLon float64) {
	return lat - degrees, lon - degrees, lat + degrees, lon + degrees
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
