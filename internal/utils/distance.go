package utils

import (
	"math"
)

// EarthRadiusMeters is the spherical-earth approximation used for all
// great-circle math.
const EarthRadiusMeters = 6371000.0

// CalculateDistance returns the great-circle distance in meters between
// two coordinates.
func CalculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	return haversineDistance(lat1, lon1, lat2, lon2)
}

func haversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// IsWithinRadius reports containment in a circular region. The boundary
// is inclusive: a point exactly radiusMeters away counts as inside.
func IsWithinRadius(centerLat, centerLon, pointLat, pointLon, radiusMeters float64) bool {
	return CalculateDistance(centerLat, centerLon, pointLat, pointLon) <= radiusMeters
}

// EstimateETAMinutes gives a crude ETA from distance and average speed,
// used only as a fallback when no Maps client is configured.
func EstimateETAMinutes(distanceMeters, averageSpeedKMH float64) int {
	if averageSpeedKMH <= 0 {
		averageSpeedKMH = 30
	}
	timeHours := (distanceMeters / 1000) / averageSpeedKMH
	return int(math.Ceil(timeHours * 60))
}
