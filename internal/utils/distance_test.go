package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateDistance_SamePoint(t *testing.T) {
	d := CalculateDistance(-6.2088, 106.8456, -6.2088, 106.8456)
	assert.Equal(t, 0.0, d)
}

func TestCalculateDistance_KnownSeparation(t *testing.T) {
	// one degree of latitude is ~111 km
	d := CalculateDistance(0, 0, 1, 0)
	assert.InDelta(t, 111195, d, 200)
}

func TestIsWithinRadius_Boundary(t *testing.T) {
	lat, lon := 0.0, 0.0
	// ~133 m north of the center
	pLat, pLon := 0.0012, 0.0
	d := CalculateDistance(lat, lon, pLat, pLon)

	assert.True(t, IsWithinRadius(lat, lon, pLat, pLon, d+1))
	assert.True(t, IsWithinRadius(lat, lon, pLat, pLon, d), "boundary is inclusive")
	assert.False(t, IsWithinRadius(lat, lon, pLat, pLon, d-1))
}

func TestEstimateETAMinutes(t *testing.T) {
	// 30 km at 30 km/h is an hour
	assert.Equal(t, 60, EstimateETAMinutes(30000, 30))
	// zero speed falls back to the city default
	assert.Equal(t, 60, EstimateETAMinutes(30000, 0))
}
