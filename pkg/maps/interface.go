package maps

import (
	"context"
	"time"
)

type MapsProvider interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
	GetETA(ctx context.Context, origin, destination Location) (*ETAResult, error)
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ETAResult carries the drive estimate between two points. TrafficDelay
// is the excess of the live-traffic estimate over the baseline; zero
// when traffic data is unavailable.
type ETAResult struct {
	DistanceMeters float64       `json:"distance_meters"`
	Duration       time.Duration `json:"duration"`
	TrafficDelay   time.Duration `json:"traffic_delay"`
}
