package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

type GoogleMapsProvider struct {
	client *maps.Client
}

func NewGoogleMapsProvider(apiKey string) (*GoogleMapsProvider, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return &GoogleMapsProvider{
		client: client,
	}, nil
}

func (g *GoogleMapsProvider) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	req := &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: lat, Lng: lng},
	}

	resp, err := g.client.ReverseGeocode(ctx, req)
	if err != nil {
		return "", fmt.Errorf("reverse geocoding failed: %w", err)
	}
	if len(resp) == 0 {
		return "", fmt.Errorf("no address found for %f,%f", lat, lng)
	}

	return resp[0].FormattedAddress, nil
}

// GetETA asks the Directions API for a live-traffic estimate. The
// traffic delay is duration_in_traffic minus the baseline duration,
// clamped at zero.
func (g *GoogleMapsProvider) GetETA(ctx context.Context, origin, destination Location) (*ETAResult, error) {
	req := &maps.DirectionsRequest{
		Origin:        fmt.Sprintf("%f,%f", origin.Latitude, origin.Longitude),
		Destination:   fmt.Sprintf("%f,%f", destination.Latitude, destination.Longitude),
		Mode:          maps.TravelModeDriving,
		DepartureTime: "now",
		TrafficModel:  maps.TrafficModelBestGuess,
	}

	routes, _, err := g.client.Directions(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("directions request failed: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return nil, fmt.Errorf("no route between %v and %v", origin, destination)
	}

	leg := routes[0].Legs[0]
	result := &ETAResult{
		DistanceMeters: float64(leg.Distance.Meters),
		Duration:       leg.Duration,
	}

	if leg.DurationInTraffic > leg.Duration {
		result.TrafficDelay = leg.DurationInTraffic - leg.Duration
	}

	return result, nil
}
