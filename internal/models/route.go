package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RouteStatus string
type RouteAlertType string
type AlertSeverity string

const (
	RouteStatusScheduled  RouteStatus = "scheduled"
	RouteStatusInProgress RouteStatus = "in_progress"
	RouteStatusDelayed    RouteStatus = "delayed"
	RouteStatusCompleted  RouteStatus = "completed"
	RouteStatusCancelled  RouteStatus = "cancelled"

	RouteAlertDelay           RouteAlertType = "delay"
	RouteAlertBreakdown       RouteAlertType = "breakdown"
	RouteAlertEmergency       RouteAlertType = "emergency"
	RouteAlertTraffic         RouteAlertType = "traffic"
	RouteAlertLocationTimeout RouteAlertType = "location_timeout"

	SeverityLow    AlertSeverity = "low"
	SeverityMedium AlertSeverity = "medium"
	SeverityHigh   AlertSeverity = "high"
)

// Terminal reports whether the route has reached a final state.
func (s RouteStatus) Terminal() bool {
	return s == RouteStatusCompleted || s == RouteStatusCancelled
}

// ShuttleRoute is one monitored driver trip.
type ShuttleRoute struct {
	ID               primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Name             string               `json:"name" bson:"name"`
	DriverID         primitive.ObjectID   `json:"driver_id" bson:"driver_id" validate:"required"`
	DriverName       string               `json:"driver_name" bson:"driver_name"`
	PassengerIDs     []primitive.ObjectID `json:"passenger_ids" bson:"passenger_ids"`
	ScheduledStart   time.Time            `json:"scheduled_start" bson:"scheduled_start" validate:"required"`
	ActualStart      *time.Time           `json:"actual_start" bson:"actual_start"`
	EstimatedArrival time.Time            `json:"estimated_arrival" bson:"estimated_arrival" validate:"required"`
	Destination      *Location            `json:"destination" bson:"destination"`
	LastLocation     *Location            `json:"last_location" bson:"last_location"`
	LastLocationAt   *time.Time           `json:"last_location_at" bson:"last_location_at"`
	Status           RouteStatus          `json:"status" bson:"status" default:"scheduled"`
	DelayMinutes     int                  `json:"delay_minutes" bson:"delay_minutes"`
	DelayReason      string               `json:"delay_reason" bson:"delay_reason"`
	MonitoringActive bool                 `json:"monitoring_active" bson:"monitoring_active"`
	CompletedAt      *time.Time           `json:"completed_at" bson:"completed_at"`
	CreatedAt        time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at" bson:"updated_at"`
}

// RouteAlert is an append-only record of a delay, breakdown, traffic or
// location-timeout event on a route. Only the resolved flag is mutated
// after creation.
type RouteAlert struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RouteID      primitive.ObjectID `json:"route_id" bson:"route_id" validate:"required"`
	Type         RouteAlertType     `json:"type" bson:"type" validate:"required"`
	Severity     AlertSeverity      `json:"severity" bson:"severity"`
	Message      string             `json:"message" bson:"message"`
	DelayMinutes int                `json:"delay_minutes" bson:"delay_minutes"`
	Resolved     bool               `json:"resolved" bson:"resolved"`
	ResolvedAt   *time.Time         `json:"resolved_at" bson:"resolved_at"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
}
