package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GeofenceType string
type GeofenceEventType string
type ContainmentState string

const (
	GeofenceTypePickupPoint   GeofenceType = "pickup_point"
	GeofenceTypeHome          GeofenceType = "home"
	GeofenceTypeOffice        GeofenceType = "office"
	GeofenceTypeEmergencyZone GeofenceType = "emergency_zone"

	GeofenceEventEnter GeofenceEventType = "enter"
	GeofenceEventExit  GeofenceEventType = "exit"

	ContainmentUnknown ContainmentState = "unknown"
	ContainmentInside  ContainmentState = "inside"
	ContainmentOutside ContainmentState = "outside"
)

type Geofence struct {
	ID           primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Name         string              `json:"name" bson:"name" validate:"required"`
	Type         GeofenceType        `json:"type" bson:"type" validate:"required"`
	Center       Location            `json:"center" bson:"center" validate:"required"`
	RadiusMeters float64             `json:"radius_meters" bson:"radius_meters" validate:"required,gt=0"`
	OwnerID      *primitive.ObjectID `json:"owner_id" bson:"owner_id"`
	IsActive     bool                `json:"is_active" bson:"is_active" default:"true"`
	CreatedAt    time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at" bson:"updated_at"`
}

// Shared reports whether the geofence is visible to every employee
// rather than owned by a single user.
func (g *Geofence) Shared() bool {
	return g.OwnerID == nil
}

// GeofenceState is the current containment of one user for one geofence.
// Transitions are derived by comparing a fresh evaluation against this
// record, never by scanning the event log.
type GeofenceState struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID     primitive.ObjectID `json:"user_id" bson:"user_id"`
	GeofenceID primitive.ObjectID `json:"geofence_id" bson:"geofence_id"`
	State      ContainmentState   `json:"state" bson:"state"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}

// GeofenceEvent is one enter/exit transition. Records are append-only;
// current containment lives on the (user, geofence) association, not here.
type GeofenceEvent struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	GeofenceID       primitive.ObjectID `json:"geofence_id" bson:"geofence_id" validate:"required"`
	GeofenceName     string             `json:"geofence_name" bson:"geofence_name"`
	GeofenceType     GeofenceType       `json:"geofence_type" bson:"geofence_type"`
	UserID           primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	Type             GeofenceEventType  `json:"type" bson:"type" validate:"required"`
	Location         Location           `json:"location" bson:"location"`
	NotificationSent bool               `json:"notification_sent" bson:"notification_sent"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
}
