package models

import (
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string
type NotificationStatus string

const (
	NotificationTypeCheckInReminder  NotificationType = "check_in_reminder"
	NotificationTypeJourneyStarted   NotificationType = "journey_started"
	NotificationTypeJourneyEscalated NotificationType = "journey_escalated"
	NotificationTypeSafeArrival      NotificationType = "safe_arrival"
	NotificationTypeGeofenceEntry    NotificationType = "geofence_entry"
	NotificationTypeGeofenceExit     NotificationType = "geofence_exit"
	NotificationTypeRouteDelay       NotificationType = "route_delay"
	NotificationTypeRouteCompleted   NotificationType = "route_completed"
	NotificationTypeRouteCancelled   NotificationType = "route_cancelled"
	NotificationTypeLocationTimeout  NotificationType = "location_timeout"
	NotificationTypeTrafficDelay     NotificationType = "traffic_delay"
	NotificationTypeEmergency        NotificationType = "emergency"

	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Recipient roles resolvable by the dispatcher, alongside explicit user ids.
const (
	RecipientAdmins            = "admins"
	RecipientDrivers           = "drivers"
	RecipientEmergencyContacts = "emergency_contacts"
)

type Notification struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	Type      NotificationType   `json:"type" bson:"type" validate:"required"`
	Status    NotificationStatus `json:"status" bson:"status" default:"pending"`
	Title     string             `json:"title" bson:"title" validate:"required"`
	Message   string             `json:"message" bson:"message" validate:"required"`
	Data      map[string]string  `json:"data" bson:"data"`
	Priority  int                `json:"priority" bson:"priority" default:"0"`
	SentAt    *time.Time         `json:"sent_at" bson:"sent_at"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// NotificationPayload is one concrete notification variant. Each variant
// carries only the fields relevant to its type and flattens itself into
// the string map the push providers expect.
type NotificationPayload interface {
	NotificationType() NotificationType
	Data() map[string]string
}

type CheckInReminderPayload struct {
	UserID        primitive.ObjectID
	UserName      string
	ReminderCount int
	MaxReminders  int
}

func (p CheckInReminderPayload) NotificationType() NotificationType {
	return NotificationTypeCheckInReminder
}

func (p CheckInReminderPayload) Data() map[string]string {
	return map[string]string{
		"user_id":        p.UserID.Hex(),
		"reminder_count": strconv.Itoa(p.ReminderCount),
		"max_reminders":  strconv.Itoa(p.MaxReminders),
	}
}

type JourneyStartedPayload struct {
	UserID   primitive.ObjectID
	UserName string
	Location Location
}

func (p JourneyStartedPayload) NotificationType() NotificationType {
	return NotificationTypeJourneyStarted
}

func (p JourneyStartedPayload) Data() map[string]string {
	return locationData(p.Location, map[string]string{"user_id": p.UserID.Hex()})
}

type JourneyEscalatedPayload struct {
	UserID      primitive.ObjectID
	UserName    string
	EmergencyID primitive.ObjectID
	Location    Location
}

func (p JourneyEscalatedPayload) NotificationType() NotificationType {
	return NotificationTypeJourneyEscalated
}

func (p JourneyEscalatedPayload) Data() map[string]string {
	return locationData(p.Location, map[string]string{
		"user_id":      p.UserID.Hex(),
		"emergency_id": p.EmergencyID.Hex(),
	})
}

type SafeArrivalPayload struct {
	UserID   primitive.ObjectID
	UserName string
	Duration time.Duration
	Location Location
}

func (p SafeArrivalPayload) NotificationType() NotificationType {
	return NotificationTypeSafeArrival
}

func (p SafeArrivalPayload) Data() map[string]string {
	return locationData(p.Location, map[string]string{
		"user_id":          p.UserID.Hex(),
		"duration_minutes": strconv.Itoa(int(p.Duration.Minutes())),
	})
}

type GeofenceTransitionPayload struct {
	UserID       primitive.ObjectID
	UserName     string
	GeofenceID   primitive.ObjectID
	GeofenceName string
	GeofenceType GeofenceType
	Event        GeofenceEventType
	Location     Location
}

func (p GeofenceTransitionPayload) NotificationType() NotificationType {
	if p.Event == GeofenceEventExit {
		return NotificationTypeGeofenceExit
	}
	return NotificationTypeGeofenceEntry
}

func (p GeofenceTransitionPayload) Data() map[string]string {
	return locationData(p.Location, map[string]string{
		"user_id":       p.UserID.Hex(),
		"geofence_id":   p.GeofenceID.Hex(),
		"geofence_type": string(p.GeofenceType),
		"event":         string(p.Event),
	})
}

type RouteAlertPayload struct {
	RouteID      primitive.ObjectID
	RouteName    string
	DriverName   string
	AlertType    RouteAlertType
	Severity     AlertSeverity
	DelayMinutes int
	Reason       string
}

func (p RouteAlertPayload) NotificationType() NotificationType {
	switch p.AlertType {
	case RouteAlertTraffic:
		return NotificationTypeTrafficDelay
	case RouteAlertLocationTimeout:
		return NotificationTypeLocationTimeout
	default:
		return NotificationTypeRouteDelay
	}
}

func (p RouteAlertPayload) Data() map[string]string {
	return map[string]string{
		"route_id":      p.RouteID.Hex(),
		"alert_type":    string(p.AlertType),
		"severity":      string(p.Severity),
		"delay_minutes": strconv.Itoa(p.DelayMinutes),
		"reason":        p.Reason,
	}
}

type RouteStatusPayload struct {
	RouteID   primitive.ObjectID
	RouteName string
	Status    RouteStatus
	Reason    string
}

func (p RouteStatusPayload) NotificationType() NotificationType {
	if p.Status == RouteStatusCancelled {
		return NotificationTypeRouteCancelled
	}
	return NotificationTypeRouteCompleted
}

func (p RouteStatusPayload) Data() map[string]string {
	return map[string]string{
		"route_id": p.RouteID.Hex(),
		"status":   string(p.Status),
		"reason":   p.Reason,
	}
}

type EmergencyPayload struct {
	EmergencyID primitive.ObjectID
	UserID      primitive.ObjectID
	UserName    string
	Kind        EmergencyType
	Location    Location
}

func (p EmergencyPayload) NotificationType() NotificationType {
	return NotificationTypeEmergency
}

func (p EmergencyPayload) Data() map[string]string {
	return locationData(p.Location, map[string]string{
		"emergency_id": p.EmergencyID.Hex(),
		"user_id":      p.UserID.Hex(),
		"kind":         string(p.Kind),
	})
}

func locationData(loc Location, data map[string]string) map[string]string {
	if !loc.IsZero() {
		data["latitude"] = strconv.FormatFloat(loc.Latitude(), 'f', 6, 64)
		data["longitude"] = strconv.FormatFloat(loc.Longitude(), 'f', 6, 64)
	}
	return data
}
