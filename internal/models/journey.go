package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type JourneyStatus string

const (
	JourneyStatusActive    JourneyStatus = "active"
	JourneyStatusArrived   JourneyStatus = "arrived"
	JourneyStatusEscalated JourneyStatus = "escalated"
	JourneyStatusStopped   JourneyStatus = "stopped"
)

// JourneyTracker follows one employee from departure until confirmed
// arrival, escalating to an emergency alert when check-in reminders go
// unacknowledged.
type JourneyTracker struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID           primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	UserName         string             `json:"user_name" bson:"user_name"`
	Status           JourneyStatus      `json:"status" bson:"status" default:"active"`
	StartedAt        time.Time          `json:"started_at" bson:"started_at"`
	ExpectedDuration time.Duration      `json:"expected_duration" bson:"expected_duration"`
	LastCheckInAt    *time.Time         `json:"last_check_in_at" bson:"last_check_in_at"`
	RemindersSent    int                `json:"reminders_sent" bson:"reminders_sent"`
	MaxReminders     int                `json:"max_reminders" bson:"max_reminders"`
	IsActive         bool               `json:"is_active" bson:"is_active"`
	CompletedAt      *time.Time         `json:"completed_at" bson:"completed_at"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" bson:"updated_at"`
}

func (j *JourneyTracker) Duration(now time.Time) time.Duration {
	if j.CompletedAt != nil {
		return j.CompletedAt.Sub(j.StartedAt)
	}
	return now.Sub(j.StartedAt)
}
