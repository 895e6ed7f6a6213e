package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmergencyType string
type EmergencyStatus string

const (
	EmergencyTypeSOS        EmergencyType = "sos"
	EmergencyTypeNoResponse EmergencyType = "no_response"
	EmergencyTypeSafety     EmergencyType = "safety"
	EmergencyTypeBreakdown  EmergencyType = "breakdown"
	EmergencyTypeMedical    EmergencyType = "medical"

	EmergencyStatusActive   EmergencyStatus = "active"
	EmergencyStatusResolved EmergencyStatus = "resolved"
	EmergencyStatusFalse    EmergencyStatus = "false_alarm"
)

type Emergency struct {
	ID         primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	UserID     primitive.ObjectID  `json:"user_id" bson:"user_id" validate:"required"`
	UserName   string              `json:"user_name" bson:"user_name"`
	Role       EmployeeRole        `json:"role" bson:"role"`
	Type       EmergencyType       `json:"type" bson:"type" validate:"required"`
	Status     EmergencyStatus     `json:"status" bson:"status" default:"active"`
	Message    string              `json:"message" bson:"message"`
	Location   Location            `json:"location" bson:"location"`
	ResolvedBy *primitive.ObjectID `json:"resolved_by" bson:"resolved_by"`
	Notes      string              `json:"notes" bson:"notes"`
	CreatedAt  time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at" bson:"updated_at"`
	ResolvedAt *time.Time          `json:"resolved_at" bson:"resolved_at"`
}
