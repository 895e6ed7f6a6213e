package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmployeeRole string
type EmployeeStatus string

const (
	RoleEmployee EmployeeRole = "employee"
	RoleDriver   EmployeeRole = "driver"
	RoleAdmin    EmployeeRole = "admin"

	EmployeeStatusAtHome    EmployeeStatus = "at_home"
	EmployeeStatusInTransit EmployeeStatus = "in_transit"
	EmployeeStatusAtOffice  EmployeeStatus = "at_office"
	EmployeeStatusOnJourney EmployeeStatus = "on_journey"
	EmployeeStatusArrived   EmployeeStatus = "arrived"
)

type Employee struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name              string             `json:"name" bson:"name" validate:"required"`
	Email             string             `json:"email" bson:"email" validate:"required,email"`
	Phone             string             `json:"phone" bson:"phone"`
	Role              EmployeeRole       `json:"role" bson:"role" validate:"required"`
	Status            EmployeeStatus     `json:"status" bson:"status" default:"at_home"`
	DeviceTokens      []DeviceToken      `json:"device_tokens" bson:"device_tokens"`
	EmergencyContacts []EmergencyContact `json:"emergency_contacts" bson:"emergency_contacts"`
	ArrivalTime       *time.Time         `json:"arrival_time" bson:"arrival_time"`
	ArrivalLocation   *Location          `json:"arrival_location" bson:"arrival_location"`
	IsActive          bool               `json:"is_active" bson:"is_active" default:"true"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" bson:"updated_at"`
}

type DeviceToken struct {
	Token    string `json:"token" bson:"token"`
	Platform string `json:"platform" bson:"platform"` // fcm, apns
}

type EmergencyContact struct {
	Name     string `json:"name" bson:"name"`
	Phone    string `json:"phone" bson:"phone"`
	Relation string `json:"relation" bson:"relation"`
}
