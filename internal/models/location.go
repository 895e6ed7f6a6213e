package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Location struct {
	Type        string    `json:"type" bson:"type" default:"Point"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates" validate:"required,len=2"`
	Accuracy    float64   `json:"accuracy,omitempty" bson:"accuracy,omitempty"`
	Address     string    `json:"address,omitempty" bson:"address,omitempty"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
}

func NewLocation(lat, lng float64) Location {
	return Location{
		Type:        "Point",
		Coordinates: []float64{lng, lat},
		Timestamp:   time.Now(),
	}
}

func (l Location) Latitude() float64 {
	if len(l.Coordinates) >= 2 {
		return l.Coordinates[1]
	}
	return 0
}

func (l Location) Longitude() float64 {
	if len(l.Coordinates) >= 1 {
		return l.Coordinates[0]
	}
	return 0
}

func (l Location) IsZero() bool {
	return len(l.Coordinates) < 2 || (l.Coordinates[0] == 0 && l.Coordinates[1] == 0)
}

// LocationUpdate is one recorded position report from a device.
type LocationUpdate struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID     primitive.ObjectID `json:"user_id" bson:"user_id" validate:"required"`
	Location   Location           `json:"location" bson:"location" validate:"required"`
	RecordedAt time.Time          `json:"recorded_at" bson:"recorded_at"`
}
