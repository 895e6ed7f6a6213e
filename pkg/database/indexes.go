package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the monitoring collections rely on.
// Safe to run on every startup; Mongo treats existing indexes as no-ops.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		"employees": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		},
		"geofences": {
			{Keys: bson.D{{Key: "type", Value: 1}, {Key: "is_active", Value: 1}}},
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "type", Value: 1}}},
			{Keys: bson.D{{Key: "center", Value: "2dsphere"}}},
		},
		"geofence_events": {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "geofence_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(int32((90 * 24 * time.Hour).Seconds()))},
		},
		"journeys": {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_active", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "started_at", Value: -1}}},
		},
		"routes": {
			{Keys: bson.D{{Key: "driver_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "updated_at", Value: -1}}},
		},
		"route_alerts": {
			{Keys: bson.D{{Key: "route_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "resolved", Value: 1}}},
		},
		"emergencies": {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		"notifications": {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		"location_updates": {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "recorded_at", Value: -1}}},
			{Keys: bson.D{{Key: "recorded_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(int32((30 * 24 * time.Hour).Seconds()))},
		},
	}

	for collection, models := range specs {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes for %s: %w", collection, err)
		}
	}

	return nil
}
