package mongodb

import (
	"context"
	"fmt"
	"time"

	"safetrack/internal/models"
	"safetrack/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type locationRepository struct {
	collection *mongo.Collection
}

func NewLocationRepository(db *mongo.Database) interfaces.LocationRepository {
	return &locationRepository{
		collection: db.Collection("location_updates"),
	}
}

func (r *locationRepository) Create(ctx context.Context, update *models.LocationUpdate) error {
	update.ID = primitive.NewObjectID()
	if update.RecordedAt.IsZero() {
		update.RecordedAt = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, update)
	if err != nil {
		return fmt.Errorf("failed to create location update: %w", err)
	}

	return nil
}

func (r *locationRepository) GetLatestByUser(ctx context.Context, userID primitive.ObjectID) (*models.LocationUpdate, error) {
	var update models.LocationUpdate
	err := r.collection.FindOne(
		ctx,
		bson.M{"user_id": userID},
		options.FindOne().SetSort(bson.D{{Key: "recorded_at", Value: -1}}),
	).Decode(&update)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("no location recorded for user")
		}
		return nil, fmt.Errorf("failed to get latest location: %w", err)
	}

	return &update, nil
}

func (r *locationRepository) GetByUserSince(ctx context.Context, userID primitive.ObjectID, since time.Time) ([]*models.LocationUpdate, error) {
	cursor, err := r.collection.Find(
		ctx,
		bson.M{
			"user_id":     userID,
			"recorded_at": bson.M{"$gte": since},
		},
		options.Find().SetSort(bson.D{{Key: "recorded_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find location updates: %w", err)
	}
	defer cursor.Close(ctx)

	var updates []*models.LocationUpdate
	for cursor.Next(ctx) {
		var update models.LocationUpdate
		if err := cursor.Decode(&update); err != nil {
			return nil, fmt.Errorf("failed to decode location update: %w", err)
		}
		updates = append(updates, &update)
	}

	return updates, nil
}

func (r *locationRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{
		"recorded_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete old location updates: %w", err)
	}

	return result.DeletedCount, nil
}
