package mongodb

import (
	"context"
	"fmt"
	"time"

	"safetrack/internal/models"
	"safetrack/internal/repositories/interfaces"
	"safetrack/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type geofenceRepository struct {
	collection      *mongo.Collection
	stateCollection *mongo.Collection
	eventCollection *mongo.Collection
}

func NewGeofenceRepository(db *mongo.Database) interfaces.GeofenceRepository {
	return &geofenceRepository{
		collection:      db.Collection("geofences"),
		stateCollection: db.Collection("geofence_states"),
		eventCollection: db.Collection("geofence_events"),
	}
}

func (r *geofenceRepository) Create(ctx context.Context, geofence *models.Geofence) error {
	geofence.ID = primitive.NewObjectID()
	geofence.CreatedAt = time.Now()
	geofence.UpdatedAt = time.Now()
	geofence.IsActive = true

	_, err := r.collection.InsertOne(ctx, geofence)
	if err != nil {
		return fmt.Errorf("failed to create geofence: %w", err)
	}

	return nil
}

func (r *geofenceRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Geofence, error) {
	var geofence models.Geofence
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&geofence)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("geofence not found")
		}
		return nil, fmt.Errorf("failed to get geofence: %w", err)
	}

	return &geofence, nil
}

func (r *geofenceRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update geofence: %w", err)
	}

	return nil
}

func (r *geofenceRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to delete geofence: %w", err)
	}

	return nil
}

func (r *geofenceRepository) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Geofence, int64, error) {
	filter := bson.M{"is_active": true}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count geofences: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find geofences: %w", err)
	}
	defer cursor.Close(ctx)

	geofences, err := decodeGeofences(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}

	return geofences, total, nil
}

func (r *geofenceRepository) GetActiveForUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Geofence, error) {
	filter := bson.M{
		"is_active": true,
		"$or": []bson.M{
			{"owner_id": nil},
			{"owner_id": userID},
		},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find geofences for user: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeGeofences(ctx, cursor)
}

func (r *geofenceRepository) GetByType(ctx context.Context, geofenceType models.GeofenceType) ([]*models.Geofence, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"type":      geofenceType,
		"is_active": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find geofences by type: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeGeofences(ctx, cursor)
}

func (r *geofenceRepository) GetContainment(ctx context.Context, userID, geofenceID primitive.ObjectID) (models.ContainmentState, error) {
	var state models.GeofenceState
	err := r.stateCollection.FindOne(ctx, bson.M{
		"user_id":     userID,
		"geofence_id": geofenceID,
	}).Decode(&state)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.ContainmentUnknown, nil
		}
		return models.ContainmentUnknown, fmt.Errorf("failed to get containment state: %w", err)
	}

	return state.State, nil
}

func (r *geofenceRepository) SetContainment(ctx context.Context, userID, geofenceID primitive.ObjectID, state models.ContainmentState) error {
	_, err := r.stateCollection.UpdateOne(
		ctx,
		bson.M{"user_id": userID, "geofence_id": geofenceID},
		bson.M{"$set": bson.M{
			"state":      state,
			"updated_at": time.Now(),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to set containment state: %w", err)
	}

	return nil
}

func (r *geofenceRepository) CreateEvent(ctx context.Context, event *models.GeofenceEvent) error {
	event.ID = primitive.NewObjectID()
	event.CreatedAt = time.Now()

	_, err := r.eventCollection.InsertOne(ctx, event)
	if err != nil {
		return fmt.Errorf("failed to create geofence event: %w", err)
	}

	return nil
}

func (r *geofenceRepository) GetEventsByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.GeofenceEvent, int64, error) {
	return r.findEvents(ctx, bson.M{"user_id": userID}, params)
}

func (r *geofenceRepository) GetEventsByGeofence(ctx context.Context, geofenceID primitive.ObjectID, params *utils.PaginationParams) ([]*models.GeofenceEvent, int64, error) {
	return r.findEvents(ctx, bson.M{"geofence_id": geofenceID}, params)
}

func (r *geofenceRepository) findEvents(ctx context.Context, filter bson.M, params *utils.PaginationParams) ([]*models.GeofenceEvent, int64, error) {
	total, err := r.eventCollection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count geofence events: %w", err)
	}

	opts := params.GetSortOptions()
	if params.Sort == "" || params.Sort == "created_at" {
		opts.SetSort(bson.D{{Key: "created_at", Value: -1}})
	}

	cursor, err := r.eventCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find geofence events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*models.GeofenceEvent
	for cursor.Next(ctx) {
		var event models.GeofenceEvent
		if err := cursor.Decode(&event); err != nil {
			return nil, 0, fmt.Errorf("failed to decode geofence event: %w", err)
		}
		events = append(events, &event)
	}

	return events, total, nil
}

func decodeGeofences(ctx context.Context, cursor *mongo.Cursor) ([]*models.Geofence, error) {
	var geofences []*models.Geofence
	for cursor.Next(ctx) {
		var geofence models.Geofence
		if err := cursor.Decode(&geofence); err != nil {
			return nil, fmt.Errorf("failed to decode geofence: %w", err)
		}
		geofences = append(geofences, &geofence)
	}

	return geofences, nil
}
