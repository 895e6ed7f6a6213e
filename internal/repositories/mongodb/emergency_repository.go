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

type emergencyRepository struct {
	collection *mongo.Collection
}

func NewEmergencyRepository(db *mongo.Database) interfaces.EmergencyRepository {
	return &emergencyRepository{
		collection: db.Collection("emergencies"),
	}
}

func (r *emergencyRepository) Create(ctx context.Context, emergency *models.Emergency) error {
	emergency.ID = primitive.NewObjectID()
	emergency.CreatedAt = time.Now()
	emergency.UpdatedAt = time.Now()
	if emergency.Status == "" {
		emergency.Status = models.EmergencyStatusActive
	}

	_, err := r.collection.InsertOne(ctx, emergency)
	if err != nil {
		return fmt.Errorf("failed to create emergency: %w", err)
	}

	return nil
}

func (r *emergencyRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Emergency, error) {
	var emergency models.Emergency
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&emergency)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("emergency not found")
		}
		return nil, fmt.Errorf("failed to get emergency: %w", err)
	}

	return &emergency, nil
}

func (r *emergencyRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update emergency: %w", err)
	}

	return nil
}

func (r *emergencyRepository) GetActive(ctx context.Context) ([]*models.Emergency, error) {
	cursor, err := r.collection.Find(
		ctx,
		bson.M{"status": models.EmergencyStatusActive},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find active emergencies: %w", err)
	}
	defer cursor.Close(ctx)

	var emergencies []*models.Emergency
	for cursor.Next(ctx) {
		var emergency models.Emergency
		if err := cursor.Decode(&emergency); err != nil {
			return nil, fmt.Errorf("failed to decode emergency: %w", err)
		}
		emergencies = append(emergencies, &emergency)
	}

	return emergencies, nil
}

func (r *emergencyRepository) GetByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Emergency, int64, error) {
	filter := bson.M{"user_id": userID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count emergencies: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find emergencies: %w", err)
	}
	defer cursor.Close(ctx)

	var emergencies []*models.Emergency
	for cursor.Next(ctx) {
		var emergency models.Emergency
		if err := cursor.Decode(&emergency); err != nil {
			return nil, 0, fmt.Errorf("failed to decode emergency: %w", err)
		}
		emergencies = append(emergencies, &emergency)
	}

	return emergencies, total, nil
}

func (r *emergencyRepository) Resolve(ctx context.Context, id, resolvedBy primitive.ObjectID, status models.EmergencyStatus, notes string) error {
	now := time.Now()
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":      status,
			"resolved_by": resolvedBy,
			"notes":       notes,
			"resolved_at": now,
			"updated_at":  now,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to resolve emergency: %w", err)
	}

	return nil
}
