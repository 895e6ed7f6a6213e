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

type journeyRepository struct {
	collection *mongo.Collection
}

func NewJourneyRepository(db *mongo.Database) interfaces.JourneyRepository {
	return &journeyRepository{
		collection: db.Collection("journeys"),
	}
}

func (r *journeyRepository) Create(ctx context.Context, journey *models.JourneyTracker) error {
	journey.ID = primitive.NewObjectID()
	journey.CreatedAt = time.Now()
	journey.UpdatedAt = time.Now()
	if journey.Status == "" {
		journey.Status = models.JourneyStatusActive
	}
	journey.IsActive = true

	_, err := r.collection.InsertOne(ctx, journey)
	if err != nil {
		return fmt.Errorf("failed to create journey: %w", err)
	}

	return nil
}

func (r *journeyRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.JourneyTracker, error) {
	var journey models.JourneyTracker
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&journey)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("journey not found")
		}
		return nil, fmt.Errorf("failed to get journey: %w", err)
	}

	return &journey, nil
}

func (r *journeyRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update journey: %w", err)
	}

	return nil
}

func (r *journeyRepository) GetActiveByUser(ctx context.Context, userID primitive.ObjectID) (*models.JourneyTracker, error) {
	var journey models.JourneyTracker
	err := r.collection.FindOne(
		ctx,
		bson.M{"user_id": userID, "is_active": true},
		options.FindOne().SetSort(bson.D{{Key: "started_at", Value: -1}}),
	).Decode(&journey)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("no active journey for user")
		}
		return nil, fmt.Errorf("failed to get active journey: %w", err)
	}

	return &journey, nil
}

func (r *journeyRepository) GetAllActive(ctx context.Context) ([]*models.JourneyTracker, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"is_active": true})
	if err != nil {
		return nil, fmt.Errorf("failed to find active journeys: %w", err)
	}
	defer cursor.Close(ctx)

	var journeys []*models.JourneyTracker
	for cursor.Next(ctx) {
		var journey models.JourneyTracker
		if err := cursor.Decode(&journey); err != nil {
			return nil, fmt.Errorf("failed to decode journey: %w", err)
		}
		journeys = append(journeys, &journey)
	}

	return journeys, nil
}

func (r *journeyRepository) GetByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.JourneyTracker, int64, error) {
	filter := bson.M{"user_id": userID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count journeys: %w", err)
	}

	opts := params.GetSortOptions()
	if params.Sort == "" || params.Sort == "created_at" {
		opts.SetSort(bson.D{{Key: "started_at", Value: -1}})
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find journeys: %w", err)
	}
	defer cursor.Close(ctx)

	var journeys []*models.JourneyTracker
	for cursor.Next(ctx) {
		var journey models.JourneyTracker
		if err := cursor.Decode(&journey); err != nil {
			return nil, 0, fmt.Errorf("failed to decode journey: %w", err)
		}
		journeys = append(journeys, &journey)
	}

	return journeys, total, nil
}

// IncrementReminders bumps the reminder counter atomically and returns
// the journey as it stands after the bump, so concurrent ticks cannot
// double-count toward escalation.
func (r *journeyRepository) IncrementReminders(ctx context.Context, id primitive.ObjectID) (*models.JourneyTracker, error) {
	var journey models.JourneyTracker
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id, "is_active": true},
		bson.M{
			"$inc": bson.M{"reminders_sent": 1},
			"$set": bson.M{"updated_at": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&journey)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("no active journey to remind")
		}
		return nil, fmt.Errorf("failed to increment reminders: %w", err)
	}

	return &journey, nil
}
