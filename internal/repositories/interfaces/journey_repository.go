package interfaces

import (
	"context"

	"safetrack/internal/models"
	"safetrack/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type JourneyRepository interface {
	Create(ctx context.Context, journey *models.JourneyTracker) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.JourneyTracker, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	// GetActiveByUser returns the user's single active journey, or a
	// not-found error when none is running.
	GetActiveByUser(ctx context.Context, userID primitive.ObjectID) (*models.JourneyTracker, error)
	GetAllActive(ctx context.Context) ([]*models.JourneyTracker, error)
	GetByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.JourneyTracker, int64, error)

	IncrementReminders(ctx context.Context, id primitive.ObjectID) (*models.JourneyTracker, error)
}
