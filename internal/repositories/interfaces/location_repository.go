package interfaces

import (
	"context"
	"time"

	"safetrack/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LocationRepository interface {
	Create(ctx context.Context, update *models.LocationUpdate) error
	GetLatestByUser(ctx context.Context, userID primitive.ObjectID) (*models.LocationUpdate, error)
	GetByUserSince(ctx context.Context, userID primitive.ObjectID, since time.Time) ([]*models.LocationUpdate, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
