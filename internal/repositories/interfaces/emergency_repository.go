package interfaces

import (
	"context"

	"safetrack/internal/models"
	"safetrack/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmergencyRepository interface {
	Create(ctx context.Context, emergency *models.Emergency) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Emergency, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error

	GetActive(ctx context.Context) ([]*models.Emergency, error)
	GetByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Emergency, int64, error)
	Resolve(ctx context.Context, id, resolvedBy primitive.ObjectID, status models.EmergencyStatus, notes string) error
}
