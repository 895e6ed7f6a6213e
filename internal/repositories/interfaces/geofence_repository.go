package interfaces

import (
	"context"

	"safetrack/internal/models"
	"safetrack/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GeofenceRepository interface {
	Create(ctx context.Context, geofence *models.Geofence) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Geofence, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.Geofence, int64, error)

	// GetActiveForUser returns the geofences a position report must be
	// evaluated against: every shared fence plus the user's own.
	GetActiveForUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Geofence, error)
	GetByType(ctx context.Context, geofenceType models.GeofenceType) ([]*models.Geofence, error)

	GetContainment(ctx context.Context, userID, geofenceID primitive.ObjectID) (models.ContainmentState, error)
	SetContainment(ctx context.Context, userID, geofenceID primitive.ObjectID, state models.ContainmentState) error

	CreateEvent(ctx context.Context, event *models.GeofenceEvent) error
	GetEventsByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.GeofenceEvent, int64, error)
	GetEventsByGeofence(ctx context.Context, geofenceID primitive.ObjectID, params *utils.PaginationParams) ([]*models.GeofenceEvent, int64, error)
}
