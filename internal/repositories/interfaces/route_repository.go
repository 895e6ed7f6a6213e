package interfaces

import (
	"context"
	"time"

	"safetrack/internal/models"
	"safetrack/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RouteRepository interface {
	Create(ctx context.Context, route *models.ShuttleRoute) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.ShuttleRoute, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.ShuttleRoute, int64, error)

	GetMonitored(ctx context.Context) ([]*models.ShuttleRoute, error)
	GetByDriver(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.ShuttleRoute, int64, error)
	UpdateLocation(ctx context.Context, id primitive.ObjectID, location *models.Location, at time.Time) error
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)

	CreateAlert(ctx context.Context, alert *models.RouteAlert) error
	GetAlertsByRoute(ctx context.Context, routeID primitive.ObjectID) ([]*models.RouteAlert, error)
	GetUnresolvedAlerts(ctx context.Context, params *utils.PaginationParams) ([]*models.RouteAlert, int64, error)
	ResolveAlert(ctx context.Context, alertID primitive.ObjectID) error
	ResolveAlertsByRoute(ctx context.Context, routeID primitive.ObjectID) error
}
