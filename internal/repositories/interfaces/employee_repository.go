package interfaces

import (
	"context"

	"safetrack/internal/models"
	"safetrack/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmployeeRepository interface {
	Create(ctx context.Context, employee *models.Employee) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Employee, error)
	GetByEmail(ctx context.Context, email string) (*models.Employee, error)
	Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, params *utils.PaginationParams) ([]*models.Employee, int64, error)

	GetActiveByRole(ctx context.Context, role models.EmployeeRole) ([]*models.Employee, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.EmployeeStatus) error
	RecordArrival(ctx context.Context, id primitive.ObjectID, location *models.Location) error

	AddDeviceToken(ctx context.Context, id primitive.ObjectID, token models.DeviceToken) error
	RemoveDeviceToken(ctx context.Context, id primitive.ObjectID, token string) error
}
