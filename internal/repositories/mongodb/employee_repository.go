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
)

type employeeRepository struct {
	collection *mongo.Collection
}

func NewEmployeeRepository(db *mongo.Database) interfaces.EmployeeRepository {
	return &employeeRepository{
		collection: db.Collection("employees"),
	}
}

func (r *employeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	employee.ID = primitive.NewObjectID()
	employee.CreatedAt = time.Now()
	employee.UpdatedAt = time.Now()
	if employee.Status == "" {
		employee.Status = models.EmployeeStatusAtHome
	}
	employee.IsActive = true

	_, err := r.collection.InsertOne(ctx, employee)
	if err != nil {
		return fmt.Errorf("failed to create employee: %w", err)
	}

	return nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Employee, error) {
	var employee models.Employee
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&employee)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("employee not found")
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}

	return &employee, nil
}

func (r *employeeRepository) GetByEmail(ctx context.Context, email string) (*models.Employee, error) {
	var employee models.Employee
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&employee)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("employee not found")
		}
		return nil, fmt.Errorf("failed to get employee by email: %w", err)
	}

	return &employee, nil
}

func (r *employeeRepository) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
	)
	if err != nil {
		return fmt.Errorf("failed to update employee: %w", err)
	}

	return nil
}

func (r *employeeRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_active": false, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}

	return nil
}

func (r *employeeRepository) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Employee, int64, error) {
	filter := bson.M{"is_active": true}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count employees: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find employees: %w", err)
	}
	defer cursor.Close(ctx)

	var employees []*models.Employee
	for cursor.Next(ctx) {
		var employee models.Employee
		if err := cursor.Decode(&employee); err != nil {
			return nil, 0, fmt.Errorf("failed to decode employee: %w", err)
		}
		employees = append(employees, &employee)
	}

	return employees, total, nil
}

func (r *employeeRepository) GetActiveByRole(ctx context.Context, role models.EmployeeRole) ([]*models.Employee, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"role":      role,
		"is_active": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find employees by role: %w", err)
	}
	defer cursor.Close(ctx)

	var employees []*models.Employee
	for cursor.Next(ctx) {
		var employee models.Employee
		if err := cursor.Decode(&employee); err != nil {
			return nil, fmt.Errorf("failed to decode employee: %w", err)
		}
		employees = append(employees, &employee)
	}

	return employees, nil
}

func (r *employeeRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.EmployeeStatus) error {
	return r.Update(ctx, id, map[string]interface{}{"status": status})
}

func (r *employeeRepository) RecordArrival(ctx context.Context, id primitive.ObjectID, location *models.Location) error {
	return r.Update(ctx, id, map[string]interface{}{
		"status":           models.EmployeeStatusArrived,
		"arrival_time":     time.Now(),
		"arrival_location": location,
	})
}

func (r *employeeRepository) AddDeviceToken(ctx context.Context, id primitive.ObjectID, token models.DeviceToken) error {
	// Pull first so a re-registered token is not duplicated.
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$pull": bson.M{"device_tokens": bson.M{"token": token.Token}}},
	)
	if err != nil {
		return fmt.Errorf("failed to deduplicate device token: %w", err)
	}

	_, err = r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"device_tokens": token},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to add device token: %w", err)
	}

	return nil
}

func (r *employeeRepository) RemoveDeviceToken(ctx context.Context, id primitive.ObjectID, token string) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$pull": bson.M{"device_tokens": bson.M{"token": token}},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to remove device token: %w", err)
	}

	return nil
}
