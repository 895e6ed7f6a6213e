package services

import (
	"context"
	"fmt"

	"safetrack/internal/models"
	"safetrack/internal/repositories/interfaces"
	"safetrack/internal/utils"
	"safetrack/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EmergencyService interface {
	Trigger(ctx context.Context, userID primitive.ObjectID, kind models.EmergencyType, message string, location models.Location) (*models.Emergency, error)
	Resolve(ctx context.Context, id, resolvedBy primitive.ObjectID, status models.EmergencyStatus, notes string) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Emergency, error)
	GetActive(ctx context.Context) ([]*models.Emergency, error)
	GetByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Emergency, int64, error)
}

type emergencyService struct {
	emergencyRepo       interfaces.EmergencyRepository
	employeeRepo        interfaces.EmployeeRepository
	notificationService NotificationService
	logger              *logger.Logger
}

func NewEmergencyService(
	emergencyRepo interfaces.EmergencyRepository,
	employeeRepo interfaces.EmployeeRepository,
	notificationService NotificationService,
	logger *logger.Logger,
) EmergencyService {
	return &emergencyService{
		emergencyRepo:       emergencyRepo,
		employeeRepo:        employeeRepo,
		notificationService: notificationService,
		logger:              logger,
	}
}

func (s *emergencyService) Trigger(ctx context.Context, userID primitive.ObjectID, kind models.EmergencyType, message string, location models.Location) (*models.Emergency, error) {
	employee, err := s.employeeRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve employee for emergency: %w", err)
	}

	emergency := &models.Emergency{
		UserID:   userID,
		UserName: employee.Name,
		Role:     employee.Role,
		Type:     kind,
		Message:  message,
		Location: location,
	}

	if err := s.emergencyRepo.Create(ctx, emergency); err != nil {
		return nil, err
	}

	s.logger.LogEmergencyEvent(emergency.ID, userID, "high", map[string]interface{}{
		"kind": string(kind),
	})

	payload := models.EmergencyPayload{
		EmergencyID: emergency.ID,
		UserID:      userID,
		UserName:    employee.Name,
		Kind:        kind,
		Location:    location,
	}

	title := fmt.Sprintf("Emergency: %s", employee.Name)
	body := message
	if body == "" {
		body = fmt.Sprintf("%s reported a %s emergency", employee.Name, kind)
	}

	if err := s.notificationService.NotifyAdmins(ctx, title, body, payload); err != nil {
		s.logger.WithUserID(userID).WithError(err).Error("Failed to notify admins of emergency")
	}

	smsBody := fmt.Sprintf("SafeTrack alert: %s may need help (%s). Last known position: %.5f, %.5f",
		employee.Name, kind, location.Latitude(), location.Longitude())
	if err := s.notificationService.NotifyEmergencyContacts(ctx, employee, smsBody); err != nil {
		s.logger.WithUserID(userID).WithError(err).Error("Failed to reach emergency contacts")
	}

	return emergency, nil
}

func (s *emergencyService) Resolve(ctx context.Context, id, resolvedBy primitive.ObjectID, status models.EmergencyStatus, notes string) error {
	if status != models.EmergencyStatusResolved && status != models.EmergencyStatusFalse {
		return fmt.Errorf("invalid resolution status: %s", status)
	}

	return s.emergencyRepo.Resolve(ctx, id, resolvedBy, status, notes)
}

func (s *emergencyService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Emergency, error) {
	return s.emergencyRepo.GetByID(ctx, id)
}

func (s *emergencyService) GetActive(ctx context.Context) ([]*models.Emergency, error) {
	return s.emergencyRepo.GetActive(ctx)
}

func (s *emergencyService) GetByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Emergency, int64, error) {
	return s.emergencyRepo.GetByUser(ctx, userID, params)
}
