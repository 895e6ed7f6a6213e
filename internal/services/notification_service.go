package services

import (
	"context"
	"fmt"
	"time"

	"safetrack/internal/models"
	"safetrack/internal/repositories/interfaces"
	"safetrack/internal/utils"
	"safetrack/pkg/logger"
	"safetrack/pkg/push"
	"safetrack/pkg/sms"
	"safetrack/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationService fans one payload out to push tokens, the live
// websocket feed and, for emergency contacts, SMS. Delivery failures are
// retried with backoff and recorded per recipient.
type NotificationService interface {
	NotifyUser(ctx context.Context, userID primitive.ObjectID, title, message string, payload models.NotificationPayload) error
	NotifyAdmins(ctx context.Context, title, message string, payload models.NotificationPayload) error
	NotifyDrivers(ctx context.Context, title, message string, payload models.NotificationPayload) error
	NotifyEmergencyContacts(ctx context.Context, employee *models.Employee, message string) error
	NotifyRoute(ctx context.Context, route *models.ShuttleRoute, title, message string, payload models.NotificationPayload) error
	GetUserNotifications(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Notification, int64, error)

	RegisterDeviceToken(ctx context.Context, userID primitive.ObjectID, token models.DeviceToken) error
	UnregisterDeviceToken(ctx context.Context, userID primitive.ObjectID, token string) error
}

type notificationService struct {
	notificationRepo interfaces.NotificationRepository
	employeeRepo     interfaces.EmployeeRepository
	fcmProvider      push.PushProvider
	apnsProvider     push.PushProvider
	smsProvider      sms.SMSProvider
	wsHub            *websocket.Hub
	logger           *logger.Logger
}

func NewNotificationService(
	notificationRepo interfaces.NotificationRepository,
	employeeRepo interfaces.EmployeeRepository,
	fcmProvider push.PushProvider,
	apnsProvider push.PushProvider,
	smsProvider sms.SMSProvider,
	wsHub *websocket.Hub,
	logger *logger.Logger,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		employeeRepo:     employeeRepo,
		fcmProvider:      fcmProvider,
		apnsProvider:     apnsProvider,
		smsProvider:      smsProvider,
		wsHub:            wsHub,
		logger:           logger,
	}
}

func (s *notificationService) NotifyUser(ctx context.Context, userID primitive.ObjectID, title, message string, payload models.NotificationPayload) error {
	employee, err := s.employeeRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to resolve notification recipient: %w", err)
	}

	return s.deliver(ctx, employee, title, message, payload)
}

func (s *notificationService) NotifyAdmins(ctx context.Context, title, message string, payload models.NotificationPayload) error {
	return s.notifyRole(ctx, models.RoleAdmin, title, message, payload)
}

func (s *notificationService) NotifyDrivers(ctx context.Context, title, message string, payload models.NotificationPayload) error {
	return s.notifyRole(ctx, models.RoleDriver, title, message, payload)
}

func (s *notificationService) notifyRole(ctx context.Context, role models.EmployeeRole, title, message string, payload models.NotificationPayload) error {
	recipients, err := s.employeeRepo.GetActiveByRole(ctx, role)
	if err != nil {
		return fmt.Errorf("failed to resolve %s recipients: %w", role, err)
	}

	var lastErr error
	for _, recipient := range recipients {
		if err := s.deliver(ctx, recipient, title, message, payload); err != nil {
			lastErr = err
		}
	}

	return lastErr
}

// NotifyEmergencyContacts reaches outside the app: contacts have no
// device tokens, so delivery is SMS only.
func (s *notificationService) NotifyEmergencyContacts(ctx context.Context, employee *models.Employee, message string) error {
	if len(employee.EmergencyContacts) == 0 {
		s.logger.WithUserID(employee.ID).Warn("No emergency contacts configured")
		return nil
	}

	var lastErr error
	for _, contact := range employee.EmergencyContacts {
		request := &sms.SMSRequest{
			To:      contact.Phone,
			Message: message,
			Type:    "alert",
		}

		err := utils.Retry(ctx, utils.RetryAttempts, utils.RetryBaseDelay, func() error {
			_, sendErr := s.smsProvider.SendSMS(ctx, request)
			return sendErr
		})
		if err != nil {
			s.logger.WithUserID(employee.ID).WithError(err).
				Errorf("Failed to reach emergency contact %s", contact.Name)
			lastErr = err
		}
	}

	return lastErr
}

func (s *notificationService) NotifyRoute(ctx context.Context, route *models.ShuttleRoute, title, message string, payload models.NotificationPayload) error {
	s.wsHub.SendRouteUpdate(route.ID, websocket.Message{
		Type:      string(payload.NotificationType()),
		Timestamp: time.Now().Unix(),
		Data:      toWSData(payload.Data()),
	})

	var lastErr error
	if err := s.NotifyUser(ctx, route.DriverID, title, message, payload); err != nil {
		lastErr = err
	}
	for _, passengerID := range route.PassengerIDs {
		if err := s.NotifyUser(ctx, passengerID, title, message, payload); err != nil {
			lastErr = err
		}
	}
	if err := s.NotifyAdmins(ctx, title, message, payload); err != nil {
		lastErr = err
	}

	return lastErr
}

func (s *notificationService) GetUserNotifications(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Notification, int64, error) {
	return s.notificationRepo.GetByUser(ctx, userID, params)
}

func (s *notificationService) RegisterDeviceToken(ctx context.Context, userID primitive.ObjectID, token models.DeviceToken) error {
	if token.Token == "" {
		return fmt.Errorf("device token is required")
	}
	if token.Platform == "" {
		token.Platform = "fcm"
	}
	return s.employeeRepo.AddDeviceToken(ctx, userID, token)
}

func (s *notificationService) UnregisterDeviceToken(ctx context.Context, userID primitive.ObjectID, token string) error {
	return s.employeeRepo.RemoveDeviceToken(ctx, userID, token)
}

func (s *notificationService) deliver(ctx context.Context, employee *models.Employee, title, message string, payload models.NotificationPayload) error {
	notification := &models.Notification{
		UserID:  employee.ID,
		Type:    payload.NotificationType(),
		Title:   title,
		Message: message,
		Data:    payload.Data(),
	}

	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return err
	}

	s.wsHub.SendToUser(employee.ID, websocket.Message{
		Type:      string(payload.NotificationType()),
		UserID:    employee.ID,
		Timestamp: time.Now().Unix(),
		Data:      toWSData(payload.Data()),
	})

	if len(employee.DeviceTokens) == 0 {
		// Websocket delivery alone still counts as sent.
		return s.notificationRepo.MarkSent(ctx, notification.ID)
	}

	pushErr := s.sendPush(ctx, employee, title, message, payload)
	if pushErr != nil {
		if err := s.notificationRepo.MarkFailed(ctx, notification.ID); err != nil {
			s.logger.WithError(err).Error("Failed to record notification failure")
		}
		return pushErr
	}

	return s.notificationRepo.MarkSent(ctx, notification.ID)
}

func (s *notificationService) sendPush(ctx context.Context, employee *models.Employee, title, message string, payload models.NotificationPayload) error {
	var lastErr error
	for _, token := range employee.DeviceTokens {
		provider := s.providerFor(token.Platform)
		if provider == nil {
			s.logger.WithUserID(employee.ID).
				Warnf("No push provider for platform %s", token.Platform)
			continue
		}

		request := &push.NotificationRequest{
			Token:    token.Token,
			Title:    title,
			Body:     message,
			Data:     payload.Data(),
			Priority: "high",
		}

		err := utils.Retry(ctx, utils.RetryAttempts, utils.RetryBaseDelay, func() error {
			_, sendErr := provider.SendNotification(ctx, request)
			return sendErr
		})
		if err != nil {
			s.logger.WithUserID(employee.ID).WithError(err).
				Errorf("Push delivery failed on %s", token.Platform)
			lastErr = err
		}
	}

	return lastErr
}

func (s *notificationService) providerFor(platform string) push.PushProvider {
	switch platform {
	case "apns":
		return s.apnsProvider
	default:
		return s.fcmProvider
	}
}

func toWSData(data map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
