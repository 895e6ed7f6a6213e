package services

import (
	"context"
	"fmt"
	"time"

	"safetrack/internal/models"
	"safetrack/internal/repositories/interfaces"
	"safetrack/internal/scheduler"
	"safetrack/internal/utils"
	"safetrack/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JourneyService tracks one employee per journey from departure to
// confirmed arrival. A missed check-in window sends a reminder; when the
// reminder budget is exhausted the journey escalates to an emergency.
type JourneyService interface {
	Start(ctx context.Context, userID primitive.ObjectID, expectedDuration time.Duration) (*models.JourneyTracker, error)
	CheckIn(ctx context.Context, userID primitive.ObjectID) (*models.JourneyTracker, error)
	ConfirmArrival(ctx context.Context, userID primitive.ObjectID, location models.Location) (*models.JourneyTracker, error)
	Stop(ctx context.Context, userID primitive.ObjectID) error
	GetActive(ctx context.Context, userID primitive.ObjectID) (*models.JourneyTracker, error)
	ListActive(ctx context.Context) ([]*models.JourneyTracker, error)
	History(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.JourneyTracker, int64, error)

	// Resume reschedules reminders for journeys that were active when
	// the process last stopped.
	Resume(ctx context.Context) error
}

type JourneyConfig struct {
	FirstReminderDelay time.Duration
	ReminderInterval   time.Duration
	MaxReminders       int
}

func DefaultJourneyConfig() JourneyConfig {
	return JourneyConfig{
		FirstReminderDelay: utils.DefaultFirstReminderDelay,
		ReminderInterval:   utils.DefaultReminderInterval,
		MaxReminders:       utils.DefaultMaxReminders,
	}
}

type journeyService struct {
	journeyRepo         interfaces.JourneyRepository
	employeeRepo        interfaces.EmployeeRepository
	emergencyService    EmergencyService
	notificationService NotificationService
	locationService     LocationService
	scheduler           scheduler.Scheduler
	clock               scheduler.Clock
	config              JourneyConfig
	logger              *logger.Logger
}

func NewJourneyService(
	journeyRepo interfaces.JourneyRepository,
	employeeRepo interfaces.EmployeeRepository,
	emergencyService EmergencyService,
	notificationService NotificationService,
	locationService LocationService,
	sched scheduler.Scheduler,
	clock scheduler.Clock,
	config JourneyConfig,
	logger *logger.Logger,
) JourneyService {
	if clock == nil {
		clock = scheduler.RealClock()
	}
	return &journeyService{
		journeyRepo:         journeyRepo,
		employeeRepo:        employeeRepo,
		emergencyService:    emergencyService,
		notificationService: notificationService,
		locationService:     locationService,
		scheduler:           sched,
		clock:               clock,
		config:              config,
		logger:              logger,
	}
}

func (s *journeyService) Start(ctx context.Context, userID primitive.ObjectID, expectedDuration time.Duration) (*models.JourneyTracker, error) {
	if existing, err := s.journeyRepo.GetActiveByUser(ctx, userID); err == nil && existing != nil {
		return nil, fmt.Errorf("user already has an active journey")
	}

	employee, err := s.employeeRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve employee for journey: %w", err)
	}

	journey := &models.JourneyTracker{
		UserID:           userID,
		UserName:         employee.Name,
		StartedAt:        s.clock.Now(),
		ExpectedDuration: expectedDuration,
		MaxReminders:     s.config.MaxReminders,
	}

	if err := s.journeyRepo.Create(ctx, journey); err != nil {
		return nil, err
	}

	if err := s.employeeRepo.UpdateStatus(ctx, userID, models.EmployeeStatusOnJourney); err != nil {
		s.logger.WithUserID(userID).WithError(err).Warn("Failed to update employee status")
	}

	s.scheduleReminder(journey.ID, s.config.FirstReminderDelay)

	s.logger.LogJourneyEvent(journey.ID, userID, "started", map[string]interface{}{
		"expected_duration": expectedDuration.String(),
	})

	location := models.Location{}
	if current, err := s.locationService.Current(ctx, userID); err == nil {
		location = current.Location
	}

	payload := models.JourneyStartedPayload{
		UserID:   userID,
		UserName: employee.Name,
		Location: location,
	}
	title := "Journey started"
	body := fmt.Sprintf("%s started a safety journey", employee.Name)
	if err := s.notificationService.NotifyAdmins(ctx, title, body, payload); err != nil {
		s.logger.WithJourneyID(journey.ID).WithError(err).Error("Failed to announce journey start")
	}

	smsBody := fmt.Sprintf("SafeTrack: %s started a journey home.", employee.Name)
	if err := s.notificationService.NotifyEmergencyContacts(ctx, employee, smsBody); err != nil {
		s.logger.WithJourneyID(journey.ID).WithError(err).Error("Failed to notify contacts of journey start")
	}

	return journey, nil
}

// CheckIn resets the reminder budget and restarts the check-in window.
func (s *journeyService) CheckIn(ctx context.Context, userID primitive.ObjectID) (*models.JourneyTracker, error) {
	journey, err := s.journeyRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	updates := map[string]interface{}{
		"last_check_in_at": now,
		"reminders_sent":   0,
	}
	if err := s.journeyRepo.Update(ctx, journey.ID, updates); err != nil {
		return nil, err
	}

	journey.LastCheckInAt = &now
	journey.RemindersSent = 0

	s.scheduleReminder(journey.ID, s.config.FirstReminderDelay)

	s.logger.LogJourneyEvent(journey.ID, userID, "check_in", nil)

	return journey, nil
}

func (s *journeyService) ConfirmArrival(ctx context.Context, userID primitive.ObjectID, location models.Location) (*models.JourneyTracker, error) {
	journey, err := s.journeyRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	updates := map[string]interface{}{
		"status":       models.JourneyStatusArrived,
		"is_active":    false,
		"completed_at": now,
	}
	if err := s.journeyRepo.Update(ctx, journey.ID, updates); err != nil {
		return nil, err
	}

	journey.Status = models.JourneyStatusArrived
	journey.IsActive = false
	journey.CompletedAt = &now

	s.scheduler.Cancel(journeyKey(journey.ID))

	if err := s.employeeRepo.RecordArrival(ctx, userID, &location); err != nil {
		s.logger.WithUserID(userID).WithError(err).Warn("Failed to record arrival on employee")
	}

	duration := journey.Duration(now)
	s.logger.LogJourneyEvent(journey.ID, userID, "arrived", map[string]interface{}{
		"duration": duration.String(),
	})

	payload := models.SafeArrivalPayload{
		UserID:   userID,
		UserName: journey.UserName,
		Duration: duration,
		Location: location,
	}
	title := "Safe arrival"
	body := fmt.Sprintf("%s arrived safely after %s", journey.UserName, utils.FormatDuration(duration))
	if err := s.notificationService.NotifyAdmins(ctx, title, body, payload); err != nil {
		s.logger.WithJourneyID(journey.ID).WithError(err).Error("Failed to announce arrival")
	}

	if employee, err := s.employeeRepo.GetByID(ctx, userID); err == nil {
		smsBody := fmt.Sprintf("SafeTrack: %s arrived safely after %s.", journey.UserName, utils.FormatDuration(duration))
		if err := s.notificationService.NotifyEmergencyContacts(ctx, employee, smsBody); err != nil {
			s.logger.WithJourneyID(journey.ID).WithError(err).Error("Failed to notify contacts of arrival")
		}
	}

	return journey, nil
}

func (s *journeyService) Stop(ctx context.Context, userID primitive.ObjectID) error {
	journey, err := s.journeyRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		return err
	}

	now := s.clock.Now()
	updates := map[string]interface{}{
		"status":       models.JourneyStatusStopped,
		"is_active":    false,
		"completed_at": now,
	}
	if err := s.journeyRepo.Update(ctx, journey.ID, updates); err != nil {
		return err
	}

	s.scheduler.Cancel(journeyKey(journey.ID))
	s.logger.LogJourneyEvent(journey.ID, userID, "stopped", nil)

	return nil
}

func (s *journeyService) GetActive(ctx context.Context, userID primitive.ObjectID) (*models.JourneyTracker, error) {
	return s.journeyRepo.GetActiveByUser(ctx, userID)
}

func (s *journeyService) ListActive(ctx context.Context) ([]*models.JourneyTracker, error) {
	return s.journeyRepo.GetAllActive(ctx)
}

func (s *journeyService) History(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.JourneyTracker, int64, error) {
	return s.journeyRepo.GetByUser(ctx, userID, params)
}

func (s *journeyService) Resume(ctx context.Context) error {
	journeys, err := s.journeyRepo.GetAllActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active journeys: %w", err)
	}

	for _, journey := range journeys {
		s.scheduleReminder(journey.ID, s.config.FirstReminderDelay)
		s.logger.WithJourneyID(journey.ID).Info("Resumed journey monitoring")
	}

	return nil
}

func (s *journeyService) scheduleReminder(journeyID primitive.ObjectID, delay time.Duration) {
	s.scheduler.Schedule(journeyKey(journeyID), delay, func() {
		s.handleReminder(journeyID)
	})
}

// handleReminder fires when a check-in window elapses without a
// check-in. It sends the next reminder and, once the budget is spent,
// escalates in the same tick.
func (s *journeyService) handleReminder(journeyID primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), utils.NotificationTimeout)
	defer cancel()

	journey, err := s.journeyRepo.IncrementReminders(ctx, journeyID)
	if err != nil {
		s.logger.WithJourneyID(journeyID).WithError(err).Warn("Reminder fired for inactive journey")
		return
	}

	payload := models.CheckInReminderPayload{
		UserID:        journey.UserID,
		UserName:      journey.UserName,
		ReminderCount: journey.RemindersSent,
		MaxReminders:  journey.MaxReminders,
	}
	title := "Check-in reminder"
	body := fmt.Sprintf("Please confirm you are safe (%d/%d)", journey.RemindersSent, journey.MaxReminders)
	if err := s.notificationService.NotifyUser(ctx, journey.UserID, title, body, payload); err != nil {
		s.logger.WithJourneyID(journeyID).WithError(err).Error("Failed to deliver check-in reminder")
	}

	s.logger.LogJourneyEvent(journeyID, journey.UserID, "reminder_sent", map[string]interface{}{
		"reminder_count": journey.RemindersSent,
	})

	if journey.RemindersSent >= journey.MaxReminders {
		s.escalate(ctx, journey)
		return
	}

	s.scheduleReminder(journeyID, s.config.ReminderInterval)
}

func (s *journeyService) escalate(ctx context.Context, journey *models.JourneyTracker) {
	now := s.clock.Now()
	updates := map[string]interface{}{
		"status":       models.JourneyStatusEscalated,
		"is_active":    false,
		"completed_at": now,
	}
	if err := s.journeyRepo.Update(ctx, journey.ID, updates); err != nil {
		s.logger.WithJourneyID(journey.ID).WithError(err).Error("Failed to mark journey escalated")
		return
	}

	location := models.Location{}
	if current, err := s.locationService.Current(ctx, journey.UserID); err == nil {
		location = current.Location
	}

	message := fmt.Sprintf("%s missed %d check-in reminders", journey.UserName, journey.RemindersSent)
	emergency, err := s.emergencyService.Trigger(ctx, journey.UserID, models.EmergencyTypeNoResponse, message, location)
	if err != nil {
		s.logger.WithJourneyID(journey.ID).WithError(err).Error("Failed to raise emergency for journey")
		return
	}

	s.logger.LogJourneyEvent(journey.ID, journey.UserID, "escalated", map[string]interface{}{
		"emergency_id": emergency.ID.Hex(),
	})

	payload := models.JourneyEscalatedPayload{
		UserID:      journey.UserID,
		UserName:    journey.UserName,
		EmergencyID: emergency.ID,
		Location:    location,
	}
	title := "Journey escalated"
	body := fmt.Sprintf("%s has not responded to %d reminders", journey.UserName, journey.RemindersSent)
	if err := s.notificationService.NotifyAdmins(ctx, title, body, payload); err != nil {
		s.logger.WithJourneyID(journey.ID).WithError(err).Error("Failed to announce escalation")
	}
}

func journeyKey(journeyID primitive.ObjectID) string {
	return "journey:" + journeyID.Hex()
}
