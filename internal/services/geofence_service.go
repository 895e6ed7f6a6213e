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

// GeofenceService evaluates position reports against circular fences
// and reacts to enter/exit transitions. Containment is tracked per
// (user, geofence) pair so a stream of inside positions produces exactly
// one entry event.
type GeofenceService interface {
	CreateGeofence(ctx context.Context, geofence *models.Geofence) error
	GetGeofence(ctx context.Context, id primitive.ObjectID) (*models.Geofence, error)
	UpdateGeofence(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	DeleteGeofence(ctx context.Context, id primitive.ObjectID) error
	ListGeofences(ctx context.Context, params *utils.PaginationParams) ([]*models.Geofence, int64, error)

	// EvaluateLocation checks one position report against every fence
	// visible to the user and returns the transitions it produced.
	EvaluateLocation(ctx context.Context, userID primitive.ObjectID, location models.Location) ([]*models.GeofenceEvent, error)

	GetUserEvents(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.GeofenceEvent, int64, error)
	GetGeofenceEvents(ctx context.Context, geofenceID primitive.ObjectID, params *utils.PaginationParams) ([]*models.GeofenceEvent, int64, error)
}

type geofenceService struct {
	geofenceRepo        interfaces.GeofenceRepository
	employeeRepo        interfaces.EmployeeRepository
	journeyService      JourneyService
	notificationService NotificationService
	cache               Cache
	logger              *logger.Logger
}

func NewGeofenceService(
	geofenceRepo interfaces.GeofenceRepository,
	employeeRepo interfaces.EmployeeRepository,
	journeyService JourneyService,
	notificationService NotificationService,
	redisCache Cache,
	logger *logger.Logger,
) GeofenceService {
	return &geofenceService{
		geofenceRepo:        geofenceRepo,
		employeeRepo:        employeeRepo,
		journeyService:      journeyService,
		notificationService: notificationService,
		cache:               redisCache,
		logger:              logger,
	}
}

func (s *geofenceService) CreateGeofence(ctx context.Context, geofence *models.Geofence) error {
	if geofence.RadiusMeters <= 0 {
		return fmt.Errorf("geofence radius must be positive")
	}
	if geofence.Center.IsZero() {
		return fmt.Errorf("geofence center is required")
	}

	// An employee has at most one home fence; registering a new one
	// replaces the previous registration.
	if geofence.Type == models.GeofenceTypeHome && geofence.OwnerID != nil {
		homes, err := s.geofenceRepo.GetByType(ctx, models.GeofenceTypeHome)
		if err != nil {
			return fmt.Errorf("failed to check existing home geofence: %w", err)
		}
		for _, existing := range homes {
			if existing.OwnerID != nil && *existing.OwnerID == *geofence.OwnerID {
				if err := s.geofenceRepo.Delete(ctx, existing.ID); err != nil {
					return fmt.Errorf("failed to replace home geofence: %w", err)
				}
			}
		}
	}

	return s.geofenceRepo.Create(ctx, geofence)
}

func (s *geofenceService) GetGeofence(ctx context.Context, id primitive.ObjectID) (*models.Geofence, error) {
	return s.geofenceRepo.GetByID(ctx, id)
}

func (s *geofenceService) UpdateGeofence(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return s.geofenceRepo.Update(ctx, id, updates)
}

func (s *geofenceService) DeleteGeofence(ctx context.Context, id primitive.ObjectID) error {
	return s.geofenceRepo.Delete(ctx, id)
}

func (s *geofenceService) ListGeofences(ctx context.Context, params *utils.PaginationParams) ([]*models.Geofence, int64, error) {
	return s.geofenceRepo.List(ctx, params)
}

func (s *geofenceService) EvaluateLocation(ctx context.Context, userID primitive.ObjectID, location models.Location) ([]*models.GeofenceEvent, error) {
	geofences, err := s.geofenceRepo.GetActiveForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load geofences for evaluation: %w", err)
	}

	var events []*models.GeofenceEvent
	for _, geofence := range geofences {
		event, err := s.evaluateOne(ctx, userID, geofence, location)
		if err != nil {
			s.logger.WithUserID(userID).WithGeofenceID(geofence.ID).WithError(err).
				Error("Geofence evaluation failed")
			continue
		}
		if event != nil {
			events = append(events, event)
		}
	}

	return events, nil
}

func (s *geofenceService) evaluateOne(ctx context.Context, userID primitive.ObjectID, geofence *models.Geofence, location models.Location) (*models.GeofenceEvent, error) {
	inside := utils.IsWithinRadius(
		geofence.Center.Latitude(), geofence.Center.Longitude(),
		location.Latitude(), location.Longitude(),
		geofence.RadiusMeters,
	)

	current := models.ContainmentOutside
	if inside {
		current = models.ContainmentInside
	}

	previous, err := s.getContainment(ctx, userID, geofence.ID)
	if err != nil {
		return nil, err
	}

	if previous == current {
		return nil, nil
	}

	if err := s.setContainment(ctx, userID, geofence.ID, current); err != nil {
		return nil, err
	}

	// A first observation outside only seeds the state. First observed
	// inside still counts as an entry: the user may already be at the
	// fence when their first report arrives.
	if previous == models.ContainmentUnknown && current == models.ContainmentOutside {
		return nil, nil
	}

	eventType := models.GeofenceEventExit
	if current == models.ContainmentInside {
		eventType = models.GeofenceEventEnter
	}

	event := &models.GeofenceEvent{
		GeofenceID:   geofence.ID,
		GeofenceName: geofence.Name,
		GeofenceType: geofence.Type,
		UserID:       userID,
		Type:         eventType,
		Location:     location,
	}

	s.logger.LogGeofenceEvent(userID, geofence.ID, string(eventType), map[string]interface{}{
		"geofence_type": string(geofence.Type),
		"geofence_name": geofence.Name,
	})

	s.reactToTransition(ctx, event)

	if err := s.geofenceRepo.CreateEvent(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}

// reactToTransition applies the per-type side effects of a transition.
// Failures here are logged, never propagated: the transition itself is
// already recorded.
func (s *geofenceService) reactToTransition(ctx context.Context, event *models.GeofenceEvent) {
	employee, err := s.employeeRepo.GetByID(ctx, event.UserID)
	if err != nil {
		s.logger.WithUserID(event.UserID).WithError(err).Error("Failed to load employee for transition")
		return
	}

	payload := models.GeofenceTransitionPayload{
		UserID:       event.UserID,
		UserName:     employee.Name,
		GeofenceID:   event.GeofenceID,
		GeofenceName: event.GeofenceName,
		GeofenceType: event.GeofenceType,
		Event:        event.Type,
		Location:     event.Location,
	}

	notified := false
	switch {
	case event.GeofenceType == models.GeofenceTypePickupPoint && event.Type == models.GeofenceEventEnter:
		s.updateStatus(ctx, event.UserID, models.EmployeeStatusInTransit)

		title := "Employee at pickup point"
		body := fmt.Sprintf("%s reached %s", employee.Name, event.GeofenceName)
		s.notify(ctx, event, s.notificationService.NotifyDrivers(ctx, title, body, payload))
		s.notify(ctx, event, s.notificationService.NotifyAdmins(ctx, title, body, payload))
		notified = true

	case event.GeofenceType == models.GeofenceTypeHome && event.Type == models.GeofenceEventEnter:
		if err := s.employeeRepo.RecordArrival(ctx, event.UserID, &event.Location); err != nil {
			s.logger.WithUserID(event.UserID).WithError(err).Warn("Failed to record home arrival")
		}

		// Close out the safety journey if one is running.
		if _, err := s.journeyService.ConfirmArrival(ctx, event.UserID, event.Location); err != nil {
			s.logger.WithUserID(event.UserID).Debugf("No journey to close on home entry: %v", err)
		}

		title := "Arrived home"
		body := fmt.Sprintf("%s arrived home safely", employee.Name)
		s.notify(ctx, event, s.notificationService.NotifyAdmins(ctx, title, body, payload))
		smsBody := fmt.Sprintf("SafeTrack: %s arrived home safely.", employee.Name)
		s.notify(ctx, event, s.notificationService.NotifyEmergencyContacts(ctx, employee, smsBody))
		notified = true

	case event.GeofenceType == models.GeofenceTypeOffice && event.Type == models.GeofenceEventEnter:
		s.updateStatus(ctx, event.UserID, models.EmployeeStatusAtOffice)

		title := "Arrived at office"
		body := fmt.Sprintf("%s arrived at the office", employee.Name)
		s.notify(ctx, event, s.notificationService.NotifyAdmins(ctx, title, body, payload))
		notified = true

	case event.GeofenceType == models.GeofenceTypeOffice && event.Type == models.GeofenceEventExit:
		// Leaving the office starts the homeward safety journey, which
		// announces itself to admins and emergency contacts.
		if _, err := s.journeyService.Start(ctx, event.UserID, 0); err != nil {
			s.logger.WithUserID(event.UserID).Debugf("Journey not started on office exit: %v", err)
		} else {
			notified = true
		}

	case event.GeofenceType == models.GeofenceTypeEmergencyZone && event.Type == models.GeofenceEventEnter:
		title := "Employee in emergency zone"
		body := fmt.Sprintf("%s entered %s", employee.Name, event.GeofenceName)
		s.notify(ctx, event, s.notificationService.NotifyAdmins(ctx, title, body, payload))
		notified = true
	}

	event.NotificationSent = notified
}

func (s *geofenceService) notify(ctx context.Context, event *models.GeofenceEvent, err error) {
	if err != nil {
		s.logger.WithUserID(event.UserID).WithGeofenceID(event.GeofenceID).WithError(err).
			Error("Failed to deliver transition notification")
	}
}

func (s *geofenceService) updateStatus(ctx context.Context, userID primitive.ObjectID, status models.EmployeeStatus) {
	if err := s.employeeRepo.UpdateStatus(ctx, userID, status); err != nil {
		s.logger.WithUserID(userID).WithError(err).Warn("Failed to update employee status")
	}
}

func (s *geofenceService) getContainment(ctx context.Context, userID, geofenceID primitive.ObjectID) (models.ContainmentState, error) {
	cacheKey := fmt.Sprintf(utils.CacheKeyContainment, userID.Hex(), geofenceID.Hex())
	if cached, err := s.cache.GetString(ctx, cacheKey); err == nil && cached != "" {
		return models.ContainmentState(cached), nil
	}

	state, err := s.geofenceRepo.GetContainment(ctx, userID, geofenceID)
	if err != nil {
		return models.ContainmentUnknown, err
	}

	return state, nil
}

func (s *geofenceService) setContainment(ctx context.Context, userID, geofenceID primitive.ObjectID, state models.ContainmentState) error {
	if err := s.geofenceRepo.SetContainment(ctx, userID, geofenceID, state); err != nil {
		return err
	}

	cacheKey := fmt.Sprintf(utils.CacheKeyContainment, userID.Hex(), geofenceID.Hex())
	if err := s.cache.SetString(ctx, cacheKey, string(state), 0); err != nil {
		s.logger.WithUserID(userID).WithError(err).Warn("Failed to cache containment state")
	}

	return nil
}

func (s *geofenceService) GetUserEvents(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.GeofenceEvent, int64, error) {
	return s.geofenceRepo.GetEventsByUser(ctx, userID, params)
}

func (s *geofenceService) GetGeofenceEvents(ctx context.Context, geofenceID primitive.ObjectID, params *utils.PaginationParams) ([]*models.GeofenceEvent, int64, error) {
	return s.geofenceRepo.GetEventsByGeofence(ctx, geofenceID, params)
}
