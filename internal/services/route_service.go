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
	"safetrack/pkg/maps"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	routeCheckKey   = "routes:check"
	routeCleanupKey = "routes:cleanup"
)

// RouteService watches every monitored shuttle route on a fixed cadence:
// late starts, stale driver positions and overruns past the estimated
// arrival each raise a severity-graded alert.
type RouteService interface {
	CreateRoute(ctx context.Context, route *models.ShuttleRoute) error
	GetRoute(ctx context.Context, id primitive.ObjectID) (*models.ShuttleRoute, error)
	ListRoutes(ctx context.Context, params *utils.PaginationParams) ([]*models.ShuttleRoute, int64, error)
	GetDriverRoutes(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.ShuttleRoute, int64, error)

	StartRoute(ctx context.Context, id primitive.ObjectID) error
	CompleteRoute(ctx context.Context, id primitive.ObjectID) error
	CancelRoute(ctx context.Context, id primitive.ObjectID, reason string) error
	ReportDelay(ctx context.Context, id primitive.ObjectID, delayMinutes int, reason string) error
	ReportLocation(ctx context.Context, id primitive.ObjectID, lat, lng float64) error

	// ReportDriverLocation feeds a raw driver position into whichever of
	// the driver's routes are currently monitored.
	ReportDriverLocation(ctx context.Context, driverID primitive.ObjectID, lat, lng float64) error

	GetRouteAlerts(ctx context.Context, routeID primitive.ObjectID) ([]*models.RouteAlert, error)
	GetUnresolvedAlerts(ctx context.Context, params *utils.PaginationParams) ([]*models.RouteAlert, int64, error)
	ResolveAlert(ctx context.Context, alertID primitive.ObjectID) error

	// StartMonitoring registers the periodic check and cleanup sweeps.
	StartMonitoring()
}

type RouteConfig struct {
	CheckInterval      time.Duration
	LocationStaleAfter time.Duration
	StartGrace         time.Duration
	DelayGrowthStep    time.Duration
	CleanupAge         time.Duration
	TrafficMinimum     time.Duration
}

func DefaultRouteConfig() RouteConfig {
	return RouteConfig{
		CheckInterval:      utils.DefaultRouteCheckInterval,
		LocationStaleAfter: utils.DefaultLocationStaleAfter,
		StartGrace:         utils.DefaultRouteStartGrace,
		DelayGrowthStep:    utils.DefaultDelayGrowthStep,
		CleanupAge:         utils.DefaultRouteCleanupAge,
		TrafficMinimum:     utils.DefaultTrafficCheckMinimum,
	}
}

type routeService struct {
	routeRepo           interfaces.RouteRepository
	notificationService NotificationService
	mapsProvider        maps.MapsProvider
	scheduler           scheduler.Scheduler
	clock               scheduler.Clock
	config              RouteConfig
	logger              *logger.Logger
}

func NewRouteService(
	routeRepo interfaces.RouteRepository,
	notificationService NotificationService,
	mapsProvider maps.MapsProvider,
	sched scheduler.Scheduler,
	clock scheduler.Clock,
	config RouteConfig,
	logger *logger.Logger,
) RouteService {
	if clock == nil {
		clock = scheduler.RealClock()
	}
	return &routeService{
		routeRepo:           routeRepo,
		notificationService: notificationService,
		mapsProvider:        mapsProvider,
		scheduler:           sched,
		clock:               clock,
		config:              config,
		logger:              logger,
	}
}

func (s *routeService) CreateRoute(ctx context.Context, route *models.ShuttleRoute) error {
	if route.ScheduledStart.IsZero() || route.EstimatedArrival.IsZero() {
		return fmt.Errorf("route schedule is required")
	}
	if !route.EstimatedArrival.After(route.ScheduledStart) {
		return fmt.Errorf("estimated arrival must be after scheduled start")
	}

	return s.routeRepo.Create(ctx, route)
}

func (s *routeService) GetRoute(ctx context.Context, id primitive.ObjectID) (*models.ShuttleRoute, error) {
	return s.routeRepo.GetByID(ctx, id)
}

func (s *routeService) ListRoutes(ctx context.Context, params *utils.PaginationParams) ([]*models.ShuttleRoute, int64, error) {
	return s.routeRepo.List(ctx, params)
}

func (s *routeService) GetDriverRoutes(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.ShuttleRoute, int64, error) {
	return s.routeRepo.GetByDriver(ctx, driverID, params)
}

func (s *routeService) StartRoute(ctx context.Context, id primitive.ObjectID) error {
	route, err := s.routeRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if route.Status.Terminal() {
		return fmt.Errorf("route is already %s", route.Status)
	}

	now := s.clock.Now()
	err = s.routeRepo.Update(ctx, id, map[string]interface{}{
		"actual_start": now,
		"status":       models.RouteStatusInProgress,
	})
	if err != nil {
		return err
	}

	s.logger.LogRouteEvent(id, "started", map[string]interface{}{
		"scheduled_start": route.ScheduledStart,
		"actual_start":    now,
	})

	return nil
}

func (s *routeService) CompleteRoute(ctx context.Context, id primitive.ObjectID) error {
	return s.finishRoute(ctx, id, models.RouteStatusCompleted, "")
}

func (s *routeService) CancelRoute(ctx context.Context, id primitive.ObjectID, reason string) error {
	return s.finishRoute(ctx, id, models.RouteStatusCancelled, reason)
}

func (s *routeService) finishRoute(ctx context.Context, id primitive.ObjectID, status models.RouteStatus, reason string) error {
	route, err := s.routeRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if route.Status.Terminal() {
		return fmt.Errorf("route is already %s", route.Status)
	}

	now := s.clock.Now()
	err = s.routeRepo.Update(ctx, id, map[string]interface{}{
		"status":            status,
		"completed_at":      now,
		"monitoring_active": false,
		"delay_reason":      reason,
	})
	if err != nil {
		return err
	}

	if err := s.routeRepo.ResolveAlertsByRoute(ctx, id); err != nil {
		s.logger.WithRouteID(id).WithError(err).Warn("Failed to resolve open alerts")
	}

	s.logger.LogRouteEvent(id, string(status), map[string]interface{}{"reason": reason})

	route.Status = status
	payload := models.RouteStatusPayload{
		RouteID:   route.ID,
		RouteName: route.Name,
		Status:    status,
		Reason:    reason,
	}
	title := fmt.Sprintf("Route %s", status)
	body := fmt.Sprintf("Route %s is %s", route.Name, status)
	if err := s.notificationService.NotifyRoute(ctx, route, title, body, payload); err != nil {
		s.logger.WithRouteID(id).WithError(err).Error("Failed to announce route status")
	}

	return nil
}

// ReportDelay records a delay the driver reported themselves, outside
// the periodic checks.
func (s *routeService) ReportDelay(ctx context.Context, id primitive.ObjectID, delayMinutes int, reason string) error {
	route, err := s.routeRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if route.Status.Terminal() {
		return fmt.Errorf("route is already %s", route.Status)
	}
	if delayMinutes <= 0 {
		return fmt.Errorf("delay must be positive")
	}

	err = s.routeRepo.Update(ctx, id, map[string]interface{}{
		"status":        models.RouteStatusDelayed,
		"delay_minutes": delayMinutes,
		"delay_reason":  reason,
	})
	if err != nil {
		return err
	}
	route.Status = models.RouteStatusDelayed
	route.DelayMinutes = delayMinutes

	s.raiseAlert(ctx, route, &models.RouteAlert{
		RouteID:      route.ID,
		Type:         models.RouteAlertDelay,
		Severity:     severityFor(delayMinutes),
		Message:      fmt.Sprintf("Driver reported a %d minute delay: %s", delayMinutes, reason),
		DelayMinutes: delayMinutes,
	}, reason)

	return nil
}

func (s *routeService) ReportLocation(ctx context.Context, id primitive.ObjectID, lat, lng float64) error {
	route, err := s.routeRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if route.Status.Terminal() {
		return fmt.Errorf("route is already %s", route.Status)
	}

	now := s.clock.Now()
	location := models.NewLocation(lat, lng)
	if err := s.routeRepo.UpdateLocation(ctx, id, &location, now); err != nil {
		return err
	}

	// The first position report is what actually starts the trip.
	if route.ActualStart == nil {
		err = s.routeRepo.Update(ctx, id, map[string]interface{}{
			"actual_start": now,
			"status":       models.RouteStatusInProgress,
		})
		if err != nil {
			return err
		}
		s.logger.LogRouteEvent(id, "started", map[string]interface{}{
			"scheduled_start": route.ScheduledStart,
			"actual_start":    now,
		})
	}

	return nil
}

func (s *routeService) ReportDriverLocation(ctx context.Context, driverID primitive.ObjectID, lat, lng float64) error {
	routes, err := s.routeRepo.GetMonitored(ctx)
	if err != nil {
		return fmt.Errorf("failed to load monitored routes: %w", err)
	}

	for _, route := range routes {
		if route.DriverID != driverID {
			continue
		}
		if err := s.ReportLocation(ctx, route.ID, lat, lng); err != nil {
			return err
		}
	}

	return nil
}

func (s *routeService) GetRouteAlerts(ctx context.Context, routeID primitive.ObjectID) ([]*models.RouteAlert, error) {
	return s.routeRepo.GetAlertsByRoute(ctx, routeID)
}

func (s *routeService) GetUnresolvedAlerts(ctx context.Context, params *utils.PaginationParams) ([]*models.RouteAlert, int64, error) {
	return s.routeRepo.GetUnresolvedAlerts(ctx, params)
}

func (s *routeService) ResolveAlert(ctx context.Context, alertID primitive.ObjectID) error {
	return s.routeRepo.ResolveAlert(ctx, alertID)
}

func (s *routeService) StartMonitoring() {
	s.scheduler.ScheduleEvery(routeCheckKey, s.config.CheckInterval, s.checkAll)
	s.scheduler.ScheduleEvery(routeCleanupKey, time.Hour, s.cleanup)
}

func (s *routeService) checkAll() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.CheckInterval)
	defer cancel()

	routes, err := s.routeRepo.GetMonitored(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Route monitoring pass failed")
		return
	}

	for _, route := range routes {
		s.checkRoute(ctx, route)
	}
}

func (s *routeService) checkRoute(ctx context.Context, route *models.ShuttleRoute) {
	now := s.clock.Now()

	if route.Status == models.RouteStatusInProgress && route.LastLocationAt != nil {
		if now.Sub(*route.LastLocationAt) > s.config.LocationStaleAfter {
			s.raiseLocationTimeout(ctx, route, now)
		}
	}

	notStarted := route.ActualStart == nil
	if notStarted &&
		(route.Status == models.RouteStatusScheduled || route.Status == models.RouteStatusDelayed) &&
		now.After(route.ScheduledStart.Add(s.config.StartGrace)) {
		s.raiseStartDelay(ctx, route, now)
	}

	if (route.Status == models.RouteStatusInProgress || route.Status == models.RouteStatusDelayed) &&
		route.ActualStart != nil && now.After(route.EstimatedArrival) {
		s.raiseOverrun(ctx, route, now)
	}
}

// raiseLocationTimeout fires when an in-progress route has gone quiet.
// One unresolved timeout alert per route at a time.
func (s *routeService) raiseLocationTimeout(ctx context.Context, route *models.ShuttleRoute, now time.Time) {
	if s.hasUnresolvedAlert(ctx, route.ID, models.RouteAlertLocationTimeout) {
		return
	}

	silent := utils.MinutesSince(*route.LastLocationAt, now)
	s.raiseAlert(ctx, route, &models.RouteAlert{
		RouteID:  route.ID,
		Type:     models.RouteAlertLocationTimeout,
		Severity: models.SeverityHigh,
		Message:  fmt.Sprintf("No location update from driver for %d minutes", silent),
	}, "")
}

func (s *routeService) raiseStartDelay(ctx context.Context, route *models.ShuttleRoute, now time.Time) {
	delay := utils.MinutesSince(route.ScheduledStart, now)

	// Alert once at first detection, again every time the delay grows
	// by another step.
	growthStep := int(s.config.DelayGrowthStep.Minutes())
	if route.DelayMinutes > 0 && delay < route.DelayMinutes+growthStep {
		return
	}

	updates := map[string]interface{}{
		"status":        models.RouteStatusDelayed,
		"delay_minutes": delay,
		"delay_reason":  "late start",
	}
	if err := s.routeRepo.Update(ctx, route.ID, updates); err != nil {
		s.logger.WithRouteID(route.ID).WithError(err).Error("Failed to mark route delayed")
		return
	}
	route.Status = models.RouteStatusDelayed
	route.DelayMinutes = delay

	s.raiseAlert(ctx, route, &models.RouteAlert{
		RouteID:      route.ID,
		Type:         models.RouteAlertDelay,
		Severity:     severityFor(delay),
		Message:      fmt.Sprintf("Route not started %d minutes past schedule", delay),
		DelayMinutes: delay,
	}, "late start")
}

// raiseOverrun handles routes running past their estimated arrival. When
// live traffic explains the overrun the alert is tagged as traffic.
func (s *routeService) raiseOverrun(ctx context.Context, route *models.ShuttleRoute, now time.Time) {
	overrun := utils.MinutesSince(route.EstimatedArrival, now)

	// Quiet until the overrun exceeds the recorded delay by a full step,
	// including the first alert.
	growthStep := int(s.config.DelayGrowthStep.Minutes())
	if overrun <= route.DelayMinutes+growthStep {
		return
	}

	alertType := models.RouteAlertDelay
	reason := "running late"
	if delay, ok := s.trafficDelay(ctx, route); ok && delay >= s.config.TrafficMinimum {
		alertType = models.RouteAlertTraffic
		reason = fmt.Sprintf("heavy traffic, about %d minutes of congestion", int(delay.Minutes()))
	} else if !ok && route.LastLocation != nil && route.Destination != nil {
		// No Maps client: estimate the remaining leg from straight-line
		// distance at city speed.
		remaining := utils.CalculateDistance(
			route.LastLocation.Latitude(), route.LastLocation.Longitude(),
			route.Destination.Latitude(), route.Destination.Longitude(),
		)
		reason = fmt.Sprintf("running late, about %d minutes from the destination", utils.EstimateETAMinutes(remaining, 0))
	}

	updates := map[string]interface{}{
		"delay_minutes": overrun,
		"delay_reason":  reason,
	}
	if err := s.routeRepo.Update(ctx, route.ID, updates); err != nil {
		s.logger.WithRouteID(route.ID).WithError(err).Error("Failed to record route overrun")
		return
	}
	route.DelayMinutes = overrun

	s.raiseAlert(ctx, route, &models.RouteAlert{
		RouteID:      route.ID,
		Type:         alertType,
		Severity:     severityFor(overrun),
		Message:      fmt.Sprintf("Route running %d minutes past estimated arrival", overrun),
		DelayMinutes: overrun,
	}, reason)
}

func (s *routeService) raiseAlert(ctx context.Context, route *models.ShuttleRoute, alert *models.RouteAlert, reason string) {
	if err := s.routeRepo.CreateAlert(ctx, alert); err != nil {
		s.logger.WithRouteID(route.ID).WithError(err).Error("Failed to create route alert")
		return
	}

	s.logger.LogRouteEvent(route.ID, "alert", map[string]interface{}{
		"alert_type":    string(alert.Type),
		"severity":      string(alert.Severity),
		"delay_minutes": alert.DelayMinutes,
	})

	payload := models.RouteAlertPayload{
		RouteID:      route.ID,
		RouteName:    route.Name,
		DriverName:   route.DriverName,
		AlertType:    alert.Type,
		Severity:     alert.Severity,
		DelayMinutes: alert.DelayMinutes,
		Reason:       reason,
	}
	title := fmt.Sprintf("Route alert: %s", route.Name)
	if err := s.notificationService.NotifyRoute(ctx, route, title, alert.Message, payload); err != nil {
		s.logger.WithRouteID(route.ID).WithError(err).Error("Failed to deliver route alert")
	}
}

func (s *routeService) trafficDelay(ctx context.Context, route *models.ShuttleRoute) (time.Duration, bool) {
	if s.mapsProvider == nil || route.LastLocation == nil || route.Destination == nil {
		return 0, false
	}

	eta, err := s.mapsProvider.GetETA(ctx,
		maps.Location{Latitude: route.LastLocation.Latitude(), Longitude: route.LastLocation.Longitude()},
		maps.Location{Latitude: route.Destination.Latitude(), Longitude: route.Destination.Longitude()},
	)
	if err != nil {
		s.logger.WithRouteID(route.ID).WithError(err).Warn("Traffic lookup failed")
		return 0, false
	}

	return eta.TrafficDelay, true
}

func (s *routeService) hasUnresolvedAlert(ctx context.Context, routeID primitive.ObjectID, alertType models.RouteAlertType) bool {
	alerts, err := s.routeRepo.GetAlertsByRoute(ctx, routeID)
	if err != nil {
		s.logger.WithRouteID(routeID).WithError(err).Warn("Failed to load route alerts")
		return false
	}

	for _, alert := range alerts {
		if alert.Type == alertType && !alert.Resolved {
			return true
		}
	}

	return false
}

// cleanup drops terminal routes older than the retention window. The
// sweep is idempotent, rerunning it deletes nothing new.
func (s *routeService) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := s.clock.Now().Add(-s.config.CleanupAge)
	deleted, err := s.routeRepo.DeleteTerminalBefore(ctx, cutoff)
	if err != nil {
		s.logger.WithError(err).Error("Route cleanup failed")
		return
	}

	if deleted > 0 {
		s.logger.Infof("Cleaned up %d finished routes", deleted)
	}
}

func severityFor(delayMinutes int) models.AlertSeverity {
	switch {
	case delayMinutes >= utils.HighDelayMinutes:
		return models.SeverityHigh
	case delayMinutes >= utils.MediumDelayMinutes:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}
