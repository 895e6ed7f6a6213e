package services

import (
	"context"
	"testing"
	"time"

	"safetrack/internal/models"
	"safetrack/internal/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type routeFixture struct {
	service   RouteService
	routeRepo *mockRouteRepo
	notifier  *mockNotificationService
	sched     *fakeScheduler
	clock     *scheduler.FakeClock
}

func newRouteFixture(t *testing.T, clock *scheduler.FakeClock, routes ...*models.ShuttleRoute) *routeFixture {
	t.Helper()

	routeRepo := newMockRouteRepo(routes...)
	notifier := newMockNotificationService()
	sched := newFakeScheduler()

	service := NewRouteService(
		routeRepo, notifier, nil, sched, clock, DefaultRouteConfig(), newTestLogger(t),
	)
	service.StartMonitoring()

	return &routeFixture{
		service:   service,
		routeRepo: routeRepo,
		notifier:  notifier,
		sched:     sched,
		clock:     clock,
	}
}

func (f *routeFixture) check() {
	f.sched.fire(routeCheckKey)
}

func scheduledRoute(clock *scheduler.FakeClock, startOffset, arrivalOffset time.Duration) *models.ShuttleRoute {
	now := clock.Now()
	return &models.ShuttleRoute{
		ID:               primitive.NewObjectID(),
		Name:             "Evening Shuttle A",
		DriverID:         primitive.NewObjectID(),
		DriverName:       "Kiran",
		ScheduledStart:   now.Add(startOffset),
		EstimatedArrival: now.Add(arrivalOffset),
		Status:           models.RouteStatusScheduled,
		MonitoringActive: true,
	}
}

func TestLateStartRaisesDelayAlert(t *testing.T) {
	clock := scheduler.NewFakeClock(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))
	route := scheduledRoute(clock, -10*time.Minute, 50*time.Minute)
	f := newRouteFixture(t, clock, route)

	f.check()

	updated, err := f.routeRepo.GetByID(context.Background(), route.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RouteStatusDelayed, updated.Status)
	assert.Equal(t, 10, updated.DelayMinutes)

	alerts := f.routeRepo.allAlerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, models.RouteAlertDelay, alerts[0].Type)
	assert.Equal(t, models.SeverityMedium, alerts[0].Severity)
	assert.Equal(t, 10, alerts[0].DelayMinutes)

	assert.Equal(t, 1, f.notifier.countByAudience("route"))
}

func TestDelayAlertRepeatsOnlyWhenDelayGrows(t *testing.T) {
	clock := scheduler.NewFakeClock(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))
	route := scheduledRoute(clock, -10*time.Minute, 50*time.Minute)
	f := newRouteFixture(t, clock, route)

	f.check()
	require.Len(t, f.routeRepo.allAlerts(), 1)

	// A minute later the delay has not grown a full step: stay quiet.
	f.clock.Advance(time.Minute)
	f.check()
	assert.Len(t, f.routeRepo.allAlerts(), 1)

	// Another step of delay warrants a fresh alert at higher severity.
	f.clock.Advance(5 * time.Minute)
	f.check()
	alerts := f.routeRepo.allAlerts()
	require.Len(t, alerts, 2)
	assert.Equal(t, models.SeverityHigh, alerts[1].Severity)
	assert.Equal(t, 16, alerts[1].DelayMinutes)
}

func TestStartWithinGraceStaysQuiet(t *testing.T) {
	clock := scheduler.NewFakeClock(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))
	route := scheduledRoute(clock, -3*time.Minute, 50*time.Minute)
	f := newRouteFixture(t, clock, route)

	f.check()

	assert.Empty(t, f.routeRepo.allAlerts())
	updated, err := f.routeRepo.GetByID(context.Background(), route.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RouteStatusScheduled, updated.Status)
}

func TestStaleLocationRaisesSingleTimeoutAlert(t *testing.T) {
	clock := scheduler.NewFakeClock(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))
	route := scheduledRoute(clock, -5*time.Minute, time.Hour)
	start := clock.Now().Add(-5 * time.Minute)
	stale := clock.Now().Add(-6 * time.Minute)
	route.Status = models.RouteStatusInProgress
	route.ActualStart = &start
	route.LastLocationAt = &stale
	f := newRouteFixture(t, clock, route)

	f.check()

	alerts := f.routeRepo.allAlerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, models.RouteAlertLocationTimeout, alerts[0].Type)
	assert.Equal(t, models.SeverityHigh, alerts[0].Severity)

	// The unresolved alert suppresses duplicates on the next pass.
	f.clock.Advance(30 * time.Second)
	f.check()
	assert.Len(t, f.routeRepo.allAlerts(), 1)
}

func TestFreshLocationDoesNotTimeout(t *testing.T) {
	clock := scheduler.NewFakeClock(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))
	route := scheduledRoute(clock, -5*time.Minute, time.Hour)
	start := clock.Now().Add(-5 * time.Minute)
	fresh := clock.Now().Add(-2 * time.Minute)
	route.Status = models.RouteStatusInProgress
	route.ActualStart = &start
	route.LastLocationAt = &fresh
	f := newRouteFixture(t, clock, route)

	f.check()

	assert.Empty(t, f.routeRepo.allAlerts())
}

func TestOverrunPastEstimatedArrivalRaisesAlert(t *testing.T) {
	clock := scheduler.NewFakeClock(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))
	route := scheduledRoute(clock, -90*time.Minute, -20*time.Minute)
	start := clock.Now().Add(-90 * time.Minute)
	fresh := clock.Now().Add(-time.Minute)
	route.Status = models.RouteStatusInProgress
	route.ActualStart = &start
	route.LastLocationAt = &fresh
	f := newRouteFixture(t, clock, route)

	f.check()

	updated, err := f.routeRepo.GetByID(context.Background(), route.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, updated.DelayMinutes)

	alerts := f.routeRepo.allAlerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, models.RouteAlertDelay, alerts[0].Type)
	assert.Equal(t, models.SeverityHigh, alerts[0].Severity)
}

func TestOverrunWithinQuietWindowStaysQuiet(t *testing.T) {
	clock := scheduler.NewFakeClock(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))
	route := scheduledRoute(clock, -30*time.Minute, -2*time.Minute)
	start := clock.Now().Add(-30 * time.Minute)
	fresh := clock.Now()
	last := models.NewLocation(12.95, 77.59)
	dest := models.NewLocation(12.90, 77.60)
	route.Status = models.RouteStatusInProgress
	route.ActualStart = &start
	route.LastLocationAt = &fresh
	route.LastLocation = &last
	route.Destination = &dest
	f := newRouteFixture(t, clock, route)
	ctx := context.Background()

	// Two minutes past the estimate is inside the first alert step.
	f.check()
	assert.Empty(t, f.routeRepo.allAlerts())

	updated, err := f.routeRepo.GetByID(ctx, route.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.DelayMinutes)

	// Six minutes past crosses the step and fires, with the fallback ETA
	// estimate in the reason when no Maps client is configured.
	f.clock.Advance(4 * time.Minute)
	f.check()

	alerts := f.routeRepo.allAlerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, models.RouteAlertDelay, alerts[0].Type)
	assert.Equal(t, 6, alerts[0].DelayMinutes)

	updated, err = f.routeRepo.GetByID(ctx, route.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, updated.DelayMinutes)
	assert.Contains(t, updated.DelayReason, "minutes from the destination")
}

func TestCompleteRouteResolvesAlertsAndStopsMonitoring(t *testing.T) {
	clock := scheduler.NewFakeClock(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))
	route := scheduledRoute(clock, -10*time.Minute, 50*time.Minute)
	f := newRouteFixture(t, clock, route)
	ctx := context.Background()

	f.check()
	require.Len(t, f.routeRepo.allAlerts(), 1)

	require.NoError(t, f.service.CompleteRoute(ctx, route.ID))

	updated, err := f.routeRepo.GetByID(ctx, route.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RouteStatusCompleted, updated.Status)
	assert.False(t, updated.MonitoringActive)

	for _, alert := range f.routeRepo.allAlerts() {
		assert.True(t, alert.Resolved)
	}

	// A completed route drops out of subsequent passes.
	f.clock.Advance(10 * time.Minute)
	f.check()
	assert.Len(t, f.routeRepo.allAlerts(), 1)
}

func TestCleanupDeletesOldTerminalRoutesIdempotently(t *testing.T) {
	clock := scheduler.NewFakeClock(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))
	old := scheduledRoute(clock, -48*time.Hour, -47*time.Hour)
	completedAt := clock.Now().Add(-25 * time.Hour)
	old.Status = models.RouteStatusCompleted
	old.CompletedAt = &completedAt
	old.MonitoringActive = false

	recent := scheduledRoute(clock, -2*time.Hour, -time.Hour)
	recentDone := clock.Now().Add(-time.Hour)
	recent.Status = models.RouteStatusCompleted
	recent.CompletedAt = &recentDone
	recent.MonitoringActive = false

	f := newRouteFixture(t, clock, old, recent)
	ctx := context.Background()

	f.sched.fire(routeCleanupKey)

	_, err := f.routeRepo.GetByID(ctx, old.ID)
	assert.Error(t, err, "old terminal route must be removed")
	_, err = f.routeRepo.GetByID(ctx, recent.ID)
	assert.NoError(t, err, "recent terminal route stays")

	// Re-running the sweep deletes nothing new.
	f.sched.fire(routeCleanupKey)
	_, err = f.routeRepo.GetByID(ctx, recent.ID)
	assert.NoError(t, err)
}

func TestSeverityBoundariesAreInclusive(t *testing.T) {
	assert.Equal(t, models.SeverityLow, severityFor(4))
	assert.Equal(t, models.SeverityMedium, severityFor(5))
	assert.Equal(t, models.SeverityMedium, severityFor(14))
	assert.Equal(t, models.SeverityHigh, severityFor(15))
	assert.Equal(t, models.SeverityHigh, severityFor(40))
}

func TestFirstLocationReportStartsRoute(t *testing.T) {
	clock := scheduler.NewFakeClock(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))
	route := scheduledRoute(clock, -time.Minute, time.Hour)
	f := newRouteFixture(t, clock, route)
	ctx := context.Background()

	require.NoError(t, f.service.ReportLocation(ctx, route.ID, 12.9716, 77.5946))

	updated, err := f.routeRepo.GetByID(ctx, route.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RouteStatusInProgress, updated.Status)
	require.NotNil(t, updated.ActualStart)
	assert.Equal(t, clock.Now(), *updated.ActualStart)
	require.NotNil(t, updated.LastLocationAt)

	// Later reports only refresh the position.
	f.clock.Advance(time.Minute)
	require.NoError(t, f.service.ReportLocation(ctx, route.ID, 12.98, 77.60))
	updated, err = f.routeRepo.GetByID(ctx, route.ID)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(-time.Minute), *updated.ActualStart)
}

func TestReportedDelayRaisesAlert(t *testing.T) {
	clock := scheduler.NewFakeClock(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))
	route := scheduledRoute(clock, -time.Minute, time.Hour)
	f := newRouteFixture(t, clock, route)
	ctx := context.Background()

	require.NoError(t, f.service.ReportDelay(ctx, route.ID, 20, "accident on ring road"))

	updated, err := f.routeRepo.GetByID(ctx, route.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RouteStatusDelayed, updated.Status)
	assert.Equal(t, 20, updated.DelayMinutes)
	assert.Equal(t, "accident on ring road", updated.DelayReason)

	alerts := f.routeRepo.allAlerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, models.RouteAlertDelay, alerts[0].Type)
	assert.Equal(t, models.SeverityHigh, alerts[0].Severity)

	err = f.service.ReportDelay(ctx, route.ID, 0, "no delay")
	assert.Error(t, err, "non-positive delays are rejected")
}

func TestCancelRouteRecordsReason(t *testing.T) {
	clock := scheduler.NewFakeClock(time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC))
	route := scheduledRoute(clock, 10*time.Minute, time.Hour)
	f := newRouteFixture(t, clock, route)
	ctx := context.Background()

	require.NoError(t, f.service.CancelRoute(ctx, route.ID, "vehicle breakdown"))

	updated, err := f.routeRepo.GetByID(ctx, route.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RouteStatusCancelled, updated.Status)
	assert.Equal(t, "vehicle breakdown", updated.DelayReason)

	err = f.service.CompleteRoute(ctx, route.ID)
	assert.Error(t, err, "terminal routes reject further transitions")
}
