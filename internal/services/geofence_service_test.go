package services

import (
	"context"
	"testing"
	"time"

	"safetrack/internal/models"
	"safetrack/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type geofenceFixture struct {
	service      GeofenceService
	journeys     JourneyService
	geofenceRepo *mockGeofenceRepo
	journeyRepo  *mockJourneyRepo
	employeeRepo *mockEmployeeRepo
	notifier     *mockNotificationService
	emergencies  *mockEmergencyService
	sched        *fakeScheduler
	employee     *models.Employee
}

func newGeofenceFixture(t *testing.T, fences ...*models.Geofence) *geofenceFixture {
	t.Helper()

	employee := &models.Employee{
		ID:    primitive.NewObjectID(),
		Name:  "Asha Pillai",
		Email: "asha@example.com",
		Role:  models.RoleEmployee,
		EmergencyContacts: []models.EmergencyContact{
			{Name: "Ravi", Phone: "+15550100", Relation: "spouse"},
		},
	}

	log := newTestLogger(t)
	geofenceRepo := newMockGeofenceRepo(fences...)
	journeyRepo := newMockJourneyRepo()
	employeeRepo := newMockEmployeeRepo(employee)
	notifier := newMockNotificationService()
	emergencies := newMockEmergencyService()
	sched := newFakeScheduler()

	journeys := NewJourneyService(
		journeyRepo, employeeRepo, emergencies, notifier,
		&mockLocationService{}, sched, nil, DefaultJourneyConfig(), log,
	)

	service := NewGeofenceService(
		geofenceRepo, employeeRepo, journeys, notifier, newMemCache(), log,
	)

	return &geofenceFixture{
		service:      service,
		journeys:     journeys,
		geofenceRepo: geofenceRepo,
		journeyRepo:  journeyRepo,
		employeeRepo: employeeRepo,
		notifier:     notifier,
		emergencies:  emergencies,
		sched:        sched,
		employee:     employee,
	}
}

func officeFence() *models.Geofence {
	return &models.Geofence{
		ID:           primitive.NewObjectID(),
		Name:         "Head Office",
		Type:         models.GeofenceTypeOffice,
		Center:       models.NewLocation(12.9716, 77.5946),
		RadiusMeters: 200,
		IsActive:     true,
	}
}

func TestEvaluateLocationFirstObservationOutsideSeedsSilently(t *testing.T) {
	fence := officeFence()
	f := newGeofenceFixture(t, fence)

	events, err := f.service.EvaluateLocation(context.Background(), f.employee.ID, models.NewLocation(13.05, 77.5946))
	require.NoError(t, err)
	assert.Empty(t, events)

	state, err := f.geofenceRepo.GetContainment(context.Background(), f.employee.ID, fence.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContainmentOutside, state)
}

func TestEvaluateLocationFirstObservationInsideEmitsEntry(t *testing.T) {
	fence := officeFence()
	f := newGeofenceFixture(t, fence)

	// Inside on the very first report counts as an entry: a user who is
	// already at the fence must not have to leave and come back.
	events, err := f.service.EvaluateLocation(context.Background(), f.employee.ID, models.NewLocation(12.9716, 77.5946))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.GeofenceEventEnter, events[0].Type)

	state, err := f.geofenceRepo.GetContainment(context.Background(), f.employee.ID, fence.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContainmentInside, state)
}

func TestEvaluateLocationFirstObservationInsideHomeConfirmsArrival(t *testing.T) {
	home := &models.Geofence{
		ID:           primitive.NewObjectID(),
		Name:         "Home",
		Type:         models.GeofenceTypeHome,
		Center:       models.NewLocation(12.90, 77.60),
		RadiusMeters: 100,
		IsActive:     true,
	}
	f := newGeofenceFixture(t, home)
	ctx := context.Background()

	events, err := f.service.EvaluateLocation(ctx, f.employee.ID, home.Center)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.GeofenceEventEnter, events[0].Type)

	assert.NotNil(t, f.employeeRepo.arrival(f.employee.ID))
	assert.GreaterOrEqual(t, f.notifier.countByAudience("admins"), 1)
}

func TestEvaluateLocationEmitsEnterExactlyOnce(t *testing.T) {
	fence := officeFence()
	f := newGeofenceFixture(t, fence)
	ctx := context.Background()

	// Seed outside, then move inside twice.
	_, err := f.service.EvaluateLocation(ctx, f.employee.ID, models.NewLocation(13.05, 77.5946))
	require.NoError(t, err)

	events, err := f.service.EvaluateLocation(ctx, f.employee.ID, models.NewLocation(12.9716, 77.5946))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.GeofenceEventEnter, events[0].Type)
	assert.Equal(t, fence.ID, events[0].GeofenceID)

	events, err = f.service.EvaluateLocation(ctx, f.employee.ID, models.NewLocation(12.9717, 77.5946))
	require.NoError(t, err)
	assert.Empty(t, events, "staying inside must not emit a second entry")

	assert.Len(t, f.geofenceRepo.allEvents(), 1)
}

func TestEvaluateLocationBoundaryIsInside(t *testing.T) {
	center := models.NewLocation(0, 0)
	point := models.NewLocation(0, 0.001)
	radius := utils.CalculateDistance(center.Latitude(), center.Longitude(), point.Latitude(), point.Longitude())

	fence := &models.Geofence{
		ID:           primitive.NewObjectID(),
		Name:         "Boundary",
		Type:         models.GeofenceTypeOffice,
		Center:       center,
		RadiusMeters: radius,
		IsActive:     true,
	}
	f := newGeofenceFixture(t, fence)
	ctx := context.Background()

	_, err := f.service.EvaluateLocation(ctx, f.employee.ID, models.NewLocation(1, 1))
	require.NoError(t, err)

	// Exactly on the boundary counts as inside.
	events, err := f.service.EvaluateLocation(ctx, f.employee.ID, point)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.GeofenceEventEnter, events[0].Type)
}

func TestOfficeExitStartsJourney(t *testing.T) {
	fence := officeFence()
	f := newGeofenceFixture(t, fence)
	ctx := context.Background()

	_, err := f.service.EvaluateLocation(ctx, f.employee.ID, fence.Center)
	require.NoError(t, err)

	events, err := f.service.EvaluateLocation(ctx, f.employee.ID, models.NewLocation(13.05, 77.5946))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.GeofenceEventExit, events[0].Type)

	journey, err := f.journeyRepo.GetActiveByUser(ctx, f.employee.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JourneyStatusActive, journey.Status)

	_, scheduled := f.sched.entry("journey:" + journey.ID.Hex())
	assert.True(t, scheduled, "journey reminder must be scheduled on office exit")

	assert.GreaterOrEqual(t, f.notifier.countByAudience("admins"), 1)
	assert.GreaterOrEqual(t, f.notifier.countByAudience("contacts"), 1)
	assert.True(t, events[0].NotificationSent)
}

func TestHomeEntryConfirmsArrivalAndNotifies(t *testing.T) {
	home := &models.Geofence{
		ID:           primitive.NewObjectID(),
		Name:         "Home",
		Type:         models.GeofenceTypeHome,
		Center:       models.NewLocation(12.90, 77.60),
		RadiusMeters: 100,
		OwnerID:      nil,
		IsActive:     true,
	}
	f := newGeofenceFixture(t, home)
	ctx := context.Background()

	_, err := f.journeys.Start(ctx, f.employee.ID, time.Hour)
	require.NoError(t, err)

	_, err = f.service.EvaluateLocation(ctx, f.employee.ID, models.NewLocation(12.95, 77.60))
	require.NoError(t, err)

	events, err := f.service.EvaluateLocation(ctx, f.employee.ID, home.Center)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.GeofenceEventEnter, events[0].Type)

	journey, err := f.journeyRepo.GetByID(ctx, mustActiveJourneyID(t, f))
	require.NoError(t, err)
	assert.Equal(t, models.JourneyStatusArrived, journey.Status)
	assert.False(t, journey.IsActive)

	assert.NotNil(t, f.employeeRepo.arrival(f.employee.ID))
	assert.GreaterOrEqual(t, f.notifier.countByAudience("contacts"), 1)
	assert.GreaterOrEqual(t, f.notifier.countByAudience("admins"), 1)
}

func TestPickupEntrySetsInTransitAndNotifiesDrivers(t *testing.T) {
	pickup := &models.Geofence{
		ID:           primitive.NewObjectID(),
		Name:         "Gate 3 Pickup",
		Type:         models.GeofenceTypePickupPoint,
		Center:       models.NewLocation(12.97, 77.59),
		RadiusMeters: 50,
		IsActive:     true,
	}
	f := newGeofenceFixture(t, pickup)
	ctx := context.Background()

	_, err := f.service.EvaluateLocation(ctx, f.employee.ID, models.NewLocation(12.99, 77.59))
	require.NoError(t, err)

	events, err := f.service.EvaluateLocation(ctx, f.employee.ID, pickup.Center)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, models.EmployeeStatusInTransit, f.employeeRepo.status(f.employee.ID))
	assert.GreaterOrEqual(t, f.notifier.countByAudience("drivers"), 1)
	assert.GreaterOrEqual(t, f.notifier.countByAudience("admins"), 1)
	assert.True(t, events[0].NotificationSent)
}

func mustActiveJourneyID(t *testing.T, f *geofenceFixture) primitive.ObjectID {
	t.Helper()
	journeys, _, err := f.journeyRepo.GetByUser(context.Background(), f.employee.ID, &utils.PaginationParams{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("failed to list journeys: %v", err)
	}
	if len(journeys) == 0 {
		t.Fatal("expected a journey to exist")
	}
	return journeys[0].ID
}
