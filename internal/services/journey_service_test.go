package services

import (
	"context"
	"testing"
	"time"

	"safetrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type journeyFixture struct {
	service     JourneyService
	journeyRepo *mockJourneyRepo
	notifier    *mockNotificationService
	emergencies *mockEmergencyService
	sched       *fakeScheduler
	employee    *models.Employee
}

func newJourneyFixture(t *testing.T) *journeyFixture {
	t.Helper()

	employee := &models.Employee{
		ID:    primitive.NewObjectID(),
		Name:  "Divya Menon",
		Email: "divya@example.com",
		Role:  models.RoleEmployee,
		EmergencyContacts: []models.EmergencyContact{
			{Name: "Anand", Phone: "+15550123", Relation: "parent"},
		},
	}

	journeyRepo := newMockJourneyRepo()
	notifier := newMockNotificationService()
	emergencies := newMockEmergencyService()
	sched := newFakeScheduler()

	service := NewJourneyService(
		journeyRepo,
		newMockEmployeeRepo(employee),
		emergencies,
		notifier,
		&mockLocationService{current: &models.LocationUpdate{
			UserID:     employee.ID,
			Location:   models.NewLocation(12.93, 77.61),
			RecordedAt: time.Now(),
		}},
		sched,
		nil,
		DefaultJourneyConfig(),
		newTestLogger(t),
	)

	return &journeyFixture{
		service:     service,
		journeyRepo: journeyRepo,
		notifier:    notifier,
		emergencies: emergencies,
		sched:       sched,
		employee:    employee,
	}
}

func (f *journeyFixture) reminderKey(journey *models.JourneyTracker) string {
	return "journey:" + journey.ID.Hex()
}

func TestStartSchedulesFirstReminder(t *testing.T) {
	f := newJourneyFixture(t)

	journey, err := f.service.Start(context.Background(), f.employee.ID, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, models.JourneyStatusActive, journey.Status)
	assert.Equal(t, DefaultJourneyConfig().MaxReminders, journey.MaxReminders)

	entry, ok := f.sched.entry(f.reminderKey(journey))
	require.True(t, ok)
	assert.Equal(t, DefaultJourneyConfig().FirstReminderDelay, entry.delay)

	assert.GreaterOrEqual(t, f.notifier.countByAudience("admins"), 1)
	assert.GreaterOrEqual(t, f.notifier.countByAudience("contacts"), 1, "contacts hear about the departure")
}

func TestStartRejectsSecondActiveJourney(t *testing.T) {
	f := newJourneyFixture(t)
	ctx := context.Background()

	_, err := f.service.Start(ctx, f.employee.ID, time.Hour)
	require.NoError(t, err)

	_, err = f.service.Start(ctx, f.employee.ID, time.Hour)
	assert.Error(t, err)
}

func TestReminderFireNotifiesUserAndReschedules(t *testing.T) {
	f := newJourneyFixture(t)

	journey, err := f.service.Start(context.Background(), f.employee.ID, time.Hour)
	require.NoError(t, err)

	require.True(t, f.sched.fire(f.reminderKey(journey)))

	updated, err := f.journeyRepo.GetByID(context.Background(), journey.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.RemindersSent)
	assert.True(t, updated.IsActive)

	sentToUser := 0
	for _, n := range f.notifier.all() {
		if n.Audience == "user" && n.Type == models.NotificationTypeCheckInReminder {
			sentToUser++
		}
	}
	assert.Equal(t, 1, sentToUser)

	entry, ok := f.sched.entry(f.reminderKey(journey))
	require.True(t, ok, "reminder must reschedule while budget remains")
	assert.Equal(t, DefaultJourneyConfig().ReminderInterval, entry.delay)
	assert.Zero(t, f.emergencies.count())
}

func TestExhaustedRemindersEscalateInSameTick(t *testing.T) {
	f := newJourneyFixture(t)

	journey, err := f.service.Start(context.Background(), f.employee.ID, time.Hour)
	require.NoError(t, err)

	key := f.reminderKey(journey)
	for i := 0; i < DefaultJourneyConfig().MaxReminders; i++ {
		require.True(t, f.sched.fire(key), "fire %d", i+1)
	}

	updated, err := f.journeyRepo.GetByID(context.Background(), journey.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JourneyStatusEscalated, updated.Status)
	assert.False(t, updated.IsActive)
	assert.Equal(t, DefaultJourneyConfig().MaxReminders, updated.RemindersSent)

	require.Equal(t, 1, f.emergencies.count())
	assert.Equal(t, models.EmergencyTypeNoResponse, f.emergencies.triggered[0].Type)

	_, ok := f.sched.entry(key)
	assert.False(t, ok, "no reminder may remain after escalation")
}

func TestCheckInResetsReminderBudget(t *testing.T) {
	f := newJourneyFixture(t)
	ctx := context.Background()

	journey, err := f.service.Start(ctx, f.employee.ID, time.Hour)
	require.NoError(t, err)

	key := f.reminderKey(journey)
	require.True(t, f.sched.fire(key))
	require.True(t, f.sched.fire(key))

	checked, err := f.service.CheckIn(ctx, f.employee.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, checked.RemindersSent)
	assert.NotNil(t, checked.LastCheckInAt)

	entry, ok := f.sched.entry(key)
	require.True(t, ok)
	assert.Equal(t, DefaultJourneyConfig().FirstReminderDelay, entry.delay,
		"check-in restarts the window at the first-reminder delay")
	assert.Zero(t, f.emergencies.count())
}

func TestConfirmArrivalStopsMonitoring(t *testing.T) {
	f := newJourneyFixture(t)
	ctx := context.Background()

	journey, err := f.service.Start(ctx, f.employee.ID, time.Hour)
	require.NoError(t, err)

	arrived, err := f.service.ConfirmArrival(ctx, f.employee.ID, models.NewLocation(12.90, 77.60))
	require.NoError(t, err)
	assert.Equal(t, models.JourneyStatusArrived, arrived.Status)
	assert.False(t, arrived.IsActive)
	require.NotNil(t, arrived.CompletedAt)

	_, ok := f.sched.entry(f.reminderKey(journey))
	assert.False(t, ok, "arrival cancels the pending reminder")

	assert.GreaterOrEqual(t, f.notifier.countByAudience("contacts"), 1)
}

func TestStopCancelsWithoutEscalation(t *testing.T) {
	f := newJourneyFixture(t)
	ctx := context.Background()

	journey, err := f.service.Start(ctx, f.employee.ID, time.Hour)
	require.NoError(t, err)

	require.NoError(t, f.service.Stop(ctx, f.employee.ID))

	updated, err := f.journeyRepo.GetByID(ctx, journey.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JourneyStatusStopped, updated.Status)
	assert.False(t, updated.IsActive)

	_, ok := f.sched.entry(f.reminderKey(journey))
	assert.False(t, ok)
	assert.Zero(t, f.emergencies.count())
}

func TestResumeReschedulesActiveJourneys(t *testing.T) {
	f := newJourneyFixture(t)
	ctx := context.Background()

	journey, err := f.service.Start(ctx, f.employee.ID, time.Hour)
	require.NoError(t, err)
	f.sched.Cancel(f.reminderKey(journey))

	require.NoError(t, f.service.Resume(ctx))

	_, ok := f.sched.entry(f.reminderKey(journey))
	assert.True(t, ok)
}
