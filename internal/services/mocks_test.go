package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"safetrack/internal/models"
	"safetrack/internal/utils"
	"safetrack/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Format: "text", Output: "stderr"})
	if err != nil {
		t.Fatalf("failed to build test logger: %v", err)
	}
	return l
}

// fakeScheduler records entries and lets tests fire them by hand.
type fakeScheduler struct {
	mu      sync.Mutex
	entries map[string]fakeEntry
}

type fakeEntry struct {
	delay    time.Duration
	interval time.Duration
	fn       func()
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{entries: make(map[string]fakeEntry)}
}

func (s *fakeScheduler) Schedule(key string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = fakeEntry{delay: delay, fn: fn}
}

func (s *fakeScheduler) ScheduleEvery(key string, interval time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = fakeEntry{delay: interval, interval: interval, fn: fn}
}

func (s *fakeScheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func (s *fakeScheduler) fire(key string) bool {
	s.mu.Lock()
	e, ok := s.entries[key]
	if ok && e.interval == 0 {
		delete(s.entries, key)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	e.fn()
	return true
}

func (s *fakeScheduler) entry(key string) (fakeEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return e, ok
}

// memCache is an in-process Cache for tests.
type memCache struct {
	mu     sync.Mutex
	values map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{values: make(map[string][]byte)}
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.values[key]
	if !ok {
		return fmt.Errorf("cache miss")
	}
	return json.Unmarshal(data, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = data
	return nil
}

func (c *memCache) GetString(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.values[key]
	if !ok {
		return "", fmt.Errorf("cache miss")
	}
	return string(data), nil
}

func (c *memCache) SetString(ctx context.Context, key, value string, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = []byte(value)
	return nil
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.values, key)
	}
	return nil
}

// mockEmployeeRepo keeps employees in a map.
type mockEmployeeRepo struct {
	mu        sync.Mutex
	employees map[primitive.ObjectID]*models.Employee
	statuses  map[primitive.ObjectID]models.EmployeeStatus
	arrivals  map[primitive.ObjectID]*models.Location
}

func newMockEmployeeRepo(employees ...*models.Employee) *mockEmployeeRepo {
	repo := &mockEmployeeRepo{
		employees: make(map[primitive.ObjectID]*models.Employee),
		statuses:  make(map[primitive.ObjectID]models.EmployeeStatus),
		arrivals:  make(map[primitive.ObjectID]*models.Location),
	}
	for _, e := range employees {
		repo.employees[e.ID] = e
	}
	return repo
}

func (r *mockEmployeeRepo) Create(ctx context.Context, employee *models.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if employee.ID.IsZero() {
		employee.ID = primitive.NewObjectID()
	}
	r.employees[employee.ID] = employee
	return nil
}

func (r *mockEmployeeRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.employees[id]
	if !ok {
		return nil, fmt.Errorf("employee not found")
	}
	return e, nil
}

func (r *mockEmployeeRepo) GetByEmail(ctx context.Context, email string) (*models.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.employees {
		if e.Email == email {
			return e, nil
		}
	}
	return nil, fmt.Errorf("employee not found")
}

func (r *mockEmployeeRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return nil
}

func (r *mockEmployeeRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.employees, id)
	return nil
}

func (r *mockEmployeeRepo) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Employee, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Employee
	for _, e := range r.employees {
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

func (r *mockEmployeeRepo) GetActiveByRole(ctx context.Context, role models.EmployeeRole) ([]*models.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Employee
	for _, e := range r.employees {
		if e.Role == role {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *mockEmployeeRepo) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.EmployeeStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[id] = status
	if e, ok := r.employees[id]; ok {
		e.Status = status
	}
	return nil
}

func (r *mockEmployeeRepo) RecordArrival(ctx context.Context, id primitive.ObjectID, location *models.Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.arrivals[id] = location
	if e, ok := r.employees[id]; ok {
		e.Status = models.EmployeeStatusArrived
	}
	return nil
}

func (r *mockEmployeeRepo) AddDeviceToken(ctx context.Context, id primitive.ObjectID, token models.DeviceToken) error {
	return nil
}

func (r *mockEmployeeRepo) RemoveDeviceToken(ctx context.Context, id primitive.ObjectID, token string) error {
	return nil
}

func (r *mockEmployeeRepo) status(id primitive.ObjectID) models.EmployeeStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statuses[id]
}

func (r *mockEmployeeRepo) arrival(id primitive.ObjectID) *models.Location {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.arrivals[id]
}

// mockGeofenceRepo keeps fences, containment states and events in memory.
type mockGeofenceRepo struct {
	mu       sync.Mutex
	fences   []*models.Geofence
	states   map[string]models.ContainmentState
	events   []*models.GeofenceEvent
}

func newMockGeofenceRepo(fences ...*models.Geofence) *mockGeofenceRepo {
	return &mockGeofenceRepo{
		fences: fences,
		states: make(map[string]models.ContainmentState),
	}
}

func stateKey(userID, geofenceID primitive.ObjectID) string {
	return userID.Hex() + ":" + geofenceID.Hex()
}

func (r *mockGeofenceRepo) Create(ctx context.Context, geofence *models.Geofence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if geofence.ID.IsZero() {
		geofence.ID = primitive.NewObjectID()
	}
	r.fences = append(r.fences, geofence)
	return nil
}

func (r *mockGeofenceRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Geofence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.fences {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, fmt.Errorf("geofence not found")
}

func (r *mockGeofenceRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	return nil
}

func (r *mockGeofenceRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	return nil
}

func (r *mockGeofenceRepo) List(ctx context.Context, params *utils.PaginationParams) ([]*models.Geofence, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fences, int64(len(r.fences)), nil
}

func (r *mockGeofenceRepo) GetActiveForUser(ctx context.Context, userID primitive.ObjectID) ([]*models.Geofence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Geofence
	for _, f := range r.fences {
		if f.OwnerID == nil || *f.OwnerID == userID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *mockGeofenceRepo) GetByType(ctx context.Context, geofenceType models.GeofenceType) ([]*models.Geofence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Geofence
	for _, f := range r.fences {
		if f.Type == geofenceType {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *mockGeofenceRepo) GetContainment(ctx context.Context, userID, geofenceID primitive.ObjectID) (models.ContainmentState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[stateKey(userID, geofenceID)]
	if !ok {
		return models.ContainmentUnknown, nil
	}
	return state, nil
}

func (r *mockGeofenceRepo) SetContainment(ctx context.Context, userID, geofenceID primitive.ObjectID, state models.ContainmentState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[stateKey(userID, geofenceID)] = state
	return nil
}

func (r *mockGeofenceRepo) CreateEvent(ctx context.Context, event *models.GeofenceEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	event.CreatedAt = time.Now()
	r.events = append(r.events, event)
	return nil
}

func (r *mockGeofenceRepo) GetEventsByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.GeofenceEvent, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.GeofenceEvent
	for _, e := range r.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (r *mockGeofenceRepo) GetEventsByGeofence(ctx context.Context, geofenceID primitive.ObjectID, params *utils.PaginationParams) ([]*models.GeofenceEvent, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.GeofenceEvent
	for _, e := range r.events {
		if e.GeofenceID == geofenceID {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (r *mockGeofenceRepo) allEvents() []*models.GeofenceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.GeofenceEvent(nil), r.events...)
}

// mockJourneyRepo keeps journeys in a map and applies the update keys
// the service uses.
type mockJourneyRepo struct {
	mu       sync.Mutex
	journeys map[primitive.ObjectID]*models.JourneyTracker
}

func newMockJourneyRepo() *mockJourneyRepo {
	return &mockJourneyRepo{journeys: make(map[primitive.ObjectID]*models.JourneyTracker)}
}

func (r *mockJourneyRepo) Create(ctx context.Context, journey *models.JourneyTracker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	journey.ID = primitive.NewObjectID()
	journey.Status = models.JourneyStatusActive
	journey.IsActive = true
	r.journeys[journey.ID] = journey
	return nil
}

func (r *mockJourneyRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.JourneyTracker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.journeys[id]
	if !ok {
		return nil, fmt.Errorf("journey not found")
	}
	return j, nil
}

func (r *mockJourneyRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.journeys[id]
	if !ok {
		return fmt.Errorf("journey not found")
	}
	if v, ok := updates["status"]; ok {
		j.Status = v.(models.JourneyStatus)
	}
	if v, ok := updates["is_active"]; ok {
		j.IsActive = v.(bool)
	}
	if v, ok := updates["completed_at"]; ok {
		at := v.(time.Time)
		j.CompletedAt = &at
	}
	if v, ok := updates["last_check_in_at"]; ok {
		at := v.(time.Time)
		j.LastCheckInAt = &at
	}
	if v, ok := updates["reminders_sent"]; ok {
		j.RemindersSent = v.(int)
	}
	return nil
}

func (r *mockJourneyRepo) GetActiveByUser(ctx context.Context, userID primitive.ObjectID) (*models.JourneyTracker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.journeys {
		if j.UserID == userID && j.IsActive {
			return j, nil
		}
	}
	return nil, fmt.Errorf("no active journey for user")
}

func (r *mockJourneyRepo) GetAllActive(ctx context.Context) ([]*models.JourneyTracker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.JourneyTracker
	for _, j := range r.journeys {
		if j.IsActive {
			out = append(out, j)
		}
	}
	return out, nil
}

func (r *mockJourneyRepo) GetByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.JourneyTracker, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.JourneyTracker
	for _, j := range r.journeys {
		if j.UserID == userID {
			out = append(out, j)
		}
	}
	return out, int64(len(out)), nil
}

func (r *mockJourneyRepo) IncrementReminders(ctx context.Context, id primitive.ObjectID) (*models.JourneyTracker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.journeys[id]
	if !ok || !j.IsActive {
		return nil, fmt.Errorf("no active journey to remind")
	}
	j.RemindersSent++
	copied := *j
	return &copied, nil
}

// mockRouteRepo keeps routes and alerts in memory.
type mockRouteRepo struct {
	mu     sync.Mutex
	routes map[primitive.ObjectID]*models.ShuttleRoute
	alerts []*models.RouteAlert
}

func newMockRouteRepo(routes ...*models.ShuttleRoute) *mockRouteRepo {
	repo := &mockRouteRepo{routes: make(map[primitive.ObjectID]*models.ShuttleRoute)}
	for _, route := range routes {
		if route.ID.IsZero() {
			route.ID = primitive.NewObjectID()
		}
		repo.routes[route.ID] = route
	}
	return repo
}

func (r *mockRouteRepo) Create(ctx context.Context, route *models.ShuttleRoute) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	route.ID = primitive.NewObjectID()
	if route.Status == "" {
		route.Status = models.RouteStatusScheduled
	}
	route.MonitoringActive = true
	r.routes[route.ID] = route
	return nil
}

func (r *mockRouteRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ShuttleRoute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	route, ok := r.routes[id]
	if !ok {
		return nil, fmt.Errorf("route not found")
	}
	return route, nil
}

func (r *mockRouteRepo) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	route, ok := r.routes[id]
	if !ok {
		return fmt.Errorf("route not found")
	}
	if v, ok := updates["status"]; ok {
		route.Status = v.(models.RouteStatus)
	}
	if v, ok := updates["delay_minutes"]; ok {
		route.DelayMinutes = v.(int)
	}
	if v, ok := updates["delay_reason"]; ok {
		route.DelayReason = v.(string)
	}
	if v, ok := updates["actual_start"]; ok {
		at := v.(time.Time)
		route.ActualStart = &at
	}
	if v, ok := updates["completed_at"]; ok {
		at := v.(time.Time)
		route.CompletedAt = &at
	}
	if v, ok := updates["monitoring_active"]; ok {
		route.MonitoringActive = v.(bool)
	}
	return nil
}

func (r *mockRouteRepo) List(ctx context.Context, params *utils.PaginationParams) ([]*models.ShuttleRoute, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ShuttleRoute
	for _, route := range r.routes {
		out = append(out, route)
	}
	return out, int64(len(out)), nil
}

func (r *mockRouteRepo) GetMonitored(ctx context.Context) ([]*models.ShuttleRoute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ShuttleRoute
	for _, route := range r.routes {
		if route.MonitoringActive && !route.Status.Terminal() {
			out = append(out, route)
		}
	}
	return out, nil
}

func (r *mockRouteRepo) GetByDriver(ctx context.Context, driverID primitive.ObjectID, params *utils.PaginationParams) ([]*models.ShuttleRoute, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ShuttleRoute
	for _, route := range r.routes {
		if route.DriverID == driverID {
			out = append(out, route)
		}
	}
	return out, int64(len(out)), nil
}

func (r *mockRouteRepo) UpdateLocation(ctx context.Context, id primitive.ObjectID, location *models.Location, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	route, ok := r.routes[id]
	if !ok {
		return fmt.Errorf("route not found")
	}
	route.LastLocation = location
	route.LastLocationAt = &at
	return nil
}

func (r *mockRouteRepo) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, route := range r.routes {
		if route.Status.Terminal() && route.CompletedAt != nil && route.CompletedAt.Before(cutoff) {
			delete(r.routes, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *mockRouteRepo) CreateAlert(ctx context.Context, alert *models.RouteAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert.ID = primitive.NewObjectID()
	alert.CreatedAt = time.Now()
	r.alerts = append(r.alerts, alert)
	return nil
}

func (r *mockRouteRepo) GetAlertsByRoute(ctx context.Context, routeID primitive.ObjectID) ([]*models.RouteAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.RouteAlert
	for _, alert := range r.alerts {
		if alert.RouteID == routeID {
			out = append(out, alert)
		}
	}
	return out, nil
}

func (r *mockRouteRepo) GetUnresolvedAlerts(ctx context.Context, params *utils.PaginationParams) ([]*models.RouteAlert, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.RouteAlert
	for _, alert := range r.alerts {
		if !alert.Resolved {
			out = append(out, alert)
		}
	}
	return out, int64(len(out)), nil
}

func (r *mockRouteRepo) ResolveAlert(ctx context.Context, alertID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, alert := range r.alerts {
		if alert.ID == alertID {
			alert.Resolved = true
			alert.ResolvedAt = &now
		}
	}
	return nil
}

func (r *mockRouteRepo) ResolveAlertsByRoute(ctx context.Context, routeID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, alert := range r.alerts {
		if alert.RouteID == routeID {
			alert.Resolved = true
			alert.ResolvedAt = &now
		}
	}
	return nil
}

func (r *mockRouteRepo) allAlerts() []*models.RouteAlert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.RouteAlert(nil), r.alerts...)
}

// sentNotification is one recorded dispatcher call.
type sentNotification struct {
	Audience string // user, admins, drivers, contacts, route
	UserID   primitive.ObjectID
	Type     models.NotificationType
	Title    string
	Message  string
}

type mockNotificationService struct {
	mu   sync.Mutex
	sent []sentNotification
}

func newMockNotificationService() *mockNotificationService {
	return &mockNotificationService{}
}

func (s *mockNotificationService) NotifyUser(ctx context.Context, userID primitive.ObjectID, title, message string, payload models.NotificationPayload) error {
	s.record(sentNotification{Audience: "user", UserID: userID, Type: payload.NotificationType(), Title: title, Message: message})
	return nil
}

func (s *mockNotificationService) NotifyAdmins(ctx context.Context, title, message string, payload models.NotificationPayload) error {
	s.record(sentNotification{Audience: "admins", Type: payload.NotificationType(), Title: title, Message: message})
	return nil
}

func (s *mockNotificationService) NotifyDrivers(ctx context.Context, title, message string, payload models.NotificationPayload) error {
	s.record(sentNotification{Audience: "drivers", Type: payload.NotificationType(), Title: title, Message: message})
	return nil
}

func (s *mockNotificationService) NotifyEmergencyContacts(ctx context.Context, employee *models.Employee, message string) error {
	s.record(sentNotification{Audience: "contacts", UserID: employee.ID, Message: message})
	return nil
}

func (s *mockNotificationService) NotifyRoute(ctx context.Context, route *models.ShuttleRoute, title, message string, payload models.NotificationPayload) error {
	s.record(sentNotification{Audience: "route", UserID: route.ID, Type: payload.NotificationType(), Title: title, Message: message})
	return nil
}

func (s *mockNotificationService) GetUserNotifications(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Notification, int64, error) {
	return nil, 0, nil
}

func (s *mockNotificationService) RegisterDeviceToken(ctx context.Context, userID primitive.ObjectID, token models.DeviceToken) error {
	return nil
}

func (s *mockNotificationService) UnregisterDeviceToken(ctx context.Context, userID primitive.ObjectID, token string) error {
	return nil
}

func (s *mockNotificationService) record(n sentNotification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
}

func (s *mockNotificationService) all() []sentNotification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentNotification(nil), s.sent...)
}

func (s *mockNotificationService) countByAudience(audience string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.sent {
		if n.Audience == audience {
			count++
		}
	}
	return count
}

type mockEmergencyService struct {
	mu        sync.Mutex
	triggered []*models.Emergency
}

func newMockEmergencyService() *mockEmergencyService {
	return &mockEmergencyService{}
}

func (s *mockEmergencyService) Trigger(ctx context.Context, userID primitive.ObjectID, kind models.EmergencyType, message string, location models.Location) (*models.Emergency, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	emergency := &models.Emergency{
		ID:       primitive.NewObjectID(),
		UserID:   userID,
		Type:     kind,
		Status:   models.EmergencyStatusActive,
		Message:  message,
		Location: location,
	}
	s.triggered = append(s.triggered, emergency)
	return emergency, nil
}

func (s *mockEmergencyService) Resolve(ctx context.Context, id, resolvedBy primitive.ObjectID, status models.EmergencyStatus, notes string) error {
	return nil
}

func (s *mockEmergencyService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Emergency, error) {
	return nil, fmt.Errorf("emergency not found")
}

func (s *mockEmergencyService) GetActive(ctx context.Context) ([]*models.Emergency, error) {
	return nil, nil
}

func (s *mockEmergencyService) GetByUser(ctx context.Context, userID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Emergency, int64, error) {
	return nil, 0, nil
}

func (s *mockEmergencyService) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.triggered)
}

type mockLocationService struct {
	current *models.LocationUpdate
}

func (s *mockLocationService) RecordLocation(ctx context.Context, userID primitive.ObjectID, lat, lng, accuracy float64) (*models.LocationUpdate, error) {
	location := models.NewLocation(lat, lng)
	return &models.LocationUpdate{UserID: userID, Location: location, RecordedAt: time.Now()}, nil
}

func (s *mockLocationService) Current(ctx context.Context, userID primitive.ObjectID) (*models.LocationUpdate, error) {
	if s.current == nil {
		return nil, fmt.Errorf("no location recorded for user")
	}
	return s.current, nil
}

func (s *mockLocationService) History(ctx context.Context, userID primitive.ObjectID, since time.Time) ([]*models.LocationUpdate, error) {
	return nil, nil
}

// mockLocationRepo keeps position reports in insertion order.
type mockLocationRepo struct {
	mu      sync.Mutex
	updates []*models.LocationUpdate
	fails   int
}

func (r *mockLocationRepo) Create(ctx context.Context, update *models.LocationUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if update.ID.IsZero() {
		update.ID = primitive.NewObjectID()
	}
	r.updates = append(r.updates, update)
	return nil
}

func (r *mockLocationRepo) GetLatestByUser(ctx context.Context, userID primitive.ObjectID) (*models.LocationUpdate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fails > 0 {
		r.fails--
		return nil, fmt.Errorf("transient lookup failure")
	}
	for i := len(r.updates) - 1; i >= 0; i-- {
		if r.updates[i].UserID == userID {
			return r.updates[i], nil
		}
	}
	return nil, fmt.Errorf("no location recorded for user")
}

func (r *mockLocationRepo) GetByUserSince(ctx context.Context, userID primitive.ObjectID, since time.Time) ([]*models.LocationUpdate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.LocationUpdate
	for _, u := range r.updates {
		if u.UserID == userID && !u.RecordedAt.Before(since) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *mockLocationRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}
