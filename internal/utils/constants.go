package utils

import "time"

// Application Constants
const (
	AppName    = "SafeTrack"
	AppVersion = "1.0.0"

	DefaultTimeZone = "UTC"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Safety journey reminders
	DefaultFirstReminderDelay = 15 * time.Minute
	DefaultReminderInterval   = 30 * time.Minute
	DefaultMaxReminders       = 5

	// Route monitoring
	DefaultRouteCheckInterval  = 30 * time.Second
	DefaultLocationStaleAfter  = 5 * time.Minute
	DefaultRouteStartGrace     = 5 * time.Minute
	DefaultDelayGrowthStep     = 5 * time.Minute
	DefaultRouteCleanupAge     = 24 * time.Hour
	DefaultTrafficCheckMinimum = 5 * time.Minute

	// Delay severity cutoffs, boundary inclusive
	MediumDelayMinutes = 5
	HighDelayMinutes   = 15

	// Retry policy for location and delivery failures
	RetryAttempts  = 3
	RetryBaseDelay = 500 * time.Millisecond

	// Notification
	NotificationTimeout = 30 * time.Second
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInvalidToken     = "invalid token"
	ErrInvalidInput     = "invalid input"
	ErrInternalServer   = "internal server error"
	ErrUnauthorized     = "unauthorized"
	ErrForbidden        = "forbidden"
	ErrNotFound         = "not found"
	ErrValidationFailed = "validation failed"
)

// Cache Keys
const (
	CacheKeyLastLocation = "location:last:%s"     // user id
	CacheKeyContainment  = "geofence:state:%s:%s" // user id, geofence id
	CacheTTLLastLocation = 10 * time.Minute
)
