package config

import (
	"time"

	"safetrack/internal/utils"
)

// MonitorConfig tunes the safety journey reminders and route delay
// checks. Defaults match the documented monitoring policy.
type MonitorConfig struct {
	FirstReminderDelay time.Duration `yaml:"first_reminder_delay"`
	ReminderInterval   time.Duration `yaml:"reminder_interval"`
	MaxReminders       int           `yaml:"max_reminders"`

	RouteCheckInterval time.Duration `yaml:"route_check_interval"`
	LocationStaleAfter time.Duration `yaml:"location_stale_after"`
	RouteStartGrace    time.Duration `yaml:"route_start_grace"`
	DelayGrowthStep    time.Duration `yaml:"delay_growth_step"`
	RouteCleanupAge    time.Duration `yaml:"route_cleanup_age"`
	TrafficMinimum     time.Duration `yaml:"traffic_minimum"`
}

func loadMonitorConfig() *MonitorConfig {
	return &MonitorConfig{
		FirstReminderDelay: getEnvAsDuration("JOURNEY_FIRST_REMINDER_DELAY", utils.DefaultFirstReminderDelay),
		ReminderInterval:   getEnvAsDuration("JOURNEY_REMINDER_INTERVAL", utils.DefaultReminderInterval),
		MaxReminders:       getEnvAsInt("JOURNEY_MAX_REMINDERS", utils.DefaultMaxReminders),

		RouteCheckInterval: getEnvAsDuration("ROUTE_CHECK_INTERVAL", utils.DefaultRouteCheckInterval),
		LocationStaleAfter: getEnvAsDuration("ROUTE_LOCATION_STALE_AFTER", utils.DefaultLocationStaleAfter),
		RouteStartGrace:    getEnvAsDuration("ROUTE_START_GRACE", utils.DefaultRouteStartGrace),
		DelayGrowthStep:    getEnvAsDuration("ROUTE_DELAY_GROWTH_STEP", utils.DefaultDelayGrowthStep),
		RouteCleanupAge:    getEnvAsDuration("ROUTE_CLEANUP_AGE", utils.DefaultRouteCleanupAge),
		TrafficMinimum:     getEnvAsDuration("ROUTE_TRAFFIC_MINIMUM", utils.DefaultTrafficCheckMinimum),
	}
}
