package constants

const (
	SettingTimezone          = "timezone"
	SettingTrackingEpoch     = "tracking_epoch"
	SettingRateWindowDays    = "rate_window_days"
	SettingSyncEnabled       = "sync_enabled"
	SettingSyncMaxAttempts   = "sync_max_attempts"
	SettingSyncQueueCapacity = "sync_queue_capacity"

	DefaultTimezone          = "Local" // Use system local timezone by default
	DefaultTrackingEpoch     = "2024-01-01"
	DefaultRateWindowDays    = 30
	DefaultSyncEnabled       = false
	DefaultSyncMaxAttempts   = 5
	DefaultSyncQueueCapacity = 500
	DefaultGoalAmount        = 1
	MaxHabitNameLen          = 100
	MaxHeatmapDays           = 366
)
