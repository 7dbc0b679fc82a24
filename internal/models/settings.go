package models

import (
	"fmt"
	"strconv"
	"time"

	"github.com/julianstephens/atoms/internal/calendar"
	"github.com/julianstephens/atoms/internal/constants"
)

// Settings represents application-wide settings
type Settings struct {
	Timezone          string `json:"timezone" validate:"required,tzname"`                    // IANA timezone name or "Local"
	TrackingEpoch     string `json:"tracking_epoch" validate:"required,datetime=2006-01-02"` // earliest day considered by streaks
	RateWindowDays    int    `json:"rate_window_days" validate:"gte=1,lte=3650"`
	SyncEnabled       bool   `json:"sync_enabled"`
	SyncMaxAttempts   int    `json:"sync_max_attempts" validate:"gte=1"`
	SyncQueueCapacity int    `json:"sync_queue_capacity" validate:"gte=1"`
}

// DefaultSettings returns the settings written by init.
func DefaultSettings() Settings {
	return Settings{
		Timezone:          constants.DefaultTimezone,
		TrackingEpoch:     constants.DefaultTrackingEpoch,
		RateWindowDays:    constants.DefaultRateWindowDays,
		SyncEnabled:       constants.DefaultSyncEnabled,
		SyncMaxAttempts:   constants.DefaultSyncMaxAttempts,
		SyncQueueCapacity: constants.DefaultSyncQueueCapacity,
	}
}

// Location resolves the configured timezone.
func (s Settings) Location() (*time.Location, error) {
	loc, err := calendar.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// Epoch returns the tracking epoch at midnight in loc.
func (s Settings) Epoch(loc *time.Location) (time.Time, error) {
	return calendar.ParseInLocation(s.TrackingEpoch, loc)
}

// MapToSettings converts a map of key-value pairs to a Settings struct.
// Missing keys keep their defaults.
func MapToSettings(data map[string]string) (Settings, error) {
	settings := DefaultSettings()

	for key, value := range data {
		switch key {
		case constants.SettingTimezone:
			settings.Timezone = value
		case constants.SettingTrackingEpoch:
			settings.TrackingEpoch = value
		case constants.SettingRateWindowDays:
			n, err := strconv.Atoi(value)
			if err != nil {
				return Settings{}, fmt.Errorf("parsing rate_window_days: %w", err)
			}
			settings.RateWindowDays = n
		case constants.SettingSyncEnabled:
			settings.SyncEnabled = value == "true"
		case constants.SettingSyncMaxAttempts:
			n, err := strconv.Atoi(value)
			if err != nil {
				return Settings{}, fmt.Errorf("parsing sync_max_attempts: %w", err)
			}
			settings.SyncMaxAttempts = n
		case constants.SettingSyncQueueCapacity:
			n, err := strconv.Atoi(value)
			if err != nil {
				return Settings{}, fmt.Errorf("parsing sync_queue_capacity: %w", err)
			}
			settings.SyncQueueCapacity = n
		}
	}
	return settings, nil
}

// SettingsToMap is the inverse of MapToSettings.
func SettingsToMap(s Settings) map[string]string {
	return map[string]string{
		constants.SettingTimezone:          s.Timezone,
		constants.SettingTrackingEpoch:     s.TrackingEpoch,
		constants.SettingRateWindowDays:    strconv.Itoa(s.RateWindowDays),
		constants.SettingSyncEnabled:       strconv.FormatBool(s.SyncEnabled),
		constants.SettingSyncMaxAttempts:   strconv.Itoa(s.SyncMaxAttempts),
		constants.SettingSyncQueueCapacity: strconv.Itoa(s.SyncQueueCapacity),
	}
}
