package models

import "time"

// StorageBackend names a BlobStore implementation.
type StorageBackend string

const (
	StorageFile  StorageBackend = "file"
	StorageRedis StorageBackend = "redis"
)

// StorageConfig selects where the work log and total are persisted.
type StorageConfig struct {
	Backend  StorageBackend `yaml:"backend" mapstructure:"backend"`
	RedisURL string         `yaml:"redis_url,omitempty" mapstructure:"redis_url"`
}

// TimerConfig holds heartbeat settings.
type TimerConfig struct {
	TickInterval time.Duration `yaml:"tick_interval" mapstructure:"tick_interval"`
}

// AlertConfig overrides alert thresholds. Zero keeps the built-in default.
type AlertConfig struct {
	SkippedBreaks   int `yaml:"skipped_breaks,omitempty" mapstructure:"skipped_breaks"`
	FocusStreak     int `yaml:"focus_streak,omitempty" mapstructure:"focus_streak"`
	StorageWarnings int `yaml:"storage_warnings,omitempty" mapstructure:"storage_warnings"`
}

// NotificationConfig controls phase-completion notifications.
type NotificationConfig struct {
	Enabled    bool        `yaml:"enabled" mapstructure:"enabled"`
	Sound      bool        `yaml:"sound" mapstructure:"sound"`
	WebhookURL string      `yaml:"webhook_url,omitempty" mapstructure:"webhook_url"`
	Alerts     AlertConfig `yaml:"alerts,omitempty" mapstructure:"alerts"`
}

// GlobalConfig holds system-wide settings read from .focuslog.yaml via Viper.
type GlobalConfig struct {
	Durations     DurationConfig     `yaml:"durations" mapstructure:"durations"`
	Storage       StorageConfig      `yaml:"storage" mapstructure:"storage"`
	Timer         TimerConfig        `yaml:"timer" mapstructure:"timer"`
	Notifications NotificationConfig `yaml:"notifications" mapstructure:"notifications"`
}
