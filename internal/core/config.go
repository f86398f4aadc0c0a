// Package core contains the business logic for focuslog: the session clock,
// the work accumulator, the naming queue, the work log store and the timer
// controller that owns them, plus configuration loading.
package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/focuslog/pkg/models"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the configuration file inside the home directory.
const ConfigFileName = ".focuslog.yaml"

// ConfigurationManager defines the interface for loading, validating and
// updating the focuslog configuration file.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
	SaveDurations(d models.DurationConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading and yaml.v3 for writing.
type viperConfigManager struct {
	// basePath is the directory where .focuslog.yaml resides.
	basePath string
}

// NewConfigurationManager creates a new ConfigurationManager that reads
// configuration files relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns a GlobalConfig populated with sensible defaults.
func DefaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		Durations: models.DefaultDurations(),
		Storage:   models.StorageConfig{Backend: models.StorageFile},
		Timer:     models.TimerConfig{TickInterval: time.Second},
		Notifications: models.NotificationConfig{
			Enabled: true,
			Sound:   true,
		},
	}
}

func (cm *viperConfigManager) configPath() string {
	return filepath.Join(cm.basePath, ConfigFileName)
}

// LoadGlobalConfig reads .focuslog.yaml from the base path using Viper.
// If the file does not exist, defaults are returned.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := DefaultGlobalConfig()

	v := viper.New()
	v.SetConfigFile(cm.configPath())
	v.SetConfigType("yaml")
	v.SetEnvPrefix("FOCUSLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set Viper defaults so missing keys fall back gracefully.
	v.SetDefault("durations.work_minutes", cfg.Durations.WorkMinutes)
	v.SetDefault("durations.break_minutes", cfg.Durations.BreakMinutes)
	v.SetDefault("storage.backend", string(cfg.Storage.Backend))
	v.SetDefault("storage.redis_url", cfg.Storage.RedisURL)
	v.SetDefault("timer.tick_interval", cfg.Timer.TickInterval)
	v.SetDefault("notifications.enabled", cfg.Notifications.Enabled)
	v.SetDefault("notifications.sound", cfg.Notifications.Sound)
	v.SetDefault("notifications.webhook_url", cfg.Notifications.WebhookURL)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
		}
	}

	cfg.Durations.WorkMinutes = v.GetFloat64("durations.work_minutes")
	cfg.Durations.BreakMinutes = v.GetFloat64("durations.break_minutes")
	cfg.Storage.Backend = models.StorageBackend(v.GetString("storage.backend"))
	cfg.Storage.RedisURL = v.GetString("storage.redis_url")
	cfg.Timer.TickInterval = v.GetDuration("timer.tick_interval")
	cfg.Notifications.Enabled = v.GetBool("notifications.enabled")
	cfg.Notifications.Sound = v.GetBool("notifications.sound")
	cfg.Notifications.WebhookURL = v.GetString("notifications.webhook_url")
	cfg.Notifications.Alerts.SkippedBreaks = v.GetInt("notifications.alerts.skipped_breaks")
	cfg.Notifications.Alerts.FocusStreak = v.GetInt("notifications.alerts.focus_streak")
	cfg.Notifications.Alerts.StorageWarnings = v.GetInt("notifications.alerts.storage_warnings")

	return cfg, nil
}

// ValidateConfig checks the configuration for invalid values and returns a
// clear error message identifying every problem.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if err := ValidateDurations(cfg.Durations.WorkMinutes, cfg.Durations.BreakMinutes); err != nil {
		errs = append(errs, "durations: "+err.Error())
	}

	switch cfg.Storage.Backend {
	case models.StorageFile:
	case models.StorageRedis:
		if cfg.Storage.RedisURL == "" {
			errs = append(errs, "storage.redis_url must be set when storage.backend is redis")
		}
	default:
		errs = append(errs, fmt.Sprintf(
			"storage.backend %q is invalid, must be one of: file, redis",
			cfg.Storage.Backend,
		))
	}

	if cfg.Timer.TickInterval <= 0 {
		errs = append(errs, fmt.Sprintf("timer.tick_interval must be positive, got %s", cfg.Timer.TickInterval))
	}

	alerts := cfg.Notifications.Alerts
	if alerts.SkippedBreaks < 0 || alerts.FocusStreak < 0 || alerts.StorageWarnings < 0 {
		errs = append(errs, "notifications.alerts thresholds must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// SaveDurations writes the durations section back to .focuslog.yaml,
// preserving every other key already in the file.
func (cm *viperConfigManager) SaveDurations(d models.DurationConfig) error {
	path := cm.configPath()

	doc := map[string]any{}
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", ConfigFileName, err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing %s: %w", ConfigFileName, err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
	}

	doc["durations"] = map[string]any{
		"work_minutes":  d.WorkMinutes,
		"break_minutes": d.BreakMinutes,
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshalling %s: %w", ConfigFileName, err)
	}
	if err := os.MkdirAll(cm.basePath, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", ConfigFileName, err)
	}
	return nil
}
