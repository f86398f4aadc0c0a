// Package internal provides the App struct that wires all components of
// focuslog together and initializes the CLI layer.
package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/valter-silva-au/focuslog/internal/cli"
	"github.com/valter-silva-au/focuslog/internal/core"
	"github.com/valter-silva-au/focuslog/internal/observability"
	"github.com/valter-silva-au/focuslog/internal/storage"
	"github.com/valter-silva-au/focuslog/pkg/models"
)

// EventLogFileName is the JSONL event log inside the home directory.
const EventLogFileName = ".focuslog_events.jsonl"

// webhookTimeout bounds a single phase notification post.
const webhookTimeout = 10 * time.Second

// EventWebhookFailed is logged when a phase notification cannot be posted.
const EventWebhookFailed = "webhook.failed"

// App holds all service dependencies for focuslog.
type App struct {
	BasePath string

	// Configuration
	Config    *models.GlobalConfig
	ConfigMgr core.ConfigurationManager

	// Storage layer
	Blobs   storage.BlobStore
	WorkLog core.WorkLogStore
	// LoadErr is set when the persisted work log or total could not be read.
	// The affected state starts empty.
	LoadErr error

	// Core services
	Controller core.TimerController

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
}

// NewApp creates and wires all components of focuslog. basePath is the
// directory holding .focuslog.yaml, the event log and the file store.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("creating home directory: %w", err)
	}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Observability ---
	app.EventLog, err = observability.NewJSONLEventLog(filepath.Join(basePath, EventLogFileName))
	if err != nil {
		// Non-fatal: disable observability if log can't be created.
		app.EventLog = nil
	}
	var events core.EventLogger
	if app.EventLog != nil {
		events = &eventLogAdapter{log: app.EventLog}

		thresholds := observability.DefaultAlertThresholds()
		if cfg.Notifications.Alerts.SkippedBreaks > 0 {
			thresholds.SkippedBreaks = cfg.Notifications.Alerts.SkippedBreaks
		}
		if cfg.Notifications.Alerts.FocusStreak > 0 {
			thresholds.FocusStreak = cfg.Notifications.Alerts.FocusStreak
		}
		if cfg.Notifications.Alerts.StorageWarnings > 0 {
			thresholds.StorageWarnings = cfg.Notifications.Alerts.StorageWarnings
		}
		app.AlertEngine = observability.NewAlertEngine(app.EventLog, thresholds)
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}
	if cfg.Notifications.Enabled && cfg.Notifications.WebhookURL != "" {
		app.Notifier = observability.NewSlackNotifier(cfg.Notifications.WebhookURL)
	}

	// --- Storage layer ---
	switch cfg.Storage.Backend {
	case models.StorageRedis:
		app.Blobs, err = storage.NewRedisBlobStore(cfg.Storage.RedisURL)
		if err != nil {
			_ = app.closeEventLog()
			return nil, fmt.Errorf("opening redis store: %w", err)
		}
	default:
		app.Blobs = storage.NewFileBlobStore(basePath)
	}

	app.WorkLog = core.NewWorkLogStore(&blobStoreAdapter{store: app.Blobs})
	if err := app.WorkLog.Load(); err != nil {
		app.LoadErr = err
		if events != nil {
			_ = events.LogEvent(core.LevelWarn, core.EventStorageWarning, map[string]any{"error": err.Error()})
		}
	}

	// --- Core services ---
	opts := core.ControllerOptions{
		Durations:     cfg.Durations,
		Store:         app.WorkLog,
		Events:        events,
		TickInterval:  cfg.Timer.TickInterval,
		SaveDurations: app.ConfigMgr.SaveDurations,
	}
	if cfg.Notifications.Enabled {
		notifiers := notifierList{cli.Notifications}
		if app.Notifier != nil {
			notifiers = append(notifiers, &webhookAdapter{notifier: app.Notifier, events: events})
		}
		opts.Notifier = notifiers
	}
	if cfg.Notifications.Sound {
		// stderr keeps the bell out of the MCP stdio stream.
		opts.Sound = cli.BellPlayer{W: os.Stderr}
	}
	app.Controller = core.NewTimerController(opts)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = cfg
	cli.ConfigMgr = app.ConfigMgr
	cli.Controller = app.Controller

	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc
	cli.Notifier = app.Notifier

	return app, nil
}

// Close releases the event log file handle and the blob store connection.
// It is safe to call Close on a partially wired App.
func (a *App) Close() error {
	var errs []error
	if err := a.closeEventLog(); err != nil {
		errs = append(errs, err)
	}
	if a.Blobs != nil {
		if err := a.Blobs.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing store: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (a *App) closeEventLog() error {
	if a.EventLog == nil {
		return nil
	}
	if err := a.EventLog.Close(); err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}

// ResolveBasePath determines the focuslog home directory. A .env file in the
// working directory is loaded first so it can set FOCUSLOG_HOME. Without it
// the user config directory is used.
func ResolveBasePath() string {
	// A missing .env is the common case.
	_ = godotenv.Load()

	if home := os.Getenv("FOCUSLOG_HOME"); home != "" {
		return home
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".focuslog"
	}
	return filepath.Join(dir, "focuslog")
}

// --- Adapters ---

// blobStoreAdapter adapts storage.BlobStore to core.BlobStore.
type blobStoreAdapter struct {
	store storage.BlobStore
}

func (a *blobStoreAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := a.store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, core.ErrBlobNotFound
	}
	return data, err
}

func (a *blobStoreAdapter) Put(ctx context.Context, key string, data []byte) error {
	return a.store.Put(ctx, key, data)
}

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(level, eventType string, data map[string]any) error {
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   level,
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}

// notifierList fans a notification out to every sink in order.
type notifierList []core.Notifier

func (l notifierList) Notify(n core.Notification) {
	for _, notifier := range l {
		notifier.Notify(n)
	}
}

// webhookAdapter posts phase notifications to the configured webhook. The
// post runs in its own goroutine since the controller calls Notify with its
// lock held.
type webhookAdapter struct {
	notifier observability.Notifier
	events   core.EventLogger
}

func (a *webhookAdapter) Notify(n core.Notification) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
		defer cancel()
		if err := a.notifier.Send(ctx, n.Title, n.Body); err != nil && a.events != nil {
			_ = a.events.LogEvent(core.LevelWarn, EventWebhookFailed, map[string]any{"error": err.Error()})
		}
	}()
}
