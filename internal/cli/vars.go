package cli

import (
	"github.com/valter-silva-au/focuslog/internal/core"
	"github.com/valter-silva-au/focuslog/internal/observability"
	"github.com/valter-silva-au/focuslog/pkg/models"
)

// Core service instances, set during app initialization in app.go.
var (
	BasePath   string
	Config     *models.GlobalConfig
	ConfigMgr  core.ConfigurationManager
	Controller core.TimerController
)

// Observability service instances, set during app initialization in app.go.
var (
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
)
