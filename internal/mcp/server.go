// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the focuslog timer and work log as tools for AI assistants.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/focuslog/internal/core"
	"github.com/valter-silva-au/focuslog/internal/observability"
	"github.com/valter-silva-au/focuslog/pkg/models"
)

// Server wraps the timer controller and exposes it as MCP tools.
type Server struct {
	server      *gomcp.Server
	ctrl        core.TimerController
	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine
}

// NewServer creates an MCP server over ctrl. metricsCalc and alertEngine
// may be nil if observability is disabled.
func NewServer(ctrl core.TimerController, metricsCalc observability.MetricsCalculator, alertEngine observability.AlertEngine, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		ctrl:        ctrl,
		metricsCalc: metricsCalc,
		alertEngine: alertEngine,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "focuslog", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run serves over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type emptyInput struct{}

type statusOutput struct {
	Phase            string  `json:"phase"`
	Running          bool    `json:"running"`
	SecondsRemaining int     `json:"seconds_remaining"`
	Display          string  `json:"display"`
	Progress         float64 `json:"progress"`
	StartedAt        string  `json:"started_at,omitempty"`
	WorkMinutes      float64 `json:"work_minutes"`
	BreakMinutes     float64 `json:"break_minutes"`
	TotalWorkSeconds int     `json:"total_work_seconds"`
	TotalWorkTime    string  `json:"total_work_time"`
	ItemCount        int     `json:"item_count"`
	NamingItemID     string  `json:"naming_item_id,omitempty"`
	NamingLabel      string  `json:"naming_label,omitempty"`
	PendingNames     int     `json:"pending_names"`
	Warning          string  `json:"warning,omitempty"`
}

type skipBreakOutput struct {
	Skipped bool         `json:"skipped"`
	Message string       `json:"message"`
	Status  statusOutput `json:"status"`
}

type applySettingsInput struct {
	WorkMinutes  float64 `json:"work_minutes" jsonschema:"required,work phase length in minutes; fractions allowed, between 0 and 120"`
	BreakMinutes float64 `json:"break_minutes" jsonschema:"required,break phase length in minutes; fractions allowed, between 0 and 60"`
}

type listLogInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of items to return, newest first. 0 returns all."`
}

type itemOutput struct {
	ID          string  `json:"id"`
	Timestamp   string  `json:"timestamp"`
	Time        string  `json:"time"`
	Description string  `json:"description"`
	Duration    float64 `json:"duration_minutes"`
	DurationStr string  `json:"duration"`
}

type listLogOutput struct {
	Items         []itemOutput `json:"items"`
	Count         int          `json:"count"`
	TotalWorkTime string       `json:"total_work_time"`
}

type describeItemInput struct {
	ItemID      string `json:"item_id" jsonschema:"required,the work log item id"`
	Description string `json:"description" jsonschema:"what was worked on; blank keeps the current description"`
}

type messageOutput struct {
	Message string `json:"message"`
}

type clearLogInput struct {
	Confirm bool `json:"confirm" jsonschema:"required,must be true; the whole work log is deleted"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	WorkPhasesCompleted  int            `json:"work_phases_completed"`
	BreakPhasesCompleted int            `json:"break_phases_completed"`
	BreaksSkipped        int            `json:"breaks_skipped"`
	FocusMinutes         float64        `json:"focus_minutes"`
	ItemsCreated         int            `json:"items_created"`
	ItemsNamed           int            `json:"items_named"`
	ItemsLeftDefault     int            `json:"items_left_default"`
	SettingsChanges      int            `json:"settings_changes"`
	StorageWarnings      int            `json:"storage_warnings"`
	CompletionsByDay     map[string]int `json:"completions_by_day"`
	EventCount           int            `json:"event_count"`
	OldestEvent          string         `json:"oldest_event,omitempty"`
	NewestEvent          string         `json:"newest_event,omitempty"`
}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_status",
		Description: "Get the timer state: phase, time remaining, durations, total work time and any open naming request.",
	}, s.handleGetStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "toggle_timer",
		Description: "Start the timer if it is idle, pause it if it is running.",
	}, s.handleToggle)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "reset_timer",
		Description: "Stop the timer and refill the current phase. The work log and total work time are kept.",
	}, s.handleReset)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "skip_break",
		Description: "End the current break and start a full work phase. Does nothing during work.",
	}, s.handleSkipBreak)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "apply_settings",
		Description: "Set the work and break lengths in minutes. Work must be in (0, 120], break in (0, 60].",
	}, s.handleApplySettings)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_log",
		Description: "List logged work items, newest first, with the total work time.",
	}, s.handleListLog)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "name_item",
		Description: "Answer the open naming request for the given item. A blank description keeps the default label.",
	}, s.handleNameItem)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "edit_item",
		Description: "Change the description of a logged work item.",
	}, s.handleEditItem)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "reset_total",
		Description: "Reset the total work time to zero. Logged items are kept.",
	}, s.handleResetTotal)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "clear_log",
		Description: "Delete every logged work item. Requires confirm=true.",
	}, s.handleClearLog)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get focus metrics from the event log: completed phases, skipped breaks, focus minutes and naming activity.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate and return active alerts (skipped breaks, long focus streaks, failing storage).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleGetStatus(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, statusOutput, error) {
	return nil, snapshotToOutput(s.ctrl.Snapshot()), nil
}

func (s *Server) handleToggle(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, statusOutput, error) {
	s.ctrl.Toggle()
	return nil, snapshotToOutput(s.ctrl.Snapshot()), nil
}

func (s *Server) handleReset(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, statusOutput, error) {
	s.ctrl.Reset()
	return nil, snapshotToOutput(s.ctrl.Snapshot()), nil
}

func (s *Server) handleSkipBreak(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, skipBreakOutput, error) {
	out := skipBreakOutput{Skipped: s.ctrl.SkipBreak()}
	if out.Skipped {
		out.Message = "break skipped, starting work time"
	} else {
		out.Message = "not in a break, nothing to skip"
	}
	out.Status = snapshotToOutput(s.ctrl.Snapshot())
	return nil, out, nil
}

func (s *Server) handleApplySettings(_ context.Context, _ *gomcp.CallToolRequest, input applySettingsInput) (*gomcp.CallToolResult, statusOutput, error) {
	if err := s.ctrl.ApplySettings(input.WorkMinutes, input.BreakMinutes); err != nil {
		return errorResult(fmt.Sprintf("applying settings: %s", err)), statusOutput{}, nil
	}
	return nil, snapshotToOutput(s.ctrl.Snapshot()), nil
}

func (s *Server) handleListLog(_ context.Context, _ *gomcp.CallToolRequest, input listLogInput) (*gomcp.CallToolResult, listLogOutput, error) {
	if input.Limit < 0 {
		return errorResult("limit must not be negative"), listLogOutput{}, nil
	}

	items := s.ctrl.Items()
	total := len(items)
	if input.Limit > 0 && len(items) > input.Limit {
		items = items[:input.Limit]
	}

	out := listLogOutput{
		Items:         make([]itemOutput, len(items)),
		Count:         total,
		TotalWorkTime: core.FormatTotal(s.ctrl.Snapshot().TotalWorkTime),
	}
	for i, item := range items {
		out.Items[i] = itemToOutput(item)
	}
	return nil, out, nil
}

func (s *Server) handleNameItem(_ context.Context, _ *gomcp.CallToolRequest, input describeItemInput) (*gomcp.CallToolResult, messageOutput, error) {
	if input.ItemID == "" {
		return errorResult("item_id is required"), messageOutput{}, nil
	}

	err := s.ctrl.CompleteNaming(input.ItemID, input.Description)
	if errors.Is(err, core.ErrNamingOutOfOrder) {
		inFlight := s.ctrl.Snapshot().NamingItemID
		if inFlight == "" {
			return errorResult(fmt.Sprintf("item %s is not waiting for a name; no naming request is open", input.ItemID)), messageOutput{}, nil
		}
		return errorResult(fmt.Sprintf("item %s is not waiting for a name; name %s first", input.ItemID, inFlight)), messageOutput{}, nil
	}
	if err != nil && !isPersistError(err) {
		return errorResult(fmt.Sprintf("naming item %s: %s", input.ItemID, err)), messageOutput{}, nil
	}

	msg := fmt.Sprintf("item %s named", input.ItemID)
	if input.Description == "" {
		msg = fmt.Sprintf("item %s keeps its default label", input.ItemID)
	}
	if next := s.ctrl.Snapshot(); next.NamingItemID != "" {
		msg += fmt.Sprintf("; next to name: %s (%s)", next.NamingItemID, next.NamingLabel)
	}
	return nil, messageOutput{Message: withWarning(msg, err)}, nil
}

func (s *Server) handleEditItem(_ context.Context, _ *gomcp.CallToolRequest, input describeItemInput) (*gomcp.CallToolResult, messageOutput, error) {
	if input.ItemID == "" {
		return errorResult("item_id is required"), messageOutput{}, nil
	}

	err := s.ctrl.EditItem(input.ItemID, input.Description)
	if err != nil && !isPersistError(err) {
		return errorResult(fmt.Sprintf("editing item %s: %s", input.ItemID, err)), messageOutput{}, nil
	}
	return nil, messageOutput{Message: withWarning(fmt.Sprintf("item %s updated", input.ItemID), err)}, nil
}

func (s *Server) handleResetTotal(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, messageOutput, error) {
	err := s.ctrl.ResetTotal()
	return nil, messageOutput{Message: withWarning("total work time reset", err)}, nil
}

func (s *Server) handleClearLog(_ context.Context, _ *gomcp.CallToolRequest, input clearLogInput) (*gomcp.CallToolResult, messageOutput, error) {
	if !input.Confirm {
		return errorResult("confirm must be true to clear the work log"), messageOutput{}, nil
	}
	err := s.ctrl.ClearLog()
	return nil, messageOutput{Message: withWarning("work log cleared", err)}, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (observability may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := ParseSince(sinceStr, time.Now())
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		WorkPhasesCompleted:  metrics.WorkPhasesCompleted,
		BreakPhasesCompleted: metrics.BreakPhasesCompleted,
		BreaksSkipped:        metrics.BreaksSkipped,
		FocusMinutes:         metrics.FocusMinutes,
		ItemsCreated:         metrics.ItemsCreated,
		ItemsNamed:           metrics.ItemsNamed,
		ItemsLeftDefault:     metrics.ItemsLeftDefault,
		SettingsChanges:      metrics.SettingsChanges,
		StorageWarnings:      metrics.StorageWarnings,
		CompletionsByDay:     metrics.CompletionsByDay,
		EventCount:           metrics.EventCount,
	}
	if out.CompletionsByDay == nil {
		out.CompletionsByDay = make(map[string]int)
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available (observability may be disabled)"), getAlertsOutput{}, nil
	}

	alerts, err := s.alertEngine.Evaluate()
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{}, nil
	}

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

// --- Helpers ---

func snapshotToOutput(snap models.Snapshot) statusOutput {
	out := statusOutput{
		Phase:            string(snap.State.Phase),
		Running:          snap.State.Running,
		SecondsRemaining: snap.State.SecondsRemaining,
		Display:          core.FormatClock(snap.State.SecondsRemaining),
		Progress:         core.Progress(snap.State.SecondsRemaining, snap.TotalSeconds),
		WorkMinutes:      snap.Durations.WorkMinutes,
		BreakMinutes:     snap.Durations.BreakMinutes,
		TotalWorkSeconds: snap.TotalWorkTime,
		TotalWorkTime:    core.FormatTotal(snap.TotalWorkTime),
		ItemCount:        snap.ItemCount,
		NamingItemID:     snap.NamingItemID,
		NamingLabel:      snap.NamingLabel,
		PendingNames:     snap.PendingNames,
		Warning:          snap.LastWarning,
	}
	if snap.State.StartedAt != nil {
		out.StartedAt = snap.State.StartedAt.Format(time.RFC3339)
	}
	return out
}

func itemToOutput(item models.WorkLogItem) itemOutput {
	return itemOutput{
		ID:          item.ID,
		Timestamp:   item.Timestamp.Format(time.RFC3339),
		Time:        core.FormatItemTime(item.Timestamp),
		Description: item.Description,
		Duration:    item.Duration,
		DurationStr: core.FormatItemDuration(item.Duration),
	}
}

func isPersistError(err error) bool {
	var perr *core.PersistError
	return errors.As(err, &perr)
}

// withWarning appends a persistence warning to a success message.
func withWarning(msg string, err error) string {
	if err == nil {
		return msg
	}
	return fmt.Sprintf("%s (warning: %s)", msg, err)
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{CompletionsByDay: make(map[string]int)}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// ParseSince parses a window like "7d", "30d" or "24h" into the time that
// far before now.
func ParseSince(s string, now time.Time) (time.Time, error) {
	now = now.UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if num < 0 {
		return time.Time{}, fmt.Errorf("invalid duration %q: must not be negative", s)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
