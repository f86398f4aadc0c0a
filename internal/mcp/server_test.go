package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/focuslog/internal/core"
	"github.com/valter-silva-au/focuslog/internal/observability"
	"github.com/valter-silva-au/focuslog/pkg/models"
)

// --- Fake implementations ---

type memBlobs struct {
	mu       sync.Mutex
	data     map[string][]byte
	failPuts bool
}

func newMemBlobs() *memBlobs {
	return &memBlobs{data: make(map[string][]byte)}
}

func (m *memBlobs) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, core.ErrBlobNotFound
	}
	return v, nil
}

func (m *memBlobs) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPuts {
		return errors.New("disk full")
	}
	m.data[key] = append([]byte(nil), data...)
	return nil
}

type fakeMetricsCalculator struct {
	metrics *observability.Metrics
	since   time.Time
}

func (f *fakeMetricsCalculator) Calculate(since time.Time) (*observability.Metrics, error) {
	f.since = since
	return f.metrics, nil
}

type fakeAlertEngine struct {
	alerts []observability.Alert
	err    error
}

func (f *fakeAlertEngine) Evaluate() ([]observability.Alert, error) {
	return f.alerts, f.err
}

// --- Test helpers ---

// newTestController returns a controller with a 3 second work phase and a
// 2 second break so tests can drive whole phases through Heartbeat.
func newTestController(t *testing.T, blobs *memBlobs) core.TimerController {
	t.Helper()
	store := core.NewWorkLogStore(blobs)
	if err := store.Load(); err != nil {
		t.Fatalf("loading store: %v", err)
	}
	n := 0
	return core.NewTimerController(core.ControllerOptions{
		Durations: models.DurationConfig{WorkMinutes: 0.05, BreakMinutes: 2.0 / 60},
		Store:     store,
		Now: func() time.Time {
			return time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)
		},
		NewID: func() string {
			n++
			return fmt.Sprintf("item-%d", n)
		},
	})
}

// completeWorkPhase runs the clock until the current work phase ends.
func completeWorkPhase(t *testing.T, ctrl core.TimerController) {
	t.Helper()
	ctrl.Start()
	for i := 0; i < 10; i++ {
		ctrl.Heartbeat()
		if ctrl.Snapshot().State.Phase == models.PhaseBreak {
			return
		}
	}
	t.Fatal("work phase did not complete")
}

// callTool is a helper that connects a client to the server and calls a tool.
func callTool(t *testing.T, srv *Server, toolName string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()

	ctx := context.Background()
	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)

	t1, t2 := gomcp.NewInMemoryTransports()

	go func() {
		_ = srv.MCPServer().Run(ctx, t1)
	}()

	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &gomcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call tool %s: %v", toolName, err)
	}

	return result
}

// decode reads the tool output from the structured content, falling back to
// the text content.
func decode(t *testing.T, result *gomcp.CallToolResult, out any) {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}
	if result.StructuredContent != nil {
		data, _ := json.Marshal(result.StructuredContent)
		if err := json.Unmarshal(data, out); err == nil {
			return
		}
	}
	text := extractText(result)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		t.Fatalf("unmarshalling output: %v (text was: %s)", err, text)
	}
}

// --- Tests ---

func TestGetStatus_Initial(t *testing.T) {
	srv := NewServer(newTestController(t, newMemBlobs()), nil, nil, "test")

	var out statusOutput
	decode(t, callTool(t, srv, "get_status", map[string]any{}), &out)

	if out.Phase != "work" || out.Running {
		t.Errorf("phase/running = %s/%v, want work/false", out.Phase, out.Running)
	}
	if out.SecondsRemaining != 3 || out.Display != "00:03" {
		t.Errorf("remaining = %d (%s), want 3 (00:03)", out.SecondsRemaining, out.Display)
	}
	if out.Progress != 0 {
		t.Errorf("progress = %v, want 0 at the start of a phase", out.Progress)
	}
	if out.TotalWorkTime != "00:00:00" || out.ItemCount != 0 {
		t.Errorf("total/items = %s/%d, want 00:00:00/0", out.TotalWorkTime, out.ItemCount)
	}
	if out.StartedAt != "" {
		t.Errorf("started_at = %q, want empty before the first start", out.StartedAt)
	}
}

func TestToggleTimer(t *testing.T) {
	ctrl := newTestController(t, newMemBlobs())
	srv := NewServer(ctrl, nil, nil, "test")

	var out statusOutput
	decode(t, callTool(t, srv, "toggle_timer", map[string]any{}), &out)
	if !out.Running {
		t.Fatal("expected timer running after first toggle")
	}
	if out.StartedAt == "" {
		t.Error("expected started_at after start")
	}

	decode(t, callTool(t, srv, "toggle_timer", map[string]any{}), &out)
	if out.Running {
		t.Fatal("expected timer paused after second toggle")
	}
}

func TestResetTimer_KeepsLog(t *testing.T) {
	ctrl := newTestController(t, newMemBlobs())
	completeWorkPhase(t, ctrl)
	srv := NewServer(ctrl, nil, nil, "test")

	var out statusOutput
	decode(t, callTool(t, srv, "reset_timer", map[string]any{}), &out)

	if out.Running {
		t.Error("expected timer stopped after reset")
	}
	if out.Phase != "break" || out.SecondsRemaining != 2 {
		t.Errorf("phase/remaining = %s/%d, want break/2", out.Phase, out.SecondsRemaining)
	}
	if out.ItemCount != 1 {
		t.Errorf("item_count = %d, want 1", out.ItemCount)
	}
}

func TestSkipBreak(t *testing.T) {
	ctrl := newTestController(t, newMemBlobs())
	srv := NewServer(ctrl, nil, nil, "test")

	var out skipBreakOutput
	decode(t, callTool(t, srv, "skip_break", map[string]any{}), &out)
	if out.Skipped {
		t.Error("skip_break during work should report false")
	}

	completeWorkPhase(t, ctrl)
	decode(t, callTool(t, srv, "skip_break", map[string]any{}), &out)
	if !out.Skipped {
		t.Fatalf("skip_break during break should report true: %s", out.Message)
	}
	if out.Status.Phase != "work" || out.Status.SecondsRemaining != 3 {
		t.Errorf("after skip: %s/%d, want work/3", out.Status.Phase, out.Status.SecondsRemaining)
	}
}

func TestApplySettings(t *testing.T) {
	srv := NewServer(newTestController(t, newMemBlobs()), nil, nil, "test")

	var out statusOutput
	decode(t, callTool(t, srv, "apply_settings", map[string]any{
		"work_minutes":  50,
		"break_minutes": 10,
	}), &out)

	if out.WorkMinutes != 50 || out.BreakMinutes != 10 {
		t.Errorf("durations = %v/%v, want 50/10", out.WorkMinutes, out.BreakMinutes)
	}
	if out.SecondsRemaining != 3000 || out.Display != "50:00" {
		t.Errorf("remaining = %d (%s), want 3000 (50:00)", out.SecondsRemaining, out.Display)
	}
}

func TestApplySettings_Invalid(t *testing.T) {
	tests := []struct {
		name string
		work float64
		brk  float64
		want string
	}{
		{"zero work", 0, 5, "work duration must be greater than 0"},
		{"work too long", 121, 5, "cannot exceed 120 minutes"},
		{"break too long", 25, 61, "cannot exceed 60 minutes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := newTestController(t, newMemBlobs())
			srv := NewServer(ctrl, nil, nil, "test")

			result := callTool(t, srv, "apply_settings", map[string]any{
				"work_minutes":  tt.work,
				"break_minutes": tt.brk,
			})
			if !result.IsError {
				t.Fatal("expected error result")
			}
			if text := extractText(result); !strings.Contains(text, tt.want) {
				t.Errorf("error %q should contain %q", text, tt.want)
			}
			if got := ctrl.Snapshot().Durations; got.WorkMinutes != 0.05 {
				t.Errorf("durations changed to %+v", got)
			}
		})
	}
}

func TestListLog(t *testing.T) {
	ctrl := newTestController(t, newMemBlobs())
	completeWorkPhase(t, ctrl)
	ctrl.SkipBreak()
	completeWorkPhase(t, ctrl)
	srv := NewServer(ctrl, nil, nil, "test")

	var out listLogOutput
	decode(t, callTool(t, srv, "list_log", map[string]any{}), &out)

	if out.Count != 2 || len(out.Items) != 2 {
		t.Fatalf("count = %d, items = %d, want 2/2", out.Count, len(out.Items))
	}
	if out.Items[0].ID != "item-2" || out.Items[0].Description != "Item 2" {
		t.Errorf("first item = %+v, want newest (item-2)", out.Items[0])
	}
	if out.Items[0].DurationStr != "3s" {
		t.Errorf("duration = %q, want 3s", out.Items[0].DurationStr)
	}

	decode(t, callTool(t, srv, "list_log", map[string]any{"limit": 1}), &out)
	if out.Count != 2 || len(out.Items) != 1 {
		t.Errorf("limited: count = %d, items = %d, want 2/1", out.Count, len(out.Items))
	}
}

func TestListLog_NegativeLimit(t *testing.T) {
	srv := NewServer(newTestController(t, newMemBlobs()), nil, nil, "test")

	result := callTool(t, srv, "list_log", map[string]any{"limit": -1})
	if !result.IsError {
		t.Fatal("expected error for negative limit")
	}
}

func TestNameItem(t *testing.T) {
	ctrl := newTestController(t, newMemBlobs())
	completeWorkPhase(t, ctrl)
	srv := NewServer(ctrl, nil, nil, "test")

	var status statusOutput
	decode(t, callTool(t, srv, "get_status", map[string]any{}), &status)
	if status.NamingItemID != "item-1" || status.NamingLabel != "Item 1" {
		t.Fatalf("naming = %s/%s, want item-1/Item 1", status.NamingItemID, status.NamingLabel)
	}

	var out messageOutput
	decode(t, callTool(t, srv, "name_item", map[string]any{
		"item_id":     "item-1",
		"description": "wrote the parser",
	}), &out)
	if !strings.Contains(out.Message, "item-1 named") {
		t.Errorf("message = %q", out.Message)
	}

	items := ctrl.Items()
	if items[0].Description != "wrote the parser" {
		t.Errorf("description = %q, want %q", items[0].Description, "wrote the parser")
	}
	if ctrl.Snapshot().NamingItemID != "" {
		t.Error("expected no naming request after answering")
	}
}

func TestNameItem_BlankKeepsDefault(t *testing.T) {
	ctrl := newTestController(t, newMemBlobs())
	completeWorkPhase(t, ctrl)
	srv := NewServer(ctrl, nil, nil, "test")

	var out messageOutput
	decode(t, callTool(t, srv, "name_item", map[string]any{
		"item_id":     "item-1",
		"description": "",
	}), &out)
	if !strings.Contains(out.Message, "default label") {
		t.Errorf("message = %q", out.Message)
	}
	if got := ctrl.Items()[0].Description; got != "Item 1" {
		t.Errorf("description = %q, want Item 1", got)
	}
}

func TestNameItem_OutOfOrder(t *testing.T) {
	ctrl := newTestController(t, newMemBlobs())
	completeWorkPhase(t, ctrl)
	ctrl.SkipBreak()
	completeWorkPhase(t, ctrl)
	srv := NewServer(ctrl, nil, nil, "test")

	result := callTool(t, srv, "name_item", map[string]any{
		"item_id":     "item-2",
		"description": "too early",
	})
	if !result.IsError {
		t.Fatal("expected error naming a queued item before the in-flight one")
	}
	if text := extractText(result); !strings.Contains(text, "name item-1 first") {
		t.Errorf("error = %q", text)
	}

	var out messageOutput
	decode(t, callTool(t, srv, "name_item", map[string]any{
		"item_id":     "item-1",
		"description": "first",
	}), &out)
	if !strings.Contains(out.Message, "next to name: item-2 (Item 2)") {
		t.Errorf("message = %q, want the next request announced", out.Message)
	}
}

func TestNameItem_NothingOpen(t *testing.T) {
	srv := NewServer(newTestController(t, newMemBlobs()), nil, nil, "test")

	result := callTool(t, srv, "name_item", map[string]any{
		"item_id":     "item-9",
		"description": "x",
	})
	if !result.IsError {
		t.Fatal("expected error with no naming request open")
	}
	if text := extractText(result); !strings.Contains(text, "no naming request is open") {
		t.Errorf("error = %q", text)
	}
}

func TestEditItem(t *testing.T) {
	ctrl := newTestController(t, newMemBlobs())
	completeWorkPhase(t, ctrl)
	srv := NewServer(ctrl, nil, nil, "test")

	var out messageOutput
	decode(t, callTool(t, srv, "edit_item", map[string]any{
		"item_id":     "item-1",
		"description": "reviewed PRs",
	}), &out)
	if got := ctrl.Items()[0].Description; got != "reviewed PRs" {
		t.Errorf("description = %q, want reviewed PRs", got)
	}

	result := callTool(t, srv, "edit_item", map[string]any{
		"item_id":     "missing",
		"description": "x",
	})
	if !result.IsError {
		t.Fatal("expected error editing an unknown item")
	}
}

func TestEditItem_PersistFailureIsWarning(t *testing.T) {
	blobs := newMemBlobs()
	ctrl := newTestController(t, blobs)
	completeWorkPhase(t, ctrl)
	blobs.failPuts = true
	srv := NewServer(ctrl, nil, nil, "test")

	var out messageOutput
	decode(t, callTool(t, srv, "edit_item", map[string]any{
		"item_id":     "item-1",
		"description": "kept in memory",
	}), &out)
	if !strings.Contains(out.Message, "warning") {
		t.Errorf("message = %q, want a warning", out.Message)
	}
	if got := ctrl.Items()[0].Description; got != "kept in memory" {
		t.Errorf("description = %q", got)
	}
}

func TestResetTotal(t *testing.T) {
	ctrl := newTestController(t, newMemBlobs())
	completeWorkPhase(t, ctrl)
	srv := NewServer(ctrl, nil, nil, "test")

	if ctrl.Snapshot().TotalWorkTime == 0 {
		t.Fatal("expected accumulated work time before reset")
	}
	var out messageOutput
	decode(t, callTool(t, srv, "reset_total", map[string]any{}), &out)

	snap := ctrl.Snapshot()
	if snap.TotalWorkTime != 0 {
		t.Errorf("total = %d, want 0", snap.TotalWorkTime)
	}
	if snap.ItemCount != 1 {
		t.Errorf("item_count = %d, want 1", snap.ItemCount)
	}
}

func TestClearLog(t *testing.T) {
	ctrl := newTestController(t, newMemBlobs())
	completeWorkPhase(t, ctrl)
	srv := NewServer(ctrl, nil, nil, "test")

	result := callTool(t, srv, "clear_log", map[string]any{"confirm": false})
	if !result.IsError {
		t.Fatal("expected error without confirmation")
	}
	if len(ctrl.Items()) != 1 {
		t.Fatal("log cleared without confirmation")
	}

	var out messageOutput
	decode(t, callTool(t, srv, "clear_log", map[string]any{"confirm": true}), &out)
	if len(ctrl.Items()) != 0 {
		t.Errorf("items = %d, want 0", len(ctrl.Items()))
	}
	if ctrl.Snapshot().NamingItemID != "" {
		t.Error("expected naming queue dropped with the log")
	}
}

func TestGetMetrics(t *testing.T) {
	now := time.Now().UTC()
	mc := &fakeMetricsCalculator{
		metrics: &observability.Metrics{
			WorkPhasesCompleted: 5,
			BreaksSkipped:       2,
			FocusMinutes:        125,
			CompletionsByDay:    map[string]int{"2025-03-10": 5},
			EventCount:          42,
			OldestEvent:         &now,
			NewestEvent:         &now,
		},
	}
	srv := NewServer(newTestController(t, newMemBlobs()), mc, nil, "test")

	var m metricsOutput
	decode(t, callTool(t, srv, "get_metrics", map[string]any{}), &m)

	if m.WorkPhasesCompleted != 5 || m.BreaksSkipped != 2 {
		t.Errorf("work/skipped = %d/%d, want 5/2", m.WorkPhasesCompleted, m.BreaksSkipped)
	}
	if m.FocusMinutes != 125 {
		t.Errorf("focus minutes = %v, want 125", m.FocusMinutes)
	}
	if m.EventCount != 42 {
		t.Errorf("expected 42 events, got %d", m.EventCount)
	}
	if age := time.Since(mc.since); age < 6*24*time.Hour || age > 8*24*time.Hour {
		t.Errorf("default window starts %s ago, want about 7 days", age)
	}
}

func TestGetMetrics_BadSince(t *testing.T) {
	mc := &fakeMetricsCalculator{metrics: &observability.Metrics{}}
	srv := NewServer(newTestController(t, newMemBlobs()), mc, nil, "test")

	result := callTool(t, srv, "get_metrics", map[string]any{"since": "7w"})
	if !result.IsError {
		t.Fatal("expected error for unsupported suffix")
	}
}

func TestGetMetricsDisabled(t *testing.T) {
	srv := NewServer(newTestController(t, newMemBlobs()), nil, nil, "test")

	result := callTool(t, srv, "get_metrics", map[string]any{})

	if !result.IsError {
		t.Fatal("expected error when metrics calculator is nil")
	}
	if extractText(result) == "" {
		t.Fatal("expected error message in result")
	}
}

func TestGetAlerts(t *testing.T) {
	now := time.Now().UTC()
	ae := &fakeAlertEngine{
		alerts: []observability.Alert{
			{
				ID:          "breaks-skipped",
				Condition:   "breaks_skipped",
				Severity:    observability.SeverityMedium,
				Message:     "3 breaks skipped in the last 24 hours",
				TriggeredAt: now,
			},
		},
	}
	srv := NewServer(newTestController(t, newMemBlobs()), nil, ae, "test")

	var out getAlertsOutput
	decode(t, callTool(t, srv, "get_alerts", map[string]any{}), &out)

	if out.Count != 1 {
		t.Fatalf("expected 1 alert, got %d", out.Count)
	}
	if out.Alerts[0].Severity != "medium" || out.Alerts[0].Condition != "breaks_skipped" {
		t.Errorf("alert = %+v", out.Alerts[0])
	}
}

func TestGetAlerts_EvaluateError(t *testing.T) {
	ae := &fakeAlertEngine{err: errors.New("log unreadable")}
	srv := NewServer(newTestController(t, newMemBlobs()), nil, ae, "test")

	result := callTool(t, srv, "get_alerts", map[string]any{})
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if text := extractText(result); !strings.Contains(text, "log unreadable") {
		t.Errorf("error = %q", text)
	}
}

func TestGetAlertsDisabled(t *testing.T) {
	srv := NewServer(newTestController(t, newMemBlobs()), nil, nil, "test")

	result := callTool(t, srv, "get_alerts", map[string]any{})

	if !result.IsError {
		t.Fatal("expected error when alert engine is nil")
	}
}

func TestParseSince(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{"7d", now.AddDate(0, 0, -7), false},
		{"30d", now.AddDate(0, 0, -30), false},
		{"24h", now.Add(-24 * time.Hour), false},
		{"1h", now.Add(-time.Hour), false},
		{"", time.Time{}, true},
		{"x", time.Time{}, true},
		{"7x", time.Time{}, true},
		{"-2d", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSince(tt.input, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSince(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseSince(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

// extractText extracts the text from the first TextContent in a CallToolResult.
func extractText(result *gomcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(*gomcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}
