package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/focuslog/internal/core"
)

// Dashboard panel indices.
const (
	panelFocus = iota
	panelMetrics
	panelAlerts
	panelCount
)

// dashboardRecentItems is how many work items the focus panel lists.
const dashboardRecentItems = 5

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	focus       *focusSnapshot
	metricsData *metricsSnapshot
	alerts      []alertSnapshot

	// State.
	loading bool
	err     error
}

type focusSnapshot struct {
	totalWork string
	itemCount int
	durations string
	recent    []string
}

type metricsSnapshot struct {
	workPhases    int
	breaksTaken   int
	breaksSkipped int
	focusMinutes  float64
	itemsNamed    int
	eventCount    int
}

type alertSnapshot struct {
	severity string
	message  string
	time     string
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	focus   *focusSnapshot
	metrics *metricsSnapshot
	alerts  []alertSnapshot
	err     error
}

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelFocus,
		loading:     true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.focus = msg.focus
		m.metricsData = msg.metrics
		m.alerts = msg.alerts
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" focuslog dashboard ")
	help := helpStyle.Render("tab: switch panel | r: refresh | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading data...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	focusPanel := m.renderFocusPanel()
	metricsPanel := m.renderMetricsPanel()
	alertsPanel := m.renderAlertsPanel()

	// Available width for panels after accounting for margins.
	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		colWidth := availableWidth / 3
		focusPanel = m.applyPanelStyle(panelFocus, focusPanel, colWidth-4)
		metricsPanel = m.applyPanelStyle(panelMetrics, metricsPanel, colWidth-4)
		alertsPanel = m.applyPanelStyle(panelAlerts, alertsPanel, colWidth-4)
		body = lipgloss.JoinHorizontal(lipgloss.Top, focusPanel, metricsPanel, alertsPanel)
	} else {
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		focusPanel = m.applyPanelStyle(panelFocus, focusPanel, panelWidth)
		metricsPanel = m.applyPanelStyle(panelMetrics, metricsPanel, panelWidth)
		alertsPanel = m.applyPanelStyle(panelAlerts, alertsPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, focusPanel, metricsPanel, alertsPanel)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderFocusPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Focus"))
	b.WriteString("\n")

	if m.focus == nil {
		b.WriteString("  Timer not available.")
		return b.String()
	}

	f := m.focus
	b.WriteString(fmt.Sprintf("  %-14s %s\n", "Total work", f.totalWork))
	b.WriteString(fmt.Sprintf("  %-14s %d\n", "Items", f.itemCount))
	b.WriteString(fmt.Sprintf("  %-14s %s\n", "Durations", f.durations))

	if len(f.recent) > 0 {
		b.WriteString("\n  Recent:\n")
		for _, line := range f.recent {
			b.WriteString("    " + line + "\n")
		}
	}

	return b.String()
}

func (m dashboardModel) renderMetricsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Metrics (7d)"))
	b.WriteString("\n")

	if m.metricsData == nil {
		b.WriteString("  No metrics available.")
		return b.String()
	}

	md := m.metricsData
	lines := []struct {
		label string
		value int
	}{
		{"Events", md.eventCount},
		{"Work phases", md.workPhases},
		{"Breaks taken", md.breaksTaken},
		{"Breaks skipped", md.breaksSkipped},
		{"Items named", md.itemsNamed},
	}

	for _, l := range lines {
		b.WriteString(fmt.Sprintf("  %-14s %d\n", l.label, l.value))
	}
	b.WriteString(fmt.Sprintf("  %-14s %.0f\n", "Focus minutes", md.focusMinutes))

	return b.String()
}

func (m dashboardModel) renderAlertsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Alerts"))
	b.WriteString("\n")

	if len(m.alerts) == 0 {
		b.WriteString("  No active alerts.")
		return b.String()
	}

	for _, a := range m.alerts {
		sev := styleForSeverity(a.severity).Render(fmt.Sprintf("[%s]", strings.ToUpper(a.severity)))
		b.WriteString(fmt.Sprintf("  %s %s\n", sev, a.message))
	}

	b.WriteString(fmt.Sprintf("\n  Total: %d alert(s)", len(m.alerts)))

	return b.String()
}

func loadData() tea.Msg {
	var result dataLoadedMsg

	if Controller != nil {
		snap := Controller.Snapshot()
		items := Controller.Items()
		result.focus = &focusSnapshot{
			totalWork: core.FormatTotal(snap.TotalWorkTime),
			itemCount: snap.ItemCount,
			durations: fmt.Sprintf("%s / %s", formatMinutes(snap.Durations.WorkMinutes), formatMinutes(snap.Durations.BreakMinutes)),
		}
		for i, item := range items {
			if i == dashboardRecentItems {
				break
			}
			result.focus.recent = append(result.focus.recent, fmt.Sprintf("%s  %s",
				core.FormatItemTime(item.Timestamp), item.Description))
		}
	}

	if MetricsCalc != nil {
		since := time.Now().UTC().AddDate(0, 0, -7)
		metrics, err := MetricsCalc.Calculate(since)
		if err != nil {
			result.err = fmt.Errorf("loading metrics: %w", err)
			return result
		}
		result.metrics = &metricsSnapshot{
			workPhases:    metrics.WorkPhasesCompleted,
			breaksTaken:   metrics.BreakPhasesCompleted,
			breaksSkipped: metrics.BreaksSkipped,
			focusMinutes:  metrics.FocusMinutes,
			itemsNamed:    metrics.ItemsNamed,
			eventCount:    metrics.EventCount,
		}
	}

	if AlertEngine != nil {
		alerts, err := AlertEngine.Evaluate()
		if err != nil {
			result.err = fmt.Errorf("loading alerts: %w", err)
			return result
		}
		result.alerts = make([]alertSnapshot, 0, len(alerts))

		// Sort alerts by severity: high first, then medium, then low.
		sort.Slice(alerts, func(i, j int) bool {
			return severityRank(string(alerts[i].Severity)) < severityRank(string(alerts[j].Severity))
		})

		for _, a := range alerts {
			result.alerts = append(result.alerts, alertSnapshot{
				severity: string(a.Severity),
				message:  a.Message,
				time:     a.TriggeredAt.Format("2006-01-02 15:04 UTC"),
			})
		}
	}

	return result
}

func severityRank(s string) int {
	switch s {
	case "high":
		return 0
	case "medium":
		return 1
	case "low":
		return 2
	default:
		return 3
	}
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for focus metrics and alerts",
	Long: `Launch an interactive terminal dashboard showing total work time, recent
work items, focus metrics for the last 7 days, and active alerts.

Navigate between panels with Tab, refresh with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (observability may be disabled)")
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
