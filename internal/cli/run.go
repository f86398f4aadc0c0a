package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/focuslog/internal/core"
	"github.com/valter-silva-au/focuslog/pkg/models"
)

type screen int

const (
	screenTimer screen = iota
	screenNaming
	screenEdit
	screenSettings
	screenLog
)

// Settings form field indices.
const (
	fieldWorkMin = iota
	fieldWorkSec
	fieldBreakMin
	fieldBreakSec
	fieldCount
)

type timerModel struct {
	ctrl     core.TimerController
	interval time.Duration

	snap  models.Snapshot
	items []models.WorkLogItem

	screen screen
	input  textinput.Model
	fields []textinput.Model
	focus  int
	bar    progress.Model
	cursor int
	width  int

	// Naming request currently open, possibly waiting behind another screen.
	namingID    string
	namingLabel string
	namingNum   int

	editID       string
	confirmClear bool

	notice    string
	noticeSeq int
	message   string
	isError   bool
}

type tickMsg time.Time

type namingRequestMsg struct {
	itemID string
	label  string
}

type notificationMsg core.Notification

type clearNoticeMsg struct {
	seq int
}

func newTimerModel(ctrl core.TimerController, interval time.Duration) timerModel {
	if interval <= 0 {
		interval = time.Second
	}
	m := timerModel{
		ctrl:     ctrl,
		interval: interval,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40), progress.WithoutPercentage()),
	}
	m.refresh()
	return m
}

func (m timerModel) Init() tea.Cmd {
	return m.tick()
}

func (m timerModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *timerModel) refresh() {
	m.snap = m.ctrl.Snapshot()
	m.items = m.ctrl.Items()
	if m.cursor >= len(m.items) {
		m.cursor = len(m.items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m timerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(max(msg.Width-8, 10), 60)
		return m, nil

	case tickMsg:
		m.ctrl.Heartbeat()
		m.refresh()
		return m, m.tick()

	case namingRequestMsg:
		m.namingID = msg.itemID
		m.namingLabel = msg.label
		m.refresh()
		if m.screen == screenTimer || m.screen == screenLog {
			cmd := m.openNaming()
			return m, cmd
		}
		return m, nil

	case notificationMsg:
		m.noticeSeq++
		m.notice = fmt.Sprintf("%s %s", msg.Title, msg.Body)
		seq := m.noticeSeq
		return m, tea.Tick(time.Duration(msg.DurationMs)*time.Millisecond, func(time.Time) tea.Msg {
			return clearNoticeMsg{seq: seq}
		})

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.screen {
		case screenNaming:
			return m.updateNaming(msg)
		case screenEdit:
			return m.updateEdit(msg)
		case screenSettings:
			return m.updateSettings(msg)
		case screenLog:
			return m.updateLog(msg)
		default:
			return m.updateTimer(msg)
		}
	}

	return m.updateInputs(msg)
}

func (m timerModel) updateTimer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.message = ""
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case " ", "s":
		m.ctrl.Toggle()
	case "r":
		m.ctrl.Reset()
	case "b":
		if !m.ctrl.SkipBreak() {
			m.setMessage("Not in a break.", false)
		}
	case "t":
		m.applyResult(m.ctrl.ResetTotal(), "Total work time reset.")
	case "c":
		m.refresh()
		cmd := m.openSettings()
		return m, cmd
	case "l":
		m.screen = screenLog
		m.cursor = 0
	case "n":
		if m.namingID != "" {
			m.refresh()
			cmd := m.openNaming()
			return m, cmd
		}
	}
	m.refresh()
	return m, nil
}

func (m timerModel) updateNaming(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.finishNaming(m.input.Value())
	case "esc":
		return m.finishNaming("")
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m timerModel) finishNaming(text string) (tea.Model, tea.Cmd) {
	id := m.namingID
	m.namingID = ""
	m.namingLabel = ""
	m.screen = screenTimer
	m.message = ""

	err := m.ctrl.CompleteNaming(id, text)
	if errors.Is(err, core.ErrNamingOutOfOrder) {
		m.setMessage("That work item is no longer waiting for a name.", true)
	} else {
		m.applyResult(err, "")
	}
	m.refresh()
	return m, nil
}

func (m timerModel) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.message = ""
		m.applyResult(m.ctrl.EditItem(m.editID, m.input.Value()), "")
		m.editID = ""
		m.screen = screenLog
		m.refresh()
		return m, nil
	case "esc":
		m.editID = ""
		m.screen = screenLog
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m timerModel) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.message = ""
		m.screen = screenTimer
		cmd := m.resumeNaming()
		return m, cmd
	case "tab", "down":
		cmd := m.focusField((m.focus + 1) % fieldCount)
		return m, cmd
	case "shift+tab", "up":
		cmd := m.focusField((m.focus - 1 + fieldCount) % fieldCount)
		return m, cmd
	case "enter":
		values, err := m.settingsValues()
		if err == nil {
			err = m.ctrl.ApplySettingsForm(values[fieldWorkMin], values[fieldWorkSec], values[fieldBreakMin], values[fieldBreakSec])
		}
		if err != nil {
			m.setMessage(err.Error(), true)
			return m, nil
		}
		m.refresh()
		m.setMessage("Settings saved.", false)
		if m.snap.LastWarning != "" {
			m.setMessage(m.snap.LastWarning, true)
		}
		m.screen = screenTimer
		cmd := m.resumeNaming()
		return m, cmd
	}
	var cmd tea.Cmd
	m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
	return m, cmd
}

func (m timerModel) updateLog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmClear {
		m.confirmClear = false
		m.message = ""
		if msg.String() == "y" {
			m.applyResult(m.ctrl.ClearLog(), "Work log cleared.")
			m.refresh()
		}
		return m, nil
	}

	m.message = ""
	switch msg.String() {
	case "esc", "q", "l":
		m.screen = screenTimer
		cmd := m.resumeNaming()
		return m, cmd
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "e", "enter":
		if len(m.items) == 0 {
			return m, nil
		}
		item := m.items[m.cursor]
		m.editID = item.ID
		m.screen = screenEdit
		m.input = newTextInput(item.Description)
		m.input.SetValue(item.Description)
		cmd := m.input.Focus()
		return m, cmd
	case "D":
		if len(m.items) > 0 {
			m.confirmClear = true
			m.setMessage("Clear the whole work log? (y/n)", false)
		}
	}
	return m, nil
}

// updateInputs routes non-key messages such as cursor blinks to the active input.
func (m timerModel) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.screen {
	case screenNaming, screenEdit:
		m.input, cmd = m.input.Update(msg)
	case screenSettings:
		m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
	}
	return m, cmd
}

func (m *timerModel) openNaming() tea.Cmd {
	m.screen = screenNaming
	m.namingNum = m.sessionNumber(m.namingID)
	m.input = newTextInput(m.namingLabel)
	return m.input.Focus()
}

// resumeNaming opens a naming request that arrived while another screen
// was showing.
func (m *timerModel) resumeNaming() tea.Cmd {
	if m.namingID == "" {
		return nil
	}
	return m.openNaming()
}

func (m *timerModel) openSettings() tea.Cmd {
	m.screen = screenSettings
	m.message = ""
	workMin, workSec := core.SplitMinutes(m.snap.Durations.WorkMinutes)
	breakMin, breakSec := core.SplitMinutes(m.snap.Durations.BreakMinutes)

	m.fields = make([]textinput.Model, fieldCount)
	for i, v := range []int{workMin, workSec, breakMin, breakSec} {
		f := textinput.New()
		f.CharLimit = 3
		f.Width = 4
		f.Prompt = ""
		f.SetValue(strconv.Itoa(v))
		m.fields[i] = f
	}
	return m.focusField(fieldWorkMin)
}

func (m *timerModel) focusField(i int) tea.Cmd {
	m.fields[m.focus].Blur()
	m.focus = i
	return m.fields[i].Focus()
}

func (m timerModel) settingsValues() ([fieldCount]int, error) {
	var values [fieldCount]int
	for i, f := range m.fields {
		s := strings.TrimSpace(f.Value())
		if s == "" {
			continue
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return values, fmt.Errorf("minutes and seconds must be whole numbers")
		}
		values[i] = v
	}
	return values, nil
}

// sessionNumber returns the 1-based position of id in completion order.
func (m timerModel) sessionNumber(id string) int {
	for i, item := range m.items {
		if item.ID == id {
			return len(m.items) - i
		}
	}
	return m.snap.ItemCount
}

// applyResult reports err, treating persistence failures as warnings, or
// shows ok when there is no error.
func (m *timerModel) applyResult(err error, ok string) {
	var perr *core.PersistError
	switch {
	case err == nil:
		if ok != "" {
			m.setMessage(ok, false)
		}
	case errors.As(err, &perr):
		m.setMessage("warning: "+perr.Error(), true)
	default:
		m.setMessage(err.Error(), true)
	}
}

func (m *timerModel) setMessage(msg string, isError bool) {
	m.message = msg
	m.isError = isError
}

func newTextInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 200
	ti.Width = 40
	return ti
}

// --- Views ---

func (m timerModel) View() string {
	var body, help string
	switch m.screen {
	case screenNaming:
		body = m.viewNaming()
		help = "enter: save | esc: skip"
	case screenEdit:
		body = m.viewEdit()
		help = "enter: save | esc: cancel"
	case screenSettings:
		body = m.viewSettings()
		help = "tab: next field | enter: save | esc: cancel"
	case screenLog:
		body = m.viewLog()
		help = "↑/↓: select | e: edit | D: clear log | esc: back"
	default:
		body = m.viewTimer()
		help = "space: start/pause | r: reset | b: skip break | c: settings | l: log | t: reset total | q: quit"
	}

	var b strings.Builder
	b.WriteString(m.viewTitle())
	b.WriteString("\n\n")
	b.WriteString(body)
	if m.message != "" {
		style := dimStyle
		if m.isError {
			style = errorStyle
		}
		b.WriteString("\n\n  ")
		b.WriteString(style.Render(m.message))
	}
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render(help))
	return b.String()
}

func (m timerModel) viewTitle() string {
	style := titleStyle
	if m.snap.State.Phase == models.PhaseBreak {
		style = breakTitleStyle
	}
	return style.Render(fmt.Sprintf("%s - %s Time", core.FormatClock(m.snap.State.SecondsRemaining), m.snap.State.Phase.Label()))
}

func (m timerModel) viewTimer() string {
	var b strings.Builder

	b.WriteString(clockStyle.Render(core.FormatClock(m.snap.State.SecondsRemaining)))
	b.WriteString("\n  ")
	b.WriteString(m.bar.ViewAs(core.Progress(m.snap.State.SecondsRemaining, m.snap.TotalSeconds)))
	b.WriteString("\n\n  ")
	if m.snap.State.Running {
		b.WriteString(runningStyle.Render("Running"))
	} else {
		b.WriteString(pausedStyle.Render("Paused"))
	}
	b.WriteString(fmt.Sprintf("  work %s, break %s\n",
		formatMinutes(m.snap.Durations.WorkMinutes),
		formatMinutes(m.snap.Durations.BreakMinutes)))
	b.WriteString(fmt.Sprintf("  Total work time: %s\n", core.FormatTotal(m.snap.TotalWorkTime)))

	if m.namingID != "" {
		b.WriteString(fmt.Sprintf("\n  n: name %s", m.namingLabel))
		if m.snap.PendingNames > 0 {
			b.WriteString(fmt.Sprintf(" (%d more waiting)", m.snap.PendingNames))
		}
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString("\n  ")
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}
	if m.snap.LastWarning != "" {
		b.WriteString("\n  ")
		b.WriteString(warningStyle.Render("warning: " + m.snap.LastWarning))
		b.WriteString("\n")
	}
	return b.String()
}

func (m timerModel) viewNaming() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Log Work Session #%d", m.namingNum)))
	b.WriteString("\n  What did you work on?\n\n  ")
	b.WriteString(m.input.View())
	if m.snap.PendingNames > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("\n\n  %d more session(s) waiting for a name", m.snap.PendingNames)))
	}
	return b.String()
}

func (m timerModel) viewEdit() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Edit Work Item"))
	b.WriteString("\n  ")
	b.WriteString(m.input.View())
	return b.String()
}

func (m timerModel) viewSettings() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Timer Settings"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %-7s %s min %s sec\n", "Work", m.fields[fieldWorkMin].View(), m.fields[fieldWorkSec].View()))
	b.WriteString(fmt.Sprintf("  %-7s %s min %s sec\n", "Break", m.fields[fieldBreakMin].View(), m.fields[fieldBreakSec].View()))
	b.WriteString(dimStyle.Render(fmt.Sprintf("\n  work up to %d minutes, break up to %d minutes", int(models.MaxWorkMinutes), int(models.MaxBreakMinutes))))
	return b.String()
}

func (m timerModel) viewLog() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Work Log"))
	b.WriteString("\n")
	if len(m.items) == 0 {
		b.WriteString("  No work items logged.\n")
	}
	for i, item := range m.items {
		row := fmt.Sprintf("%-8s  %-6s  %s",
			core.FormatItemTime(item.Timestamp),
			core.FormatItemDuration(item.Duration),
			item.Description)
		if i == m.cursor {
			b.WriteString(selectedRow.Render("> " + row))
		} else {
			b.WriteString("  " + row)
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\n  Total work time: %s", core.FormatTotal(m.snap.TotalWorkTime)))
	return b.String()
}

// --- Command ---

var runStart bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the interactive work/break timer",
	Long: `Run the interactive work/break timer in the terminal.

When a work phase completes it is logged as a work item and you are asked
what you worked on. Answer with enter, or press esc to keep the default
label. Sessions completed while a prompt is open are queued and asked for
one at a time, in order.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireController(); err != nil {
			return err
		}

		interval := time.Second
		if Config != nil {
			interval = Config.Timer.TickInterval
		}

		p := tea.NewProgram(newTimerModel(Controller, interval), tea.WithAltScreen())

		Controller.SetPrompter(teaPrompter{send: p.Send})
		Notifications.Attach(func(n core.Notification) {
			go p.Send(notificationMsg(n))
		})
		defer func() {
			Controller.SetPrompter(nil)
			Notifications.Attach(nil)
		}()

		if runStart {
			Controller.Start()
		}

		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running timer: %w", err)
		}

		fmt.Printf("Total work time: %s\n", core.FormatTotal(Controller.Snapshot().TotalWorkTime))
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runStart, "start", false, "Start the work phase immediately")
	rootCmd.AddCommand(runCmd)
}
