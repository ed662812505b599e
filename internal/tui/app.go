package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focuskit/internal/events"
	"github.com/sadopc/focuskit/internal/export"
	"github.com/sadopc/focuskit/internal/gate"
	"github.com/sadopc/focuskit/internal/notify"
	"github.com/sadopc/focuskit/internal/sound"
	"github.com/sadopc/focuskit/internal/stats"
	"github.com/sadopc/focuskit/internal/store"
	"github.com/sadopc/focuskit/internal/streak"
	"github.com/sadopc/focuskit/internal/tasks"
	"github.com/sadopc/focuskit/internal/theme"
	"github.com/sadopc/focuskit/internal/timer"
)

const (
	reconnectDelay = 5 * time.Second
	exportDays     = 30
)

// Deps are the collaborators the TUI runs against. Client and Events are nil
// when no daemon is running; the TUI then works from the store alone.
type Deps struct {
	Store     store.KV
	Client    Commander
	Events    EventSource
	Sound     *sound.Manager
	ExportDir string
}

// App is the root Bubble Tea model.
type App struct {
	kv        store.KV
	events    EventSource
	gate      *gate.Gate
	stats     *stats.Tracker
	tasks     *tasks.Manager
	exportDir string

	ctx    context.Context
	cancel context.CancelFunc
	stream <-chan events.Event

	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	pomodoro pomodoroModel
	taskList tasksModel
	statsV   statsModel
	settings settingsModel
	pro      proModel

	help   help.Model
	status string
	isErr  bool
}

func NewApp(d Deps) App {
	h := help.New()
	h.ShowAll = false

	g := gate.New(d.Store)
	sk := streak.New(d.Store, g)
	st := stats.New(d.Store, g, sk)
	tm := tasks.New(d.Store, g, st)

	exportDir := d.ExportDir
	if exportDir == "" {
		exportDir, _ = os.UserHomeDir()
	}

	applyTheme(theme.Current(d.Store))

	ctx, cancel := context.WithCancel(context.Background())
	return App{
		kv:         d.Store,
		events:     d.Events,
		gate:       g,
		stats:      st,
		tasks:      tm,
		exportDir:  exportDir,
		ctx:        ctx,
		cancel:     cancel,
		activeView: viewTimer,
		pomodoro:   newPomodoroModel(d.Store, d.Client, d.Sound),
		taskList:   newTasksModel(tm),
		statsV:     newStatsModel(st, sk),
		settings:   newSettingsModel(d.Store, d.Client, g, d.Sound),
		pro:        newProModel(g, d.Client),
		help:       h,
	}
}

type eventsStartedMsg struct {
	stream <-chan events.Event
}

type reconnectMsg struct{}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.pomodoro.refresh(),
		a.taskList.refresh(),
		a.pro.refresh(),
		a.listenEvents(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// listenEvents opens the daemon's event stream.
func (a App) listenEvents() tea.Cmd {
	if a.events == nil {
		return nil
	}
	src, ctx := a.events, a.ctx
	return func() tea.Msg {
		stream, err := src.Events(ctx)
		if err != nil {
			return eventsClosedMsg{}
		}
		return eventsStartedMsg{stream: stream}
	}
}

func waitForEvent(stream <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-stream
		if !ok {
			return eventsClosedMsg{}
		}
		return daemonEventMsg{event: ev}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.pomodoro.setSize(a.width, contentHeight)
		a.taskList.setSize(a.width, contentHeight)
		a.statsV.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		a.pro.setSize(a.width, contentHeight)
		return a, a.statsV.refresh()

	case tea.FocusMsg:
		// The daemon kept running while the terminal was in the background.
		return a, tea.Batch(a.pomodoro.refresh(), a.refreshCurrentView())

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			a.cancel()
			return a, tea.Quit
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Theme):
			t, err := theme.Toggle(a.kv)
			if err != nil {
				return a, statusCmd(statusErr("Theme", err))
			}
			applyTheme(t)
			a.statsV.buildChart()
			return a, statusCmd(statusMsg{text: fmt.Sprintf("Theme: %s", t)})
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchView(viewTimer)
		case key.Matches(msg, keys.Tab2):
			return a.switchView(viewTasks)
		case key.Matches(msg, keys.Tab3):
			return a.switchView(viewStats)
		case key.Matches(msg, keys.Tab4):
			return a.switchView(viewSettings)
		case key.Matches(msg, keys.Tab5):
			return a.switchView(viewPro)
		case key.Matches(msg, keys.Tab):
			return a.switchView((a.activeView + 1) % viewState(len(viewNames)))
		}

	case tickMsg:
		cmds = append(cmds, tickCmd())
		// The countdown runs whichever view is showing.
		var cmd tea.Cmd
		a.pomodoro, cmd = a.pomodoro.update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case syncMsg:
		var cmd tea.Cmd
		a.pomodoro, cmd = a.pomodoro.update(msg)
		return a, cmd

	case eventsStartedMsg:
		a.stream = msg.stream
		return a, tea.Batch(waitForEvent(a.stream), a.pomodoro.refresh())

	case eventsClosedMsg:
		a.stream = nil
		return a, tea.Tick(reconnectDelay, func(time.Time) tea.Msg { return reconnectMsg{} })

	case reconnectMsg:
		return a, tea.Batch(a.listenEvents(), a.pomodoro.refresh())

	case daemonEventMsg:
		return a.handleDaemonEvent(msg)

	case statusMsg:
		a.status = msg.text
		a.isErr = msg.isError
		return a, nil

	case dataChangedMsg:
		return a, a.statsV.refresh()

	case settingsSavedMsg:
		applyTheme(theme.Current(a.kv))
		return a, tea.Batch(
			a.settings.refresh(),
			a.pomodoro.refresh(),
			statusCmd(statusMsg{text: "Settings saved"}),
		)

	case proChangedMsg:
		a.status = "Welcome to focuskit Pro!"
		a.isErr = false
		return a, a.refreshAll()

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.isErr = false
		a.exportPicking = false
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) switchView(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	return a, a.refreshCurrentView()
}

func (a App) handleDaemonEvent(msg daemonEventMsg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if a.stream != nil {
		cmds = append(cmds, waitForEvent(a.stream))
	}

	switch msg.event.Command {
	case events.UpdateTimerDisplay, events.TimerEnded:
		var cmd tea.Cmd
		a.pomodoro, cmd = a.pomodoro.update(msg)
		cmds = append(cmds, cmd)
		if msg.event.Command == events.TimerEnded {
			// A finished focus interval bumps today's pomodoro count.
			cmds = append(cmds, a.statsV.refresh())
		}

	case events.ProStatusChanged:
		cmds = append(cmds, a.refreshAll())

	case events.Notification:
		var n notify.Notification
		if err := json.Unmarshal(msg.event.Payload, &n); err == nil {
			a.status = n.Title + " " + n.Message
			a.isErr = false
		}

	case events.ShowBlockOverlay:
		var o struct {
			Host string `json:"host"`
		}
		if err := json.Unmarshal(msg.event.Payload, &o); err == nil {
			a.status = "Blocked " + o.Host
			a.isErr = true
		}
	}
	return a, tea.Batch(cmds...)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewTimer:
		a.pomodoro, cmd = a.pomodoro.update(msg)
	case viewTasks:
		a.taskList, cmd = a.taskList.update(msg)
	case viewStats:
		a.statsV, cmd = a.statsV.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	case viewPro:
		a.pro, cmd = a.pro.update(msg)
	}

	// Data messages land in their view whichever view is showing.
	switch msg.(type) {
	case tasksDataMsg:
		if a.activeView != viewTasks {
			a.taskList, cmd = a.taskList.update(msg)
		}
	case statsDataMsg:
		if a.activeView != viewStats {
			a.statsV, cmd = a.statsV.update(msg)
		}
	case settingsDataMsg:
		if a.activeView != viewSettings {
			a.settings, cmd = a.settings.update(msg)
		}
	case proDataMsg:
		if a.activeView != viewPro {
			a.pro, cmd = a.pro.update(msg)
		}
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewTasks:
		return a.taskList.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewTasks:
		return a.taskList.refresh()
	case viewStats:
		return a.statsV.refresh()
	case viewSettings:
		return a.settings.refresh()
	case viewPro:
		return a.pro.refresh()
	}
	return a.pomodoro.refresh()
}

func (a App) refreshAll() tea.Cmd {
	return tea.Batch(
		a.pomodoro.refresh(),
		a.taskList.refresh(),
		a.statsV.refresh(),
		a.settings.refresh(),
		a.pro.refresh(),
	)
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewTimer:
		content = a.pomodoro.view()
	case viewTasks:
		content = a.taskList.view()
	case viewStats:
		content = a.statsV.view()
	case viewSettings:
		content = a.settings.view()
	case viewPro:
		content = a.pro.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(a.height-headerHeight-footerHeight, 1)

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	name := "focuskit"
	if a.pro.pro {
		name += " Pro"
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render(name)
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.isErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Countdown indicator while another view is showing.
	timerInfo := ""
	if a.activeView != viewTimer && a.pomodoro.clock.running() {
		timerInfo = successStyle.Render(" ● " + formatClock(a.pomodoro.clock.state.SecondsLeft))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

var exportFormats = []string{"CSV", "JSON"}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

// doExport writes the stats history and the task list. Free users only get
// today's stats row.
func (a App) doExport(format int) tea.Cmd {
	focusMinutes := a.pomodoro.clock.state.FocusMinutes
	if focusMinutes == 0 {
		focusMinutes = timer.DefaultFocusMinutes
	}
	return func() tea.Msg {
		days, err := a.stats.LastDays(exportDays)
		if errors.Is(err, gate.ErrNotEntitled) {
			days = []stats.DailyStats{a.stats.Today()}
		} else if err != nil {
			return statusErr("Export", err)
		}
		list := a.tasks.List()
		dateStr := time.Now().Format("2006-01-02")

		if format == 0 {
			statsPath := filepath.Join(a.exportDir, fmt.Sprintf("focuskit-stats-%s.csv", dateStr))
			if err := export.StatsToCSV(days, focusMinutes, statsPath); err != nil {
				return statusErr("CSV", err)
			}
			tasksPath := filepath.Join(a.exportDir, fmt.Sprintf("focuskit-tasks-%s.csv", dateStr))
			if err := export.TasksToCSV(list, tasksPath); err != nil {
				return statusErr("CSV", err)
			}
			return exportDoneMsg{path: statsPath}
		}

		path := filepath.Join(a.exportDir, fmt.Sprintf("focuskit-export-%s.json", dateStr))
		if err := export.ToJSON(days, list, path); err != nil {
			return statusErr("JSON", err)
		}
		return exportDoneMsg{path: path}
	}
}

// Run starts the TUI and blocks until the user quits.
func Run(d Deps) error {
	app := NewApp(d)
	defer app.cancel()
	if d.Sound != nil {
		defer d.Sound.Pause()
	}
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithReportFocus())
	_, err := p.Run()
	return err
}
