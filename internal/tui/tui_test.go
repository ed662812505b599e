package tui

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/focuskit/internal/events"
	"github.com/sadopc/focuskit/internal/gate"
	"github.com/sadopc/focuskit/internal/keyring"
	"github.com/sadopc/focuskit/internal/notify"
	"github.com/sadopc/focuskit/internal/protocol"
	"github.com/sadopc/focuskit/internal/stats"
	"github.com/sadopc/focuskit/internal/store"
	"github.com/sadopc/focuskit/internal/streak"
	"github.com/sadopc/focuskit/internal/tabs"
	"github.com/sadopc/focuskit/internal/tasks"
	"github.com/sadopc/focuskit/internal/theme"
	"github.com/sadopc/focuskit/internal/timer"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func grantPro(t *testing.T, kv store.KV) *gate.Gate {
	t.Helper()
	g := gate.New(kv)
	if err := g.Grant(); err != nil {
		t.Fatalf("grant: %v", err)
	}
	return g
}

// fakeCommander records requests and answers with a fixed response.
type fakeCommander struct {
	mu   sync.Mutex
	reqs []protocol.Request
	resp protocol.Response
	err  error
}

func (f *fakeCommander) Send(_ context.Context, req protocol.Request) (protocol.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.resp, f.err
}

func (f *fakeCommander) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.reqs {
		out = append(out, r.Command)
	}
	return out
}

// runCmd executes cmd and flattens batches into the messages they produce.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func findStatus(msgs []tea.Msg) (statusMsg, bool) {
	for _, m := range msgs {
		if s, ok := m.(statusMsg); ok {
			return s, true
		}
	}
	return statusMsg{}, false
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// ============================================================
// Countdown
// ============================================================

func TestCountdownTick(t *testing.T) {
	var c countdown
	c.apply(timer.Snapshot{Running: true, FocusMode: true, SecondsLeft: 2, FocusMinutes: 25, BreakMinutes: 5}, true)

	if c.tick() {
		t.Fatal("first tick should not ask for a resync")
	}
	if c.state.SecondsLeft != 1 {
		t.Fatalf("seconds left = %d, want 1", c.state.SecondsLeft)
	}
	if !c.tick() {
		t.Fatal("reaching zero should ask for a resync")
	}
	if !c.tick() {
		t.Fatal("staying at zero while running should keep asking")
	}
	if c.state.SecondsLeft != 0 {
		t.Fatalf("seconds left = %d, want 0", c.state.SecondsLeft)
	}
}

func TestCountdownTickWhenPaused(t *testing.T) {
	var c countdown
	c.apply(timer.Snapshot{FocusMode: true, SecondsLeft: 90}, true)
	if c.tick() {
		t.Fatal("paused countdown should not resync")
	}
	if c.state.SecondsLeft != 90 {
		t.Fatalf("paused countdown moved to %d", c.state.SecondsLeft)
	}
}

func TestCountdownProgress(t *testing.T) {
	var c countdown
	c.apply(timer.Snapshot{FocusMode: true, SecondsLeft: 25 * 60, FocusMinutes: 25, BreakMinutes: 5}, true)
	if c.progress() != 0 {
		t.Fatalf("progress at start = %v", c.progress())
	}
	c.state.SecondsLeft = 25 * 30
	if c.progress() != 0.5 {
		t.Fatalf("progress halfway = %v", c.progress())
	}
	c.state.SecondsLeft = 0
	if c.progress() != 1 {
		t.Fatalf("progress at end = %v", c.progress())
	}
	if c.modeLabel() != "FOCUS" {
		t.Fatalf("mode label = %q", c.modeLabel())
	}

	c.apply(timer.Snapshot{FocusMode: false, SecondsLeft: 300}, true)
	if c.total() != timer.DefaultBreakMinutes*60 {
		t.Fatalf("total without minutes = %d, want default break", c.total())
	}
	if c.modeLabel() != "BREAK" {
		t.Fatalf("mode label = %q", c.modeLabel())
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		secs int
		want string
	}{
		{0, "00:00"},
		{59, "00:59"},
		{60, "01:00"},
		{1500, "25:00"},
		{3599, "59:59"},
		{-5, "00:00"},
	}
	for _, tt := range tests {
		if got := formatClock(tt.secs); got != tt.want {
			t.Errorf("formatClock(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

// ============================================================
// Pomodoro view
// ============================================================

func TestOfflineStateDefaults(t *testing.T) {
	s := newTestStore(t)
	got := offlineState(s)
	if got.Running || !got.FocusMode {
		t.Fatalf("unexpected offline state %+v", got)
	}
	if got.SecondsLeft != 25*60 || got.FocusMinutes != 25 || got.BreakMinutes != 5 {
		t.Fatalf("unexpected defaults %+v", got)
	}
}

func TestOfflineStateNeverRunning(t *testing.T) {
	s := newTestStore(t)
	saved := timer.Snapshot{Running: true, FocusMode: false, SecondsLeft: 120, FocusMinutes: 50, BreakMinutes: 10}
	if err := s.Set(store.KeyPomodoroState, saved); err != nil {
		t.Fatal(err)
	}
	got := offlineState(s)
	if got.Running {
		t.Fatal("offline state must not be running")
	}
	if got.SecondsLeft != 120 || got.FocusMinutes != 50 {
		t.Fatalf("stored values lost: %+v", got)
	}
}

func TestPomodoroRefreshOffline(t *testing.T) {
	s := newTestStore(t)
	p := newPomodoroModel(s, nil, nil)

	msgs := runCmd(p.refresh())
	got, ok := msgs[0].(syncMsg)
	if !ok {
		t.Fatalf("refresh returned %T", msgs[0])
	}
	if got.online {
		t.Fatal("nil client should report offline")
	}

	p, _ = p.update(got)
	if !p.clock.synced || p.clock.online {
		t.Fatal("clock should be synced and offline")
	}
	if !strings.Contains(p.view(), "offline") {
		t.Fatal("view should show offline")
	}
}

func TestPomodoroStartOffline(t *testing.T) {
	s := newTestStore(t)
	p := newPomodoroModel(s, nil, nil)

	_, cmd := p.update(runeKey('s'))
	st, ok := findStatus(runCmd(cmd))
	if !ok || !st.isError {
		t.Fatalf("expected offline error status, got %+v", st)
	}
	if !strings.Contains(st.text, "focuskit daemon") {
		t.Fatalf("status should mention the daemon: %q", st.text)
	}
}

func TestPomodoroStartSendsCommand(t *testing.T) {
	s := newTestStore(t)
	running := timer.Snapshot{Running: true, FocusMode: true, SecondsLeft: 1500, FocusMinutes: 25, BreakMinutes: 5}
	fc := &fakeCommander{resp: protocol.Response{Status: "started", State: &running}}
	p := newPomodoroModel(s, fc, nil)

	_, cmd := p.update(runeKey('s'))
	msgs := runCmd(cmd)
	if sent := fc.commands(); len(sent) != 1 || sent[0] != protocol.StartTimer {
		t.Fatalf("sent %v, want [startTimer]", sent)
	}
	got, ok := msgs[0].(syncMsg)
	if !ok || !got.online || !got.state.Running {
		t.Fatalf("unexpected sync %+v", msgs[0])
	}

	p, _ = p.update(got)
	if !strings.Contains(p.view(), "running") {
		t.Fatal("view should show running")
	}
}

func TestPomodoroPauseAndReset(t *testing.T) {
	s := newTestStore(t)
	state := timer.Snapshot{FocusMode: true, SecondsLeft: 1500, FocusMinutes: 25, BreakMinutes: 5}
	fc := &fakeCommander{resp: protocol.Response{State: &state}}
	p := newPomodoroModel(s, fc, nil)

	_, cmd := p.update(runeKey('p'))
	runCmd(cmd)
	_, cmd = p.update(runeKey('r'))
	runCmd(cmd)

	got := fc.commands()
	if len(got) != 2 || got[0] != protocol.PauseTimer || got[1] != protocol.ResetTimer {
		t.Fatalf("sent %v", got)
	}
}

func TestPomodoroTimerEndedEvent(t *testing.T) {
	s := newTestStore(t)
	p := newPomodoroModel(s, &fakeCommander{}, nil)

	next := timer.Snapshot{FocusMode: false, SecondsLeft: 300, FocusMinutes: 25, BreakMinutes: 5}
	payload, _ := json.Marshal(next)
	p, cmd := p.update(daemonEventMsg{event: events.Event{Command: events.TimerEnded, Payload: payload}})

	if p.clock.inFocus() || p.clock.state.SecondsLeft != 300 {
		t.Fatalf("clock not updated: %+v", p.clock.state)
	}
	st, ok := findStatus(runCmd(cmd))
	if !ok || !strings.Contains(st.text, "Focus time finished") {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestEndedText(t *testing.T) {
	focus := endedText(timer.Snapshot{FocusMode: true, FocusMinutes: 50})
	if !strings.Contains(focus, "50 minutes of focus") {
		t.Fatalf("got %q", focus)
	}
	brk := endedText(timer.Snapshot{FocusMode: false, BreakMinutes: 10})
	if !strings.Contains(brk, "10-minute break") {
		t.Fatalf("got %q", brk)
	}
}

// ============================================================
// Tasks view
// ============================================================

func newTestTasks(t *testing.T, kv store.KV, g *gate.Gate) tasksModel {
	t.Helper()
	st := stats.New(kv, g, streak.New(kv, g))
	m := newTasksModel(tasks.New(kv, g, st))
	m.setSize(100, 30)
	return m
}

func loadTasks(t *testing.T, m tasksModel) tasksModel {
	t.Helper()
	msgs := runCmd(m.refresh())
	m, _ = m.update(msgs[0])
	return m
}

func TestTasksToggleAndDelete(t *testing.T) {
	s := newTestStore(t)
	m := newTestTasks(t, s, nil)
	if _, err := m.tasks.Add("Write report", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := m.tasks.Add("Read paper", "Study"); err != nil {
		t.Fatal(err)
	}
	m = loadTasks(t, m)
	if len(m.list) != 2 {
		t.Fatalf("got %d tasks", len(m.list))
	}

	m, cmd := m.update(runeKey('x'))
	for _, msg := range runCmd(cmd) {
		m, _ = m.update(msg)
	}
	if !m.list[len(m.list)-1].Completed {
		t.Fatal("completed task should sort last")
	}
	if m.list[0].Text != "Read paper" {
		t.Fatalf("first task = %q", m.list[0].Text)
	}
	if got := stats.New(s, nil, nil).Today().TasksCompleted; got != 1 {
		t.Fatalf("tasks completed today = %d", got)
	}

	m, cmd = m.update(runeKey('d'))
	for _, msg := range runCmd(cmd) {
		m, _ = m.update(msg)
	}
	if len(m.list) != 1 || m.list[0].Text != "Write report" {
		t.Fatalf("unexpected list after delete: %+v", m.list)
	}
}

func TestTasksDailyLimitBlocksForm(t *testing.T) {
	s := newTestStore(t)
	m := newTestTasks(t, s, nil)
	for i := 0; i < tasks.FreeDailyLimit; i++ {
		if _, err := m.tasks.Add("task", ""); err != nil {
			t.Fatal(err)
		}
	}

	m, cmd := m.update(runeKey('n'))
	if m.formActive {
		t.Fatal("form should not open at the daily limit")
	}
	st, ok := findStatus(runCmd(cmd))
	if !ok || !strings.Contains(st.text, "Daily limit") {
		t.Fatalf("unexpected status %+v", st)
	}
	if !strings.Contains(m.view(), "0 of 10 adds left") {
		t.Fatal("view should show no adds left")
	}
}

func TestTasksProHasNoLimitHint(t *testing.T) {
	s := newTestStore(t)
	m := newTestTasks(t, s, grantPro(t, s))
	m = loadTasks(t, m)
	if strings.Contains(m.view(), "adds left") {
		t.Fatal("pro view should not show the add limit")
	}
	m, _ = m.update(runeKey('n'))
	if !m.formActive {
		t.Fatal("form should open")
	}
	m, _ = m.update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.formActive {
		t.Fatal("esc should close the form")
	}
}

// ============================================================
// Stats view
// ============================================================

func TestStatsFreeUser(t *testing.T) {
	s := newTestStore(t)
	g := gate.New(s)
	sm := newStatsModel(stats.New(s, g, nil), streak.New(s, g))
	sm.setSize(100, 30)

	msgs := runCmd(sm.refresh())
	data, ok := msgs[0].(statsDataMsg)
	if !ok {
		t.Fatalf("refresh returned %T", msgs[0])
	}
	if data.pro || data.history != nil {
		t.Fatal("free user should get no history")
	}
	sm, _ = sm.update(data)
	if !strings.Contains(sm.view(), "Pro features") {
		t.Fatal("free view should mention Pro")
	}
}

func TestStatsProWindows(t *testing.T) {
	s := newTestStore(t)
	g := grantPro(t, s)
	st := stats.New(s, g, nil)
	if err := st.IncrementPomodoros(); err != nil {
		t.Fatal(err)
	}
	sm := newStatsModel(st, streak.New(s, g))
	sm.setSize(100, 30)

	data := runCmd(sm.refresh())[0].(statsDataMsg)
	if len(data.history) != 7 {
		t.Fatalf("history = %d days, want 7", len(data.history))
	}
	sm, _ = sm.update(data)
	if sm.summary.TotalPomodoros != 1 {
		t.Fatalf("total pomodoros = %d", sm.summary.TotalPomodoros)
	}
	if !strings.Contains(sm.view(), "Streak") {
		t.Fatal("pro view should show the streak")
	}

	sm, cmd := sm.update(runeKey('l'))
	data = runCmd(cmd)[0].(statsDataMsg)
	if len(data.history) != 30 {
		t.Fatalf("history = %d days, want 30", len(data.history))
	}
	if _, cmd = sm.update(runeKey('l')); cmd != nil {
		t.Fatal("moving past the last window should do nothing")
	}
}

// ============================================================
// Settings view
// ============================================================

func TestSplitLines(t *testing.T) {
	got := splitLines("facebook.com\n\n  youtube.com \n")
	if len(got) != 2 || got[0] != "facebook.com" || got[1] != "youtube.com" {
		t.Fatalf("got %q", got)
	}
	if splitLines("") != nil {
		t.Fatal("empty input should give no sites")
	}
}

func TestSettingsValidators(t *testing.T) {
	if positiveInt("5") != nil || positiveInt("0") == nil || positiveInt("abc") == nil {
		t.Fatal("positiveInt")
	}
	if validVolume("0") != nil || validVolume("100") != nil || validVolume("101") == nil {
		t.Fatal("validVolume")
	}
	if validSites("example.com\nnews.site") != nil {
		t.Fatal("valid sites rejected")
	}
	if validSites("http://") == nil {
		t.Fatal("invalid site accepted")
	}
}

func TestSettingsSaveOffline(t *testing.T) {
	s := newTestStore(t)
	g := grantPro(t, s)
	sm := newSettingsModel(s, nil, g, nil)
	sm, _ = sm.showForm()
	sm.formActive = false

	*sm.notify = true
	*sm.limiterOn = true
	*sm.maxTabs = "8"
	*sm.focusMinutes = "50"
	*sm.breakMinutes = "10"
	*sm.sites = "facebook.com\nyoutube.com"
	*sm.theme = string(theme.Dark)
	t.Cleanup(func() { applyTheme(theme.Light) })

	msgs := runCmd(sm.save())
	if _, ok := msgs[0].(settingsSavedMsg); !ok {
		t.Fatalf("save returned %+v", msgs[0])
	}

	got := loadPrefs(s)
	if !got.notify || !got.limiter.Enabled || got.limiter.MaxTabs != 8 {
		t.Fatalf("unexpected prefs %+v", got)
	}
	if got.focusMinutes != 50 || got.breakMinutes != 10 {
		t.Fatalf("intervals = %d/%d", got.focusMinutes, got.breakMinutes)
	}
	if len(got.sites) != 2 || got.theme != theme.Dark {
		t.Fatalf("unexpected prefs %+v", got)
	}
}

func TestSettingsFreeSkipsProValues(t *testing.T) {
	s := newTestStore(t)
	sm := newSettingsModel(s, nil, gate.New(s), nil)
	sm, _ = sm.showForm()
	*sm.focusMinutes = "50"
	*sm.sites = "facebook.com"

	runCmd(sm.save())
	got := loadPrefs(s)
	if got.focusMinutes != timer.DefaultFocusMinutes || len(got.sites) != 0 {
		t.Fatalf("free save wrote pro values: %+v", got)
	}
}

func TestSettingsSaveThroughDaemon(t *testing.T) {
	s := newTestStore(t)
	g := grantPro(t, s)
	fc := &fakeCommander{}
	sm := newSettingsModel(s, fc, g, nil)
	sm, _ = sm.showForm()
	*sm.maxTabs = "3"

	runCmd(sm.save())

	want := []string{protocol.UpdateTabLimiterSettings, protocol.UpdateIntervals, protocol.UpdateBlockedSites}
	got := fc.commands()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("sent %v, want %v", got, want)
	}
	if p := fc.reqs[0].Settings; p == nil || *p.MaxTabs != 3 {
		t.Fatalf("limiter patch = %+v", p)
	}
	// The daemon owns the limiter settings; nothing was written locally.
	if tabs.LoadSettings(s).MaxTabs != tabs.DefaultMaxTabs {
		t.Fatal("limiter settings should not be written locally")
	}
}

// ============================================================
// Pro view
// ============================================================

func TestProPurchase(t *testing.T) {
	s := newTestStore(t)
	g := gate.New(s)
	fc := &fakeCommander{}
	pm := newProModel(g, fc)
	pm.integrations = func() map[string]bool { return map[string]bool{keyring.Notion: true} }

	pm, _ = pm.update(runCmd(pm.refresh())[0])
	if pm.pro {
		t.Fatal("should start free")
	}
	if !strings.Contains(pm.view(), "token stored") {
		t.Fatal("view should show the configured integration")
	}

	_, cmd := pm.update(runeKey('u'))
	msgs := runCmd(cmd)
	if _, ok := msgs[0].(proChangedMsg); !ok {
		t.Fatalf("purchase returned %+v", msgs[0])
	}
	if !g.IsEntitled() {
		t.Fatal("purchase should grant pro")
	}
	if got := fc.commands(); len(got) != 1 || got[0] != protocol.ProStatusChanged {
		t.Fatalf("sent %v", got)
	}
}

// ============================================================
// App model
// ============================================================

func newTestApp(t *testing.T) App {
	t.Helper()
	app := NewApp(Deps{Store: newTestStore(t), ExportDir: t.TempDir()})
	app.pro.integrations = nil
	t.Cleanup(app.cancel)
	return app
}

func TestNewApp(t *testing.T) {
	app := newTestApp(t)

	if app.activeView != viewTimer {
		t.Fatal("default view should be the timer")
	}
	if app.showHelp {
		t.Fatal("help should be hidden by default")
	}
	if app.exportPicking {
		t.Fatal("export picker should be hidden by default")
	}
	if app.isFormActive() {
		t.Fatal("no forms should be active initially")
	}
}

func TestViewNames(t *testing.T) {
	if len(viewNames) != 5 {
		t.Fatalf("expected 5 views, got %d", len(viewNames))
	}
	if viewNames[viewTimer] != "Timer" || viewNames[viewPro] != "Pro" {
		t.Fatalf("unexpected view names %v", viewNames)
	}
}

func TestAppViewStates(t *testing.T) {
	app := newTestApp(t)
	app.width = 120
	app.height = 40

	for v := range viewNames {
		app.activeView = viewState(v)
		if app.View() == "" {
			t.Fatalf("view %d rendered empty", v)
		}
	}
}

func TestAppLoadingState(t *testing.T) {
	app := newTestApp(t)
	if got := app.View(); got != "Loading..." {
		t.Fatalf("expected 'Loading...', got %q", got)
	}
}

func TestAppRenderHeaderContainsAllTabs(t *testing.T) {
	app := newTestApp(t)
	app.width = 120
	app.height = 40

	header := app.renderHeader()
	for _, name := range viewNames {
		if !strings.Contains(header, name) {
			t.Fatalf("header missing tab %q", name)
		}
	}
}

func TestAppSwitchViews(t *testing.T) {
	app := newTestApp(t)

	m, _ := app.Update(runeKey('3'))
	if m.(App).activeView != viewStats {
		t.Fatal("3 should switch to stats")
	}
	m, _ = m.(App).Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.(App).activeView != viewSettings {
		t.Fatal("tab should move to the next view")
	}
}

func TestAppThemeToggle(t *testing.T) {
	app := newTestApp(t)
	t.Cleanup(func() { applyTheme(theme.Light) })

	_, cmd := app.Update(runeKey('t'))
	if got := theme.Current(app.kv); got != theme.Dark {
		t.Fatalf("theme = %s, want dark", got)
	}
	st, ok := findStatus(runCmd(cmd))
	if !ok || !strings.Contains(st.text, "dark") {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestAppStatusMessage(t *testing.T) {
	app := newTestApp(t)
	app.width = 120
	app.height = 40

	m, _ := app.Update(statusMsg{text: "test status"})
	if !strings.Contains(m.(App).renderFooter(), "test status") {
		t.Fatal("footer should contain status message")
	}
}

func TestAppFocusResyncsTimer(t *testing.T) {
	running := timer.Snapshot{Running: true, FocusMode: true, SecondsLeft: 420, FocusMinutes: 25, BreakMinutes: 5}
	fc := &fakeCommander{resp: protocol.Response{Status: "current state", State: &running}}
	app := NewApp(Deps{Store: newTestStore(t), Client: fc, ExportDir: t.TempDir()})
	app.pro.integrations = nil
	t.Cleanup(app.cancel)
	app.activeView = viewTasks

	var m tea.Model = app
	m, cmd := m.Update(tea.FocusMsg{})
	for _, msg := range runCmd(cmd) {
		m, _ = m.Update(msg)
	}

	var queried bool
	for _, c := range fc.commands() {
		if c == protocol.GetTimerState {
			queried = true
		}
	}
	if !queried {
		t.Fatalf("regaining focus should query the timer, sent %v", fc.commands())
	}
	got := m.(App).pomodoro.clock.state
	if !got.Running || got.SecondsLeft != 420 {
		t.Fatalf("countdown after focus = %+v", got)
	}
}

func TestAppNotificationEvent(t *testing.T) {
	app := newTestApp(t)
	payload, _ := json.Marshal(notify.Notification{ID: "x", Title: "Tab Limit Reached!", Message: "close some"})

	m, _ := app.Update(daemonEventMsg{event: events.Event{Command: events.Notification, Payload: payload}})
	if !strings.Contains(m.(App).status, "Tab Limit Reached!") {
		t.Fatalf("status = %q", m.(App).status)
	}
}

func TestAppExport(t *testing.T) {
	app := newTestApp(t)
	if _, err := app.tasks.Add("ship it", ""); err != nil {
		t.Fatal(err)
	}

	for format, want := range []string{".csv", ".json"} {
		msgs := runCmd(app.doExport(format))
		done, ok := msgs[0].(exportDoneMsg)
		if !ok {
			t.Fatalf("export returned %+v", msgs[0])
		}
		if filepath.Ext(done.path) != want {
			t.Fatalf("path = %s, want %s", done.path, want)
		}
		if _, err := os.Stat(done.path); err != nil {
			t.Fatalf("export file missing: %v", err)
		}
	}

	entries, _ := os.ReadDir(app.exportDir)
	if len(entries) != 3 {
		t.Fatalf("expected stats csv, tasks csv and json, got %d files", len(entries))
	}
}

// ============================================================
// Key bindings
// ============================================================

func TestKeyMapShortHelp(t *testing.T) {
	if len(keys.ShortHelp()) == 0 {
		t.Fatal("short help should have bindings")
	}
}

func TestKeyMapFullHelp(t *testing.T) {
	groups := keys.FullHelp()
	if len(groups) == 0 {
		t.Fatal("full help should have groups")
	}
	for i, g := range groups {
		if len(g) == 0 {
			t.Fatalf("full help group %d is empty", i)
		}
	}
}

// ============================================================
// Styles (smoke test, both themes)
// ============================================================

func TestStylesRender(t *testing.T) {
	t.Cleanup(func() { applyTheme(theme.Light) })
	for _, th := range []theme.Theme{theme.Light, theme.Dark} {
		applyTheme(th)
		for name, style := range map[string]func(...string) string{
			"activeTab":    activeTabStyle.Render,
			"inactiveTab":  inactiveTabStyle.Render,
			"panel":        panelStyle.Render,
			"activePanel":  activePanelStyle.Render,
			"timer":        timerStyle.Render,
			"title":        titleStyle.Render,
			"accent":       accentStyle.Render,
			"success":      successStyle.Render,
			"warning":      warningStyle.Render,
			"error":        errorStyle.Render,
			"muted":        mutedStyle.Render,
			"highlight":    highlightStyle.Render,
			"header":       headerStyle.Render,
			"footer":       footerStyle.Render,
			"selectedItem": selectedItemStyle.Render,
			"normalItem":   normalItemStyle.Render,
			"doneItem":     doneItemStyle.Render,
		} {
			if style("test") == "" {
				t.Fatalf("%s/%s rendered empty", th, name)
			}
		}
	}
}
