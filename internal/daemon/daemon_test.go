package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/focuskit/internal/blocker"
	"github.com/sadopc/focuskit/internal/client"
	"github.com/sadopc/focuskit/internal/config"
	"github.com/sadopc/focuskit/internal/events"
	"github.com/sadopc/focuskit/internal/lockfile"
	"github.com/sadopc/focuskit/internal/protocol"
	"github.com/sadopc/focuskit/internal/store"
	"github.com/sadopc/focuskit/internal/tabs"
	"github.com/sadopc/focuskit/internal/timer"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	app := New(s, Options{})
	t.Cleanup(func() {
		app.Close()
		s.Close()
	})
	return app
}

func subscribe(t *testing.T, app *App) <-chan events.Event {
	t.Helper()
	ch, cancel := app.Hub.Subscribe()
	t.Cleanup(cancel)
	return ch
}

// waitFor drains ch until an event with command arrives.
func waitFor(t *testing.T, ch <-chan events.Event, command string) events.Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.Command == command {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %s event", command)
		}
	}
}

func dispatch(t *testing.T, app *App, req protocol.Request) protocol.Response {
	t.Helper()
	resp := app.Dispatch(context.Background(), req)
	if resp.Error != "" {
		t.Fatalf("%s: %s", req.Command, resp.Error)
	}
	return resp
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

// ============================================================
// Timer commands
// ============================================================

func TestTimerCommands(t *testing.T) {
	app := newTestApp(t)

	resp := dispatch(t, app, protocol.Request{Command: protocol.GetTimerState})
	if resp.Status != "current state" || resp.State.Running || resp.State.SecondsLeft != 1500 {
		t.Fatalf("initial state = %s %+v", resp.Status, resp.State)
	}

	resp = dispatch(t, app, protocol.Request{Command: protocol.StartTimer})
	if resp.Status != "started" || !resp.State.Running {
		t.Fatalf("start = %s %+v", resp.Status, resp.State)
	}

	resp = dispatch(t, app, protocol.Request{Command: protocol.StartTimer})
	if resp.Status != "already running" {
		t.Fatalf("second start = %s", resp.Status)
	}

	resp = dispatch(t, app, protocol.Request{Command: protocol.PauseTimer})
	if resp.Status != "paused" || resp.State.Running {
		t.Fatalf("pause = %s %+v", resp.Status, resp.State)
	}

	resp = dispatch(t, app, protocol.Request{Command: protocol.PauseTimer})
	if resp.Status != "already paused" {
		t.Fatalf("second pause = %s", resp.Status)
	}

	resp = dispatch(t, app, protocol.Request{Command: protocol.ResetTimer})
	if resp.Status != "reset" || !resp.State.FocusMode || resp.State.SecondsLeft != 1500 {
		t.Fatalf("reset = %s %+v", resp.Status, resp.State)
	}
}

func TestUpdateIntervalsNeedsPro(t *testing.T) {
	app := newTestApp(t)
	req := protocol.Request{Command: protocol.UpdateIntervals, Intervals: &protocol.Intervals{FocusMinutes: 50, BreakMinutes: 10}}

	resp := app.Dispatch(context.Background(), req)
	if !strings.Contains(resp.Error, "Pro") {
		t.Fatalf("free user error = %q", resp.Error)
	}
	if resp.Status != "" || resp.State == nil || resp.State.FocusMinutes != 25 {
		t.Fatalf("failed update should carry no status and the old state: %q %+v", resp.Status, resp.State)
	}

	if err := app.Gate.Grant(); err != nil {
		t.Fatal(err)
	}
	resp = dispatch(t, app, req)
	if resp.State.SecondsLeft != 50*60 || resp.State.FocusMinutes != 50 || resp.State.BreakMinutes != 10 {
		t.Fatalf("state after update = %+v", resp.State)
	}
}

func TestWakeUpEndsFocusInterval(t *testing.T) {
	app := newTestApp(t)
	ch := subscribe(t, app)

	dispatch(t, app, protocol.Request{Command: protocol.StartTimer})
	// Pull the wake-up forward instead of waiting 25 minutes.
	if err := app.Alarms.Create(timer.AlarmName, time.Now().Add(10*time.Millisecond)); err != nil {
		t.Fatal(err)
	}

	ev := waitFor(t, ch, events.TimerEnded)
	var snap timer.Snapshot
	if err := json.Unmarshal(ev.Payload, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Running || snap.FocusMode || snap.SecondsLeft != 5*60 {
		t.Fatalf("after focus ended = %+v", snap)
	}
	if got := app.Stats.Today().PomodorosCompleted; got != 1 {
		t.Fatalf("pomodoros today = %d, want 1", got)
	}
}

// ============================================================
// Tabs and blocker
// ============================================================

func TestTabLimiterNotifies(t *testing.T) {
	app := newTestApp(t)
	ch := subscribe(t, app)

	resp := dispatch(t, app, protocol.Request{
		Command:  protocol.UpdateTabLimiterSettings,
		Settings: &tabs.Patch{Enabled: boolPtr(true), MaxTabs: intPtr(1)},
	})
	if resp.Settings == nil || !resp.Settings.Enabled || resp.Settings.MaxTabs != 1 {
		t.Fatalf("settings = %+v", resp.Settings)
	}

	dispatch(t, app, protocol.Request{Command: protocol.TabCreated, Tab: &tabs.Tab{ID: 1}})
	dispatch(t, app, protocol.Request{Command: protocol.TabCreated, Tab: &tabs.Tab{ID: 2}})

	ev := waitFor(t, ch, events.Notification)
	if !strings.Contains(string(ev.Payload), "You have 2 tabs open (limit: 1)") {
		t.Fatalf("notification = %s", ev.Payload)
	}

	dispatch(t, app, protocol.Request{Command: protocol.TabRemoved, Tab: &tabs.Tab{ID: 2}})
	if app.Tabs.Count() != 1 {
		t.Fatalf("tab count = %d", app.Tabs.Count())
	}
}

func TestInvalidTabSettingsRejected(t *testing.T) {
	app := newTestApp(t)
	resp := app.Dispatch(context.Background(), protocol.Request{
		Command:  protocol.UpdateTabLimiterSettings,
		Settings: &tabs.Patch{MaxTabs: intPtr(0)},
	})
	if resp.Error == "" {
		t.Fatal("expected max_tabs 0 to be rejected")
	}
	if app.Limiter.Settings().MaxTabs != tabs.DefaultMaxTabs {
		t.Fatalf("settings changed to %+v", app.Limiter.Settings())
	}
}

func TestBlockerOverlayDuringFocus(t *testing.T) {
	app := newTestApp(t)
	ch := subscribe(t, app)
	if err := app.Gate.Grant(); err != nil {
		t.Fatal(err)
	}

	resp := dispatch(t, app, protocol.Request{Command: protocol.UpdateBlockedSites, Sites: []string{" www.example.com ", ""}})
	if len(resp.Sites) != 1 || resp.Sites[0] != "www.example.com" {
		t.Fatalf("saved sites = %v", resp.Sites)
	}

	dispatch(t, app, protocol.Request{Command: protocol.StartTimer})
	if !app.Blocker.Active() {
		t.Fatal("blocker should be active during a pro focus interval")
	}

	// Loading tabs are ignored until they complete.
	dispatch(t, app, protocol.Request{Command: protocol.TabUpdated, Tab: &tabs.Tab{ID: 7, URL: "https://example.com/news", Status: "loading"}})
	dispatch(t, app, protocol.Request{Command: protocol.TabUpdated, Tab: &tabs.Tab{ID: 7, URL: "https://example.com/news", Status: protocol.TabComplete}})

	ev := waitFor(t, ch, events.ShowBlockOverlay)
	var o blocker.Overlay
	if err := json.Unmarshal(ev.Payload, &o); err != nil {
		t.Fatal(err)
	}
	if o.TabID != 7 || o.Host != "example.com" || !o.AllowTemporaryUnblock {
		t.Fatalf("overlay = %+v", o)
	}
	if o.Message != "Access to example.com is blocked during your focus session." {
		t.Fatalf("message = %q", o.Message)
	}

	dispatch(t, app, protocol.Request{Command: protocol.PauseTimer})
	if app.Blocker.Flagged() {
		t.Fatal("pause should clear the blocker flag")
	}
}

func TestBlockedSitesAllOrNothing(t *testing.T) {
	app := newTestApp(t)
	dispatch(t, app, protocol.Request{Command: protocol.UpdateBlockedSites, Sites: []string{"example.com"}})

	resp := app.Dispatch(context.Background(), protocol.Request{Command: protocol.UpdateBlockedSites, Sites: []string{"good.com", "bad host"}})
	if resp.Error == "" {
		t.Fatal("expected invalid site to be rejected")
	}
	if got := blocker.Sites(app.Store); len(got) != 1 || got[0] != "example.com" {
		t.Fatalf("sites = %v, want unchanged", got)
	}
}

func TestEnableDisableBlocker(t *testing.T) {
	app := newTestApp(t)
	if resp := dispatch(t, app, protocol.Request{Command: protocol.EnableAutoBlocker}); resp.Status != "blocker enabled" {
		t.Fatalf("status = %q", resp.Status)
	}
	if !app.Blocker.Flagged() {
		t.Fatal("flag not set")
	}
	if resp := dispatch(t, app, protocol.Request{Command: protocol.DisableAutoBlocker}); resp.Status != "blocker disabled" {
		t.Fatalf("status = %q", resp.Status)
	}
	if app.Blocker.Flagged() {
		t.Fatal("flag still set")
	}
}

// ============================================================
// Pro and protocol errors
// ============================================================

func TestProStatusChangedBroadcasts(t *testing.T) {
	app := newTestApp(t)
	ch := subscribe(t, app)

	// Another process flips the flag directly in the shared store.
	if err := app.Store.Set(store.KeyProEnabled, true); err != nil {
		t.Fatal(err)
	}
	dispatch(t, app, protocol.Request{Command: protocol.ProStatusChanged})

	ev := waitFor(t, ch, events.ProStatusChanged)
	var p events.ProStatus
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		t.Fatal(err)
	}
	if !p.IsPro {
		t.Fatal("payload should report pro")
	}
}

func TestRevokeClearsBlocker(t *testing.T) {
	app := newTestApp(t)
	app.Gate.Grant()
	dispatch(t, app, protocol.Request{Command: protocol.StartTimer})
	if !app.Blocker.Flagged() {
		t.Fatal("blocker not flagged")
	}
	if err := app.Gate.Revoke(); err != nil {
		t.Fatal(err)
	}
	if app.Blocker.Flagged() {
		t.Fatal("revoking pro should clear the blocker")
	}
}

func TestUnknownAndInvalidCommands(t *testing.T) {
	app := newTestApp(t)

	resp := app.Dispatch(context.Background(), protocol.Request{Command: "launchRocket"})
	if !strings.Contains(resp.Error, "unknown command") {
		t.Fatalf("unknown command error = %q", resp.Error)
	}

	resp = app.Dispatch(context.Background(), protocol.Request{Command: protocol.TabCreated})
	if resp.Error == "" {
		t.Fatal("tabCreated without a tab should fail validation")
	}
}

// ============================================================
// Run
// ============================================================

func TestRunServesAndCleansUp(t *testing.T) {
	cfg := config.Default(t.TempDir())
	cfg.Listen = "127.0.0.1:0"
	cfg.Store = ":memory:"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg) }()

	var info lockfile.Info
	deadline := time.Now().Add(5 * time.Second)
	for {
		var err error
		info, err = lockfile.Read(cfg.Dir)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("lockfile never written: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	c := client.New(fmt.Sprintf("http://127.0.0.1:%d", info.Port), info.Secret)
	resp, err := c.Command(context.Background(), protocol.GetTimerState)
	if err != nil {
		cancel()
		t.Fatal(err)
	}
	if resp.State == nil || !resp.State.FocusMode {
		t.Fatalf("state = %+v", resp.State)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if _, err := lockfile.Read(cfg.Dir); !errors.Is(err, lockfile.ErrMissing) {
		t.Fatalf("lockfile left behind: %v", err)
	}
}
