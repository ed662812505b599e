// Package daemon wires the long-lived focuskit process: the timer
// coordinator, the tab watcher, the auto-blocker and the wake-up scheduler.
package daemon

import (
	"context"
	"errors"
	"fmt"

	"github.com/sadopc/focuskit/internal/alarm"
	"github.com/sadopc/focuskit/internal/blocker"
	"github.com/sadopc/focuskit/internal/events"
	"github.com/sadopc/focuskit/internal/gate"
	"github.com/sadopc/focuskit/internal/logger"
	"github.com/sadopc/focuskit/internal/notify"
	"github.com/sadopc/focuskit/internal/protocol"
	"github.com/sadopc/focuskit/internal/stats"
	"github.com/sadopc/focuskit/internal/store"
	"github.com/sadopc/focuskit/internal/streak"
	"github.com/sadopc/focuskit/internal/tabs"
	"github.com/sadopc/focuskit/internal/timer"
)

// ErrUnknownCommand is reported for commands the daemon does not handle.
var ErrUnknownCommand = errors.New("unknown command")

type Options struct {
	// Webhook, when set, receives every notification as JSON.
	Webhook string
}

type App struct {
	Store    store.KV
	Gate     *gate.Gate
	Hub      *events.Hub
	Alarms   *alarm.Manager
	Timer    *timer.Coordinator
	Stats    *stats.Tracker
	Streak   *streak.Tracker
	Tabs     *tabs.Registry
	Limiter  *tabs.Limiter
	Blocker  *blocker.Blocker
	Notifier notify.Notifier
}

// overlayInjector hands overlays to whichever host shim listens on the event
// stream.
type overlayInjector struct {
	hub *events.Hub
}

func (o overlayInjector) ShowOverlay(_ context.Context, ov blocker.Overlay) error {
	o.hub.Broadcast(events.ShowBlockOverlay, ov)
	return nil
}

// New builds the daemon around kv and re-arms any wake-up left over from a
// previous run.
func New(kv store.KV, opts Options) *App {
	a := &App{
		Store:  kv,
		Gate:   gate.New(kv),
		Hub:    events.NewHub(),
		Alarms: alarm.NewManager(kv),
		Tabs:   tabs.NewRegistry(),
	}

	notifiers := notify.Multi{notify.Log{}, notify.Event{Hub: a.Hub}}
	if opts.Webhook != "" {
		notifiers = append(notifiers, notify.NewWebhook(opts.Webhook))
	}
	a.Notifier = notifiers

	a.Streak = streak.New(kv, a.Gate)
	a.Stats = stats.New(kv, a.Gate, a.Streak)
	a.Limiter = tabs.NewLimiter(kv, a.Tabs, a.Notifier)
	a.Blocker = blocker.New(kv, a.Gate, nil, overlayInjector{hub: a.Hub})
	a.Timer = timer.New(timer.Options{
		Store:     kv,
		Scheduler: a.Alarms,
		Gate:      a.Gate,
		Notifier:  a.Notifier,
		Events:    a.Hub,
		Blocker:   a.Blocker,
		Stats:     a.Stats,
	})
	a.Blocker.SetFocusSource(a.Timer.InFocus)

	a.Alarms.OnAlarm(a.Timer.HandleAlarm)
	a.Gate.OnChange(a.proChanged)

	if err := a.Alarms.Restore(); err != nil {
		logger.Warn("restore wake-ups", "error", err)
	}
	return a
}

// Close stops pending wake-ups. Their persisted copies survive for the next
// run.
func (a *App) Close() {
	a.Alarms.Stop()
}

func (a *App) proChanged(entitled bool) {
	if !entitled {
		a.Blocker.Deactivate()
	}
	a.Hub.Broadcast(events.ProStatusChanged, events.ProStatus{IsPro: entitled})
	a.Hub.Broadcast(events.UpdateTimerDisplay, a.Timer.State())
}

// Dispatch runs one command. Failures are reported in the response, never
// returned, so a bad request only affects its own caller.
func (a *App) Dispatch(ctx context.Context, req protocol.Request) protocol.Response {
	if err := req.Validate(); err != nil {
		return protocol.Failure(err)
	}
	logger.Debug("dispatch", "command", req.Command)

	switch req.Command {
	case protocol.StartTimer:
		return a.timerResponse(a.Timer.Start())
	case protocol.PauseTimer:
		return a.timerResponse(a.Timer.Pause())
	case protocol.ResetTimer:
		return a.timerResponse(a.Timer.Reset())
	case protocol.GetTimerState:
		return a.timerResponse(timer.StatusCurrent, nil)

	case protocol.UpdateIntervals:
		err := a.Timer.UpdateIntervals(req.Intervals.FocusMinutes, req.Intervals.BreakMinutes)
		return a.timerResponse(timer.Status(protocol.StatusIntervalsUpdated), err)

	case protocol.UpdateTabLimiterSettings:
		s, err := a.Limiter.Update(ctx, *req.Settings)
		if err != nil {
			return protocol.Failure(err)
		}
		return protocol.Response{Status: protocol.StatusTabSettingsUpdated, Settings: &s}
	case protocol.CheckTabsNow:
		a.Limiter.Reload()
		a.Limiter.Check(ctx)
		s := a.Limiter.Settings()
		return protocol.Response{Status: protocol.StatusCheckingTabs, Settings: &s}

	case protocol.EnableAutoBlocker:
		a.Blocker.Activate()
		return protocol.Response{Status: protocol.StatusBlockerEnabled}
	case protocol.DisableAutoBlocker:
		a.Blocker.Deactivate()
		return protocol.Response{Status: protocol.StatusBlockerDisabled}
	case protocol.UpdateBlockedSites:
		sites, err := blocker.SaveSites(a.Store, req.Sites)
		if err != nil {
			return protocol.Failure(err)
		}
		return protocol.Response{Status: protocol.StatusBlockedSitesUpdated, Sites: sites}

	case protocol.ProStatusChanged:
		// The flag was written by another process; the gate re-reads it.
		a.proChanged(a.Gate.IsEntitled())
		state := a.Timer.State()
		return protocol.Response{Status: protocol.StatusProUpdated, State: &state}

	case protocol.TabCreated:
		a.Tabs.Upsert(*req.Tab)
		a.Limiter.Check(ctx)
		a.Blocker.Check(ctx, *req.Tab)
		return protocol.Response{Status: protocol.StatusTabRecorded}
	case protocol.TabUpdated:
		a.Tabs.Upsert(*req.Tab)
		a.Limiter.Check(ctx)
		if req.Tab.Status == protocol.TabComplete {
			a.Blocker.Check(ctx, *req.Tab)
		}
		return protocol.Response{Status: protocol.StatusTabRecorded}
	case protocol.TabRemoved:
		a.Tabs.Remove(req.Tab.ID)
		return protocol.Response{Status: protocol.StatusTabRecorded}
	}

	return protocol.Failure(fmt.Errorf("%w: %s", ErrUnknownCommand, req.Command))
}

func (a *App) timerResponse(status timer.Status, err error) protocol.Response {
	state := a.Timer.State()
	if err != nil {
		resp := protocol.Failure(err)
		resp.State = &state
		return resp
	}
	return protocol.Response{Status: string(status), State: &state}
}
