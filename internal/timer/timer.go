// Package timer is the Pomodoro coordinator owned by the daemon.
//
// The coordinator never stores a running flag. A timer is running exactly
// when the wake-up named AlarmName is scheduled, and every read re-derives
// that from the scheduler.
package timer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sadopc/focuskit/internal/alarm"
	"github.com/sadopc/focuskit/internal/events"
	"github.com/sadopc/focuskit/internal/gate"
	"github.com/sadopc/focuskit/internal/logger"
	"github.com/sadopc/focuskit/internal/notify"
	"github.com/sadopc/focuskit/internal/store"
)

const (
	AlarmName = "pomodoroAlarm"

	DefaultFocusMinutes = 25
	DefaultBreakMinutes = 5

	notificationID = "pomodoro-alert"
)

// ErrInvalidDuration rejects custom intervals shorter than a minute.
var ErrInvalidDuration = errors.New("duration must be at least 1 minute")

type Status string

const (
	StatusStarted        Status = "started"
	StatusAlreadyRunning Status = "already running"
	StatusPaused         Status = "paused"
	StatusAlreadyPaused  Status = "already paused"
	StatusReset          Status = "reset"
	StatusCurrent        Status = "current state"
)

// Snapshot is the state reported to foreground views.
type Snapshot struct {
	Running      bool `json:"is_running"`
	FocusMode    bool `json:"is_focus_mode"`
	SecondsLeft  int  `json:"time_left"`
	FocusMinutes int  `json:"focus_minutes"`
	BreakMinutes int  `json:"break_minutes"`
}

// persisted is the minimal record written under pomodoro_state.
type persisted struct {
	FocusMode   bool `json:"is_focus_mode"`
	SecondsLeft int  `json:"time_left"`
}

type Entitlement interface {
	IsEntitled() bool
}

// BlockSwitch flips the volatile auto-blocker flag.
type BlockSwitch interface {
	Activate()
	Deactivate()
}

type Broadcaster interface {
	Broadcast(command string, payload any)
}

// PomodoroRecorder counts completed focus intervals.
type PomodoroRecorder interface {
	IncrementPomodoros() error
}

// Options wires the coordinator. Store and Scheduler are required; every
// other collaborator may be nil and the matching behavior is skipped.
type Options struct {
	Store     store.KV
	Scheduler alarm.Scheduler
	Gate      Entitlement
	Notifier  notify.Notifier
	Events    Broadcaster
	Blocker   BlockSwitch
	Stats     PomodoroRecorder
	Now       func() time.Time
}

type Coordinator struct {
	kv        store.KV
	scheduler alarm.Scheduler
	gate      Entitlement
	notifier  notify.Notifier
	events    Broadcaster
	blocker   BlockSwitch
	stats     PomodoroRecorder
	now       func() time.Time

	mu          sync.Mutex
	focusMode   bool
	secondsLeft int
}

// New builds a coordinator and loads the persisted snapshot.
func New(opts Options) *Coordinator {
	c := &Coordinator{
		kv:        opts.Store,
		scheduler: opts.Scheduler,
		gate:      opts.Gate,
		notifier:  opts.Notifier,
		events:    opts.Events,
		blocker:   opts.Blocker,
		stats:     opts.Stats,
		now:       opts.Now,
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.Load()
	return c
}

// Remaining is the whole seconds between now and fireAt, rounded to the
// nearest second and never negative.
func Remaining(now, fireAt time.Time) int {
	secs := math.Round(fireAt.Sub(now).Seconds())
	if secs < 0 {
		return 0
	}
	return int(secs)
}

// Load replaces the in-memory state with the persisted snapshot, or with a
// fresh focus interval when nothing was saved.
func (c *Coordinator) Load() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var p persisted
	ok, err := c.kv.Get(store.KeyPomodoroState, &p)
	if err != nil {
		logger.Warn("load timer state, using defaults", "error", err)
	}
	if err != nil || !ok {
		c.focusMode = true
		c.secondsLeft = c.focusMinutes() * 60
		return
	}
	c.focusMode = p.FocusMode
	c.secondsLeft = p.SecondsLeft
}

func (c *Coordinator) Start() (Status, error) {
	c.mu.Lock()
	if _, running := c.scheduler.Get(AlarmName); running {
		c.mu.Unlock()
		return StatusAlreadyRunning, nil
	}

	// Another process may have written the remainder since we last read it.
	var p persisted
	if ok, err := c.kv.Get(store.KeyPomodoroState, &p); err == nil && ok {
		c.secondsLeft = p.SecondsLeft
	}

	fireAt := c.now().Add(time.Duration(c.secondsLeft) * time.Second)
	if err := c.scheduler.Create(AlarmName, fireAt); err != nil {
		c.mu.Unlock()
		return "", fmt.Errorf("schedule wake-up: %w", err)
	}
	focus := c.focusMode
	c.mu.Unlock()

	if focus && c.pro() && store.Value(c.kv, store.KeyAutoBlockerPref, true) {
		c.activateBlocker()
	}
	logger.Info("timer started", "fire_at", fireAt, "focus", focus)
	c.broadcast(events.UpdateTimerDisplay)
	return StatusStarted, nil
}

func (c *Coordinator) Pause() (Status, error) {
	c.mu.Lock()
	a, running := c.scheduler.Get(AlarmName)
	if !running {
		c.mu.Unlock()
		return StatusAlreadyPaused, nil
	}
	c.secondsLeft = Remaining(c.now(), a.When)
	if _, err := c.scheduler.Clear(AlarmName); err != nil {
		logger.Warn("clear wake-up", "error", err)
	}
	err := c.save()
	c.mu.Unlock()

	c.deactivateBlocker()
	c.broadcast(events.UpdateTimerDisplay)
	return StatusPaused, err
}

func (c *Coordinator) Reset() (Status, error) {
	c.mu.Lock()
	if _, err := c.scheduler.Clear(AlarmName); err != nil {
		logger.Warn("clear wake-up", "error", err)
	}
	c.focusMode = true
	c.secondsLeft = c.focusMinutes() * 60
	err := c.save()
	c.mu.Unlock()

	c.deactivateBlocker()
	c.broadcast(events.UpdateTimerDisplay)
	return StatusReset, err
}

// State re-derives whether the timer runs and, when it does, how much time is
// left from the scheduled fire time.
func (c *Coordinator) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// InFocus reports whether the current interval is a focus interval.
func (c *Coordinator) InFocus() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focusMode
}

// SetNotify toggles the end-of-interval notification preference.
func (c *Coordinator) SetNotify(enabled bool) error {
	return c.kv.Set(store.KeyPomodoroNotify, enabled)
}

// UpdateIntervals saves custom focus and break minutes. It is a Pro feature.
// A stopped timer picks up the new length of its current interval at once.
func (c *Coordinator) UpdateIntervals(focusMinutes, breakMinutes int) error {
	if !c.pro() {
		return fmt.Errorf("custom intervals: %w", gate.ErrNotEntitled)
	}
	if focusMinutes < 1 || breakMinutes < 1 {
		return ErrInvalidDuration
	}
	err := c.kv.SetMany(map[string]any{
		store.KeyCustomFocusMinutes: focusMinutes,
		store.KeyCustomBreakMinutes: breakMinutes,
	})
	if err != nil {
		return fmt.Errorf("save intervals: %w", err)
	}

	c.mu.Lock()
	_, running := c.scheduler.Get(AlarmName)
	if !running {
		if c.focusMode {
			c.secondsLeft = focusMinutes * 60
		} else {
			c.secondsLeft = breakMinutes * 60
		}
		err = c.save()
	}
	c.mu.Unlock()

	c.broadcast(events.UpdateTimerDisplay)
	return err
}

// HandleAlarm is the wake-up callback. It ignores alarms it does not own,
// and a wake-up that was rescheduled after firing but before this ran.
func (c *Coordinator) HandleAlarm(a alarm.Alarm) {
	if a.Name != AlarmName {
		return
	}

	c.mu.Lock()
	if next, ok := c.scheduler.Get(AlarmName); ok {
		c.mu.Unlock()
		logger.Debug("wake-up superseded by a new start", "fire_at", next.When)
		return
	}
	wasFocus := c.focusMode
	c.focusMode = !wasFocus
	minutes := c.breakMinutes()
	if c.focusMode {
		minutes = c.focusMinutes()
	}
	c.secondsLeft = minutes * 60
	if err := c.save(); err != nil {
		logger.Error("save timer state after wake-up", "error", err)
	}
	snap := c.snapshot()
	c.mu.Unlock()

	logger.Info("interval ended", "was_focus", wasFocus, "next_minutes", minutes)

	if wasFocus && c.stats != nil {
		if err := c.stats.IncrementPomodoros(); err != nil {
			logger.Warn("record pomodoro", "error", err)
		}
	}

	if c.notifier != nil && store.Value(c.kv, store.KeyPomodoroNotify, false) {
		n := notify.Notification{ID: notificationID}
		if wasFocus {
			n.Title = "Focus Time Finished!"
			n.Message = fmt.Sprintf("Time for a %d-minute break.", minutes)
		} else {
			n.Title = "Break Over!"
			n.Message = fmt.Sprintf("Time for %d minutes of focus.", minutes)
		}
		if err := c.notifier.Notify(context.Background(), n); err != nil {
			logger.Warn("timer notification", "error", err)
		}
	}

	if c.events != nil {
		c.events.Broadcast(events.UpdateTimerDisplay, snap)
		c.events.Broadcast(events.TimerEnded, snap)
	}
	c.deactivateBlocker()
}

// save persists the minimal state. mu must be held.
func (c *Coordinator) save() error {
	p := persisted{FocusMode: c.focusMode, SecondsLeft: c.secondsLeft}
	if err := c.kv.Set(store.KeyPomodoroState, p); err != nil {
		return fmt.Errorf("save timer state: %w", err)
	}
	return nil
}

// snapshot must be called with mu held.
func (c *Coordinator) snapshot() Snapshot {
	s := Snapshot{
		FocusMode:    c.focusMode,
		SecondsLeft:  c.secondsLeft,
		FocusMinutes: c.focusMinutes(),
		BreakMinutes: c.breakMinutes(),
	}
	if a, ok := c.scheduler.Get(AlarmName); ok {
		s.Running = true
		s.SecondsLeft = Remaining(c.now(), a.When)
	}
	return s
}

func (c *Coordinator) broadcast(command string) {
	if c.events == nil {
		return
	}
	c.events.Broadcast(command, c.State())
}

func (c *Coordinator) focusMinutes() int {
	if c.pro() {
		return positive(store.Value(c.kv, store.KeyCustomFocusMinutes, DefaultFocusMinutes), DefaultFocusMinutes)
	}
	return DefaultFocusMinutes
}

func (c *Coordinator) breakMinutes() int {
	if c.pro() {
		return positive(store.Value(c.kv, store.KeyCustomBreakMinutes, DefaultBreakMinutes), DefaultBreakMinutes)
	}
	return DefaultBreakMinutes
}

func (c *Coordinator) pro() bool {
	return c.gate != nil && c.gate.IsEntitled()
}

func (c *Coordinator) activateBlocker() {
	if c.blocker != nil {
		c.blocker.Activate()
	}
}

func (c *Coordinator) deactivateBlocker() {
	if c.blocker != nil {
		c.blocker.Deactivate()
	}
}

func positive(v, fallback int) int {
	if v < 1 {
		return fallback
	}
	return v
}
