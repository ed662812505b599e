// Package alarm is the scheduled wake-up service: named one-shot callbacks
// at an absolute time.
package alarm

import (
	"sort"
	"sync"
	"time"

	"github.com/sadopc/focuskit/internal/logger"
	"github.com/sadopc/focuskit/internal/store"
)

type Alarm struct {
	Name string    `json:"name"`
	When time.Time `json:"when"`
}

// Scheduler is what the timer coordinator needs from the wake-up service.
type Scheduler interface {
	Create(name string, when time.Time) error
	Get(name string) (Alarm, bool)
	Clear(name string) (bool, error)
}

type entry struct {
	alarm Alarm
	timer *time.Timer
}

// Manager runs alarms in-process on time.AfterFunc. Scheduled alarms are
// mirrored to the store so a restarted daemon can Restore them.
type Manager struct {
	kv  store.KV
	now func() time.Time

	mu       sync.Mutex
	alarms   map[string]*entry
	handlers []func(Alarm)
}

var _ Scheduler = (*Manager)(nil)

// NewManager returns a Manager persisting to kv. kv may be nil, in which
// case alarms live only as long as the process.
func NewManager(kv store.KV) *Manager {
	return &Manager{
		kv:     kv,
		now:    time.Now,
		alarms: make(map[string]*entry),
	}
}

// OnAlarm registers a handler. Handlers run on the timer goroutine after the
// alarm has been removed, so Get inside a handler reports it missing.
func (m *Manager) OnAlarm(fn func(Alarm)) {
	m.mu.Lock()
	m.handlers = append(m.handlers, fn)
	m.mu.Unlock()
}

// Create schedules name at when, replacing any alarm with the same name.
func (m *Manager) Create(name string, when time.Time) error {
	m.mu.Lock()
	m.schedule(Alarm{Name: name, When: when})
	err := m.persist()
	m.mu.Unlock()
	return err
}

func (m *Manager) Get(name string) (Alarm, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.alarms[name]
	if !ok {
		return Alarm{}, false
	}
	return e.alarm, true
}

// Clear cancels name and reports whether it was scheduled.
func (m *Manager) Clear(name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.alarms[name]
	if !ok {
		return false, nil
	}
	e.timer.Stop()
	delete(m.alarms, name)
	return true, m.persist()
}

// All lists scheduled alarms ordered by fire time.
func (m *Manager) All() []Alarm {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

// Restore re-arms the alarms persisted by a previous process. Alarms whose
// time already passed fire right away.
func (m *Manager) Restore() error {
	if m.kv == nil {
		return nil
	}
	var saved []Alarm
	if _, err := m.kv.Get(store.KeyAlarms, &saved); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range saved {
		if _, exists := m.alarms[a.Name]; exists {
			continue
		}
		logger.Debug("restoring alarm", "name", a.Name, "when", a.When)
		m.schedule(a)
	}
	return nil
}

// Stop cancels the in-process timers without touching the persisted copy.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.alarms {
		e.timer.Stop()
	}
}

// schedule must be called with mu held.
func (m *Manager) schedule(a Alarm) {
	if old, ok := m.alarms[a.Name]; ok {
		old.timer.Stop()
	}
	delay := a.When.Sub(m.now())
	if delay < 0 {
		delay = 0
	}
	e := &entry{alarm: a}
	e.timer = time.AfterFunc(delay, func() { m.fire(e) })
	m.alarms[a.Name] = e
}

func (m *Manager) fire(e *entry) {
	m.mu.Lock()
	if m.alarms[e.alarm.Name] != e {
		// Replaced or cleared after the timer had already started.
		m.mu.Unlock()
		return
	}
	delete(m.alarms, e.alarm.Name)
	if err := m.persist(); err != nil {
		logger.Warn("persist alarms", "error", err)
	}
	handlers := append([]func(Alarm){}, m.handlers...)
	m.mu.Unlock()

	logger.Debug("alarm fired", "name", e.alarm.Name)
	for _, fn := range handlers {
		fn(e.alarm)
	}
}

func (m *Manager) persist() error {
	if m.kv == nil {
		return nil
	}
	return m.kv.Set(store.KeyAlarms, m.snapshot())
}

func (m *Manager) snapshot() []Alarm {
	out := make([]Alarm, 0, len(m.alarms))
	for _, e := range m.alarms {
		out = append(out, e.alarm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].When.Before(out[j].When) })
	return out
}
