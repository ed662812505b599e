// Package stats keeps per-day counters of completed tasks and pomodoros.
package stats

import (
	"fmt"
	"time"

	"github.com/sadopc/focuskit/internal/daykey"
	"github.com/sadopc/focuskit/internal/gate"
	"github.com/sadopc/focuskit/internal/logger"
	"github.com/sadopc/focuskit/internal/store"
)

type DailyStats struct {
	Date               string `json:"date"`
	TasksCompleted     int    `json:"tasks_completed"`
	PomodorosCompleted int    `json:"pomodoros_completed"`
}

// Summary aggregates a range of days.
type Summary struct {
	Days               int     `json:"days"`
	TotalTasks         int     `json:"total_tasks"`
	TotalPomodoros     int     `json:"total_pomodoros"`
	AvgTasksPerDay     float64 `json:"avg_tasks_per_day"`
	AvgPomodorosPerDay float64 `json:"avg_pomodoros_per_day"`
}

type Entitlement interface {
	IsEntitled() bool
}

// ActivityRecorder is told about qualifying activity; the streak tracker
// implements it.
type ActivityRecorder interface {
	RecordActivity() error
}

type Tracker struct {
	kv       store.KV
	gate     Entitlement
	activity ActivityRecorder
	now      func() time.Time
}

// New returns a Tracker. gate and activity may be nil.
func New(kv store.KV, g Entitlement, activity ActivityRecorder) *Tracker {
	return &Tracker{kv: kv, gate: g, activity: activity, now: time.Now}
}

// WithClock returns a copy of t using now as the clock.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	c := *t
	c.now = now
	return &c
}

// ForDate returns the record for day, zeroed when none exists.
func (t *Tracker) ForDate(day string) DailyStats {
	s := store.Value(t.kv, store.StatsKey(day), DailyStats{})
	s.Date = day
	return s
}

func (t *Tracker) Today() DailyStats {
	return t.ForDate(daykey.Key(t.now()))
}

// SetTasksCompleted stores today's recount of completed tasks. Nothing is
// written when the count is unchanged; an increase counts as activity.
func (t *Tracker) SetTasksCompleted(n int) error {
	today := t.Today()
	if today.TasksCompleted == n {
		return nil
	}
	increased := n > today.TasksCompleted
	today.TasksCompleted = n
	if err := t.save(today); err != nil {
		return err
	}
	if increased {
		t.recordActivity()
	}
	return nil
}

// IncrementPomodoros adds one completed focus interval to today's record.
func (t *Tracker) IncrementPomodoros() error {
	today := t.Today()
	today.PomodorosCompleted++
	if err := t.save(today); err != nil {
		return err
	}
	t.recordActivity()
	return nil
}

// Range returns one record per day from..to inclusive. History is Pro only.
func (t *Tracker) Range(from, to time.Time) ([]DailyStats, error) {
	if t.gate == nil || !t.gate.IsEntitled() {
		return nil, gate.ErrNotEntitled
	}
	keys := daykey.Between(from, to)
	out := make([]DailyStats, 0, len(keys))
	for _, k := range keys {
		out = append(out, t.ForDate(k))
	}
	return out, nil
}

// LastDays returns the n days ending today, oldest first.
func (t *Tracker) LastDays(n int) ([]DailyStats, error) {
	now := t.now()
	return t.Range(now.AddDate(0, 0, -(n-1)), now)
}

// Week returns the Monday-start week containing today.
func (t *Tracker) Week() ([]DailyStats, error) {
	keys := daykey.Week(t.now())
	from, err := daykey.Parse(keys[0])
	if err != nil {
		return nil, err
	}
	to, err := daykey.Parse(keys[len(keys)-1])
	if err != nil {
		return nil, err
	}
	return t.Range(from, to)
}

func Summarize(days []DailyStats) Summary {
	s := Summary{Days: len(days)}
	for _, d := range days {
		s.TotalTasks += d.TasksCompleted
		s.TotalPomodoros += d.PomodorosCompleted
	}
	if s.Days > 0 {
		s.AvgTasksPerDay = float64(s.TotalTasks) / float64(s.Days)
		s.AvgPomodorosPerDay = float64(s.TotalPomodoros) / float64(s.Days)
	}
	return s
}

func (t *Tracker) save(d DailyStats) error {
	if err := t.kv.Set(store.StatsKey(d.Date), d); err != nil {
		return fmt.Errorf("save stats for %s: %w", d.Date, err)
	}
	return nil
}

func (t *Tracker) recordActivity() {
	if t.activity == nil {
		return
	}
	if err := t.activity.RecordActivity(); err != nil {
		logger.Warn("record streak activity", "error", err)
	}
}
