// Package tasks is the daily to-do list.
package tasks

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sadopc/focuskit/internal/daykey"
	"github.com/sadopc/focuskit/internal/logger"
	"github.com/sadopc/focuskit/internal/store"
)

// FreeDailyLimit is how many tasks a free user may add per calendar day.
const FreeDailyLimit = 10

const DefaultCategory = "Work"

var (
	ErrEmptyText = errors.New("task text cannot be empty")
	ErrNotFound  = errors.New("task not found")
	// ErrDailyLimit is a limit warning rather than a failure: the list is
	// unchanged and the user is invited to upgrade.
	ErrDailyLimit = fmt.Errorf("daily limit of %d tasks reached, upgrade to Pro for unlimited tasks", FreeDailyLimit)
)

type Task struct {
	ID            string  `json:"id"`
	Text          string  `json:"text"`
	Completed     bool    `json:"completed"`
	AddedDate     string  `json:"added_date"`
	CompletedDate *string `json:"completed_date"`
	Category      string  `json:"category"`
}

type Entitlement interface {
	IsEntitled() bool
}

// StatsRecorder receives today's recount of completed tasks after every
// mutation.
type StatsRecorder interface {
	SetTasksCompleted(n int) error
}

type Manager struct {
	kv    store.KV
	gate  Entitlement
	stats StatsRecorder
	now   func() time.Time
	newID func(time.Time) string
}

// New returns a Manager. gate and stats may be nil.
func New(kv store.KV, g Entitlement, stats StatsRecorder) *Manager {
	return &Manager{kv: kv, gate: g, stats: stats, now: time.Now, newID: newID}
}

func newID(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("task-%d-%s", t.UnixMilli(), suffix)
}

// List returns tasks in insertion order.
func (m *Manager) List() []Task {
	return store.Value(m.kv, store.KeyTasks, []Task{})
}

// Sorted returns incomplete tasks first, keeping insertion order inside each
// group.
func (m *Manager) Sorted() []Task {
	list := m.List()
	sort.SliceStable(list, func(i, j int) bool {
		return !list[i].Completed && list[j].Completed
	})
	return list
}

// AddedToday counts tasks whose added date is today.
func (m *Manager) AddedToday() int {
	return countAdded(m.List(), daykey.Key(m.now()))
}

// CanAdd reports whether another task may be added today.
func (m *Manager) CanAdd() bool {
	return m.pro() || m.AddedToday() < FreeDailyLimit
}

// Remaining returns how many adds a free user has left today, or -1 for Pro.
func (m *Manager) Remaining() int {
	if m.pro() {
		return -1
	}
	left := FreeDailyLimit - m.AddedToday()
	if left < 0 {
		return 0
	}
	return left
}

func (m *Manager) Add(text, category string) (Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Task{}, ErrEmptyText
	}
	if category = strings.TrimSpace(category); category == "" {
		category = DefaultCategory
	}

	now := m.now()
	today := daykey.Key(now)
	list := m.List()
	if !m.pro() && countAdded(list, today) >= FreeDailyLimit {
		return Task{}, ErrDailyLimit
	}

	task := Task{
		ID:        m.newID(now),
		Text:      text,
		AddedDate: today,
		Category:  category,
	}
	if err := m.save(append(list, task)); err != nil {
		return Task{}, err
	}
	return task, nil
}

// SetCompleted marks a task done or not done and stamps the completion day.
func (m *Manager) SetCompleted(id string, completed bool) (Task, error) {
	list := m.List()
	i := indexOf(list, id)
	if i < 0 {
		return Task{}, ErrNotFound
	}

	list[i].Completed = completed
	list[i].CompletedDate = nil
	if completed {
		today := daykey.Key(m.now())
		list[i].CompletedDate = &today
	}
	if err := m.save(list); err != nil {
		return Task{}, err
	}
	return list[i], nil
}

// Delete removes a task. Deleting an unknown id is not an error.
func (m *Manager) Delete(id string) error {
	list := m.List()
	i := indexOf(list, id)
	if i < 0 {
		return nil
	}
	return m.save(append(list[:i], list[i+1:]...))
}

// Find resolves a full id or a unique id prefix.
func (m *Manager) Find(ref string) (Task, error) {
	var found []Task
	for _, t := range m.List() {
		if t.ID == ref {
			return t, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			found = append(found, t)
		}
	}
	if len(found) != 1 || ref == "" {
		return Task{}, ErrNotFound
	}
	return found[0], nil
}

// CompletedToday counts tasks completed today.
func CompletedToday(list []Task, today string) int {
	n := 0
	for _, t := range list {
		if t.Completed && t.CompletedDate != nil && *t.CompletedDate == today {
			n++
		}
	}
	return n
}

func (m *Manager) save(list []Task) error {
	if err := m.kv.Set(store.KeyTasks, list); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	if m.stats != nil {
		n := CompletedToday(list, daykey.Key(m.now()))
		if err := m.stats.SetTasksCompleted(n); err != nil {
			logger.Warn("update task stats", "error", err)
		}
	}
	return nil
}

func (m *Manager) pro() bool {
	return m.gate != nil && m.gate.IsEntitled()
}

func countAdded(list []Task, day string) int {
	n := 0
	for _, t := range list {
		if t.AddedDate == day {
			n++
		}
	}
	return n
}

func indexOf(list []Task, id string) int {
	for i, t := range list {
		if t.ID == id {
			return i
		}
	}
	return -1
}
