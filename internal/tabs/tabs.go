// Package tabs mirrors the host's open tabs and warns when too many are open.
package tabs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sadopc/focuskit/internal/logger"
	"github.com/sadopc/focuskit/internal/notify"
	"github.com/sadopc/focuskit/internal/store"
)

const (
	DefaultMaxTabs = 5

	notificationID = "tab-limit-warning"
)

var ErrInvalidMaxTabs = errors.New("max tabs must be a whole number greater than 0")

type Tab struct {
	ID     int    `json:"id" validate:"gte=0"`
	URL    string `json:"url,omitempty"`
	Status string `json:"status,omitempty"`
}

// Registry is the daemon's view of the host's tab set, fed by tab events.
type Registry struct {
	mu   sync.Mutex
	tabs map[int]Tab
}

func NewRegistry() *Registry {
	return &Registry{tabs: make(map[int]Tab)}
}

// Upsert records a created or updated tab.
func (r *Registry) Upsert(t Tab) {
	r.mu.Lock()
	r.tabs[t.ID] = t
	r.mu.Unlock()
}

func (r *Registry) Remove(id int) {
	r.mu.Lock()
	delete(r.tabs, id)
	r.mu.Unlock()
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tabs)
}

// List returns the tabs ordered by id.
func (r *Registry) List() []Tab {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Tab, 0, len(r.tabs))
	for _, t := range r.tabs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Settings are the persisted limiter preferences.
type Settings struct {
	Enabled bool `json:"is_enabled"`
	MaxTabs int  `json:"max_tabs"`
}

// Patch is a partial settings update; nil fields are left alone.
type Patch struct {
	Enabled *bool `json:"is_enabled,omitempty"`
	MaxTabs *int  `json:"max_tabs,omitempty"`
}

// Counter answers the live tab count.
type Counter interface {
	Count() int
}

// Limiter raises a notification when the live tab count exceeds the limit.
// There is no debounce: a burst of new tabs can notify several times.
type Limiter struct {
	kv       store.KV
	tabs     Counter
	notifier notify.Notifier

	mu       sync.Mutex
	settings Settings
}

func NewLimiter(kv store.KV, tabs Counter, notifier notify.Notifier) *Limiter {
	l := &Limiter{kv: kv, tabs: tabs, notifier: notifier}
	l.settings = LoadSettings(kv)
	return l
}

// LoadSettings reads the limiter preferences, falling back to defaults.
func LoadSettings(kv store.KV) Settings {
	s := Settings{
		Enabled: store.Value(kv, store.KeyTabLimiterEnabled, false),
		MaxTabs: store.Value(kv, store.KeyMaxTabs, DefaultMaxTabs),
	}
	if s.MaxTabs < 1 {
		s.MaxTabs = DefaultMaxTabs
	}
	return s
}

// SaveSettings validates and persists s.
func SaveSettings(kv store.KV, s Settings) error {
	if s.MaxTabs < 1 {
		return ErrInvalidMaxTabs
	}
	err := kv.SetMany(map[string]any{
		store.KeyTabLimiterEnabled: s.Enabled,
		store.KeyMaxTabs:           s.MaxTabs,
	})
	if err != nil {
		return fmt.Errorf("save tab limiter settings: %w", err)
	}
	return nil
}

func (l *Limiter) Settings() Settings {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settings
}

// Reload picks up settings written by another process.
func (l *Limiter) Reload() {
	s := LoadSettings(l.kv)
	l.mu.Lock()
	l.settings = s
	l.mu.Unlock()
}

// Update merges p into the current settings, persists them and, when the
// limiter ends up enabled, checks the count right away. Invalid input leaves
// the settings unchanged.
func (l *Limiter) Update(ctx context.Context, p Patch) (Settings, error) {
	l.mu.Lock()
	next := l.settings
	if p.Enabled != nil {
		next.Enabled = *p.Enabled
	}
	if p.MaxTabs != nil {
		next.MaxTabs = *p.MaxTabs
	}
	if err := SaveSettings(l.kv, next); err != nil {
		l.mu.Unlock()
		return l.Settings(), err
	}
	l.settings = next
	l.mu.Unlock()

	if next.Enabled {
		l.Check(ctx)
	}
	return next, nil
}

// Check notifies once when the live count is strictly above the limit and
// reports whether it did.
func (l *Limiter) Check(ctx context.Context) bool {
	s := l.Settings()
	if !s.Enabled {
		return false
	}
	count := l.tabs.Count()
	if count <= s.MaxTabs {
		return false
	}

	logger.Warn("tab limit exceeded", "count", count, "max", s.MaxTabs)
	if l.notifier == nil {
		return true
	}
	n := notify.Notification{
		ID:      notificationID,
		Title:   "Tab Limit Reached!",
		Message: fmt.Sprintf("You have %d tabs open (limit: %d). Close some tabs to focus.", count, s.MaxTabs),
	}
	if err := l.notifier.Notify(ctx, n); err != nil {
		logger.Warn("tab limit notification", "error", err)
	}
	return true
}
