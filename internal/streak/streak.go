// Package streak tracks consecutive days of activity for Pro users.
package streak

import (
	"fmt"
	"time"

	"github.com/sadopc/focuskit/internal/daykey"
	"github.com/sadopc/focuskit/internal/store"
)

// BadgeThreshold is the streak length that earns the badge.
const BadgeThreshold = 5

type State struct {
	Current          int    `json:"current_streak"`
	LastActivityDate string `json:"last_activity_date,omitempty"`
}

// HasBadge reports whether the streak has reached BadgeThreshold.
func (s State) HasBadge() bool {
	return s.Current >= BadgeThreshold
}

type Entitlement interface {
	IsEntitled() bool
}

type Tracker struct {
	kv   store.KV
	gate Entitlement
	now  func() time.Time
}

func New(kv store.KV, gate Entitlement) *Tracker {
	return &Tracker{kv: kv, gate: gate, now: time.Now}
}

// WithClock returns a copy of t using now as the clock.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	c := *t
	c.now = now
	return &c
}

func (t *Tracker) pro() bool {
	return t.gate != nil && t.gate.IsEntitled()
}

// Current loads the streak and validates it: when the last activity is older
// than yesterday the streak is broken, zeroed and saved. Free users always
// see a zero streak.
func (t *Tracker) Current() (State, error) {
	if !t.pro() {
		return State{}, nil
	}
	s := store.Value(t.kv, store.KeyStreak, State{})
	if s.LastActivityDate == "" {
		s.Current = 0
		return s, nil
	}

	now := t.now()
	if s.LastActivityDate != daykey.Key(now) && s.LastActivityDate != daykey.Yesterday(now) && s.Current != 0 {
		s.Current = 0
		if err := t.kv.Set(store.KeyStreak, s); err != nil {
			return s, fmt.Errorf("save broken streak: %w", err)
		}
	}
	return s, nil
}

// RecordActivity registers a qualifying activity today. A second activity on
// the same day changes nothing, activity the day after the last one extends
// the streak and anything else starts a new streak of one.
func (t *Tracker) RecordActivity() error {
	if !t.pro() {
		return nil
	}
	s := store.Value(t.kv, store.KeyStreak, State{})

	now := t.now()
	today := daykey.Key(now)
	switch s.LastActivityDate {
	case today:
		return nil
	case daykey.Yesterday(now):
		s.Current++
	default:
		s.Current = 1
	}
	s.LastActivityDate = today

	if err := t.kv.Set(store.KeyStreak, s); err != nil {
		return fmt.Errorf("save streak: %w", err)
	}
	return nil
}
