package tui

import "github.com/sadopc/focuskit/internal/timer"

// countdown mirrors the daemon's timer between syncs. The daemon owns the
// state; the countdown only decrements locally and asks for a resync when it
// reaches zero.
type countdown struct {
	state  timer.Snapshot
	online bool
	synced bool
}

func (c *countdown) apply(s timer.Snapshot, online bool) {
	c.state = s
	c.online = online
	c.synced = true
}

// tick advances the local countdown by one second and reports whether the
// daemon should be asked for fresh state.
func (c *countdown) tick() bool {
	if !c.state.Running {
		return false
	}
	if c.state.SecondsLeft > 0 {
		c.state.SecondsLeft--
	}
	return c.state.SecondsLeft == 0
}

func (c countdown) running() bool { return c.state.Running }

func (c countdown) inFocus() bool { return c.state.FocusMode }

// total is the full length of the current interval in seconds.
func (c countdown) total() int {
	minutes := c.state.BreakMinutes
	if c.state.FocusMode {
		minutes = c.state.FocusMinutes
	}
	if minutes < 1 {
		minutes = timer.DefaultBreakMinutes
		if c.state.FocusMode {
			minutes = timer.DefaultFocusMinutes
		}
	}
	return minutes * 60
}

// progress is the elapsed fraction of the current interval, 0..1.
func (c countdown) progress() float64 {
	total := c.total()
	done := total - c.state.SecondsLeft
	if done <= 0 {
		return 0
	}
	if done >= total {
		return 1
	}
	return float64(done) / float64(total)
}

func (c countdown) modeLabel() string {
	if c.state.FocusMode {
		return "FOCUS"
	}
	return "BREAK"
}
