package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/sadopc/focuskit/internal/events"
	"github.com/sadopc/focuskit/internal/protocol"
	"github.com/sadopc/focuskit/internal/timer"
)

// viewState represents the currently active view.
type viewState int

const (
	viewTimer viewState = iota
	viewTasks
	viewStats
	viewSettings
	viewPro
)

var viewNames = []string{"Timer", "Tasks", "Stats", "Settings", "Pro"}

// Commander sends commands to the daemon. *client.Client satisfies it.
type Commander interface {
	Send(ctx context.Context, req protocol.Request) (protocol.Response, error)
}

// EventSource streams daemon events. *client.Client satisfies it.
type EventSource interface {
	Events(ctx context.Context) (<-chan events.Event, error)
}

// --- Messages ---

type tickMsg time.Time

type statusMsg struct {
	text    string
	isError bool
}

// syncMsg carries a fresh timer snapshot. online is false when the
// snapshot came from the store because the daemon could not be reached.
type syncMsg struct {
	state  timer.Snapshot
	online bool
	err    error
}

type daemonEventMsg struct {
	event events.Event
}

type eventsClosedMsg struct{}

type exportDoneMsg struct {
	path string
}

type dataChangedMsg struct{}

// --- Helpers ---

// formatClock renders seconds as MM:SS, the way the countdown is shown.
func formatClock(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

func statusErr(prefix string, err error) statusMsg {
	return statusMsg{text: fmt.Sprintf("%s: %v", prefix, err), isError: true}
}
