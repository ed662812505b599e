// Package events fans update messages out from the daemon to any listening
// foreground view.
package events

import (
	"encoding/json"
	"sync"

	"github.com/sadopc/focuskit/internal/logger"
)

// Commands pushed to listeners.
const (
	UpdateTimerDisplay = "updateTimerDisplay"
	TimerEnded         = "timerEnded"
	ProStatusChanged   = "proStatusChanged"
	ShowBlockOverlay   = "showBlockOverlay"
	Notification       = "notification"
)

// ProStatus is the payload of ProStatusChanged.
type ProStatus struct {
	IsPro bool `json:"is_pro"`
}

type Event struct {
	Command string          `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const subscriberBuffer = 32

// Hub is a non-blocking broadcaster. A subscriber that is not keeping up
// loses events rather than stalling the daemon.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// Subscribe returns a channel of events and a cancel func that closes it.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Broadcast sends command with payload to every subscriber. Payload encoding
// failures and slow subscribers are logged and skipped.
func (h *Hub) Broadcast(command string, payload any) {
	ev := Event{Command: command}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			logger.Warn("encode event payload", "command", command, "error", err)
			return
		}
		ev.Payload = data
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			logger.Debug("listener not keeping up, dropping event", "listener", id, "command", command)
		}
	}
}

// Listeners reports the number of live subscriptions.
func (h *Hub) Listeners() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
