// Package protocol defines the command messages exchanged between the
// daemon and foreground views.
package protocol

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/sadopc/focuskit/internal/tabs"
	"github.com/sadopc/focuskit/internal/timer"
)

const (
	StartTimer               = "startTimer"
	PauseTimer               = "pauseTimer"
	ResetTimer               = "resetTimer"
	GetTimerState            = "getTimerState"
	UpdateIntervals          = "updateIntervals"
	UpdateTabLimiterSettings = "updateTabLimiterSettings"
	CheckTabsNow             = "checkTabsNow"
	EnableAutoBlocker        = "enableAutoBlocker"
	DisableAutoBlocker       = "disableAutoBlocker"
	UpdateBlockedSites       = "updateBlockedSites"
	ProStatusChanged         = "proStatusChanged"
	TabCreated               = "tabCreated"
	TabUpdated               = "tabUpdated"
	TabRemoved               = "tabRemoved"
)

// Acknowledgement statuses for commands that do not return timer state.
const (
	StatusTabSettingsUpdated  = "tab settings updated"
	StatusCheckingTabs        = "checking tabs"
	StatusBlockerEnabled      = "blocker enabled"
	StatusBlockerDisabled     = "blocker disabled"
	StatusBlockedSitesUpdated = "blocked sites updated"
	StatusIntervalsUpdated    = "intervals updated"
	StatusProUpdated          = "pro status updated"
	StatusTabRecorded         = "tab recorded"
)

// TabComplete is the status a tab reports once navigation has finished.
const TabComplete = "complete"

type Intervals struct {
	FocusMinutes int `json:"focus_minutes"`
	BreakMinutes int `json:"break_minutes"`
}

type Request struct {
	Command   string      `json:"command" validate:"required"`
	Settings  *tabs.Patch `json:"settings,omitempty"`
	Sites     []string    `json:"sites,omitempty" validate:"omitempty,dive,max=2048"`
	Tab       *tabs.Tab   `json:"tab,omitempty"`
	Intervals *Intervals  `json:"intervals,omitempty" validate:"required_if=Command updateIntervals"`
}

type Response struct {
	Status   string          `json:"status,omitempty"`
	State    *timer.Snapshot `json:"state,omitempty"`
	Settings *tabs.Settings  `json:"settings,omitempty"`
	Sites    []string        `json:"sites,omitempty"`
	Error    string          `json:"error,omitempty"`
}

var validate = validator.New()

// Validate checks the request shape. Command-specific payload checks happen
// during dispatch.
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	switch r.Command {
	case TabCreated, TabUpdated, TabRemoved:
		if r.Tab == nil {
			return fmt.Errorf("invalid request: %s needs a tab", r.Command)
		}
	case UpdateTabLimiterSettings:
		if r.Settings == nil {
			return fmt.Errorf("invalid request: %s needs settings", r.Command)
		}
	}
	return nil
}

// Failure builds an error response.
func Failure(err error) Response {
	return Response{Error: err.Error()}
}
