package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focuskit/internal/events"
	"github.com/sadopc/focuskit/internal/gate"
	"github.com/sadopc/focuskit/internal/protocol"
	"github.com/sadopc/focuskit/internal/sound"
	"github.com/sadopc/focuskit/internal/store"
	"github.com/sadopc/focuskit/internal/timer"
)

const commandTimeout = 3 * time.Second

type pomodoroModel struct {
	kv     store.KV
	client Commander
	sound  *sound.Manager
	width  int
	height int

	clock countdown
}

func newPomodoroModel(kv store.KV, client Commander, snd *sound.Manager) pomodoroModel {
	return pomodoroModel{kv: kv, client: client, sound: snd}
}

func (p *pomodoroModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

// refresh asks the daemon for the current state, falling back to the stored
// snapshot when it is unreachable.
func (p pomodoroModel) refresh() tea.Cmd {
	return p.command(protocol.GetTimerState)
}

func (p pomodoroModel) command(name string) tea.Cmd {
	client, kv := p.client, p.kv
	return func() tea.Msg {
		if client == nil {
			return syncMsg{state: offlineState(kv)}
		}
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		resp, err := client.Send(ctx, protocol.Request{Command: name})
		if resp.State == nil {
			return syncMsg{state: offlineState(kv), err: err}
		}
		return syncMsg{state: *resp.State, online: true, err: err}
	}
}

// offlineState reads the last persisted snapshot. Without a daemon nothing
// can be running.
func offlineState(kv store.KV) timer.Snapshot {
	s := store.Value(kv, store.KeyPomodoroState, timer.Snapshot{
		FocusMode:   true,
		SecondsLeft: timer.DefaultFocusMinutes * 60,
	})
	s.Running = false
	if s.FocusMinutes == 0 {
		s.FocusMinutes = timer.DefaultFocusMinutes
	}
	if s.BreakMinutes == 0 {
		s.BreakMinutes = timer.DefaultBreakMinutes
	}
	return s
}

func (p pomodoroModel) update(msg tea.Msg) (pomodoroModel, tea.Cmd) {
	switch msg := msg.(type) {
	case syncMsg:
		p.clock.apply(msg.state, msg.online)
		cmd := p.syncSound()
		if msg.err != nil {
			return p, tea.Batch(cmd, statusCmd(statusErr("Timer", msg.err)))
		}
		return p, cmd

	case tickMsg:
		if p.clock.tick() {
			return p, p.refresh()
		}
		return p, nil

	case daemonEventMsg:
		switch msg.event.Command {
		case events.UpdateTimerDisplay, events.TimerEnded:
			var s timer.Snapshot
			if err := json.Unmarshal(msg.event.Payload, &s); err != nil {
				return p, p.refresh()
			}
			p.clock.apply(s, true)
			cmd := p.syncSound()
			if msg.event.Command == events.TimerEnded {
				return p, tea.Batch(cmd, statusCmd(statusMsg{text: endedText(s) + " \a"}))
			}
			return p, cmd
		}
		return p, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Start):
			if p.client == nil {
				return p, offlineCmd()
			}
			return p, p.command(protocol.StartTimer)
		case key.Matches(msg, keys.Pause):
			if p.client == nil {
				return p, offlineCmd()
			}
			return p, p.command(protocol.PauseTimer)
		case key.Matches(msg, keys.Reset):
			if p.client == nil {
				return p, offlineCmd()
			}
			return p, p.command(protocol.ResetTimer)
		case key.Matches(msg, keys.Sound):
			return p, p.toggleSound()
		}
	}
	return p, nil
}

// syncSound plays the ambient sound during a running focus interval and
// stops it otherwise.
func (p pomodoroModel) syncSound() tea.Cmd {
	if p.sound == nil {
		return nil
	}
	if !p.clock.running() || !p.clock.inFocus() {
		p.sound.Pause()
		return nil
	}
	if err := p.sound.Play(); err != nil && !errors.Is(err, gate.ErrNotEntitled) {
		return statusCmd(statusErr("Sound", err))
	}
	return nil
}

func (p pomodoroModel) toggleSound() tea.Cmd {
	if p.sound == nil {
		return nil
	}
	enabled := !p.sound.Prefs().Enabled
	if err := p.sound.SetEnabled(enabled); err != nil {
		return statusCmd(statusErr("Sound", err))
	}
	if cmd := p.syncSound(); cmd != nil {
		return cmd
	}
	if enabled {
		return statusCmd(statusMsg{text: "Ambient sound on"})
	}
	return statusCmd(statusMsg{text: "Ambient sound off"})
}

func endedText(next timer.Snapshot) string {
	if next.FocusMode {
		return fmt.Sprintf("Break over! Time for %d minutes of focus.", next.FocusMinutes)
	}
	return fmt.Sprintf("Focus time finished! Time for a %d-minute break.", next.BreakMinutes)
}

func offlineCmd() tea.Cmd {
	return statusCmd(statusMsg{text: "Daemon offline. Run `focuskit daemon` to use the timer.", isError: true})
}

func statusCmd(s statusMsg) tea.Cmd {
	return func() tea.Msg { return s }
}

func (p pomodoroModel) view() string {
	w := p.width - 4

	title := titleStyle.Render("Pomodoro Timer")
	if !p.clock.synced {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Center, title, "", mutedStyle.Render("Syncing...")))
	}

	modeStyle := successStyle
	if p.clock.inFocus() {
		modeStyle = accentStyle
	}
	timeDisplay := modeStyle.Bold(true).Width(max(w-6, 10)).Align(lipgloss.Center).Render(formatClock(p.clock.state.SecondsLeft))
	phaseLabel := modeStyle.Bold(true).Render(p.clock.modeLabel())

	var stateLabel string
	switch {
	case !p.clock.online:
		stateLabel = warningStyle.Render("offline")
	case p.clock.running():
		stateLabel = successStyle.Render("● running")
	default:
		stateLabel = mutedStyle.Render("⏸ paused")
	}

	durations := mutedStyle.Render(fmt.Sprintf("focus %d min · break %d min", p.clock.state.FocusMinutes, p.clock.state.BreakMinutes))

	var controls string
	switch {
	case !p.clock.online:
		controls = mutedStyle.Render("start the daemon to use the timer")
	case p.clock.running():
		controls = mutedStyle.Render("p: pause  r: reset  m: sound")
	default:
		controls = mutedStyle.Render("s: start  r: reset  m: sound")
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		title,
		"",
		timeDisplay,
		phaseLabel,
		stateLabel,
		"",
		p.renderProgress(max(w-10, 10)),
		durations,
	)
	if playing := p.playingLabel(); playing != "" {
		content = lipgloss.JoinVertical(lipgloss.Center, content, "", playing)
	}

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center, content, "", controls),
	)
}

func (p pomodoroModel) renderProgress(width int) string {
	width = min(width, 40)
	filled := int(p.clock.progress() * float64(width))
	color := colorBreak
	if p.clock.inFocus() {
		color = colorFocus
	}
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	rest := lipgloss.NewStyle().Foreground(colorSubtle).Render(strings.Repeat("░", width-filled))
	return bar + rest
}

func (p pomodoroModel) playingLabel() string {
	if p.sound == nil {
		return ""
	}
	id := p.sound.Playing()
	if id == "" {
		return ""
	}
	s, _ := sound.Lookup(id)
	return highlightStyle.Render("♪ " + s.Name)
}
