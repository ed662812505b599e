package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focuskit/internal/gate"
	"github.com/sadopc/focuskit/internal/keyring"
	"github.com/sadopc/focuskit/internal/protocol"
	"github.com/sadopc/focuskit/internal/tasks"
)

var proFeatures = []string{
	"Unlimited tasks",
	"Custom focus and break intervals",
	"Auto-blocker for distracting sites",
	"Ambient focus sounds",
	"Stats history, charts and export",
	"Streak badges",
}

type proModel struct {
	gate   *gate.Gate
	client Commander
	width  int
	height int

	pro          bool
	configured   map[string]bool
	integrations func() map[string]bool
}

func newProModel(g *gate.Gate, client Commander) proModel {
	return proModel{gate: g, client: client, integrations: keyring.Configured}
}

func (p *proModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

type proDataMsg struct {
	pro        bool
	configured map[string]bool
}

// proChangedMsg is sent after the flag changed in this process.
type proChangedMsg struct {
	pro bool
}

func (p proModel) refresh() tea.Cmd {
	return func() tea.Msg {
		msg := proDataMsg{pro: p.gate.IsEntitled()}
		if p.integrations != nil {
			msg.configured = p.integrations()
		}
		return msg
	}
}

func (p proModel) update(msg tea.Msg) (proModel, tea.Cmd) {
	switch msg := msg.(type) {
	case proDataMsg:
		p.pro = msg.pro
		p.configured = msg.configured
		return p, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Purchase) && !p.pro {
			return p, p.purchase()
		}
	}
	return p, nil
}

// purchase grants Pro and tells the daemon to re-read the flag.
func (p proModel) purchase() tea.Cmd {
	return func() tea.Msg {
		if err := p.gate.Purchase(); err != nil {
			return statusErr("Purchase", err)
		}
		if p.client != nil {
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()
			if _, err := p.client.Send(ctx, protocol.Request{Command: protocol.ProStatusChanged}); err != nil {
				return statusErr("Notify daemon", err)
			}
		}
		return proChangedMsg{pro: true}
	}
}

func (p proModel) view() string {
	w := p.width - 4

	status := warningStyle.Render("Free")
	if p.pro {
		status = successStyle.Render("Pro ✓")
	}
	rows := []string{
		titleStyle.Render("focuskit Pro"),
		"",
		"  Plan: " + status,
		"",
	}

	for _, f := range proFeatures {
		mark := mutedStyle.Render("·")
		if p.pro {
			mark = successStyle.Render("✓")
		}
		rows = append(rows, fmt.Sprintf("  %s %s", mark, f))
	}
	if !p.pro {
		rows = append(rows, "", mutedStyle.Render(fmt.Sprintf("  Free plan: %d tasks per day.", tasks.FreeDailyLimit)))
	}

	rows = append(rows, "", headerStyle.Render("Integrations"))
	for _, name := range keyring.Integrations {
		state := mutedStyle.Render("not configured")
		if p.configured[name] {
			state = successStyle.Render("token stored")
		}
		rows = append(rows, fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(14).Render(name), state))
	}

	rows = append(rows, "")
	if p.pro {
		rows = append(rows, mutedStyle.Render("  Thanks for supporting focuskit."))
	} else {
		rows = append(rows, accentStyle.Render("  Press u to upgrade (simulated, no payment)"))
	}

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
