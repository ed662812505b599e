package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focuskit/internal/daykey"
	"github.com/sadopc/focuskit/internal/gate"
	"github.com/sadopc/focuskit/internal/stats"
	"github.com/sadopc/focuskit/internal/streak"
)

var historyWindows = []int{7, 30}

type statsModel struct {
	stats  *stats.Tracker
	streak *streak.Tracker
	width  int
	height int

	window  int // index into historyWindows
	today   stats.DailyStats
	history []stats.DailyStats
	summary stats.Summary
	current streak.State
	pro     bool

	chart barchart.Model
}

func newStatsModel(st *stats.Tracker, sk *streak.Tracker) statsModel {
	return statsModel{
		stats:  st,
		streak: sk,
		chart:  barchart.New(60, 12),
	}
}

func (s *statsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type statsDataMsg struct {
	today   stats.DailyStats
	history []stats.DailyStats
	current streak.State
	pro     bool
}

func (s statsModel) refresh() tea.Cmd {
	days := historyWindows[s.window]
	return func() tea.Msg {
		msg := statsDataMsg{today: s.stats.Today()}
		history, err := s.stats.LastDays(days)
		if err == nil {
			msg.pro = true
			msg.history = history
		} else if !errors.Is(err, gate.ErrNotEntitled) {
			return statusErr("Stats", err)
		}
		if cur, err := s.streak.Current(); err == nil {
			msg.current = cur
		}
		return msg
	}
}

func (s statsModel) update(msg tea.Msg) (statsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case statsDataMsg:
		s.today = msg.today
		s.history = msg.history
		s.summary = stats.Summarize(msg.history)
		s.current = msg.current
		s.pro = msg.pro
		s.buildChart()
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			if s.window > 0 {
				s.window--
				return s, s.refresh()
			}
		case key.Matches(msg, keys.Right):
			if s.window < len(historyWindows)-1 {
				s.window++
				return s, s.refresh()
			}
		}
	}
	return s, nil
}

func (s *statsModel) buildChart() {
	chartWidth := max(s.width-8, 20)
	chartHeight := 10
	if s.height > 30 {
		chartHeight = 14
	}

	s.chart = barchart.New(chartWidth, chartHeight)

	labelLayout := "Mon"
	if len(s.history) > 7 {
		labelLayout = "02"
	}

	bars := make([]barchart.BarData, 0, len(s.history))
	for _, d := range s.history {
		label := d.Date
		if t, err := daykey.Parse(d.Date); err == nil {
			label = t.Format(labelLayout)
		}
		bars = append(bars, barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{{
				Name:  "Pomodoros",
				Value: float64(d.PomodorosCompleted),
				Style: lipgloss.NewStyle().Foreground(colorFocus),
			}},
		})
	}

	s.chart.PushAll(bars)
	s.chart.Draw()
}

func (s statsModel) view() string {
	w := s.width - 4

	title := titleStyle.Render("Statistics")
	todayLine := fmt.Sprintf("  Today: %s tasks completed, %s pomodoros",
		highlightStyle.Render(fmt.Sprint(s.today.TasksCompleted)),
		highlightStyle.Render(fmt.Sprint(s.today.PomodorosCompleted)),
	)

	rows := []string{title, "", todayLine}

	if !s.pro {
		rows = append(rows, "",
			mutedStyle.Render("  History, streaks and charts are Pro features. Press 5 to learn more."),
		)
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	streakLine := fmt.Sprintf("  Streak: %s", highlightStyle.Render(fmt.Sprintf("%d days", s.current.Current)))
	if s.current.HasBadge() {
		streakLine += "  " + successStyle.Render(fmt.Sprintf("🏆 %d-day badge", streak.BadgeThreshold))
	}
	rows = append(rows, streakLine, "")

	var tabs []string
	for i, n := range historyWindows {
		label := fmt.Sprintf("%d days", n)
		if i == s.window {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...), "", s.chart.View(), "")
	rows = append(rows, s.renderSummary(w))
	rows = append(rows, "", mutedStyle.Render("  ←/→: switch window  e: export"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (s statsModel) renderSummary(w int) string {
	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-14s %10s %10s", "", "Tasks", "Pomodoros")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 36))))
	rows = append(rows, fmt.Sprintf("  %-14s %10d %10d", "Total", s.summary.TotalTasks, s.summary.TotalPomodoros))
	rows = append(rows, fmt.Sprintf("  %-14s %10.1f %10.1f", "Per day", s.summary.AvgTasksPerDay, s.summary.AvgPomodorosPerDay))
	return strings.Join(rows, "\n")
}
