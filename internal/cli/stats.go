package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sadopc/focuskit/internal/export"
	"github.com/sadopc/focuskit/internal/gate"
	"github.com/sadopc/focuskit/internal/stats"
	"github.com/sadopc/focuskit/internal/store"
	"github.com/sadopc/focuskit/internal/streak"
	"github.com/sadopc/focuskit/internal/timer"
)

type StatsTodayCmd struct{}

func (c *StatsTodayCmd) Run(ctx *Context) error {
	_, _, st, _ := ctx.managers()
	d := st.Today()
	ctx.printf("%s: %d tasks completed, %d pomodoros\n", d.Date, d.TasksCompleted, d.PomodorosCompleted)
	return nil
}

type StatsHistoryCmd struct {
	Days int `short:"n" help:"Number of days ending today." default:"7"`
}

func (c *StatsHistoryCmd) Validate() error {
	if c.Days < 1 || c.Days > 366 {
		return fmt.Errorf("days must be between 1 and 366")
	}
	return nil
}

func (c *StatsHistoryCmd) Run(ctx *Context) error {
	_, _, st, _ := ctx.managers()
	days, err := st.LastDays(c.Days)
	if err != nil {
		return err
	}

	ctx.printf("%-12s %6s %10s\n", "Date", "Tasks", "Pomodoros")
	for _, d := range days {
		ctx.printf("%-12s %6d %10d\n", d.Date, d.TasksCompleted, d.PomodorosCompleted)
	}
	sum := stats.Summarize(days)
	ctx.printf("%-12s %6d %10d\n", "Total", sum.TotalTasks, sum.TotalPomodoros)
	ctx.printf("%-12s %6.1f %10.1f\n", "Per day", sum.AvgTasksPerDay, sum.AvgPomodorosPerDay)
	return nil
}

type StatsExportCmd struct {
	Format string `short:"f" help:"Output format." enum:"csv,json" default:"csv"`
	Days   int    `short:"n" help:"Days of history (Pro; free exports today only)." default:"30"`
	Output string `short:"o" help:"Output directory (default: home directory)." type:"path"`
}

func (c *StatsExportCmd) Run(ctx *Context) error {
	_, _, st, tm := ctx.managers()
	days, err := st.LastDays(max(c.Days, 1))
	if errors.Is(err, gate.ErrNotEntitled) {
		days = []stats.DailyStats{st.Today()}
	} else if err != nil {
		return err
	}

	dir := c.Output
	if dir == "" {
		if dir, err = os.UserHomeDir(); err != nil {
			return err
		}
	}
	date := time.Now().Format("2006-01-02")
	list := tm.List()

	if c.Format == "json" {
		path := filepath.Join(dir, fmt.Sprintf("focuskit-export-%s.json", date))
		if err := export.ToJSON(days, list, path); err != nil {
			return err
		}
		ctx.printf("Exported to %s\n", path)
		return nil
	}

	focus := store.Value(ctx.Store, store.KeyCustomFocusMinutes, timer.DefaultFocusMinutes)
	if !gate.New(ctx.Store).IsEntitled() || focus < 1 {
		focus = timer.DefaultFocusMinutes
	}
	statsPath := filepath.Join(dir, fmt.Sprintf("focuskit-stats-%s.csv", date))
	if err := export.StatsToCSV(days, focus, statsPath); err != nil {
		return err
	}
	tasksPath := filepath.Join(dir, fmt.Sprintf("focuskit-tasks-%s.csv", date))
	if err := export.TasksToCSV(list, tasksPath); err != nil {
		return err
	}
	ctx.printf("Exported to %s and %s\n", statsPath, tasksPath)
	return nil
}

type StreakCmd struct{}

func (c *StreakCmd) Run(ctx *Context) error {
	g, sk, _, _ := ctx.managers()
	if err := g.Require(); err != nil {
		return err
	}
	s, err := sk.Current()
	if err != nil {
		return err
	}
	ctx.printf("Current streak: %d days\n", s.Current)
	if s.LastActivityDate != "" {
		ctx.printf("Last activity: %s\n", s.LastActivityDate)
	}
	if s.HasBadge() {
		ctx.printf("🏆 %d-day streak badge earned\n", streak.BadgeThreshold)
	}
	return nil
}
