// Package cli holds the focuskit command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/alecthomas/kong"

	"github.com/sadopc/focuskit/internal/client"
	"github.com/sadopc/focuskit/internal/config"
	"github.com/sadopc/focuskit/internal/events"
	"github.com/sadopc/focuskit/internal/gate"
	"github.com/sadopc/focuskit/internal/protocol"
	"github.com/sadopc/focuskit/internal/stats"
	"github.com/sadopc/focuskit/internal/store"
	"github.com/sadopc/focuskit/internal/streak"
	"github.com/sadopc/focuskit/internal/tasks"
	"github.com/sadopc/focuskit/internal/timer"
)

const commandTimeout = 5 * time.Second

// Daemon is what the commands need from a running daemon.
type Daemon interface {
	Send(ctx context.Context, req protocol.Request) (protocol.Response, error)
	Events(ctx context.Context) (<-chan events.Event, error)
}

// Context is passed to every command's Run method.
type Context struct {
	Config *config.Config
	// Store is nil for the daemon command, which opens its own.
	Store store.KV
	Out   io.Writer
	// Connect finds the running daemon. It returns client.ErrDaemonNotRunning
	// when there is none.
	Connect func() (Daemon, error)
}

// DiscoverDaemon connects through the lockfile in dir.
func DiscoverDaemon(dir string) func() (Daemon, error) {
	return func() (Daemon, error) {
		c, err := client.Discover(dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// CLI is the root command tree.
type CLI struct {
	Version   kong.VersionFlag `help:"Print the version and exit."`
	ConfigDir string           `help:"Config directory (default ~/.config/focuskit)." type:"path" env:"FOCUSKIT_CONFIG_DIR"`
	Store     string           `help:"SQLite path or postgres:// URL, overriding the config file."`
	Debug     bool             `help:"Log at debug level to stderr as well as the log file."`

	Daemon DaemonCmd `cmd:"" help:"Run the background timer daemon."`
	Tui    TuiCmd    `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Timer  struct {
		Start     TimerStartCmd     `cmd:"" help:"Start the current interval."`
		Pause     TimerPauseCmd     `cmd:"" help:"Pause the timer."`
		Reset     TimerResetCmd     `cmd:"" help:"Reset to a fresh focus interval."`
		Status    TimerStatusCmd    `cmd:"" help:"Show the timer state." default:"1"`
		Intervals TimerIntervalsCmd `cmd:"" help:"Set custom focus and break lengths (Pro)."`
	} `cmd:"" help:"Control the pomodoro timer."`
	Task struct {
		Add    TaskAddCmd    `cmd:"" help:"Add a task for today."`
		List   TaskListCmd   `cmd:"" help:"List tasks." default:"1"`
		Done   TaskDoneCmd   `cmd:"" help:"Mark a task completed."`
		Undo   TaskUndoCmd   `cmd:"" help:"Mark a task not completed."`
		Delete TaskDeleteCmd `cmd:"" help:"Delete a task."`
	} `cmd:"" help:"Manage the daily task list."`
	Tabs struct {
		Show  TabsShowCmd  `cmd:"" help:"Show tab limiter settings." default:"1"`
		Set   TabsSetCmd   `cmd:"" help:"Change tab limiter settings."`
		Check TabsCheckCmd `cmd:"" help:"Check the open tab count now."`
	} `cmd:"" help:"Configure the tab limiter."`
	Block struct {
		List    BlockListCmd    `cmd:"" help:"List blocked sites." default:"1"`
		Set     BlockSetCmd     `cmd:"" help:"Replace the blocked sites list (Pro)."`
		Enable  BlockEnableCmd  `cmd:"" help:"Turn the auto-blocker on for this focus interval (Pro)."`
		Disable BlockDisableCmd `cmd:"" help:"Turn the auto-blocker off."`
	} `cmd:"" help:"Manage the site auto-blocker."`
	Stats struct {
		Today   StatsTodayCmd   `cmd:"" help:"Show today's stats." default:"1"`
		History StatsHistoryCmd `cmd:"" help:"Show recent days (Pro)."`
		Export  StatsExportCmd  `cmd:"" help:"Export stats and tasks to CSV or JSON."`
	} `cmd:"" help:"Show productivity stats."`
	Streak StreakCmd `cmd:"" help:"Show the productivity streak (Pro)."`
	Pro    struct {
		Status   ProStatusCmd   `cmd:"" help:"Show the plan." default:"1"`
		Purchase ProPurchaseCmd `cmd:"" help:"Upgrade to Pro (simulated, no payment)."`
		Revoke   ProRevokeCmd   `cmd:"" hidden:"" help:"Go back to the free plan."`
	} `cmd:"" help:"Manage focuskit Pro."`
	Theme ThemeCmd `cmd:"" help:"Show or change the color theme."`
	Sound struct {
		List SoundListCmd `cmd:"" help:"List focus sounds." default:"1"`
		Set  SoundSetCmd  `cmd:"" help:"Change focus sound preferences (Pro)."`
	} `cmd:"" help:"Configure ambient focus sounds."`
	Integrations struct {
		Status IntegrationsStatusCmd `cmd:"" help:"Show which integrations have a token." default:"1"`
		Set    IntegrationsSetCmd    `cmd:"" help:"Store a token in the OS keyring."`
		Get    IntegrationsGetCmd    `cmd:"" help:"Show a stored token, masked."`
		Delete IntegrationsDeleteCmd `cmd:"" help:"Remove a stored token."`
	} `cmd:"" help:"Manage task service tokens."`
}

// managers wires the store-backed domain types the way the daemon does.
func (ctx *Context) managers() (*gate.Gate, *streak.Tracker, *stats.Tracker, *tasks.Manager) {
	g := gate.New(ctx.Store)
	sk := streak.New(ctx.Store, g)
	st := stats.New(ctx.Store, g, sk)
	return g, sk, st, tasks.New(ctx.Store, g, st)
}

// send runs one daemon command with a timeout.
func (ctx *Context) send(req protocol.Request) (protocol.Response, error) {
	d, err := ctx.Connect()
	if err != nil {
		return protocol.Response{}, err
	}
	c, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	return d.Send(c, req)
}

// notifyDaemon sends a command when a daemon is running and ignores its
// absence.
func (ctx *Context) notifyDaemon(req protocol.Request) error {
	d, err := ctx.Connect()
	if err != nil {
		return nil
	}
	c, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	_, err = d.Send(c, req)
	return err
}

func (ctx *Context) printf(format string, args ...any) {
	fmt.Fprintf(ctx.Out, format, args...)
}

func printTimer(ctx *Context, s timer.Snapshot) {
	mode := "focus"
	if !s.FocusMode {
		mode = "break"
	}
	state := "paused"
	if s.Running {
		state = "running"
	}
	ctx.printf("%s %02d:%02d (%s)\n", mode, s.SecondsLeft/60, s.SecondsLeft%60, state)
	ctx.printf("intervals: %d min focus, %d min break\n", s.FocusMinutes, s.BreakMinutes)
}
