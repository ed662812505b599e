package cli

import (
	"fmt"

	"github.com/sadopc/focuskit/internal/protocol"
	"github.com/sadopc/focuskit/internal/timer"
)

type TimerStartCmd struct{}

func (c *TimerStartCmd) Run(ctx *Context) error {
	return runTimerCommand(ctx, protocol.Request{Command: protocol.StartTimer})
}

type TimerPauseCmd struct{}

func (c *TimerPauseCmd) Run(ctx *Context) error {
	return runTimerCommand(ctx, protocol.Request{Command: protocol.PauseTimer})
}

type TimerResetCmd struct{}

func (c *TimerResetCmd) Run(ctx *Context) error {
	return runTimerCommand(ctx, protocol.Request{Command: protocol.ResetTimer})
}

type TimerStatusCmd struct{}

func (c *TimerStatusCmd) Run(ctx *Context) error {
	return runTimerCommand(ctx, protocol.Request{Command: protocol.GetTimerState})
}

type TimerIntervalsCmd struct {
	Focus int `arg:"" help:"Focus length in minutes."`
	Break int `arg:"" help:"Break length in minutes."`
}

func (c *TimerIntervalsCmd) Validate() error {
	if c.Focus < 1 || c.Break < 1 {
		return fmt.Errorf("intervals must be at least 1 minute")
	}
	return nil
}

func (c *TimerIntervalsCmd) Run(ctx *Context) error {
	return runTimerCommand(ctx, protocol.Request{
		Command:   protocol.UpdateIntervals,
		Intervals: &protocol.Intervals{FocusMinutes: c.Focus, BreakMinutes: c.Break},
	})
}

func runTimerCommand(ctx *Context, req protocol.Request) error {
	resp, err := ctx.send(req)
	if err != nil {
		return err
	}
	if resp.Status != "" && resp.Status != string(timer.StatusCurrent) {
		ctx.printf("%s\n", resp.Status)
	}
	if resp.State != nil {
		printTimer(ctx, *resp.State)
	}
	return nil
}
