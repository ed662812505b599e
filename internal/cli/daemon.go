package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sadopc/focuskit/internal/daemon"
)

type DaemonCmd struct {
	Listen string `help:"Loopback address to listen on, overriding the config file."`
}

func (c *DaemonCmd) Run(ctx *Context) error {
	cfg := *ctx.Config
	if c.Listen != "" {
		cfg.Listen = c.Listen
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return daemon.Run(sigCtx, &cfg)
}
