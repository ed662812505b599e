package cli

import (
	"github.com/sadopc/focuskit/internal/gate"
	"github.com/sadopc/focuskit/internal/logger"
	"github.com/sadopc/focuskit/internal/sound"
	"github.com/sadopc/focuskit/internal/tui"
)

type TuiCmd struct {
	ExportDir string `help:"Directory for exported files (default: home directory)." type:"path"`
}

func (c *TuiCmd) Run(ctx *Context) error {
	deps := tui.Deps{
		Store:     ctx.Store,
		ExportDir: c.ExportDir,
		Sound: sound.NewManager(ctx.Store, gate.New(ctx.Store),
			&sound.ExecPlayer{Command: ctx.Config.Sound.Player}, ctx.Config.Sound.Dir),
	}

	// Without a daemon the TUI runs offline against the store.
	if d, err := ctx.Connect(); err == nil {
		deps.Client = d
		deps.Events = d
	} else {
		logger.Info("starting tui offline", "reason", err)
	}
	return tui.Run(deps)
}
