package cli

import (
	"fmt"

	"github.com/sadopc/focuskit/internal/gate"
	"github.com/sadopc/focuskit/internal/protocol"
	"github.com/sadopc/focuskit/internal/tasks"
)

type ProStatusCmd struct{}

func (c *ProStatusCmd) Run(ctx *Context) error {
	if gate.New(ctx.Store).IsEntitled() {
		ctx.printf("Plan: Pro\n")
		return nil
	}
	ctx.printf("Plan: Free (%d tasks per day)\n", tasks.FreeDailyLimit)
	ctx.printf("Run `focuskit pro purchase` to upgrade.\n")
	return nil
}

type ProPurchaseCmd struct{}

func (c *ProPurchaseCmd) Run(ctx *Context) error {
	g := gate.New(ctx.Store)
	if g.IsEntitled() {
		ctx.printf("Already on Pro\n")
		return nil
	}
	if err := g.Purchase(); err != nil {
		return err
	}
	if err := ctx.notifyDaemon(protocol.Request{Command: protocol.ProStatusChanged}); err != nil {
		return fmt.Errorf("pro enabled but the daemon was not updated: %w", err)
	}
	ctx.printf("Welcome to focuskit Pro!\n")
	return nil
}

type ProRevokeCmd struct{}

func (c *ProRevokeCmd) Run(ctx *Context) error {
	if err := gate.New(ctx.Store).Revoke(); err != nil {
		return err
	}
	if err := ctx.notifyDaemon(protocol.Request{Command: protocol.ProStatusChanged}); err != nil {
		return fmt.Errorf("pro revoked but the daemon was not updated: %w", err)
	}
	ctx.printf("Back on the free plan\n")
	return nil
}
