package cli

import (
	"errors"

	"github.com/sadopc/focuskit/internal/blocker"
	"github.com/sadopc/focuskit/internal/client"
	"github.com/sadopc/focuskit/internal/gate"
	"github.com/sadopc/focuskit/internal/protocol"
)

type BlockListCmd struct{}

func (c *BlockListCmd) Run(ctx *Context) error {
	sites := blocker.Sites(ctx.Store)
	if len(sites) == 0 {
		ctx.printf("No blocked sites\n")
		return nil
	}
	for _, s := range sites {
		ctx.printf("  %s\n", s)
	}
	return nil
}

type BlockSetCmd struct {
	Sites []string `arg:"" optional:"" help:"Sites to block, e.g. facebook.com. Pass none to clear the list."`
}

func (c *BlockSetCmd) Run(ctx *Context) error {
	if err := gate.New(ctx.Store).Require(); err != nil {
		return err
	}

	resp, err := ctx.send(protocol.Request{Command: protocol.UpdateBlockedSites, Sites: c.Sites})
	switch {
	case err == nil:
		ctx.printf("%s (%d sites)\n", resp.Status, len(resp.Sites))
		return nil
	case !errors.Is(err, client.ErrDaemonNotRunning):
		return err
	}

	saved, err := blocker.SaveSites(ctx.Store, c.Sites)
	if err != nil {
		return err
	}
	ctx.printf("%s (%d sites)\n", protocol.StatusBlockedSitesUpdated, len(saved))
	return nil
}

type BlockEnableCmd struct{}

func (c *BlockEnableCmd) Run(ctx *Context) error {
	if err := gate.New(ctx.Store).Require(); err != nil {
		return err
	}
	resp, err := ctx.send(protocol.Request{Command: protocol.EnableAutoBlocker})
	if err != nil {
		return err
	}
	ctx.printf("%s\n", resp.Status)
	return nil
}

type BlockDisableCmd struct{}

func (c *BlockDisableCmd) Run(ctx *Context) error {
	resp, err := ctx.send(protocol.Request{Command: protocol.DisableAutoBlocker})
	if err != nil {
		return err
	}
	ctx.printf("%s\n", resp.Status)
	return nil
}
