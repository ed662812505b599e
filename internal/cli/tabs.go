package cli

import (
	"errors"

	"github.com/sadopc/focuskit/internal/client"
	"github.com/sadopc/focuskit/internal/protocol"
	"github.com/sadopc/focuskit/internal/tabs"
)

type TabsShowCmd struct{}

func (c *TabsShowCmd) Run(ctx *Context) error {
	printTabSettings(ctx, tabs.LoadSettings(ctx.Store))
	return nil
}

type TabsSetCmd struct {
	Enable  bool `help:"Turn the limiter on." xor:"state"`
	Disable bool `help:"Turn the limiter off." xor:"state"`
	Max     int  `help:"Warn when more than this many tabs are open."`
}

func (c *TabsSetCmd) Run(ctx *Context) error {
	var p tabs.Patch
	if c.Enable || c.Disable {
		enabled := c.Enable
		p.Enabled = &enabled
	}
	if c.Max != 0 {
		p.MaxTabs = &c.Max
	}
	if p.Enabled == nil && p.MaxTabs == nil {
		return errors.New("nothing to change: pass --enable, --disable or --max")
	}

	// The daemon applies the change live when it is running.
	resp, err := ctx.send(protocol.Request{Command: protocol.UpdateTabLimiterSettings, Settings: &p})
	switch {
	case err == nil:
		ctx.printf("%s\n", resp.Status)
		if resp.Settings != nil {
			printTabSettings(ctx, *resp.Settings)
		}
		return nil
	case !errors.Is(err, client.ErrDaemonNotRunning):
		return err
	}

	s := tabs.LoadSettings(ctx.Store)
	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	if p.MaxTabs != nil {
		s.MaxTabs = *p.MaxTabs
	}
	if err := tabs.SaveSettings(ctx.Store, s); err != nil {
		return err
	}
	ctx.printf("%s\n", protocol.StatusTabSettingsUpdated)
	printTabSettings(ctx, s)
	return nil
}

type TabsCheckCmd struct{}

func (c *TabsCheckCmd) Run(ctx *Context) error {
	resp, err := ctx.send(protocol.Request{Command: protocol.CheckTabsNow})
	if err != nil {
		return err
	}
	ctx.printf("%s\n", resp.Status)
	return nil
}

func printTabSettings(ctx *Context, s tabs.Settings) {
	state := "off"
	if s.Enabled {
		state = "on"
	}
	ctx.printf("tab limiter: %s, max %d tabs\n", state, s.MaxTabs)
}
