package cli

import (
	"errors"
	"math"

	"github.com/sadopc/focuskit/internal/gate"
	"github.com/sadopc/focuskit/internal/sound"
	"github.com/sadopc/focuskit/internal/theme"
)

type ThemeCmd struct {
	Theme string `arg:"" optional:"" help:"light, dark or toggle."`
}

func (c *ThemeCmd) Run(ctx *Context) error {
	switch c.Theme {
	case "":
		ctx.printf("%s\n", theme.Current(ctx.Store))
		return nil
	case "toggle":
		t, err := theme.Toggle(ctx.Store)
		if err != nil {
			return err
		}
		ctx.printf("%s\n", t)
		return nil
	}

	t, err := theme.Parse(c.Theme)
	if err != nil {
		return err
	}
	if err := theme.Set(ctx.Store, t); err != nil {
		return err
	}
	ctx.printf("%s\n", t)
	return nil
}

type SoundListCmd struct{}

func (c *SoundListCmd) Run(ctx *Context) error {
	prefs := sound.LoadPrefs(ctx.Store)
	state := "off"
	if prefs.Enabled {
		state = "on"
	}
	ctx.printf("focus sounds: %s, volume %d%%\n", state, int(math.Round(prefs.Volume*100)))
	for _, s := range sound.Catalog {
		mark := " "
		if s.ID == prefs.Selected {
			mark = "*"
		}
		ctx.printf(" %s %-6s %s\n", mark, s.ID, s.Name)
	}
	return nil
}

type SoundSetCmd struct {
	Sound   string `arg:"" optional:"" help:"Sound id (lofi, rain, cafe)."`
	Volume  int    `help:"Volume from 0 to 100." default:"-1"`
	Enable  bool   `help:"Play the sound during focus intervals." xor:"state"`
	Disable bool   `help:"Stop playing sounds." xor:"state"`
}

func (c *SoundSetCmd) Validate() error {
	if c.Volume < -1 || c.Volume > 100 {
		return errors.New("volume must be between 0 and 100")
	}
	return nil
}

func (c *SoundSetCmd) Run(ctx *Context) error {
	g := gate.New(ctx.Store)
	if err := g.Require(); err != nil {
		return err
	}
	// Nothing plays in a one-shot command, so no player is needed.
	m := sound.NewManager(ctx.Store, g, nil, ctx.Config.Sound.Dir)

	if c.Sound != "" {
		if err := m.Select(c.Sound); err != nil {
			return err
		}
	}
	if c.Volume >= 0 {
		if err := m.SetVolume(float64(c.Volume) / 100); err != nil {
			return err
		}
	}
	if c.Enable || c.Disable {
		if err := m.SetEnabled(c.Enable); err != nil {
			return err
		}
	}
	return (&SoundListCmd{}).Run(ctx)
}
