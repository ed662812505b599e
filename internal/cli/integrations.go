package cli

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/sadopc/focuskit/internal/keyring"
)

type IntegrationsStatusCmd struct{}

func (c *IntegrationsStatusCmd) Run(ctx *Context) error {
	configured := keyring.Configured()
	for _, name := range keyring.Integrations {
		state := "not configured"
		if configured[name] {
			state = "token stored"
		}
		ctx.printf("  %-14s %s\n", name, state)
	}
	return nil
}

type IntegrationsSetCmd struct {
	Name  string `arg:"" help:"Integration name (notion or google-tasks)." enum:"notion,google-tasks"`
	Token string `help:"Token to store. Prompted for when omitted." env:"FOCUSKIT_TOKEN"`
}

func (c *IntegrationsSetCmd) Run(ctx *Context) error {
	token := c.Token
	if token == "" {
		err := huh.NewInput().
			Title("Token for " + c.Name).
			EchoMode(huh.EchoModePassword).
			Value(&token).
			Run()
		if err != nil {
			return err
		}
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token cannot be empty")
	}
	if err := keyring.Set(c.Name, token); err != nil {
		return err
	}
	ctx.printf("Stored %s token %s\n", c.Name, keyring.Mask(token))
	return nil
}

type IntegrationsGetCmd struct {
	Name string `arg:"" help:"Integration name (notion or google-tasks)." enum:"notion,google-tasks"`
}

func (c *IntegrationsGetCmd) Run(ctx *Context) error {
	token, err := keyring.Get(c.Name)
	if err != nil {
		return err
	}
	ctx.printf("%s: %s\n", c.Name, keyring.Mask(token))
	return nil
}

type IntegrationsDeleteCmd struct {
	Name string `arg:"" help:"Integration name (notion or google-tasks)." enum:"notion,google-tasks"`
}

func (c *IntegrationsDeleteCmd) Run(ctx *Context) error {
	if err := keyring.Delete(c.Name); err != nil {
		return err
	}
	ctx.printf("Removed %s token\n", c.Name)
	return nil
}
