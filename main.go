package main

import (
	"os"

	"github.com/alecthomas/kong"

	"github.com/sadopc/focuskit/internal/cli"
	"github.com/sadopc/focuskit/internal/config"
	"github.com/sadopc/focuskit/internal/errors"
	"github.com/sadopc/focuskit/internal/logger"
	"github.com/sadopc/focuskit/internal/store"
)

var version = "v0.1.0"

func main() {
	var root cli.CLI
	ctx := kong.Parse(&root,
		kong.Name("focuskit"),
		kong.Description("Pomodoro timer, daily tasks and focus tools"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": version},
	)

	dir := root.ConfigDir
	if dir == "" {
		d, err := store.DefaultDir()
		if err != nil {
			errors.Fatal(err)
		}
		dir = d
	}

	cfg, err := config.Load(dir)
	if err != nil {
		errors.Fatal(err)
	}
	if root.Store != "" {
		cfg.Store = root.Store
	}
	if root.Debug {
		cfg.Debug = true
	}

	command := "focuskit"
	if node := ctx.Selected(); node != nil {
		command = node.Name
	}
	if err := logger.Init(logger.Config{Debug: cfg.Debug, Dir: cfg.Dir, Name: logName(command)}); err != nil {
		errors.Fatal(err)
	}

	appCtx := &cli.Context{
		Config:  cfg,
		Out:     os.Stdout,
		Connect: cli.DiscoverDaemon(cfg.Dir),
	}

	// The daemon opens its own store.
	var st *store.Store
	if command != "daemon" {
		st, err = store.Open(cfg.Store)
		if err != nil {
			errors.Fatal(err)
		}
		appCtx.Store = st
	}

	err = ctx.Run(appCtx)
	if st != nil {
		st.Close()
	}
	errors.Fatal(err)
}

// logName keeps the daemon's log apart from the short-lived commands.
func logName(command string) string {
	if command == "daemon" {
		return "daemon"
	}
	return "focuskit"
}
