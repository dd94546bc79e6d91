package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Server   ServerCmd        `cmd:"" help:"Run the turnwise match server"`
	Simulate SimulateCmd      `cmd:"" help:"Play a match locally with scripted players"`
	Replay   ReplayCmd        `cmd:"" help:"Reconstruct a match from a history file"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("turnwise"),
		kong.Description("Turn-based game engine and match host"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
