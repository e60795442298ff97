package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Server   ServerCmd        `cmd:"" help:"Run the blackjack WebSocket server"`
	Play     PlayCmd          `cmd:"" help:"Play a hot-seat table in the terminal"`
	Bot      BotCmd           `cmd:"" help:"Connect a bot to a server"`
	Simulate SimulateCmd      `cmd:"" help:"Simulate rounds with bots in every seat"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("blackjack"),
		kong.Description("Multiplayer blackjack server, terminal table and strategy simulator"),
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
