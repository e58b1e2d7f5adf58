// Command blindsolve runs the decision engine either as a live TCP/WS
// bridge, a one-shot stdin/stdout decision, a throughput benchmark for
// the MCTS search, or a terminal inspector watching a running bridge's
// decisions live.
package main

import (
	"github.com/alecthomas/kong"
)

var version = "dev"

// CLI mirrors cmd/pokerforbots's subcommand layout: one struct field per
// subcommand, each with its own Run method in its own file.
type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Serve   ServeCmd         `cmd:"" help:"Run the TCP decision bridge and /inspect websocket"`
	Decide  DecideCmd        `cmd:"" help:"Decide a single snapshot read from stdin"`
	Bench   BenchCmd         `cmd:"" help:"Measure MCTS search throughput"`
	Inspect InspectCmd       `cmd:"" help:"Watch decisions live in a terminal UI"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("blindsolve"),
		kong.Description("Decision engine for a Balatro-style blind solver"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{"version": version},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
