// Command craftctl is the thin CLI wrapper over the craft-parts engine
// (spec §6 "CLI surface (thin wrapper, not core)"). It parses no part
// schema itself beyond handing the YAML bytes to the engine's decoder; all
// lifecycle logic lives in the internal engine packages.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/canonical/craft-parts-go/internal/console"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		args = []string{"prime"}
	}

	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("craftctl"),
		kong.Description("Stage build parts into a packaging tree."),
		kong.UsageOnError(),
	)
	if err != nil {
		panic(err)
	}

	kctx, err := parser.Parse(args)
	parser.FatalIfErrorf(err)

	if err := kctx.Run(&cli.Globals); err != nil {
		console.Errorf("%v", err)
		os.Exit(1)
	}
}

// newCancellationContext cancels ctx on the first SIGINT/SIGTERM, giving
// the in-flight action its grace period to release scoped resources
// (spec §5 "cancellation ... bounded grace period"); a second signal force
// exits immediately.
func newCancellationContext() (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	go func() {
		<-ctx.Done()
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		console.Warn("Shutting down. Signal again to force quit.")
		<-sig
		console.Warn("Forced exit")
		os.Exit(1)
	}()

	return ctx, cancel
}
