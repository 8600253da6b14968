package main

// CLI is the root command structure for the craftctl binary: one
// subcommand per lifecycle step plus clean and a default full-lifecycle
// run (spec §6 "CLI surface (thin wrapper, not core)"). A bare invocation
// with no subcommand is rewritten to "prime" in main() before parsing,
// since Kong itself always requires a selected command.
type CLI struct {
	Globals

	Pull    PullCmd    `cmd:"" help:"Run the PULL step."`
	Overlay OverlayCmd `cmd:"" help:"Run the OVERLAY step."`
	Build   BuildCmd   `cmd:"" help:"Run the BUILD step."`
	Stage   StageCmd   `cmd:"" help:"Run the STAGE step."`
	Prime   PrimeCmd   `cmd:"" help:"Run the PRIME step. Also the default full-lifecycle target."`
	Clean   CleanCmd   `cmd:"" help:"Clean part state and migrated files."`
}
