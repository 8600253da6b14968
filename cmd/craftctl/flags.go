package main

import (
	"github.com/canonical/craft-parts-go/internal/console"
)

// Globals are flags available to every subcommand (spec §6 "CLI surface").
type Globals struct {
	PartsFile   string   `name:"parts-file" short:"f" default:"parts.yaml" help:"Path to the parts YAML document."`
	WorkDir     string   `name:"work-dir" default:".craft" help:"Root of the per-run work directory."`
	OverlayBase string   `name:"overlay-base" help:"Path to an already-extracted base image tree; enables the overlay step."`
	Partitions  []string `name:"partitions" help:"Enable partitions, default partition first."`
	DryRun      bool     `name:"dry-run" help:"Print the plan without executing it."`
	ShowSkipped bool     `name:"show-skipped" help:"Include SKIP actions when printing the plan."`
	Refresh     bool     `name:"refresh" help:"Force every part to be re-pulled and rebuilt."`
	Trace       bool     `name:"trace" help:"Show debug-level engine output."`
}

// AfterApply is the Kong equivalent of Cobra's PersistentPreRun.
func (g *Globals) AfterApply() error {
	if g.Trace {
		console.SetLevel(console.DebugLevel)
	}
	return nil
}
