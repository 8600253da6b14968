package main

import (
	"github.com/canonical/craft-parts-go/internal/console"
	"github.com/canonical/craft-parts-go/internal/step"
)

// PullCmd implements `craftctl pull`.
type PullCmd struct{}

func (c *PullCmd) Run(g *Globals) error { return runToStep(g, step.Pull) }

// OverlayCmd implements `craftctl overlay`.
type OverlayCmd struct{}

func (c *OverlayCmd) Run(g *Globals) error { return runToStep(g, step.Overlay) }

// BuildCmd implements `craftctl build`.
type BuildCmd struct{}

func (c *BuildCmd) Run(g *Globals) error { return runToStep(g, step.Build) }

// StageCmd implements `craftctl stage`.
type StageCmd struct{}

func (c *StageCmd) Run(g *Globals) error { return runToStep(g, step.Stage) }

// PrimeCmd implements `craftctl prime`.
type PrimeCmd struct{}

func (c *PrimeCmd) Run(g *Globals) error { return runToStep(g, step.Prime) }

// runToStep is shared by every lifecycle subcommand and the default
// full-lifecycle command (spec §6 "CLI surface").
func runToStep(g *Globals, target step.Step) error {
	e, err := buildEngine(g)
	if err != nil {
		return err
	}
	if g.Refresh {
		refreshAll(e)
	}

	plan := e.Plan(target)
	if g.DryRun {
		printPlan(plan, g.ShowSkipped)
		return nil
	}
	if plan.Empty() {
		console.Info("Nothing to do.")
		return nil
	}

	ctx, cancel := newCancellationContext()
	defer cancel()
	if err := e.Execute(ctx, plan); err != nil {
		return err
	}
	printPlan(plan, g.ShowSkipped)
	return nil
}
