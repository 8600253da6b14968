package main

import (
	"fmt"

	"github.com/canonical/craft-parts-go/internal/console"
	"github.com/canonical/craft-parts-go/internal/step"
)

// CleanCmd implements `craftctl clean`: removes persisted state and
// migrated files for the named parts (or every part) from the given step
// onward (spec §4.9 "clean(part, from_step)").
type CleanCmd struct {
	Parts []string `arg:"" optional:"" help:"Parts to clean; defaults to every part."`
	Step  string   `name:"step" default:"pull" help:"Clean from this step onward."`
}

func (c *CleanCmd) Run(g *Globals) error {
	from, err := step.Parse(c.Step)
	if err != nil {
		return err
	}

	e, err := buildEngine(g)
	if err != nil {
		return err
	}

	names := c.Parts
	if len(names) == 0 {
		names = e.Graph.Names()
	}

	for _, name := range names {
		if e.Graph.Part(name) == nil {
			return fmt.Errorf("unknown part %q", name)
		}
		if err := e.Clean(name, from); err != nil {
			return err
		}
		console.Infof("Cleaned %s from %s", name, from)
	}
	return nil
}
