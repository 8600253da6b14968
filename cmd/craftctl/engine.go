package main

import (
	"fmt"
	"os"

	"github.com/canonical/craft-parts-go/internal/action"
	"github.com/canonical/craft-parts-go/internal/console"
	"github.com/canonical/craft-parts-go/internal/engine"
	"github.com/canonical/craft-parts-go/internal/parts"
	"github.com/canonical/craft-parts-go/internal/step"
)

// buildEngine loads the parts document named by g.PartsFile and constructs
// an Engine rooted at g.WorkDir (spec §6: the host parses the parts
// document; the engine only consumes the validated structure).
func buildEngine(g *Globals) (*engine.Engine, error) {
	raw, err := os.ReadFile(g.PartsFile)
	if err != nil {
		return nil, fmt.Errorf("read parts file: %w", err)
	}
	partList, err := parts.Decode(raw, parts.DecodeOptions{})
	if err != nil {
		return nil, err
	}

	opts := engine.Options{
		WorkDir:            g.WorkDir,
		Partitions:         g.Partitions,
		ParallelBuildCount: parallelBuildCount(),
		EnableOverlay:      g.OverlayBase != "",
		OverlayBaseDir:     g.OverlayBase,
		Stdout:             os.Stdout,
		Stderr:             os.Stderr,
	}
	return engine.New(partList, opts)
}

func parallelBuildCount() int {
	if v := os.Getenv("CRAFT_PARALLEL_BUILD_COUNT"); v != "" {
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil && n > 0 {
			return n
		}
	}
	return 1
}

// refreshAll forces every part back to "no state" from PULL, so the next
// plan treats the whole run as fresh (spec §6 "--refresh").
func refreshAll(e *engine.Engine) {
	for _, name := range e.Graph.Names() {
		_ = e.Clean(name, step.Pull)
	}
}

// printPlan reports each action in plan order, skipping SKIP actions unless
// showSkipped is set.
func printPlan(plan action.Plan, showSkipped bool) {
	for _, a := range plan.Actions {
		if a.Kind == action.Skip && !showSkipped {
			continue
		}
		line := fmt.Sprintf("%-6s %-6s %s", a.Kind, a.Step, a.Part)
		if a.Reason != "" {
			line += fmt.Sprintf(" (%s)", a.Reason)
		}
		console.Info(line)
	}
}
