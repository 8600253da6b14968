// Package executor runs the ordered Action list the sequencer produces:
// it invokes plugins, source handlers, and package backends, maintains
// the overlay stack, applies filters and permissions, updates migration
// tracking, and persists per-step state (spec §4.8).
package executor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/canonical/craft-parts-go/internal/action"
	"github.com/canonical/craft-parts-go/internal/console"
	"github.com/canonical/craft-parts-go/internal/dirs"
	"github.com/canonical/craft-parts-go/internal/migration"
	"github.com/canonical/craft-parts-go/internal/overlay"
	"github.com/canonical/craft-parts-go/internal/packagebackend"
	"github.com/canonical/craft-parts-go/internal/parts"
	"github.com/canonical/craft-parts-go/internal/plugin"
	"github.com/canonical/craft-parts-go/internal/projectvars"
	"github.com/canonical/craft-parts-go/internal/source"
	"github.com/canonical/craft-parts-go/internal/state"
	"github.com/canonical/craft-parts-go/internal/step"
)

// Config wires every collaborator the executor needs (spec §9: "explicit
// registries constructed at engine init and passed by reference").
type Config struct {
	Graph     *parts.Graph
	Dirs      *dirs.ProjectDirs
	State     *state.Manager
	Migration *migration.Tracker
	Vars      *projectvars.Vars

	Plugins  *plugin.Registry
	Sources  *source.Registry
	Packages packagebackend.Backend

	// OverlayStack and Mounter are nil when overlays are disabled for this
	// run (spec §4.6: "Overlays are optional (feature flag)").
	OverlayStack *overlay.Stack
	Mounter      overlay.Mounter

	ArchTripletBuildOn, ArchTripletBuildFor string
	ArchDebianBuildOn, ArchDebianBuildFor   string
	ParallelBuildCount                      int
	ProjectOptionsDigest                    string

	// BaseExcludes is an optional project-wide gitignore-style exclude list
	// layered under every part's stage/prime/overlay filter.
	BaseExcludes []string

	Stdout, Stderr io.Writer
}

// Executor runs Plans produced by the sequencer against Config's
// collaborators.
type Executor struct {
	cfg Config
}

// New creates an Executor. Config.Stdout/Stderr default to os.Stdout/
// os.Stderr when nil.
func New(cfg Config) *Executor {
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	return &Executor{cfg: cfg}
}

// Execute runs every non-SKIP action in plan, in order. PULL and BUILD
// actions for parts that do not set disable-parallel run concurrently, up
// to ParallelBuildCount, via a bounded errgroup (spec §5: "a task queue
// consumed by a small worker pool sized to CRAFT_PARALLEL_BUILD_COUNT").
// OVERLAY, STAGE and PRIME actions are barriers: the executor drains every
// in-flight concurrent action before running them and before resuming
// concurrent dispatch afterward, since those steps must observe a
// consistent view of the overlay stack or migration tracker (spec §5:
// "OVERLAY actions are serialized globally... STAGE and PRIME are
// serialized per shared area").
func (e *Executor) Execute(ctx context.Context, plan action.Plan) error {
	limit := e.cfg.ParallelBuildCount
	if limit < 1 {
		limit = 1
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(limit)

	drain := func() error { return group.Wait() }

	for _, a := range plan.Actions {
		a := a
		if a.Kind == action.Skip {
			continue
		}

		p := e.cfg.Graph.Part(a.Part)
		if p == nil {
			return fmt.Errorf("executor: plan references unknown part %q", a.Part)
		}

		barrier := a.Step == step.Overlay || a.Step == step.Stage || a.Step == step.Prime || p.DisableParallel

		if barrier {
			if err := drain(); err != nil {
				return err
			}
			if err := e.runAction(ctx, a, p); err != nil {
				return err
			}
			continue
		}

		group.Go(func() error {
			return e.runAction(gctx, a, p)
		})
	}

	return drain()
}

func (e *Executor) runAction(ctx context.Context, a action.Action, p *parts.Part) error {
	console.Debugf("%s %s (%s)", a.Step, a.Part, a.Kind)

	if a.Kind == action.Rerun {
		if err := e.cfg.State.Clean(a.Part, a.Step); err != nil {
			return err
		}
		if a.Step == step.Stage || a.Step == step.Prime {
			e.cleanMigration(a)
		}
	}

	var (
		rec state.Record
		err error
	)
	switch a.Step {
	case step.Pull:
		rec, err = e.runPull(ctx, p, a.Kind)
	case step.Overlay:
		rec, err = e.runOverlay(ctx, p)
	case step.Build:
		rec, err = e.runBuild(ctx, p)
	case step.Stage:
		rec, err = e.runStage(ctx, p)
	case step.Prime:
		rec, err = e.runPrime(ctx, p)
	default:
		return fmt.Errorf("executor: unknown step %v", a.Step)
	}
	if err != nil {
		return err
	}

	rec.PropertiesDigest = p.PropertiesDigest(a.Step)
	rec.ProjectOptionsDigest = e.cfg.ProjectOptionsDigest
	return e.cfg.State.MarkDone(a.Part, a.Step, rec)
}

func (e *Executor) cleanMigration(a action.Action) {
	area := migration.Stage
	if a.Step == step.Prime {
		area = migration.Prime
	}
	for partition, removed := range e.cfg.Migration.CleanAllPartitions(area, a.Part) {
		root := e.cfg.Dirs.PartitionStageDir(partition)
		if area == migration.Prime {
			root = e.cfg.Dirs.PartitionPrimeDir(partition)
		}
		removeMigratedPaths(root, removed.Files, removed.Directories)
	}
}

func removeMigratedPaths(root string, files, directories []string) {
	for _, f := range files {
		_ = os.Remove(filepath.Join(root, f))
	}
	for _, d := range directories {
		_ = os.Remove(filepath.Join(root, d)) // no-op unless now empty
	}
}

// transitivelyDependsOnOverlay reports whether part, or any part it
// (transitively) depends on via `after`, declares overlay parameters
// (spec §4.6: "a part sees CRAFT_OVERLAY... or depends (transitively) on a
// part that does").
func transitivelyDependsOnOverlay(g *parts.Graph, name string, visited map[string]bool) bool {
	if visited[name] {
		return false
	}
	visited[name] = true
	p := g.Part(name)
	if p == nil {
		return false
	}
	for _, dep := range p.After {
		d := g.Part(dep)
		if d == nil {
			continue
		}
		if overlay.DeclaresOverlay(d.OverlayPackages, d.OverlayScript, []string(d.OverlayFilter)) {
			return true
		}
		if transitivelyDependsOnOverlay(g, dep, visited) {
			return true
		}
	}
	return false
}
