// Package engine wires every collaborator package into a single entry
// point: construct registries and state from a parsed parts document, plan
// a target step, and execute the resulting plan (spec §9: "explicit
// registries constructed at engine init").
package engine

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/canonical/craft-parts-go/internal/action"
	"github.com/canonical/craft-parts-go/internal/dirs"
	engerrors "github.com/canonical/craft-parts-go/internal/errors"
	"github.com/canonical/craft-parts-go/internal/executor"
	"github.com/canonical/craft-parts-go/internal/migration"
	"github.com/canonical/craft-parts-go/internal/overlay"
	"github.com/canonical/craft-parts-go/internal/packagebackend"
	"github.com/canonical/craft-parts-go/internal/parts"
	"github.com/canonical/craft-parts-go/internal/plugin"
	"github.com/canonical/craft-parts-go/internal/projectvars"
	"github.com/canonical/craft-parts-go/internal/sequencer"
	"github.com/canonical/craft-parts-go/internal/source"
	"github.com/canonical/craft-parts-go/internal/state"
	"github.com/canonical/craft-parts-go/internal/step"
)

// Options configures one Engine run. Every collaborator it does not let
// the caller override directly (registries, state manager, migration
// tracker) is constructed fresh per Engine, never shared as a package-level
// global (spec §9).
type Options struct {
	WorkDir    string
	Partitions []string

	ArchTripletBuildOn, ArchTripletBuildFor string
	ArchDebianBuildOn, ArchDebianBuildFor   string
	ParallelBuildCount                      int
	ProjectOptionsDigest                    string

	BaseExcludes []string

	// EnableOverlay turns on the overlay stack and mounter. OverlayBaseDir,
	// if non-empty, seeds the base layer from an already-extracted image
	// tree (spec §4.6: "Overlays are optional (feature flag)").
	EnableOverlay  bool
	OverlayBaseDir string

	// InitialVars seeds project variables with host-provided values before
	// any scriptlet runs (spec §3 "Project variables").
	InitialVars map[string]string

	Stdout, Stderr io.Writer
}

// Engine owns one run's worth of state across every collaborator package.
type Engine struct {
	RunID string

	Graph     *parts.Graph
	Dirs      *dirs.ProjectDirs
	State     *state.Manager
	Migration *migration.Tracker
	Vars      *projectvars.Vars

	Plugins  *plugin.Registry
	Sources  *source.Registry
	Packages packagebackend.Backend

	OverlayStack *overlay.Stack
	Mounter      overlay.Mounter

	Sequencer *sequencer.Sequencer
	Executor  *executor.Executor
}

// New validates partList into a dependency graph and constructs every
// collaborator an Engine run needs: the default registries (nil plugin,
// local/tar source handlers, a noop package backend), the overlay stack
// when enabled, and the sequencer/executor pair (spec §4.2, §4.7, §4.8).
func New(partList []*parts.Part, opts Options) (*Engine, error) {
	for _, p := range partList {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	graph, err := parts.NewGraph(partList)
	if err != nil {
		return nil, &engerrors.InvalidPartsError{Message: err.Error()}
	}

	d, err := dirs.New(opts.WorkDir, opts.Partitions)
	if err != nil {
		return nil, &engerrors.InvalidPartsError{Message: err.Error()}
	}

	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	stateMgr := state.New(d)
	migrationTracker := migration.NewTracker()
	vars := projectvars.New(opts.InitialVars)

	plugins := plugin.NewRegistry()
	plugins.Register(plugin.Key, plugin.Nil{})

	sources := source.NewRegistry()
	sources.RegisterType(source.LocalTypeKey, source.Local{}, true)
	sources.RegisterType(source.TarTypeKey, &source.Tar{}, true)
	sources.RegisterPattern(source.TarTypeKey, source.TarPattern, &source.Tar{}, true)

	packages := packagebackend.NewNoop(nil)

	var overlayStack *overlay.Stack
	var mounter overlay.Mounter
	if opts.EnableOverlay {
		overlayStack = overlay.NewStack(opts.OverlayBaseDir)
		mounter = overlay.NewDirMounter(d, opts.OverlayBaseDir)
	}

	updatable := func(name string) bool {
		p := graph.Part(name)
		if p == nil || p.Source.Location == "" {
			return false
		}
		handler, _, err := sources.Resolve(p.Source.Location, p.Source.Type)
		if err != nil {
			return false
		}
		_, ok := handler.(source.Updatable)
		return ok
	}

	seq := sequencer.New(graph, stateMgr, opts.ProjectOptionsDigest, updatable)

	exec := executor.New(executor.Config{
		Graph:                 graph,
		Dirs:                  d,
		State:                 stateMgr,
		Migration:             migrationTracker,
		Vars:                  vars,
		Plugins:               plugins,
		Sources:               sources,
		Packages:              packages,
		OverlayStack:          overlayStack,
		Mounter:               mounter,
		ArchTripletBuildOn:    opts.ArchTripletBuildOn,
		ArchTripletBuildFor:   opts.ArchTripletBuildFor,
		ArchDebianBuildOn:     opts.ArchDebianBuildOn,
		ArchDebianBuildFor:    opts.ArchDebianBuildFor,
		ParallelBuildCount:    opts.ParallelBuildCount,
		ProjectOptionsDigest:  opts.ProjectOptionsDigest,
		BaseExcludes:          opts.BaseExcludes,
		Stdout:                stdout,
		Stderr:                stderr,
	})

	return &Engine{
		RunID:        uuid.NewString(),
		Graph:        graph,
		Dirs:         d,
		State:        stateMgr,
		Migration:    migrationTracker,
		Vars:         vars,
		Plugins:      plugins,
		Sources:      sources,
		Packages:     packages,
		OverlayStack: overlayStack,
		Mounter:      mounter,
		Sequencer:    seq,
		Executor:     exec,
	}, nil
}

// Plan derives the ordered Action list reaching target for every part
// (spec §4.7).
func (e *Engine) Plan(target step.Step) action.Plan {
	return e.Sequencer.Plan(target)
}

// Execute runs plan to completion or first failure (spec §4.8).
func (e *Engine) Execute(ctx context.Context, plan action.Plan) error {
	return e.Executor.Execute(ctx, plan)
}

// Run plans and executes in one call, returning the plan that was executed
// so callers can report actions taken even on failure.
func (e *Engine) Run(ctx context.Context, target step.Step) (action.Plan, error) {
	plan := e.Plan(target)
	if err := e.Execute(ctx, plan); err != nil {
		return plan, err
	}
	return plan, nil
}

// GetProjectVariable reads a project variable's current value (spec §3,
// §8 scenario 5).
func (e *Engine) GetProjectVariable(name string) string {
	return e.Vars.Get(name)
}

// Clean removes persisted state for every step >= fromStep for partName,
// including its migration-tracked contributions to stage and/or prime, as
// applicable (spec §4.9 "clean(part, from_step)"). Prime ownership is
// always cleaned, since it is the last step and therefore invalidated by
// any fromStep; stage ownership is cleaned only when fromStep is STAGE or
// earlier.
func (e *Engine) Clean(partName string, fromStep step.Step) error {
	if err := e.State.Clean(partName, fromStep); err != nil {
		return err
	}
	if fromStep.Index() <= step.Stage.Index() {
		for partition, removed := range e.Migration.CleanAllPartitions(migration.Stage, partName) {
			removeMigratedPaths(e.Dirs.PartitionStageDir(partition), removed.Files, removed.Directories)
		}
	}
	for partition, removed := range e.Migration.CleanAllPartitions(migration.Prime, partName) {
		removeMigratedPaths(e.Dirs.PartitionPrimeDir(partition), removed.Files, removed.Directories)
	}
	return nil
}

func removeMigratedPaths(root string, files, directories []string) {
	for _, f := range files {
		_ = os.Remove(filepath.Join(root, f))
	}
	for _, d := range directories {
		_ = os.Remove(filepath.Join(root, d))
	}
}
