// Package sequencer implements the planner that derives a deterministic,
// idempotent ordered Action list from a parts graph and persisted state
// (spec §4.7).
package sequencer

import (
	"fmt"

	"github.com/canonical/craft-parts-go/internal/action"
	"github.com/canonical/craft-parts-go/internal/parts"
	"github.com/canonical/craft-parts-go/internal/state"
	"github.com/canonical/craft-parts-go/internal/step"
)

// Sequencer produces ordered Action lists for a target step over every
// part in Graph.
type Sequencer struct {
	Graph                *parts.Graph
	State                *state.Manager
	ProjectOptionsDigest string

	// Updatable reports whether partName's resolved source handler
	// supports in-place UPDATE refresh (spec §4.4, §4.7 "Source-only
	// delta ... → UPDATE"). A nil Updatable means no part ever qualifies.
	Updatable func(partName string) bool
}

// New creates a Sequencer.
func New(g *parts.Graph, mgr *state.Manager, projectOptionsDigest string, updatable func(string) bool) *Sequencer {
	return &Sequencer{Graph: g, State: mgr, ProjectOptionsDigest: projectOptionsDigest, Updatable: updatable}
}

// Plan walks the dependency graph in processing order and emits actions up
// to and including target for every part (spec §4.7).
func (sq *Sequencer) Plan(target step.Step) action.Plan {
	pass := state.NewPass(sq.State)
	order := sq.Graph.ProcessingOrder()

	b := &builder{sq: sq, pass: pass, rerunFrom: map[string]bool{}, stageRerun: map[string]bool{}}

	// 1. PULL for every part, in processing order (spec §4.7 rule 1).
	for _, name := range order {
		b.addPull(name)
	}
	if target == step.Pull {
		return b.plan()
	}

	// 2. OVERLAY in part order (rule 2).
	for _, name := range order {
		kind, reason := b.classify(name, step.Overlay, false, "")
		b.add(name, step.Overlay, kind, reason)
	}
	if target == step.Overlay {
		return b.plan()
	}

	if target == step.Build {
		for _, name := range order {
			kind, reason := b.classify(name, step.Build, false, "")
			b.add(name, step.Build, kind, reason)
		}
		return b.plan()
	}

	// 3/4. BUILD/STAGE interleaved: a part builds only once every
	// dependency's STAGE has been emitted (rules 3-4). Builds are queued
	// for staging and flushed whenever the next part in line depends on
	// something still in the queue, and once more at the end.
	var pendingStage []string
	flush := func() {
		for _, p := range pendingStage {
			kind, reason := b.classify(p, step.Stage, false, "")
			b.add(p, step.Stage, kind, reason)
			if kind != action.Skip {
				b.stageRerun[p] = true
			}
		}
		pendingStage = nil
	}

	for _, name := range order {
		p := sq.Graph.Part(name)
		for _, dep := range p.After {
			if containsString(pendingStage, dep) {
				flush()
				break
			}
		}

		depRerun, depReason := false, ""
		for _, dep := range p.After {
			if b.stageRerun[dep] {
				depRerun, depReason = true, fmt.Sprintf("stage of %s re-executed", dep)
				break
			}
		}
		status, reason := b.classify(name, step.Build, depRerun, depReason)
		b.add(name, step.Build, status, reason)
		pendingStage = append(pendingStage, name)
	}
	flush()

	if target == step.Stage {
		return b.plan()
	}

	// 5. PRIME last, in part order (rule 5).
	for _, name := range order {
		kind, reason := b.classify(name, step.Prime, false, "")
		b.add(name, step.Prime, kind, reason)
	}
	return b.plan()
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
