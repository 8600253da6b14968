// Package action defines the Action/Plan wire types the sequencer
// produces and the executor consumes (spec §3 "Action").
package action

import "github.com/canonical/craft-parts-go/internal/step"

// Kind is one of the four action types the sequencer can emit for a
// (part, step) pair (spec §3, §4.7).
type Kind string

const (
	// Run means no prior state exists; execute the step fresh.
	Run Kind = "RUN"
	// Rerun means prior state is outdated; clean this step (and
	// dependents) first, then execute.
	Rerun Kind = "RERUN"
	// Skip means recorded state is clean; nothing to do.
	Skip Kind = "SKIP"
	// Update applies to step kinds that declare themselves updatable
	// (e.g. a local source re-sync) — refreshed in place without a full
	// clean-and-rerun.
	Update Kind = "UPDATE"
)

// Action is one scheduled (part, step) unit (spec §3).
type Action struct {
	// Index is this action's position in the total plan order; callers
	// may rely on it for stable display and log correlation.
	Index int
	Part  string
	Step  step.Step
	Kind  Kind
	// Reason is populated for RERUN ("properties changed", "stage of X
	// re-executed", "overlay hash changed", ...) and left empty otherwise.
	Reason string
}

// Plan is a totally ordered Action list reaching a target step for a set
// of parts (spec §4.7).
type Plan struct {
	Actions []Action
}

// Empty reports whether the plan has nothing left to do — the idempotence
// invariant (spec §8) requires planning immediately after a successful
// execution to yield an Empty plan. SKIP actions are intentionally kept in
// Actions (for ForStep/ForPart and --show-skipped reporting), so Empty
// looks past them rather than requiring a literal zero-length slice.
func (p Plan) Empty() bool {
	for _, a := range p.Actions {
		if a.Kind != Skip {
			return false
		}
	}
	return true
}

// ForStep returns every action in the plan targeting step s, in plan
// order.
func (p Plan) ForStep(s step.Step) []Action {
	var out []Action
	for _, a := range p.Actions {
		if a.Step == s {
			out = append(out, a)
		}
	}
	return out
}

// ForPart returns every action in the plan for partName, in plan order.
func (p Plan) ForPart(partName string) []Action {
	var out []Action
	for _, a := range p.Actions {
		if a.Part == partName {
			out = append(out, a)
		}
	}
	return out
}
