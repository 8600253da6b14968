package sequencer_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/craft-parts-go/internal/action"
	"github.com/canonical/craft-parts-go/internal/dirs"
	"github.com/canonical/craft-parts-go/internal/parts"
	"github.com/canonical/craft-parts-go/internal/sequencer"
	"github.com/canonical/craft-parts-go/internal/state"
	"github.com/canonical/craft-parts-go/internal/step"
)

func actionLabels(p action.Plan) []string {
	out := make([]string, len(p.Actions))
	for i, a := range p.Actions {
		out[i] = fmt.Sprintf("%s %s", a.Step, a.Part)
	}
	return out
}

func newFixture(t *testing.T, all []*parts.Part) (*sequencer.Sequencer, *state.Manager) {
	t.Helper()
	g, err := parts.NewGraph(all)
	require.NoError(t, err)
	d, err := dirs.New(t.TempDir(), nil)
	require.NoError(t, err)
	mgr := state.New(d)
	return sequencer.New(g, mgr, "opts-v1", nil), mgr
}

// Concrete scenario 1 (spec §8): Parts {A: after [C], B, C}. Plan to PRIME
// yields a specific, non-obvious BUILD/STAGE interleaving.
func TestOrderingWithDependency(t *testing.T) {
	all := []*parts.Part{
		{Name: "A", Plugin: "nil", After: []string{"C"}},
		{Name: "B", Plugin: "nil"},
		{Name: "C", Plugin: "nil"},
	}
	sq, _ := newFixture(t, all)

	plan := sq.Plan(step.Prime)
	got := actionLabels(plan)

	want := []string{
		"PULL C", "PULL A", "PULL B",
		"OVERLAY C", "OVERLAY A", "OVERLAY B",
		"BUILD C", "STAGE C", "BUILD A", "BUILD B", "STAGE A", "STAGE B",
		"PRIME C", "PRIME A", "PRIME B",
	}
	assert.Equal(t, want, got)
}

// Concrete scenario 2: Parts {A, C, B}, no deps — every step's actions
// appear in alphabetical order A, B, C.
func TestAlphabeticalDefault(t *testing.T) {
	all := []*parts.Part{
		{Name: "A", Plugin: "nil"},
		{Name: "C", Plugin: "nil"},
		{Name: "B", Plugin: "nil"},
	}
	sq, _ := newFixture(t, all)

	plan := sq.Plan(step.Pull)
	got := actionLabels(plan)
	assert.Equal(t, []string{"PULL A", "PULL B", "PULL C"}, got)
}

func TestFreshPlanAllRun(t *testing.T) {
	all := []*parts.Part{{Name: "A", Plugin: "nil"}}
	sq, _ := newFixture(t, all)
	plan := sq.Plan(step.Pull)
	require.Len(t, plan.Actions, 1)
	assert.Equal(t, action.Run, plan.Actions[0].Kind)
}

// Idempotence (spec §8): replanning immediately after a fully "executed"
// plan (i.e. with matching state recorded for every step) yields an
// all-SKIP plan.
func TestIdempotenceAfterMarkingEveryStepDone(t *testing.T) {
	all := []*parts.Part{
		{Name: "A", Plugin: "nil"},
	}
	sq, mgr := newFixture(t, all)
	p := all[0]

	for _, s := range step.All {
		require.NoError(t, mgr.MarkDone("A", s, state.Record{
			PropertiesDigest:     p.PropertiesDigest(s),
			ProjectOptionsDigest: "opts-v1",
		}))
	}

	plan := sq.Plan(step.Prime)
	for _, a := range plan.Actions {
		assert.Equal(t, action.Skip, a.Kind, "%s %s should be SKIP", a.Step, a.Part)
	}
}

// Concrete scenario 6: Part A `after` B. After a clean run, mutating B's
// override-build causes B's BUILD/STAGE to RERUN, which cascades into A's
// BUILD (dependency re-staged) and STAGE, and finally both parts' PRIME.
func TestRerunPropagation(t *testing.T) {
	all := []*parts.Part{
		{Name: "A", Plugin: "nil", After: []string{"B"}},
		{Name: "B", Plugin: "nil", Scriptlets: map[string]string{"override-build": "make"}},
	}
	sq, mgr := newFixture(t, all)

	for _, p := range all {
		for _, s := range step.All {
			require.NoError(t, mgr.MarkDone(p.Name, s, state.Record{
				PropertiesDigest:     p.PropertiesDigest(s),
				ProjectOptionsDigest: "opts-v1",
			}))
		}
	}

	all[1].Scriptlets["override-build"] = "make install"

	plan := sq.Plan(step.Prime)
	byLabel := map[string]action.Kind{}
	for _, a := range plan.Actions {
		byLabel[fmt.Sprintf("%s %s", a.Step, a.Part)] = a.Kind
	}

	assert.Equal(t, action.Skip, byLabel["PULL A"])
	assert.Equal(t, action.Skip, byLabel["PULL B"])
	assert.Equal(t, action.Skip, byLabel["OVERLAY A"])
	assert.Equal(t, action.Skip, byLabel["OVERLAY B"])
	assert.Equal(t, action.Rerun, byLabel["BUILD B"])
	assert.Equal(t, action.Rerun, byLabel["STAGE B"])
	assert.Equal(t, action.Rerun, byLabel["BUILD A"], "A must rerun because its dependency B re-staged")
	assert.Equal(t, action.Rerun, byLabel["STAGE A"])
	assert.Equal(t, action.Rerun, byLabel["PRIME A"])
	assert.Equal(t, action.Rerun, byLabel["PRIME B"])
}
