package action_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/canonical/craft-parts-go/internal/action"
	"github.com/canonical/craft-parts-go/internal/step"
)

func TestPlanEmpty(t *testing.T) {
	assert.True(t, action.Plan{}.Empty())
	assert.False(t, action.Plan{Actions: []action.Action{{Part: "a", Step: step.Pull, Kind: action.Run}}}.Empty())
}

func TestPlanEmptyIgnoresSkipActions(t *testing.T) {
	plan := action.Plan{Actions: []action.Action{
		{Part: "a", Step: step.Pull, Kind: action.Skip},
		{Part: "a", Step: step.Build, Kind: action.Skip},
	}}
	assert.True(t, plan.Empty())

	plan.Actions = append(plan.Actions, action.Action{Part: "b", Step: step.Pull, Kind: action.Rerun})
	assert.False(t, plan.Empty())
}

func TestForStepFiltersByStep(t *testing.T) {
	plan := action.Plan{Actions: []action.Action{
		{Part: "a", Step: step.Pull, Kind: action.Run},
		{Part: "b", Step: step.Build, Kind: action.Run},
		{Part: "c", Step: step.Pull, Kind: action.Skip},
	}}
	got := plan.ForStep(step.Pull)
	assert.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Part)
	assert.Equal(t, "c", got[1].Part)
}

func TestForPartFiltersByPart(t *testing.T) {
	plan := action.Plan{Actions: []action.Action{
		{Part: "a", Step: step.Pull, Kind: action.Run},
		{Part: "a", Step: step.Build, Kind: action.Run},
		{Part: "b", Step: step.Pull, Kind: action.Run},
	}}
	got := plan.ForPart("a")
	assert.Len(t, got, 2)
	assert.Equal(t, step.Pull, got[0].Step)
	assert.Equal(t, step.Build, got[1].Step)
}
