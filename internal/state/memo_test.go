package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/craft-parts-go/internal/state"
	"github.com/canonical/craft-parts-go/internal/step"
)

func TestPassMemoizesClassify(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.MarkDone("foo", step.Pull, state.Record{PropertiesDigest: "p", ProjectOptionsDigest: "o"}))

	pass := state.NewPass(m)
	status1, _ := pass.Classify("foo", step.Pull, "p", "o", false, "")
	require.NoError(t, m.Clean("foo", step.Pull))
	status2, _ := pass.Classify("foo", step.Pull, "p", "o", false, "")

	assert.Equal(t, state.Clean, status1)
	assert.Equal(t, status1, status2, "cached result must survive even after underlying state changes")
}

func TestPassForgetRecomputes(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.MarkDone("foo", step.Pull, state.Record{PropertiesDigest: "p", ProjectOptionsDigest: "o"}))

	pass := state.NewPass(m)
	_, _ = pass.Classify("foo", step.Pull, "p", "o", false, "")
	require.NoError(t, m.Clean("foo", step.Pull))
	pass.Forget("foo", step.Pull)

	status, reason := pass.Classify("foo", step.Pull, "p", "o", false, "")
	assert.Equal(t, state.Dirty, status)
	assert.Equal(t, "no recorded state", reason)
}
