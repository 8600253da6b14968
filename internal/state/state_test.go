package state_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/craft-parts-go/internal/dirs"
	"github.com/canonical/craft-parts-go/internal/state"
	"github.com/canonical/craft-parts-go/internal/step"
)

func newManager(t *testing.T) *state.Manager {
	t.Helper()
	d, err := dirs.New(t.TempDir(), nil)
	require.NoError(t, err)
	return state.New(d)
}

func TestLoadMissingIsNoState(t *testing.T) {
	m := newManager(t)
	_, ok := m.Load("foo", step.Pull)
	assert.False(t, ok)
}

func TestLoadCorruptIsNoState(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.MarkDone("foo", step.Pull, state.Record{PropertiesDigest: "x"}))

	path := filepath.Join(m.Dirs.Part("foo").State(), "PULL.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, ok := m.Load("foo", step.Pull)
	assert.False(t, ok)
}

func TestMarkDoneThenLoadRoundTrips(t *testing.T) {
	m := newManager(t)
	rec := state.Record{
		PropertiesDigest:     "abc",
		ProjectOptionsDigest: "def",
		Assets:               map[string]string{"revision": "deadbeef"},
		Files:                []string{"usr/bin/hello"},
	}
	require.NoError(t, m.MarkDone("foo", step.Pull, rec))

	got, ok := m.Load("foo", step.Pull)
	require.True(t, ok)
	assert.Equal(t, "abc", got.PropertiesDigest)
	assert.Equal(t, "deadbeef", got.Assets["revision"])
	assert.Equal(t, step.Pull, got.Step)
}

func TestClassifyNoStateIsDirty(t *testing.T) {
	m := newManager(t)
	status, reason := m.Classify("foo", step.Pull, "p", "o", false, "")
	assert.Equal(t, state.Dirty, status)
	assert.Equal(t, "no recorded state", reason)
}

func TestClassifyUnchangedIsClean(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.MarkDone("foo", step.Pull, state.Record{PropertiesDigest: "p", ProjectOptionsDigest: "o"}))
	status, _ := m.Classify("foo", step.Pull, "p", "o", false, "")
	assert.Equal(t, state.Clean, status)
}

func TestClassifyPropertiesChangedIsOutdated(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.MarkDone("foo", step.Pull, state.Record{PropertiesDigest: "p", ProjectOptionsDigest: "o"}))
	status, reason := m.Classify("foo", step.Pull, "p2", "o", false, "")
	assert.Equal(t, state.Outdated, status)
	assert.Equal(t, "properties changed", reason)
}

func TestClassifyUpstreamRerunPropagates(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.MarkDone("foo", step.Build, state.Record{PropertiesDigest: "p", ProjectOptionsDigest: "o"}))
	status, reason := m.Classify("foo", step.Build, "p", "o", true, "stage of dep re-executed")
	assert.Equal(t, state.Outdated, status)
	assert.Equal(t, "stage of dep re-executed", reason)
}

func TestCleanRemovesFromStepOnward(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.MarkDone("foo", step.Pull, state.Record{PropertiesDigest: "p"}))
	require.NoError(t, m.MarkDone("foo", step.Build, state.Record{PropertiesDigest: "p"}))
	require.NoError(t, m.MarkDone("foo", step.Stage, state.Record{PropertiesDigest: "p"}))

	require.NoError(t, m.Clean("foo", step.Build))

	_, ok := m.Load("foo", step.Pull)
	assert.True(t, ok, "PULL precedes the clean boundary and must survive")
	_, ok = m.Load("foo", step.Build)
	assert.False(t, ok)
	_, ok = m.Load("foo", step.Stage)
	assert.False(t, ok)
}
