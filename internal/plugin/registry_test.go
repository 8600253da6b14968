package plugin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/craft-parts-go/internal/plugin"
)

func TestRegisterAndGet(t *testing.T) {
	r := plugin.NewRegistry()
	r.Register(plugin.Key, plugin.Nil{})

	got, err := r.Get(plugin.Key)
	require.NoError(t, err)
	assert.Equal(t, plugin.Nil{}, got)
}

func TestGetUnknownKeyErrors(t *testing.T) {
	r := plugin.NewRegistry()
	_, err := r.Get("bogus")
	assert.Error(t, err)
}

func TestRegisterDuplicateKeyPanics(t *testing.T) {
	r := plugin.NewRegistry()
	r.Register("dup", plugin.Nil{})
	assert.Panics(t, func() { r.Register("dup", plugin.Nil{}) })
}

func TestRegisterEmptyKeyPanics(t *testing.T) {
	r := plugin.NewRegistry()
	assert.Panics(t, func() { r.Register("", plugin.Nil{}) })
}

func TestKeysSorted(t *testing.T) {
	r := plugin.NewRegistry()
	r.Register("b", plugin.Nil{})
	r.Register("a", plugin.Nil{})
	assert.Equal(t, []string{"a", "b"}, r.Keys())
}

func TestNilPluginIsNoop(t *testing.T) {
	n := plugin.Nil{}
	info := plugin.StepInfo{}
	assert.Empty(t, n.GetBuildSnaps(info))
	assert.Empty(t, n.GetBuildPackages(info))
	assert.Empty(t, n.GetBuildEnvironment(info))
	assert.Empty(t, n.GetPullCommands(info))
	assert.Empty(t, n.GetBuildCommands(info))
	assert.False(t, n.GetOutOfSourceBuild())
}
