package env_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/craft-parts-go/internal/dirs"
	"github.com/canonical/craft-parts-go/internal/env"
)

func lookup(vars []string, name string) (string, bool) {
	prefix := name + "="
	for _, v := range vars {
		if len(v) > len(prefix) && v[:len(prefix)] == prefix {
			return v[len(prefix):], true
		}
	}
	return "", false
}

func TestBuildCoreVariables(t *testing.T) {
	d, err := dirs.New(t.TempDir(), nil)
	require.NoError(t, err)

	vars := env.Build(env.Params{
		ProjectDir:         "/proj",
		ParallelBuildCount: 4,
		PartName:           "foo",
		PartDirs:           d.Part("foo"),
		Stage:              d.StageDir(),
		Prime:              d.PrimeDir(),
	})

	v, ok := lookup(vars, "CRAFT_PART_NAME")
	require.True(t, ok)
	assert.Equal(t, "foo", v)

	v, ok = lookup(vars, "CRAFT_PARALLEL_BUILD_COUNT")
	require.True(t, ok)
	assert.Equal(t, "4", v)

	_, ok = lookup(vars, "CRAFT_OVERLAY")
	assert.False(t, ok, "CRAFT_OVERLAY must be absent without overlay visibility")
}

func TestBuildSetsOverlayWhenVisible(t *testing.T) {
	vars := env.Build(env.Params{OverlayDir: "/work/overlay/layer"})
	v, ok := lookup(vars, "CRAFT_OVERLAY")
	require.True(t, ok)
	assert.Equal(t, "/work/overlay/layer", v)
}

func TestAugmentFlagsOnlyIncludesExistingSubpaths(t *testing.T) {
	d, err := dirs.New(t.TempDir(), nil)
	require.NoError(t, err)
	pd := d.Part("foo")

	require.NoError(t, os.MkdirAll(filepath.Join(pd.Install(), "usr", "bin"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(pd.Install(), "usr", "include"), 0o755))

	vars := env.Build(env.Params{PartDirs: pd})

	path, ok := lookup(vars, "PATH")
	require.True(t, ok)
	assert.Contains(t, path, filepath.Join(pd.Install(), "usr", "bin"))
	assert.NotContains(t, path, filepath.Join(pd.Install(), "usr", "sbin"))

	cflags, ok := lookup(vars, "CFLAGS")
	require.True(t, ok)
	assert.Contains(t, cflags, "-I"+filepath.Join(pd.Install(), "usr", "include"))
}

func TestBuildPartitionVariables(t *testing.T) {
	vars := env.Build(env.Params{
		Partitions: []env.PartitionView{
			{Name: "kernel", Stage: "/work/partitions/kernel/stage", Prime: "/work/partitions/kernel/prime"},
		},
	})
	v, ok := lookup(vars, "CRAFT_KERNEL_STAGE")
	require.True(t, ok)
	assert.Equal(t, "/work/partitions/kernel/stage", v)
}
