package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/craft-parts-go/internal/engine"
	"github.com/canonical/craft-parts-go/internal/parts"
	"github.com/canonical/craft-parts-go/internal/step"
)

// TestFullLifecycleRun exercises PULL through PRIME end to end for a single
// part whose override-build writes a file into CRAFT_PART_INSTALL and whose
// stage filter keeps only part of it (spec §8 scenario 3), then asserts the
// idempotence invariant: replanning after a successful run is empty.
func TestFullLifecycleRun(t *testing.T) {
	work := t.TempDir()

	partList := []*parts.Part{
		{
			Name:   "hello",
			Plugin: "nil",
			Scriptlets: map[string]string{
				"override-build": `
mkdir -p "$CRAFT_PART_INSTALL/usr/bin" "$CRAFT_PART_INSTALL/usr/share/doc"
echo hi > "$CRAFT_PART_INSTALL/usr/bin/hello"
echo docs > "$CRAFT_PART_INSTALL/usr/share/doc/hello.txt"
`,
			},
			StageFilter: parts.Filter{"usr/*", "-usr/share/doc"},
		},
	}

	e, err := engine.New(partList, engine.Options{
		WorkDir:            work,
		ParallelBuildCount: 1,
		Stdout:             os.Stdout,
		Stderr:             os.Stderr,
	})
	require.NoError(t, err)

	plan, err := e.Run(context.Background(), step.Prime)
	require.NoError(t, err)
	assert.NotEmpty(t, plan.Actions)

	primed := e.Dirs.PrimeDir()
	_, err = os.Stat(filepath.Join(primed, "usr", "bin", "hello"))
	assert.NoError(t, err, "usr/bin/hello should reach prime")

	_, err = os.Stat(filepath.Join(primed, "usr", "share", "doc", "hello.txt"))
	assert.True(t, os.IsNotExist(err), "usr/share/doc/hello.txt must be excluded by the stage filter")

	// Idempotence (spec §8): replanning from clean state after a successful
	// run must yield an empty plan.
	replan := e.Plan(step.Prime)
	assert.True(t, replan.Empty(), "replanning after a successful run must be idempotent")
}

// TestCleanRemovesStagedFiles exercises the migration-conservation
// invariant (spec §8): cleaning a part removes exactly the paths it staged.
func TestCleanRemovesStagedFiles(t *testing.T) {
	work := t.TempDir()

	partList := []*parts.Part{
		{
			Name:   "hello",
			Plugin: "nil",
			Scriptlets: map[string]string{
				"override-build": `mkdir -p "$CRAFT_PART_INSTALL/bin"; echo hi > "$CRAFT_PART_INSTALL/bin/hello"`,
			},
		},
	}

	e, err := engine.New(partList, engine.Options{WorkDir: work, ParallelBuildCount: 1, Stdout: os.Stdout, Stderr: os.Stderr})
	require.NoError(t, err)

	_, err = e.Run(context.Background(), step.Stage)
	require.NoError(t, err)

	staged := filepath.Join(e.Dirs.StageDir(), "bin", "hello")
	_, err = os.Stat(staged)
	require.NoError(t, err)

	require.NoError(t, e.Clean("hello", step.Stage))
	_, err = os.Stat(staged)
	assert.True(t, os.IsNotExist(err), "clean must remove the file this part staged")
}
