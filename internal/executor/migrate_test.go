package executor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMigrateFilesRollsBackOnPartialFailure exercises the rollback
// resolution of spec §9 Open Question (b): a failure partway through a
// migration batch must leave dstRoot exactly as it was before the call,
// with no partially-migrated files visible.
func TestMigrateFilesRollsBackOnPartialFailure(t *testing.T) {
	srcRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcRoot, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(srcRoot, "b.txt"), []byte("b"), 0o644))

	dstParent := t.TempDir()
	dstRoot := filepath.Join(dstParent, "stage")

	included := []string{"a.txt", "missing.txt", "b.txt"}
	_, err := migrateFiles(srcRoot, dstRoot, included)
	assert.Error(t, err)

	assert.NoFileExists(t, filepath.Join(dstRoot, "a.txt"))
	assert.NoFileExists(t, filepath.Join(dstRoot, "b.txt"))

	entries, err := os.ReadDir(dstParent)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".craft-migrate-", "holding area must be cleaned up even on failure")
	}
}

func TestMigrateFilesCommitsWholeBatchOnSuccess(t *testing.T) {
	srcRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcRoot, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(srcRoot, "c"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(srcRoot, "c", "d.txt"), []byte("d"), 0o644))

	dstRoot := filepath.Join(t.TempDir(), "stage")

	dirList, err := migrateFiles(srcRoot, dstRoot, []string{"a.txt", "c/d.txt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, dirList)
	assert.FileExists(t, filepath.Join(dstRoot, "a.txt"))
	assert.FileExists(t, filepath.Join(dstRoot, "c", "d.txt"))
}
