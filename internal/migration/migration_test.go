package migration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engerrors "github.com/canonical/craft-parts-go/internal/errors"
	"github.com/canonical/craft-parts-go/internal/migration"
)

func TestRecordAndClean(t *testing.T) {
	tr := migration.NewTracker()
	require.NoError(t, tr.Record(migration.Stage, "default", "foo", []string{"usr/bin/foo"}, []string{"usr/bin"}, false))

	owner, ok := tr.OwnerOf(migration.Stage, "default", "usr/bin/foo")
	require.True(t, ok)
	assert.Equal(t, "foo", owner)

	files, dirs := tr.Clean(migration.Stage, "default", "foo")
	assert.Equal(t, []string{"usr/bin/foo"}, files)
	assert.Equal(t, []string{"usr/bin"}, dirs)

	_, ok = tr.OwnerOf(migration.Stage, "default", "usr/bin/foo")
	assert.False(t, ok)
}

func TestConflictingOwnershipIsCollisionError(t *testing.T) {
	tr := migration.NewTracker()
	require.NoError(t, tr.Record(migration.Stage, "default", "foo", []string{"usr/bin/hello"}, nil, false))

	err := tr.Record(migration.Stage, "default", "bar", []string{"usr/bin/hello"}, nil, false)
	require.Error(t, err)

	var classified *engerrors.ClassifiedError
	require.True(t, engerrors.As(err, &classified))
	assert.Equal(t, engerrors.CodeFileCollision, classified.Err.Code())
}

func TestOverlayOriginFileSurvivesUntilLastContributorCleaned(t *testing.T) {
	tr := migration.NewTracker()
	require.NoError(t, tr.Record(migration.Stage, "default", "a", []string{"etc/shared.conf"}, nil, true))
	require.NoError(t, tr.Record(migration.Stage, "default", "b", []string{"etc/shared.conf"}, nil, true))

	files, _ := tr.Clean(migration.Stage, "default", "a")
	assert.Empty(t, files, "file must survive while b still contributes it")

	files, _ = tr.Clean(migration.Stage, "default", "b")
	assert.Equal(t, []string{"etc/shared.conf"}, files, "file is removed once the last contributor is cleaned")
}

func TestPartitionsCrossCleanReportsPerPartition(t *testing.T) {
	tr := migration.NewTracker()
	require.NoError(t, tr.Record(migration.Stage, "default", "foo", []string{"usr/bin/foo"}, nil, false))
	require.NoError(t, tr.Record(migration.Stage, "libs", "foo", []string{"lib/libfoo.so"}, nil, false))

	assert.Equal(t, []string{"default", "libs"}, tr.Partitions(migration.Stage))

	result := tr.CleanAllPartitions(migration.Stage, "foo")
	assert.ElementsMatch(t, []string{"usr/bin/foo"}, result["default"].Files)
	assert.ElementsMatch(t, []string{"lib/libfoo.so"}, result["libs"].Files)
}
