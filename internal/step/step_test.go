package step_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/craft-parts-go/internal/step"
)

func TestLifecycleOrder(t *testing.T) {
	assert.True(t, step.Pull.Before(step.Overlay))
	assert.True(t, step.Overlay.Before(step.Build))
	assert.True(t, step.Build.Before(step.Stage))
	assert.True(t, step.Stage.Before(step.Prime))
	assert.False(t, step.Prime.Before(step.Pull))
}

func TestParseCaseInsensitive(t *testing.T) {
	for _, s := range []string{"pull", "PULL", "Pull"} {
		got, err := step.Parse(s)
		require.NoError(t, err)
		assert.Equal(t, step.Pull, got)
	}
}

func TestParseUnknown(t *testing.T) {
	_, err := step.Parse("bogus")
	assert.Error(t, err)
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range step.All {
		got, err := step.Parse(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestIndexMatchesPosition(t *testing.T) {
	for i, s := range step.All {
		assert.Equal(t, i, s.Index())
	}
}
