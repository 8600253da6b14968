package console

import (
	"bufio"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPipeConsole(t *testing.T, level Level) (*Console, *bufio.Reader, *bufio.Reader) {
	t.Helper()
	outR, outW, err := os.Pipe()
	require.NoError(t, err)
	errR, errW, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		outW.Close()
		errW.Close()
	})

	c := &Console{Level: level, out: outW, err: errW}
	return c, bufio.NewReader(outR), bufio.NewReader(errR)
}

func TestLogBelowLevelIsSuppressed(t *testing.T) {
	c, _, errR := newPipeConsole(t, WarnLevel)
	c.Info("should not appear")
	c.Warn("should appear")

	line, err := errR.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, "should appear")
}

func TestOutputWritesToStdoutRegardlessOfLevel(t *testing.T) {
	c, outR, _ := newPipeConsole(t, FatalLevel)
	c.Output("plan line")

	line, err := outR.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "plan line\n", line)
}

func TestFormattedVariantsInterpolate(t *testing.T) {
	c, _, errR := newPipeConsole(t, DebugLevel)
	c.Errorf("failed: %s (%d)", "boom", 2)

	line, err := errR.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, "failed: boom (2)")
}

func TestSetLevelAffectsPackageLevelHelpers(t *testing.T) {
	orig := def.Level
	t.Cleanup(func() { def.Level = orig })

	SetLevel(ErrorLevel)
	assert.Equal(t, ErrorLevel, def.Level)
}
