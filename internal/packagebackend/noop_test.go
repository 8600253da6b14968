package packagebackend_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/craft-parts-go/internal/packagebackend"
)

func TestInstallBuildPackagesRecordsLedger(t *testing.T) {
	n := packagebackend.NewNoop(nil)
	installed, err := n.InstallBuildPackages(context.Background(), []string{"gcc", "make"})
	require.NoError(t, err)
	assert.Len(t, installed, 2)

	assert.Equal(t, []string{"gcc", "make"}, n.Installed())
	v, err := n.Version("gcc")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0-noop", v)
}

func TestVersionUnknownPackageErrors(t *testing.T) {
	n := packagebackend.NewNoop(nil)
	_, err := n.Version("never-installed")
	assert.Error(t, err)
}

func TestCustomVersionFunc(t *testing.T) {
	n := packagebackend.NewNoop(func(name string) string { return name + "-1.0" })
	_, err := n.DownloadStagePackages(context.Background(), []string{"hello"}, t.TempDir())
	require.NoError(t, err)
	v, err := n.Version("hello")
	require.NoError(t, err)
	assert.Equal(t, "hello-1.0", v)
}
