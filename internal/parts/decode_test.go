package parts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engerrors "github.com/canonical/craft-parts-go/internal/errors"
	"github.com/canonical/craft-parts-go/internal/parts"
)

func TestDecodeBasicPart(t *testing.T) {
	doc := []byte(`
parts:
  hello:
    plugin: nil
    source: https://example.com/hello.tar.gz
    stage-packages: [hello]
    stage: [usr/*, -usr/share/doc]
`)
	got, err := parts.Decode(doc, parts.DecodeOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)

	p := got[0]
	assert.Equal(t, "hello", p.Name)
	assert.Equal(t, "nil", p.Plugin)
	assert.Equal(t, []string{"hello"}, p.StagePackages)
	assert.Equal(t, []string{"usr/*"}, p.StageFilter.Includes())
	assert.Equal(t, []string{"usr/share/doc"}, p.StageFilter.Excludes())
}

func TestDecodeSortsPartsByName(t *testing.T) {
	doc := []byte(`
parts:
  c:
    plugin: nil
  a:
    plugin: nil
  b:
    plugin: nil
`)
	got, err := parts.Decode(doc, parts.DecodeOptions{})
	require.NoError(t, err)
	names := []string{got[0].Name, got[1].Name, got[2].Name}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestDecodeRejectsUnknownKey(t *testing.T) {
	doc := []byte(`
parts:
  hello:
    plugin: nil
    bogus-key: 1
`)
	_, err := parts.Decode(doc, parts.DecodeOptions{})
	require.Error(t, err)
	var invalid *engerrors.InvalidPartsError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "hello", invalid.Part)
}

func TestDecodeAllowsPluginDeclaredKey(t *testing.T) {
	doc := []byte(`
parts:
  hello:
    plugin: go
    go-buildtags: [integration]
`)
	got, err := parts.Decode(doc, parts.DecodeOptions{
		PluginKeys: map[string][]string{"go": {"go-buildtags"}},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []interface{}{"integration"}, got[0].Extra["go-buildtags"])
}

func TestDecodeScriptlets(t *testing.T) {
	doc := []byte(`
parts:
  hello:
    plugin: nil
    override-build: |
      craftctl default
      echo hi
`)
	got, err := parts.Decode(doc, parts.DecodeOptions{})
	require.NoError(t, err)
	assert.Contains(t, got[0].Scriptlets["override-build"], "craftctl default")
}

func TestDecodeOrganizePreservesOrder(t *testing.T) {
	doc := []byte(`
parts:
  hello:
    plugin: nil
    organize:
      bin/foo: usr/bin/foo
      bin/bar: usr/bin/bar
`)
	got, err := parts.Decode(doc, parts.DecodeOptions{})
	require.NoError(t, err)
	require.Len(t, got[0].Organize, 2)
	assert.Equal(t, "bin/foo", got[0].Organize[0].From)
	assert.Equal(t, "bin/bar", got[0].Organize[1].From)
}
