package filter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/canonical/craft-parts-go/internal/filter"
)

func TestEmptyFilterIncludesEverything(t *testing.T) {
	f := filter.New(nil)
	assert.True(t, f.Empty())
	assert.True(t, f.Match("usr/bin/hello"))
	assert.True(t, f.Match("anything/at/all"))
}

func TestWildcardIncludeWithLiteralExclude(t *testing.T) {
	// spec §8 scenario: stage: [usr/*, -usr/share/doc]
	f := filter.New([]string{"usr/*", "-usr/share/doc"})

	assert.True(t, f.Match("usr/bin/hello"), "usr/bin/hello should survive under usr/*")
	assert.False(t, f.Match("usr/share/doc/hello"), "usr/share/doc/hello must be excluded by the literal exclude")
	assert.False(t, f.Match("etc/hello"), "etc/hello is outside usr/* entirely")
}

func TestDoubleStarCrossesDirectories(t *testing.T) {
	f := filter.New([]string{"**/*.so"})
	assert.True(t, f.Match("usr/lib/x86_64-linux-gnu/libfoo.so"))
	assert.False(t, f.Match("usr/lib/x86_64-linux-gnu/libfoo.a"))
}

func TestLiteralPathAlwaysIncluded(t *testing.T) {
	f := filter.New([]string{"usr/bin/hello"})
	assert.True(t, f.Match("usr/bin/hello"))
	assert.False(t, f.Match("usr/bin/world"))
}

func TestMostSpecificWildcardWins(t *testing.T) {
	// A more specific include pattern should survive a broader exclude.
	f := filter.New([]string{"-usr/*", "usr/bin/hello"})
	assert.True(t, f.Match("usr/bin/hello"))
	assert.False(t, f.Match("usr/bin/world"))
}

func TestBaseExcludesOverrideIncludes(t *testing.T) {
	f := filter.New(nil).WithBaseExcludes([]string{"*.bak", "tmp/"})
	assert.True(t, f.Match("usr/bin/hello"))
	assert.False(t, f.Match("usr/bin/hello.bak"))
	assert.False(t, f.Match("tmp/scratch"))
}

func TestIncludedPreservesOrder(t *testing.T) {
	f := filter.New([]string{"usr/*"})
	got := f.Included([]string{"etc/foo", "usr/bin", "usr/lib"})
	assert.Equal(t, []string{"usr/bin", "usr/lib"}, got)
}
