package parts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/craft-parts-go/internal/parts"
)

func TestNewGraphRejectsDanglingAfter(t *testing.T) {
	_, err := parts.NewGraph([]*parts.Part{
		{Name: "a", After: []string{"missing"}},
	})
	assert.Error(t, err)
}

func TestNewGraphRejectsCycle(t *testing.T) {
	_, err := parts.NewGraph([]*parts.Part{
		{Name: "a", After: []string{"b"}},
		{Name: "b", After: []string{"a"}},
	})
	assert.Error(t, err)
}

func TestNewGraphRejectsDuplicateName(t *testing.T) {
	_, err := parts.NewGraph([]*parts.Part{
		{Name: "a"},
		{Name: "a"},
	})
	assert.Error(t, err)
}

func TestProcessingOrderRespectsAfterAndTiesAlphabetically(t *testing.T) {
	g, err := parts.NewGraph([]*parts.Part{
		{Name: "a", After: []string{"c"}},
		{Name: "b"},
		{Name: "c"},
	})
	require.NoError(t, err)

	order := g.ProcessingOrder()
	indexOf := func(name string) int {
		for i, n := range order {
			if n == name {
				return i
			}
		}
		return -1
	}
	assert.Less(t, indexOf("c"), indexOf("a"), "c must be processed before its dependent a")
}

func TestTransitiveDependents(t *testing.T) {
	g, err := parts.NewGraph([]*parts.Part{
		{Name: "a", After: []string{"b"}},
		{Name: "b", After: []string{"c"}},
		{Name: "c"},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, g.TransitiveDependents("c"))
}
