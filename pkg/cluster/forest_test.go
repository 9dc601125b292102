package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForest_TransitiveClosure(t *testing.T) {
	f := NewForest()
	f.Merge("1", "2")
	f.Merge("2", "3")
	f.Merge("4", "5")

	assert.Equal(t, f.Find("1"), f.Find("3"))
	assert.NotEqual(t, f.Find("1"), f.Find("5"))

	snapshot := f.Snapshot()
	require.Len(t, snapshot, 2)

	sizes := map[int]int{}
	for _, members := range snapshot {
		sizes[len(members)]++
	}
	assert.Equal(t, 1, sizes[3])
	assert.Equal(t, 1, sizes[2])
}

func TestForest_FindIdempotent(t *testing.T) {
	f := NewForest()
	f.Merge("a", "b")
	f.Merge("b", "c")

	first := f.Find("a")
	assert.Equal(t, first, f.Find("a"))
	assert.Equal(t, first, f.Find(first))
}

func TestForest_FindInsertsSingleton(t *testing.T) {
	f := NewForest()
	assert.Equal(t, "solo", f.Find("solo"))

	snapshot := f.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, []string{"solo"}, snapshot["solo"])
}

func TestForest_PathCompression(t *testing.T) {
	f := NewForest()
	// Build a chain 1 -> 2 -> 3 -> 4 by always merging roots forward
	f.Merge("1", "2")
	f.Merge("2", "3")
	f.Merge("3", "4")

	root := f.Find("1")
	// After Find, every node on the path points directly at the root
	for _, id := range []string{"1", "2", "3"} {
		assert.Equal(t, root, f.parent[id])
	}
}

func TestForest_MergeSameRootIsNoOp(t *testing.T) {
	f := NewForest()
	f.Merge("x", "y")
	root := f.Find("x")

	f.Merge("x", "y")
	f.Merge("y", "x")

	assert.Equal(t, root, f.Find("x"))
	assert.Equal(t, root, f.Find("y"))
	// The root's parent is itself; no cycle was introduced
	assert.Equal(t, root, f.parent[root])
}

func TestForest_Connected(t *testing.T) {
	f := NewForest()
	f.Merge("a", "b")

	assert.True(t, f.Connected("a", "b"))
	assert.False(t, f.Connected("a", "z"))
	// the probe inserted z
	assert.Equal(t, 3, f.Len())
}
