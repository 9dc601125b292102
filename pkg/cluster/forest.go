// Package cluster implements disjoint-set clustering over record ids
package cluster

import (
	"sort"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Forest is a disjoint-set forest keyed by record id. Find compresses
// paths as it resolves, so the structure is not safe for concurrent use;
// callers serialize access.
type Forest struct {
	parent map[string]string
}

// NewForest creates an empty forest.
func NewForest() *Forest {
	return &Forest{parent: make(map[string]string)}
}

// Find resolves the root of x, inserting x as its own root when absent.
// Every node on the resolved path is re-parented directly to the root.
func (f *Forest) Find(x string) string {
	parent, ok := f.parent[x]
	if !ok {
		f.parent[x] = x
		return x
	}
	if parent == x {
		return x
	}

	root := f.Find(parent)
	f.parent[x] = root
	return root
}

// Merge unions the sets containing x and y. The root of x is re-parented
// to the root of y only when the two roots differ, so no cycle can form.
func (f *Forest) Merge(x, y string) {
	rx := f.Find(x)
	ry := f.Find(y)
	if rx != ry {
		f.parent[rx] = ry
	}
}

// Connected reports whether x and y are in the same set.
func (f *Forest) Connected(x, y string) bool {
	return f.Find(x) == f.Find(y)
}

// Len returns the number of elements in the forest.
func (f *Forest) Len() int {
	return len(f.parent)
}

// Snapshot returns the current clusters as root id → sorted member ids.
// Singleton elements appear as one-element lists.
func (f *Forest) Snapshot() models.ClusterSnapshot {
	clusters := make(models.ClusterSnapshot)
	for id := range f.parent {
		root := f.Find(id)
		clusters[root] = append(clusters[root], id)
	}
	for root := range clusters {
		sort.Strings(clusters[root])
	}
	return clusters
}
