// Package clustering merges definite matches into transitive clusters
// and assigns each cluster a deterministic canonical identifier.
package clustering

// UnionFind is an array-backed disjoint-set over indices 0..n-1. It is
// owned by a single clustering pass and is not safe for concurrent use.
type UnionFind struct {
	parent []int
}

// NewUnionFind creates a UnionFind with n singleton sets.
func NewUnionFind(n int) *UnionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &UnionFind{parent: parent}
}

// Find returns the representative of x's set, compressing the path.
func (u *UnionFind) Find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

// Union merges the sets containing a and b. No rank heuristic: path
// compression alone is enough at roster-table sizes.
func (u *UnionFind) Union(a, b int) {
	ra, rb := u.Find(a), u.Find(b)
	if ra != rb {
		u.parent[rb] = ra
	}
}

// Len returns the number of elements tracked.
func (u *UnionFind) Len() int {
	return len(u.parent)
}
