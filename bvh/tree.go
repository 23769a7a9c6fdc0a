package bvh

import (
	"time"

	"github.com/skyloutyr/vtt-raycast/types"
)

// Tree statistics.
type Stats struct {
	Triangles   int
	Nodes       int
	Leafs       int
	MaxDepth    int
	MaxLeafSize int
	BuildTime   time.Duration
}

// A BVH over a triangle soup. The tree owns its node arena and the triangle
// index permutation; it does not keep a reference to the soup itself so the
// caller must supply the geometry again (via a TriangleTester) when querying.
//
// A Tree is immutable once built and may be queried concurrently.
type Tree struct {
	nodes   []Node
	indices []uint32
	stats   Stats
}

// Get the bounding box of the entire tree. The box of an empty or disposed
// tree is empty.
func (t *Tree) Bounds() types.AABox {
	if t == nil || len(t.nodes) == 0 {
		return types.EmptyAABox()
	}
	return t.nodes[0].Bounds
}

// Get the number of nodes in the arena.
func (t *Tree) NodeCount() int {
	if t == nil {
		return 0
	}
	return len(t.nodes)
}

// Get the node at the given arena index. The root is always at index 0.
func (t *Tree) Node(index uint32) Node {
	return t.nodes[index]
}

// Get the triangle indices referenced by a leaf node. The returned slice
// aliases the tree's permutation and must not be modified.
func (t *Tree) LeafTriangles(n Node) []uint32 {
	return t.indices[n.Offset : n.Offset+n.Count]
}

// Invoke fn for every leaf in depth-first order.
func (t *Tree) VisitLeafs(fn func(leaf Node, depth int)) {
	if t == nil || len(t.nodes) == 0 {
		return
	}
	t.visitLeafs(0, 0, fn)
}

func (t *Tree) visitLeafs(index uint32, depth int, fn func(Node, int)) {
	node := &t.nodes[index]
	if node.IsLeaf() {
		fn(*node, depth)
		return
	}

	left, right := node.Children()
	t.visitLeafs(left, depth+1, fn)
	t.visitLeafs(right, depth+1, fn)
}

// Get the tree statistics.
func (t *Tree) Stats() Stats {
	if t == nil {
		return Stats{}
	}
	return t.stats
}

// Release the node arena and the index permutation. A disposed tree behaves
// like an empty one.
func (t *Tree) Dispose() {
	if t == nil {
		return
	}
	t.nodes = nil
	t.indices = nil
	t.stats = Stats{}
}

func (t *Tree) collectStats() Stats {
	stats := Stats{
		Triangles: len(t.indices),
		Nodes:     len(t.nodes),
	}

	t.VisitLeafs(func(leaf Node, depth int) {
		stats.Leafs++
		if depth > stats.MaxDepth {
			stats.MaxDepth = depth
		}
		if int(leaf.Count) > stats.MaxLeafSize {
			stats.MaxLeafSize = int(leaf.Count)
		}
	})

	return stats
}
