package bvh

import (
	"math"

	"github.com/skyloutyr/vtt-raycast/types"
)

// A triangle hit reported by a query.
type Hit struct {
	// The triangle index in the original soup.
	Triangle uint32

	// The hit point and its distance from the ray origin.
	Point    types.Vec3
	Distance float32
}

// The TriangleTester interface is implemented by the triangle-level hit test
// invoked for each triangle of every leaf that survives pruning. The triangle
// argument indexes the soup the tree was built from.
type TriangleTester interface {
	IntersectTriangle(ray types.Ray, triangle uint32) (point types.Vec3, hit bool)
}

// An adapter for using a plain function as a TriangleTester.
type TriangleTesterFunc func(ray types.Ray, triangle uint32) (types.Vec3, bool)

// IntersectTriangle calls fn(ray, triangle).
func (fn TriangleTesterFunc) IntersectTriangle(ray types.Ray, triangle uint32) (types.Vec3, bool) {
	return fn(ray, triangle)
}

// The mutable state of a single ray query. A QueryState must not be shared
// between concurrent queries.
type QueryState struct {
	Ray types.Ray

	// Distance to the closest hit found so far.
	Closest float32

	// All hits that survived pruning, in visitation order.
	Hits []Hit

	// Traversal counters.
	NodesVisited    int
	LeafsVisited    int
	TrianglesTested int
}

// Create a query state for a ray.
func NewQueryState(ray types.Ray) *QueryState {
	qs := &QueryState{}
	qs.Reset(ray)
	return qs
}

// Reset the state for a new ray while keeping the allocated hit buffer.
func (qs *QueryState) Reset(ray types.Ray) {
	qs.Ray = ray
	qs.Closest = float32(math.Inf(1))
	qs.Hits = qs.Hits[:0]
	qs.NodesVisited = 0
	qs.LeafsVisited = 0
	qs.TrianglesTested = 0
}

// Traverse the tree with the query ray and record every triangle hit reported
// by tester.
//
// A subtree is skipped if the ray misses its bounding box or if the box entry
// point is farther than the closest hit recorded so far. Both children of an
// internal node are visited (left first) when the node survives these tests.
// The distance prune is a heuristic: a hit recorded later may be closer than
// hits recorded earlier, and subtrees may be skipped based on a hit that is
// not the globally nearest one.
func (t *Tree) Intersect(qs *QueryState, tester TriangleTester) {
	if t == nil || len(t.nodes) == 0 {
		return
	}
	t.intersectNode(0, qs, tester)
}

func (t *Tree) intersectNode(index uint32, qs *QueryState, tester TriangleTester) {
	node := &t.nodes[index]

	entry, ok := node.Bounds.Intersect(qs.Ray)
	if !ok || qs.Ray.Origin.Distance(entry) > qs.Closest {
		return
	}
	qs.NodesVisited++

	if !node.IsLeaf() {
		left, right := node.Children()
		t.intersectNode(left, qs, tester)
		t.intersectNode(right, qs, tester)
		return
	}

	qs.LeafsVisited++
	for _, tri := range t.indices[node.Offset : node.Offset+node.Count] {
		qs.TrianglesTested++
		point, hit := tester.IntersectTriangle(qs.Ray, tri)
		if !hit {
			continue
		}

		dist := qs.Ray.Origin.Distance(point)
		qs.Hits = append(qs.Hits, Hit{Triangle: tri, Point: point, Distance: dist})
		if dist < qs.Closest {
			qs.Closest = dist
		}
	}
}

// Run a query for a single ray and return all recorded hits.
func (t *Tree) Query(ray types.Ray, tester TriangleTester) []Hit {
	qs := NewQueryState(ray)
	t.Intersect(qs, tester)
	return qs.Hits
}
