package bvh

import (
	"fmt"
	"sync"
	"time"

	"github.com/skyloutyr/vtt-raycast/log"
	"github.com/skyloutyr/vtt-raycast/types"
)

// Nodes referencing this many triangles or less are never split.
const maxLeafTriangles = 2

// An Option configures the BVH builder.
type Option func(*builder)

// Build sibling subtrees concurrently when both of them reference at least
// minTriangles triangles. Values <= 0 disable parallel builds.
func WithParallel(minTriangles int) Option {
	return func(b *builder) {
		b.parallelMin = 0
		if minTriangles > 0 {
			b.parallelMin = uint32(minTriangles)
		}
	}
}

// Use a specific logger for reporting build statistics.
func WithLogger(logger log.Logger) Option {
	return func(b *builder) {
		b.logger = logger
	}
}

// A callback invoked with the full index permutation after each partition step.
type partitionHook func(indices []uint32)

func withPartitionHook(hook partitionHook) Option {
	return func(b *builder) {
		b.onPartition = hook
	}
}

type builder struct {
	logger log.Logger

	// The borrowed triangle soup. Only read during the build.
	vertices []types.Vec3

	// Per-triangle centroids; discarded when the build completes.
	centroids []types.Vec3

	// The triangle index permutation. Sub-builders share it but only ever
	// touch their own disjoint range.
	indices []uint32

	// Bvh nodes stored as a contiguous list.
	nodes []Node

	// Min triangles on each side of a split for building siblings in parallel.
	parallelMin uint32

	onPartition partitionHook
}

// Construct a BVH from a triangle soup where each consecutive triple of
// vertices defines a triangle.
//
// The builder splits each node at the midpoint of its longest axis and
// partitions triangles in place based on their centroid. Nodes with 2 or less
// triangles become leafs. A split that leaves one side empty also produces a
// leaf which guarantees termination for clustered or coincident centroids.
//
// The vertices slice is only read while Build runs; the returned tree does
// not retain it.
func Build(vertices []types.Vec3, opts ...Option) (*Tree, error) {
	if len(vertices)%3 != 0 {
		return nil, fmt.Errorf("%w (got %d vertices)", ErrInvalidSoupLength, len(vertices))
	}

	numTriangles := len(vertices) / 3
	b := &builder{
		logger:    log.New("bvh builder"),
		vertices:  vertices,
		centroids: make([]types.Vec3, numTriangles),
		indices:   make([]uint32, numTriangles),
		nodes:     make([]Node, 0, 2*numTriangles+1),
	}
	for _, opt := range opts {
		opt(b)
	}

	start := time.Now()
	for tri := 0; tri < numTriangles; tri++ {
		v := vertices[3*tri : 3*tri+3]
		b.centroids[tri] = v[0].Add(v[1]).Add(v[2]).Mul(1.0 / 3.0)
		b.indices[tri] = uint32(tri)
	}

	root := b.newNode(0, uint32(numTriangles))
	b.subdivide(root, 0)

	tree := &Tree{
		nodes:   b.nodes,
		indices: b.indices,
	}
	tree.stats = tree.collectStats()
	tree.stats.BuildTime = time.Since(start)

	b.logger.Debugf(
		"BVH tree build time: %d ms, triangles: %d, maxDepth: %d, nodes: %d, leafs: %d",
		tree.stats.BuildTime.Nanoseconds()/1e6,
		tree.stats.Triangles, tree.stats.MaxDepth, tree.stats.Nodes, tree.stats.Leafs,
	)

	b.centroids = nil
	b.vertices = nil
	return tree, nil
}

// Append a node covering the given permutation range and calculate its
// tight bounding box. Returns the index of the new node.
func (b *builder) newNode(start, count uint32) uint32 {
	bounds := types.EmptyAABox()
	for _, tri := range b.indices[start : start+count] {
		v := b.vertices[3*tri : 3*tri+3]
		bounds = bounds.Extend(v[0]).Extend(v[1]).Extend(v[2])
	}

	b.nodes = append(b.nodes, Node{Bounds: bounds, Offset: start, Count: count})
	return uint32(len(b.nodes) - 1)
}

// Recursively split a node.
func (b *builder) subdivide(nodeIndex uint32, depth int) {
	node := b.nodes[nodeIndex]
	if node.Count <= maxLeafTriangles {
		return
	}

	axis := node.Bounds.LongestAxis()
	splitPoint := node.Bounds.Min[axis] + node.Bounds.Extent()[axis]*0.5

	leftCount := b.partition(node.Offset, node.Count, axis, splitPoint)
	if b.onPartition != nil {
		b.onPartition(b.indices)
	}

	// All triangles ended up on the same side; splitting further is pointless.
	if leftCount == 0 || leftCount == node.Count {
		return
	}

	left := b.newNode(node.Offset, leftCount)
	b.newNode(node.Offset+leftCount, node.Count-leftCount)
	b.nodes[nodeIndex].Offset = left
	b.nodes[nodeIndex].Count = 0

	if b.parallelMin > 0 && leftCount >= b.parallelMin && node.Count-leftCount >= b.parallelMin {
		b.subdivideParallel(left, depth+1)
		return
	}

	b.subdivide(left, depth+1)
	b.subdivide(left+1, depth+1)
}

// Reorder the permutation range [start, start+count) so that triangles whose
// centroid lies before splitPoint on the split axis come first. Returns the
// number of triangles on the left side.
func (b *builder) partition(start, count uint32, axis types.Axis, splitPoint float32) uint32 {
	i := int64(start)
	j := int64(start) + int64(count) - 1
	for i <= j {
		if b.centroids[b.indices[i]][axis] < splitPoint {
			i++
			continue
		}
		b.indices[i], b.indices[j] = b.indices[j], b.indices[i]
		j--
	}

	return uint32(i - int64(start))
}

// Build the subtrees rooted at the sibling pair left, left+1 concurrently.
// Each subtree is built into its own arena and spliced into this builder's
// arena once both are done.
func (b *builder) subdivideParallel(left uint32, depth int) {
	forks := [2]*builder{b.fork(left), b.fork(left + 1)}

	var wg sync.WaitGroup
	for _, fork := range forks {
		wg.Add(1)
		go func(fork *builder) {
			defer wg.Done()
			fork.subdivide(0, depth)
		}(fork)
	}
	wg.Wait()

	for index, fork := range forks {
		b.splice(left+uint32(index), fork.nodes)
	}
}

// Create a builder for the subtree rooted at nodeIndex. The fork shares the
// read-only build inputs and the permutation with its parent.
func (b *builder) fork(nodeIndex uint32) *builder {
	root := b.nodes[nodeIndex]
	return &builder{
		logger:      b.logger,
		vertices:    b.vertices,
		centroids:   b.centroids,
		indices:     b.indices,
		nodes:       append(make([]Node, 0, 2*root.Count), root),
		parallelMin: b.parallelMin,
	}
}

// Replace the node at slot with the root of a subtree arena and append the
// remaining subtree nodes, adjusting their child indices.
func (b *builder) splice(slot uint32, subtree []Node) {
	// Local index k >= 1 ends up at global index k + delta.
	delta := uint32(len(b.nodes)) - 1

	root := subtree[0]
	root.offsetChildNodes(delta)
	b.nodes[slot] = root

	for _, node := range subtree[1:] {
		node.offsetChildNodes(delta)
		b.nodes = append(b.nodes, node)
	}
}
