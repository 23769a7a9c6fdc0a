package scene

import (
	"github.com/skyloutyr/vtt-raycast/bvh"
	"github.com/skyloutyr/vtt-raycast/types"
)

// A Mesh pairs a triangle soup with the BVH built from it. The soup is kept
// around because the BVH only stores triangle indices; leaf tests need the
// vertices again.
type Mesh struct {
	Name     string
	Vertices []types.Vec3

	tree *bvh.Tree
}

// Create a mesh and build its BVH.
func NewMesh(name string, vertices []types.Vec3, opts ...bvh.Option) (*Mesh, error) {
	tree, err := bvh.Build(vertices, opts...)
	if err != nil {
		return nil, err
	}

	return &Mesh{
		Name:     name,
		Vertices: vertices,
		tree:     tree,
	}, nil
}

// Get the mesh BVH.
func (m *Mesh) Tree() *bvh.Tree {
	return m.tree
}

// Get the number of triangles in the mesh.
func (m *Mesh) TriangleCount() int {
	return len(m.Vertices) / 3
}

// Get the mesh bounding box in local space.
func (m *Mesh) Bounds() types.AABox {
	return m.tree.Bounds()
}

// Run a local space query against the mesh.
func (m *Mesh) Intersect(qs *bvh.QueryState) {
	m.tree.Intersect(qs, SoupTester{Vertices: m.Vertices})
}

// Release the mesh BVH.
func (m *Mesh) Close() {
	m.tree.Dispose()
}
