package bvh

import "github.com/skyloutyr/vtt-raycast/types"

// A BVH node. Nodes are stored in a flat arena owned by the Tree and refer to
// each other by index. The Offset field is interpreted based on the node type:
//
// - For leafs (Count > 0) Offset points to the first entry of the node's
//   triangle range inside the tree's index permutation.
// - For internal nodes (Count == 0) Offset is the arena index of the left
//   child. The right child is always stored right after the left one.
//
// The root of a tree built from zero triangles is a leaf with Count == 0 and
// Offset == 0. Child nodes are always stored after their parent so Offset is
// never 0 for internal nodes.
type Node struct {
	Bounds types.AABox
	Offset uint32
	Count  uint32
}

// Returns true if this is a leaf node.
func (n *Node) IsLeaf() bool {
	return n.Count > 0 || n.Offset == 0
}

// Get the arena indices of the left and right child nodes.
func (n *Node) Children() (left, right uint32) {
	return n.Offset, n.Offset + 1
}

// Shift the child indices of internal nodes by delta. Leafs are left untouched.
func (n *Node) offsetChildNodes(delta uint32) {
	if n.IsLeaf() {
		return
	}
	n.Offset += delta
}
