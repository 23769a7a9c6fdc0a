package scene

import (
	"github.com/skyloutyr/vtt-raycast/bvh"
	"github.com/skyloutyr/vtt-raycast/types"
)

// An Instance places a Mesh inside the scene. Multiple instances may share
// the same mesh (and BVH).
type Instance struct {
	ID   int
	Mesh *Mesh

	// Local to world transformation and its inverse.
	transform    types.Mat4
	invTransform types.Mat4

	// World space AABB.
	bounds types.AABox
}

// A hit against a scene instance. Point and Distance are in world space.
type SceneHit struct {
	Instance *Instance
	Triangle uint32
	Point    types.Vec3
	Distance float32
}

// Get the local to world transformation.
func (inst *Instance) Transform() types.Mat4 {
	return inst.transform
}

// Get the world space bounding box.
func (inst *Instance) Bounds() types.AABox {
	return inst.bounds
}

// Transform a world space ray into the mesh's local space, query the mesh BVH
// and append any hits, mapped back to world space, to out.
func (inst *Instance) raycast(ray types.Ray, qs *bvh.QueryState, out []SceneHit) []SceneHit {
	if _, ok := inst.bounds.Intersect(ray); !ok {
		return out
	}

	qs.Reset(ray.Transform(inst.invTransform))
	inst.Mesh.Intersect(qs)

	for _, hit := range qs.Hits {
		worldPoint := inst.transform.TransformPoint(hit.Point)
		out = append(out, SceneHit{
			Instance: inst,
			Triangle: hit.Triangle,
			Point:    worldPoint,
			Distance: ray.Origin.Distance(worldPoint),
		})
	}
	return out
}
