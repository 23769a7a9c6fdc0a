package scene

import "github.com/skyloutyr/vtt-raycast/types"

// Determinants below this threshold mean the ray is parallel to the triangle.
const triangleEpsilon float32 = 1e-7

// SoupTester implements bvh.TriangleTester for a triangle soup using the
// Moller-Trumbore algorithm. Hit points are reported in the same space as
// the ray and the soup.
type SoupTester struct {
	Vertices []types.Vec3
}

// Test the ray against a triangle of the soup.
func (st SoupTester) IntersectTriangle(ray types.Ray, triangle uint32) (types.Vec3, bool) {
	v := st.Vertices[3*triangle : 3*triangle+3]
	return IntersectTriangle(ray, v[0], v[1], v[2])
}

// Test a ray against a single triangle. Hits behind the ray origin and
// rays parallel to the triangle plane are rejected.
func IntersectTriangle(ray types.Ray, v0, v1, v2 types.Vec3) (types.Vec3, bool) {
	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)

	h := ray.Dir.Cross(edge2)
	det := edge1.Dot(h)
	if det > -triangleEpsilon && det < triangleEpsilon {
		return types.Vec3{}, false
	}

	invDet := 1.0 / det
	s := ray.Origin.Sub(v0)
	u := invDet * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return types.Vec3{}, false
	}

	q := s.Cross(edge1)
	v := invDet * ray.Dir.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return types.Vec3{}, false
	}

	t := invDet * edge2.Dot(q)
	if t <= triangleEpsilon {
		return types.Vec3{}, false
	}

	return ray.At(t), true
}
