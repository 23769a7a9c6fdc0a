package scene

import (
	"testing"

	"github.com/skyloutyr/vtt-raycast/types"
)

func TestIntersectTriangle(t *testing.T) {
	v0 := types.Vec3{0, 0, 0}
	v1 := types.Vec3{1, 0, 0}
	v2 := types.Vec3{0, 1, 0}

	type spec struct {
		ray      types.Ray
		expHit   bool
		expPoint types.Vec3
	}
	specs := []spec{
		{types.NewRay(types.Vec3{0.2, 0.2, 5}, types.Vec3{0, 0, -1}), true, types.Vec3{0.2, 0.2, 0}},
		// Back face hits are reported too
		{types.NewRay(types.Vec3{0.2, 0.2, -5}, types.Vec3{0, 0, 1}), true, types.Vec3{0.2, 0.2, 0}},
		// Outside the triangle
		{types.NewRay(types.Vec3{0.8, 0.8, 5}, types.Vec3{0, 0, -1}), false, types.Vec3{}},
		// Parallel to the triangle plane
		{types.NewRay(types.Vec3{-1, 0.2, 0}, types.Vec3{1, 0, 0}), false, types.Vec3{}},
		// Triangle behind the ray origin
		{types.NewRay(types.Vec3{0.2, 0.2, 5}, types.Vec3{0, 0, 1}), false, types.Vec3{}},
		// Unnormalized direction
		{types.NewRay(types.Vec3{0.2, 0.2, 5}, types.Vec3{0, 0, -10}), true, types.Vec3{0.2, 0.2, 0}},
	}

	for index, s := range specs {
		point, hit := IntersectTriangle(s.ray, v0, v1, v2)
		if hit != s.expHit {
			t.Fatalf("[spec %d] expected hit to be %t; got %t", index, s.expHit, hit)
		}
		if hit && !point.ApproxEqual(s.expPoint, 1e-5) {
			t.Fatalf("[spec %d] expected hit point %v; got %v", index, s.expPoint, point)
		}
	}
}

func TestSoupTester(t *testing.T) {
	soup := []types.Vec3{
		// triangle 0 at z = 0
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
		// triangle 1 at z = -1
		{0, 0, -1}, {1, 0, -1}, {0, 1, -1},
	}
	tester := SoupTester{Vertices: soup}
	ray := types.NewRay(types.Vec3{0.2, 0.2, 5}, types.Vec3{0, 0, -1})

	point, hit := tester.IntersectTriangle(ray, 1)
	if !hit {
		t.Fatal("expected triangle 1 to be hit")
	}
	if exp := (types.Vec3{0.2, 0.2, -1}); !point.ApproxEqual(exp, 1e-5) {
		t.Fatalf("expected hit point %v; got %v", exp, point)
	}
}
