package types

import "math"

type Axis uint8

const (
	XAxis Axis = iota
	YAxis
	ZAxis
)

// An axis-aligned box defined by its min and max corners.
type AABox struct {
	Min Vec3
	Max Vec3
}

// Create an empty (inverted) box. Extending or merging an empty box yields
// the other operand.
func EmptyAABox() AABox {
	return AABox{
		Min: Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
}

// Create the tight box around a triangle.
func TriangleAABox(v0, v1, v2 Vec3) AABox {
	return AABox{
		Min: MinVec3(v0, MinVec3(v1, v2)),
		Max: MaxVec3(v0, MaxVec3(v1, v2)),
	}
}

// Returns true if the box does not enclose any point.
func (b AABox) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Grow the box so it includes p.
func (b AABox) Extend(p Vec3) AABox {
	return AABox{Min: MinVec3(b.Min, p), Max: MaxVec3(b.Max, p)}
}

// Get the union of two boxes.
func (b AABox) Union(b2 AABox) AABox {
	return AABox{Min: MinVec3(b.Min, b2.Min), Max: MaxVec3(b.Max, b2.Max)}
}

// Returns true if p lies inside or on the surface of the box.
func (b AABox) Contains(p Vec3) bool {
	for axis := 0; axis < 3; axis++ {
		if p[axis] < b.Min[axis] || p[axis] > b.Max[axis] {
			return false
		}
	}
	return true
}

// Get the box side lengths.
func (b AABox) Extent() Vec3 {
	return b.Max.Sub(b.Min)
}

// Get the box center.
func (b AABox) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Get the axis with the largest extent. Y is only preferred over X if it is
// strictly larger and Z is only preferred over the current pick if it is
// strictly larger.
func (b AABox) LongestAxis() Axis {
	extent := b.Extent()
	axis := XAxis
	if extent[YAxis] > extent[axis] {
		axis = YAxis
	}
	if extent[ZAxis] > extent[axis] {
		axis = ZAxis
	}
	return axis
}

// Get the box transformed by m. The result is the AABB of the 8 transformed corners.
func (b AABox) Transform(m Mat4) AABox {
	if b.IsEmpty() {
		return b
	}

	out := EmptyAABox()
	for corner := 0; corner < 8; corner++ {
		p := b.Min
		if corner&1 != 0 {
			p[0] = b.Max[0]
		}
		if corner&2 != 0 {
			p[1] = b.Max[1]
		}
		if corner&4 != 0 {
			p[2] = b.Max[2]
		}
		out = out.Extend(m.TransformPoint(p))
	}
	return out
}

// Calculate the parametric range [tmin, tmax] where the ray overlaps the box
// using the slab method. Zero direction components produce infinite inverse
// components; the resulting NaN lanes (origin exactly on a slab plane) fail
// both comparisons and leave the running interval untouched.
//
// The ray intersects the box iff tmax >= tmin and tmax > 0. Empty boxes are
// never intersected.
func (b AABox) IntersectRange(r Ray) (tmin, tmax float32, ok bool) {
	if b.IsEmpty() {
		return 0, 0, false
	}

	tmin = float32(math.Inf(-1))
	tmax = float32(math.Inf(1))

	for axis := 0; axis < 3; axis++ {
		invDir := 1.0 / r.Dir[axis]
		t1 := (b.Min[axis] - r.Origin[axis]) * invDir
		t2 := (b.Max[axis] - r.Origin[axis]) * invDir
		if t1 > t2 {
			t1, t2 = t2, t1
		}

		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
	}

	return tmin, tmax, tmax >= tmin && tmax > 0
}

// Test the ray against the box and return the point where the ray enters it.
// If the ray origin lies inside the box the entry point is the origin.
func (b AABox) Intersect(r Ray) (entry Vec3, ok bool) {
	tmin, _, ok := b.IntersectRange(r)
	if !ok {
		return Vec3{}, false
	}
	if tmin < 0 {
		return r.Origin, true
	}
	return r.At(tmin), true
}
