package types

// A ray with an origin and a direction. The direction does not need to be
// normalized; intersection parameters are expressed in units of it.
type Ray struct {
	Origin Vec3
	Dir    Vec3
}

// Create a ray.
func NewRay(origin, dir Vec3) Ray {
	return Ray{Origin: origin, Dir: dir}
}

// Create a ray starting at from and pointing towards to.
func RayThrough(from, to Vec3) Ray {
	return Ray{Origin: from, Dir: to.Sub(from)}
}

// Get the point at parameter t along the ray.
func (r Ray) At(t float32) Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// Transform the ray by m. The direction is transformed without translation
// and is not re-normalized.
func (r Ray) Transform(m Mat4) Ray {
	return Ray{
		Origin: m.TransformPoint(r.Origin),
		Dir:    m.TransformDir(r.Dir),
	}
}
