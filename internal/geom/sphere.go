package geom

import "math"

// Hit describes where a ray met a sphere.
type Hit struct {
	T      float32
	Point  Vec3
	Normal Vec3 // outward, unit length
}

// IntersectSphere tests the ray origin + t*dir against a sphere. dir must be
// unit length. A tangent ray (zero discriminant) counts as a hit.
//
// The returned point is the far root of the quadratic. Shading uses the
// negated normal there, which faces the camera.
func IntersectSphere(origin, dir, center Vec3, radius float32) (Hit, bool) {
	b := origin.Dot(dir) - dir.Dot(center)
	det := b*b - (center.Dot(center) + origin.Dot(origin) - radius*radius - 2*center.Dot(origin))
	if det < 0 {
		return Hit{}, false
	}
	t := -b + float32(math.Sqrt(float64(det)))
	p := origin.Add(dir.Scale(t))
	return Hit{T: t, Point: p, Normal: p.Sub(center).Normalize()}, true
}
