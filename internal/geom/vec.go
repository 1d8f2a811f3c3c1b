package geom

import "math"

// Vec3 is a single-precision 3D vector.
type Vec3 struct {
	X, Y, Z float32
}

func V(x, y, z float32) Vec3 { return Vec3{x, y, z} }

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float32) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Neg() Vec3            { return Vec3{-v.X, -v.Y, -v.Z} }
func (v Vec3) Dot(o Vec3) float32   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) LengthSquared() float32 {
	return v.Dot(v)
}
func (v Vec3) Length() float32 { return float32(math.Sqrt(float64(v.Dot(v)))) }

// Normalize returns v scaled to unit length. The zero vector is returned unchanged.
func (v Vec3) Normalize() Vec3 {
	if l := v.Length(); l != 0 {
		return v.Scale(1 / l)
	}
	return v
}

// Min returns the component-wise minimum.
func (v Vec3) Min(o Vec3) Vec3 { return Vec3{min(v.X, o.X), min(v.Y, o.Y), min(v.Z, o.Z)} }

// Max returns the component-wise maximum.
func (v Vec3) Max(o Vec3) Vec3 { return Vec3{max(v.X, o.X), max(v.Y, o.Y), max(v.Z, o.Z)} }
