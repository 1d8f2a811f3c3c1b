package geom

import (
	"math"
	"testing"
)

func approx(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}

func TestVec3Basics(t *testing.T) {
	a := V(1, 2, 3)
	b := V(4, 5, 6)

	if got := a.Add(b); got != V(5, 7, 9) {
		t.Errorf("add: got %v", got)
	}
	if got := b.Sub(a); got != V(3, 3, 3) {
		t.Errorf("sub: got %v", got)
	}
	if got := a.Dot(b); got != 32 {
		t.Errorf("dot: got %f", got)
	}
	if got := V(3, 4, 0).Length(); got != 5 {
		t.Errorf("length: got %f", got)
	}
	if got := V(0, 0, 0).Normalize(); got != V(0, 0, 0) {
		t.Errorf("zero normalize: got %v", got)
	}
	if got := a.Min(V(0, 9, 3)); got != V(0, 2, 3) {
		t.Errorf("min: got %v", got)
	}
	if got := a.Max(V(0, 9, 3)); got != V(1, 9, 3) {
		t.Errorf("max: got %v", got)
	}
}

func TestIntersectSphere_Miss(t *testing.T) {
	_, ok := IntersectSphere(V(2, 0, 10), V(0, 0, -1), V(0, 0, 0), 1)
	if ok {
		t.Error("expected miss")
	}
}

func TestIntersectSphere_Hit(t *testing.T) {
	origin := V(0, 0, 10)
	dir := V(0, 0, -1)
	hit, ok := IntersectSphere(origin, dir, V(0, 0, 0), 1)
	if !ok {
		t.Fatal("expected hit")
	}

	// far root: the point on the back of the sphere
	if !approx(hit.T, 11, 1e-5) {
		t.Errorf("expected t=11, got %f", hit.T)
	}
	if !approx(hit.Point.Z, -1, 1e-5) {
		t.Errorf("expected point z=-1, got %v", hit.Point)
	}
	if !approx(hit.Normal.Length(), 1, 1e-5) {
		t.Errorf("normal not unit: %v", hit.Normal)
	}
	if !approx(hit.Normal.Z, -1, 1e-5) {
		t.Errorf("expected normal (0,0,-1), got %v", hit.Normal)
	}
	// the negated normal faces the camera
	if hit.Normal.Neg().Dot(origin.Sub(hit.Point).Normalize()) <= 0 {
		t.Error("negated normal should face the origin")
	}
}

func TestIntersectSphere_Tangent(t *testing.T) {
	// ray grazes the sphere at x=1: discriminant is exactly zero
	hit, ok := IntersectSphere(V(1, 0, 10), V(0, 0, -1), V(0, 0, 0), 1)
	if !ok {
		t.Fatal("tangent ray must count as a hit")
	}
	if !approx(hit.Point.X, 1, 1e-5) || !approx(hit.Point.Z, 0, 1e-5) {
		t.Errorf("expected tangent point (1,0,0), got %v", hit.Point)
	}
}
