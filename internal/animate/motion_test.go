package animate

import (
	"math"
	"testing"

	"github.com/san-kum/molvid/internal/geom"
)

func close32(a, b float32) bool { return math.Abs(float64(a-b)) < 1e-4 }

func TestStatic(t *testing.T) {
	m := Static{Eye: DefaultEye}
	for f := 0; f < 10; f++ {
		if got := m.Position(f, 10); got != DefaultEye {
			t.Errorf("frame %d: expected %v, got %v", f, DefaultEye, got)
		}
	}
}

func TestOrbitStartsAtEyeAndKeepsDepth(t *testing.T) {
	m := Orbit{Eye: DefaultEye, Radius: 4, Turns: 1}
	start := m.Position(0, 60)
	if !close32(start.X, DefaultEye.X) || !close32(start.Y, DefaultEye.Y) {
		t.Errorf("expected orbit to start at eye, got %v", start)
	}
	for f := 0; f < 60; f++ {
		p := m.Position(f, 60)
		if p.Z != DefaultEye.Z {
			t.Fatalf("frame %d: z changed to %f", f, p.Z)
		}
		// every point lies on the circle of radius 4 centered at eye - (4,0,0)
		c := DefaultEye.Sub(geom.V(4, 0, 0))
		if d := p.Sub(c).Length(); !close32(d, 4) {
			t.Errorf("frame %d: off circle by %f", f, d-4)
		}
	}
	half := m.Position(30, 60)
	if !close32(half.X, DefaultEye.X-8) {
		t.Errorf("expected opposite side at half turn, got %v", half)
	}
}

func TestDollyPingPong(t *testing.T) {
	m := Dolly{Eye: DefaultEye, Travel: 10}
	if got := m.Position(0, 10); got != DefaultEye {
		t.Errorf("expected eye at start, got %v", got)
	}
	mid := m.Position(5, 10)
	if !close32(mid.Z, DefaultEye.Z-10) {
		t.Errorf("expected full travel at midpoint, got %v", mid)
	}
	if a, b := m.Position(2, 10), m.Position(8, 10); !close32(a.Z, b.Z) {
		t.Errorf("expected symmetric motion, got %f and %f", a.Z, b.Z)
	}
}

func TestNew(t *testing.T) {
	for _, name := range Names() {
		m, err := New(name, DefaultEye, 2, 1)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if m.Name() != name {
			t.Errorf("expected %s, got %s", name, m.Name())
		}
	}
	if _, err := New("spiral", DefaultEye, 1, 1); err == nil {
		t.Error("expected error for unknown motion")
	}
}

func TestZeroTotal(t *testing.T) {
	m := Orbit{Eye: DefaultEye, Radius: 3, Turns: 1}
	if got := m.Position(5, 0); !close32(got.X, DefaultEye.X) {
		t.Errorf("expected eye for empty clip, got %v", got)
	}
}
