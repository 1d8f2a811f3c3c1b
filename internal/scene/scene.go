package scene

import (
	"errors"
	"math"
	"sort"

	"github.com/san-kum/molvid/internal/geom"
)

// Atom is a shaded sphere tagged with its element.
type Atom struct {
	Position geom.Vec3
	Radius   float32
	Element  Element
}

// NewAtom builds an atom with the display radius of its element.
func NewAtom(e Element, x, y, z float32) Atom {
	return Atom{Position: geom.V(x, y, z), Radius: Radius(e), Element: e}
}

var ErrEmptyScene = errors.New("scene: no atoms")

// Scene is a fixed set of atoms. It is read-only after New returns.
type Scene struct {
	atoms []Atom
}

// New copies raw and translates it so the centroid lands on offset.
func New(raw []Atom, offset geom.Vec3) (*Scene, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyScene
	}
	shift := offset.Sub(centroid(raw))
	atoms := make([]Atom, len(raw))
	for i, a := range raw {
		a.Position = a.Position.Add(shift)
		atoms[i] = a
	}
	return &Scene{atoms: atoms}, nil
}

func centroid(atoms []Atom) geom.Vec3 {
	var c geom.Vec3
	for _, a := range atoms {
		c = c.Add(a.Position)
	}
	return c.Scale(1 / float32(len(atoms)))
}

func (s *Scene) Len() int            { return len(s.atoms) }
func (s *Scene) At(i int) Atom       { return s.atoms[i] }
func (s *Scene) Centroid() geom.Vec3 { return centroid(s.atoms) }

// Atoms returns a copy of the atoms in scene order.
func (s *Scene) Atoms() []Atom {
	out := make([]Atom, len(s.atoms))
	copy(out, s.atoms)
	return out
}

// Extent returns the size of the axis-aligned box around the atom centers.
// Radii are not included.
func (s *Scene) Extent() geom.Vec3 {
	inf := float32(math.Inf(1))
	lo := geom.V(inf, inf, inf)
	hi := lo.Neg()
	for _, a := range s.atoms {
		lo = lo.Min(a.Position)
		hi = hi.Max(a.Position)
	}
	return hi.Sub(lo)
}

// Sorted returns the atoms ordered nearest-to-farthest from camera by squared
// distance to each center. Equal distances keep scene order.
//
// Ordering by center distance is not a per-ray depth test: two overlapping
// spheres can resolve in the wrong order for some pixels. The renderer relies
// on this order for its first-hit early exit and accepts that imprecision.
func (s *Scene) Sorted(camera geom.Vec3) []Atom {
	return s.SortedInto(make([]Atom, len(s.atoms)), camera)
}

// SortedInto is Sorted writing into dst, which is grown if too small.
func (s *Scene) SortedInto(dst []Atom, camera geom.Vec3) []Atom {
	if cap(dst) < len(s.atoms) {
		dst = make([]Atom, len(s.atoms))
	}
	dst = dst[:len(s.atoms)]
	copy(dst, s.atoms)
	sortByDistance(dst, camera)
	return dst
}

func sortByDistance(atoms []Atom, camera geom.Vec3) {
	sort.SliceStable(atoms, func(i, j int) bool {
		return camera.Sub(atoms[i].Position).LengthSquared() < camera.Sub(atoms[j].Position).LengthSquared()
	})
}
