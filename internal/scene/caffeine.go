package scene

import "github.com/san-kum/molvid/internal/geom"

// CaffeineAtoms is the atom count of C8H10N4O2.
const CaffeineAtoms = 24

// DefaultOffset places the molecule off the camera axis so the fixed view
// plane, which starts at the origin, frames it.
var DefaultOffset = geom.V(6, 6, 0)

// caffeine holds the PubChem 3D conformer of CID 2519, in angstrom.
var caffeine = [CaffeineAtoms]Atom{
	NewAtom(Oxygen, 0.4700, 2.5688, 0.0006),
	NewAtom(Oxygen, -3.1271, -0.4436, -0.0003),
	NewAtom(Nitrogen, -0.9686, -1.3125, 0.0000),
	NewAtom(Nitrogen, 2.2182, 0.1412, -0.0003),
	NewAtom(Nitrogen, -1.3477, 1.0797, -0.0001),
	NewAtom(Nitrogen, 1.4119, -1.9372, 0.0002),
	NewAtom(Carbon, 0.8579, 0.2592, -0.0008),
	NewAtom(Carbon, 0.3897, -1.0264, -0.0004),
	NewAtom(Carbon, 0.0307, 1.4220, -0.0006),
	NewAtom(Carbon, -1.9061, -0.2495, -0.0004),
	NewAtom(Carbon, 2.5032, -1.1998, 0.0003),
	NewAtom(Carbon, -1.4276, -2.6960, 0.0008),
	NewAtom(Carbon, 3.1926, 1.2061, 0.0003),
	NewAtom(Carbon, -2.2969, 2.1881, 0.0007),
	NewAtom(Hydrogen, 3.5163, -1.5787, 0.0008),
	NewAtom(Hydrogen, -2.0407, -2.8776, 0.8855),
	NewAtom(Hydrogen, -2.0420, -2.8765, -0.8829),
	NewAtom(Hydrogen, -0.5733, -3.3741, 0.0015),
	NewAtom(Hydrogen, 4.2000, 0.7826, 0.0003),
	NewAtom(Hydrogen, 3.0734, 1.8217, -0.8924),
	NewAtom(Hydrogen, 3.0717, 1.8226, 0.8921),
	NewAtom(Hydrogen, -1.7641, 3.1420, 0.0017),
	NewAtom(Hydrogen, -2.9302, 2.1273, 0.8903),
	NewAtom(Hydrogen, -2.9310, 2.1263, -0.8882),
}

// Caffeine returns the built-in caffeine scene centered on DefaultOffset.
func Caffeine() *Scene {
	s, _ := New(caffeine[:], DefaultOffset)
	return s
}
