package scene

import (
	"fmt"
	"strings"
)

// Element tags an atom with its chemical element.
type Element uint8

const (
	Unknown Element = iota
	Hydrogen
	Carbon
	Nitrogen
	Oxygen
	Fluorine
	Phosphorus
	Sulfur
	Chlorine
	Bromine
	Iodine
)

var symbols = map[Element]string{
	Unknown:    "X",
	Hydrogen:   "H",
	Carbon:     "C",
	Nitrogen:   "N",
	Oxygen:     "O",
	Fluorine:   "F",
	Phosphorus: "P",
	Sulfur:     "S",
	Chlorine:   "Cl",
	Bromine:    "Br",
	Iodine:     "I",
}

func (e Element) String() string {
	if s, ok := symbols[e]; ok {
		return s
	}
	return fmt.Sprintf("Element(%d)", uint8(e))
}

// ParseElement maps a chemical symbol (case-insensitive) to its Element.
func ParseElement(sym string) (Element, error) {
	for e, s := range symbols {
		if e != Unknown && strings.EqualFold(s, sym) {
			return e, nil
		}
	}
	return Unknown, fmt.Errorf("unknown element: %s", sym)
}

// Color is a reflectance color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// ColorTable maps an element to its display color.
type ColorTable map[Element]Color

// UnknownColor is returned for elements missing from a table.
var UnknownColor = Color{1, 0.078, 0.576, 1}

// CPK is the Jmol flavour of the CPK coloring convention.
var CPK = ColorTable{
	Hydrogen:   {1, 1, 1, 1},
	Carbon:     {0.565, 0.565, 0.565, 1},
	Nitrogen:   {0.188, 0.314, 0.973, 1},
	Oxygen:     {1, 0.051, 0.051, 1},
	Fluorine:   {0.565, 0.878, 0.314, 1},
	Phosphorus: {1, 0.502, 0, 1},
	Sulfur:     {1, 1, 0.188, 1},
	Chlorine:   {0.122, 0.941, 0.122, 1},
	Bromine:    {0.651, 0.161, 0.161, 1},
	Iodine:     {0.580, 0, 0.580, 1},
}

// Lookup returns the color for e, or UnknownColor.
func (t ColorTable) Lookup(e Element) Color {
	if c, ok := t[e]; ok {
		return c
	}
	return UnknownColor
}

// van der Waals radii in angstrom
var vdwRadii = map[Element]float32{
	Hydrogen:   1.20,
	Carbon:     1.70,
	Nitrogen:   1.55,
	Oxygen:     1.52,
	Fluorine:   1.47,
	Phosphorus: 1.80,
	Sulfur:     1.80,
	Chlorine:   1.75,
	Bromine:    1.85,
	Iodine:     1.98,
}

// RadiusScale shrinks van der Waals spheres so neighbouring atoms stay distinguishable.
const RadiusScale = 0.6

// Radius returns the display radius for e.
func Radius(e Element) float32 {
	r, ok := vdwRadii[e]
	if !ok {
		r = 1.5
	}
	return r * RadiusScale
}
