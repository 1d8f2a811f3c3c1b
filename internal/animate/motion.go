package animate

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/molvid/internal/geom"
)

// DefaultEye is the camera position of the reference animation.
var DefaultEye = geom.V(0, 0, 32)

// Motion positions the camera for each frame of a clip.
type Motion interface {
	Name() string
	Position(frame, total int) geom.Vec3
}

// Static keeps the camera at Eye for the whole clip.
type Static struct {
	Eye geom.Vec3
}

func (s Static) Name() string                        { return "static" }
func (s Static) Position(frame, total int) geom.Vec3 { return s.Eye }

// Orbit circles the camera around Eye in the XY plane, keeping its Z.
type Orbit struct {
	Eye    geom.Vec3
	Radius float32
	Turns  float64
}

func (o Orbit) Name() string { return "orbit" }

func (o Orbit) Position(frame, total int) geom.Vec3 {
	a := 2 * math.Pi * o.Turns * progress(frame, total)
	return o.Eye.Add(geom.V(
		o.Radius*float32(math.Cos(a))-o.Radius,
		o.Radius*float32(math.Sin(a)),
		0,
	))
}

// Dolly moves the camera toward the scene by Travel and back again.
type Dolly struct {
	Eye    geom.Vec3
	Travel float32
}

func (d Dolly) Name() string { return "dolly" }

func (d Dolly) Position(frame, total int) geom.Vec3 {
	p := progress(frame, total)
	tri := 1 - math.Abs(2*p-1) // 0 -> 1 -> 0
	return d.Eye.Sub(geom.V(0, 0, d.Travel*float32(tri)))
}

// progress maps frame in [0,total) to [0,1).
func progress(frame, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(frame) / float64(total)
}

var motions = map[string]func(eye geom.Vec3, amplitude float32, turns float64) Motion{
	"static": func(eye geom.Vec3, _ float32, _ float64) Motion { return Static{Eye: eye} },
	"orbit": func(eye geom.Vec3, amplitude float32, turns float64) Motion {
		return Orbit{Eye: eye, Radius: amplitude, Turns: turns}
	},
	"dolly": func(eye geom.Vec3, amplitude float32, _ float64) Motion { return Dolly{Eye: eye, Travel: amplitude} },
}

// New selects a motion by name.
func New(name string, eye geom.Vec3, amplitude float32, turns float64) (Motion, error) {
	fn, ok := motions[name]
	if !ok {
		return nil, fmt.Errorf("unknown motion: %s (available: %v)", name, Names())
	}
	return fn(eye, amplitude, turns), nil
}

func Names() []string {
	names := make([]string, 0, len(motions))
	for k := range motions {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
