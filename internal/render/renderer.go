package render

import (
	"fmt"

	"github.com/san-kum/molvid/internal/geom"
	"github.com/san-kum/molvid/internal/scene"
)

// Headlight shading constants: lighting = Ambient + Diffuse*max(n·l, 0).
const (
	Ambient = 0.0001
	Diffuse = 0.75
)

// Background is the color of pixels whose ray hits nothing.
var Background = [4]uint8{5, 5, 5, 255}

// ViewPlane maps raster coordinates onto the z=0 plane. Row i, column j lands
// on (j*Dj, i*Di, 0), so the plane spans twice the scene extent from the origin.
type ViewPlane struct {
	Di, Dj float32
}

func NewViewPlane(extent geom.Vec3, width, height int) ViewPlane {
	return ViewPlane{
		Di: 2 * extent.Y / float32(height),
		Dj: 2 * extent.X / float32(width),
	}
}

func (vp ViewPlane) Point(i, j int) geom.Vec3 {
	return geom.V(float32(j)*vp.Dj, float32(i)*vp.Di, 0)
}

// Renderer casts one ray per pixel from the camera through the view plane and
// shades the first depth-sorted atom it hits.
type Renderer struct {
	plane  ViewPlane
	colors scene.ColorTable
	width  int
	height int
}

func New(plane ViewPlane, width, height int, colors scene.ColorTable) *Renderer {
	if colors == nil {
		colors = scene.CPK
	}
	return &Renderer{plane: plane, colors: colors, width: width, height: height}
}

// ForScene builds a renderer whose view plane covers s at the given resolution.
func ForScene(s *scene.Scene, width, height int) *Renderer {
	return New(NewViewPlane(s.Extent(), width, height), width, height, scene.CPK)
}

// Render fills fb in place. atoms must be sorted nearest-first for camera.
func (r *Renderer) Render(fb *FrameBuffer, atoms []scene.Atom, camera geom.Vec3) error {
	if fb.Width != r.width || fb.Height != r.height || len(fb.Pix) != r.width*r.height*4 {
		return fmt.Errorf("render: buffer is %dx%d (%d bytes), renderer expects %dx%d",
			fb.Width, fb.Height, len(fb.Pix), r.width, r.height)
	}
	for i := 0; i < r.height; i++ {
		for j := 0; j < r.width; j++ {
			fb.Set(i, j, r.Shade(atoms, camera, i, j))
		}
	}
	return nil
}

// Shade returns the color of the pixel at row i, column j.
func (r *Renderer) Shade(atoms []scene.Atom, camera geom.Vec3, i, j int) [4]uint8 {
	dir := r.plane.Point(i, j).Sub(camera).Normalize()
	for _, a := range atoms {
		hit, ok := geom.IntersectSphere(camera, dir, a.Position, a.Radius)
		if !ok {
			continue
		}
		return r.lit(r.colors.Lookup(a.Element), hit, camera)
	}
	return Background
}

func (r *Renderer) lit(c scene.Color, hit geom.Hit, camera geom.Vec3) [4]uint8 {
	light := camera.Sub(hit.Point).Normalize()
	lighting := Ambient + Diffuse*max(hit.Normal.Neg().Dot(light), 0)
	// conversion truncates toward zero
	return [4]uint8{
		uint8(255 * c.R * lighting),
		uint8(255 * c.G * lighting),
		uint8(255 * c.B * lighting),
		255,
	}
}
