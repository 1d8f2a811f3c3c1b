package render

import (
	"image"
	"image/png"
	"io"
)

// FrameBuffer is a flat RGBA8 raster, row-major with a stride of Width*4.
// One buffer is allocated per run and reused for every frame.
type FrameBuffer struct {
	Width, Height int
	Pix           []byte
}

func NewFrameBuffer(width, height int) *FrameBuffer {
	return &FrameBuffer{Width: width, Height: height, Pix: make([]byte, width*height*4)}
}

func (fb *FrameBuffer) Stride() int { return fb.Width * 4 }

// Set writes the pixel at row i, column j.
func (fb *FrameBuffer) Set(i, j int, px [4]uint8) {
	o := i*fb.Stride() + j*4
	copy(fb.Pix[o:o+4], px[:])
}

// At reads the pixel at row i, column j.
func (fb *FrameBuffer) At(i, j int) [4]uint8 {
	o := i*fb.Stride() + j*4
	return [4]uint8{fb.Pix[o], fb.Pix[o+1], fb.Pix[o+2], fb.Pix[o+3]}
}

// Fill paints every pixel with px.
func (fb *FrameBuffer) Fill(px [4]uint8) {
	for o := 0; o < len(fb.Pix); o += 4 {
		copy(fb.Pix[o:o+4], px[:])
	}
}

// Image wraps the buffer without copying.
func (fb *FrameBuffer) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    fb.Pix,
		Stride: fb.Stride(),
		Rect:   image.Rect(0, 0, fb.Width, fb.Height),
	}
}

// WritePNG encodes the buffer as a PNG.
func WritePNG(w io.Writer, fb *FrameBuffer) error {
	return png.Encode(w, fb.Image())
}
