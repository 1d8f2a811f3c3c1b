package tui

import (
	"strings"

	"github.com/san-kum/molvid/internal/render"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a grid of braille cells, each holding 2x4 dots.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the dot at (x, y) in dot coordinates. The canvas is
// (Width*2) x (Height*4) dots.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// Plot samples fb onto the canvas, lighting dots whose pixel is brighter
// than threshold (0-255 luma).
func (c *Canvas) Plot(fb *render.FrameBuffer, threshold uint8) {
	c.Clear()
	dotsW, dotsH := c.Width*2, c.Height*4
	for y := 0; y < dotsH; y++ {
		i := y * fb.Height / dotsH
		for x := 0; x < dotsW; x++ {
			j := x * fb.Width / dotsW
			if luma(fb.At(i, j)) > threshold {
				c.Set(x, y)
			}
		}
	}
}

// luma is the Rec. 601 brightness of px.
func luma(px [4]uint8) uint8 {
	return uint8((299*int(px[0]) + 587*int(px[1]) + 114*int(px[2])) / 1000)
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.Grid {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(row))
	}
	return b.String()
}
