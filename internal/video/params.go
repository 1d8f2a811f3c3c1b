package video

import "fmt"

// Fixed encoder configuration. None of it is negotiable.
const (
	TicksPerSecond = 90000 // MPEG system clock
	BitRate        = 2_000_000
	GOPSize        = 12
	MaxBFrames     = 2
	Preset         = "ultrafast"
)

// Params are the construction parameters of an encoder.
type Params struct {
	Path    string
	Width   int
	Height  int
	FPS     int
	Verbose bool // dump the container layout after the header is written
}

// Validate reports whether the encoder can take p. YUV 4:2:0 needs even
// dimensions, and the frame rate must divide the 90 kHz clock so that every
// frame advances the timestamp by the same number of ticks.
func (p Params) Validate() error {
	switch {
	case p.Path == "":
		return fmt.Errorf("%w: empty output path", ErrInvalidParams)
	case p.Width <= 0 || p.Height <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalidParams, p.Width, p.Height)
	case p.Width%2 != 0 || p.Height%2 != 0:
		return fmt.Errorf("%w: size %dx%d must be even", ErrInvalidParams, p.Width, p.Height)
	case p.FPS <= 0:
		return fmt.Errorf("%w: fps %d", ErrInvalidParams, p.FPS)
	case TicksPerSecond%p.FPS != 0:
		return fmt.Errorf("%w: fps %d does not divide %d", ErrInvalidParams, p.FPS, TicksPerSecond)
	}
	return nil
}

// FrameSize is the byte length of one RGBA frame.
func (p Params) FrameSize() int { return p.Width * p.Height * 4 }

// TicksPerFrame is the timestamp step between frames.
func (p Params) TicksPerFrame() int64 { return int64(TicksPerSecond / p.FPS) }

// Clock hands out presentation timestamps from a frame counter. It is the only
// timestamp source; there is no wall-clock pacing.
type Clock struct {
	step  int64
	count int64
}

func NewClock(ticksPerFrame int64) Clock {
	return Clock{step: ticksPerFrame}
}

// Next returns the timestamp of the next frame and advances the counter.
func (c *Clock) Next() int64 {
	pts := c.count * c.step
	c.count++
	return pts
}

func (c *Clock) Frames() int64 { return c.count }
