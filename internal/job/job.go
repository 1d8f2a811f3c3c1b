// Package job drives the render loop: move the camera, sort the atoms, trace
// the frame and hand it to the encoder.
package job

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/molvid/internal/animate"
	"github.com/san-kum/molvid/internal/render"
	"github.com/san-kum/molvid/internal/scene"
)

// Encoder consumes RGBA frames. *video.Pipeline implements it.
type Encoder interface {
	Open() error
	Write(rgba []byte) error
	Finish() error
}

type Options struct {
	Scene    *scene.Scene
	Motion   animate.Motion
	Width    int
	Height   int
	Frames   int
	Pipeline Encoder

	// Progress is called after every encoded frame, on the loop goroutine.
	Progress func(FrameStat)
}

type FrameStat struct {
	Index  int
	Total  int
	Camera [3]float32
	Render time.Duration
	Encode time.Duration

	// Frame is the picture just encoded. It is set only for Progress and
	// is overwritten by the next frame.
	Frame *render.FrameBuffer
}

type Result struct {
	Frames  []FrameStat
	Elapsed time.Duration
}

// MeanRender is the average time spent tracing one frame.
func (r *Result) MeanRender() time.Duration {
	if len(r.Frames) == 0 {
		return 0
	}
	var sum time.Duration
	for _, f := range r.Frames {
		sum += f.Render
	}
	return sum / time.Duration(len(r.Frames))
}

func (r *Result) MeanEncode() time.Duration {
	if len(r.Frames) == 0 {
		return 0
	}
	var sum time.Duration
	for _, f := range r.Frames {
		sum += f.Encode
	}
	return sum / time.Duration(len(r.Frames))
}

// FPS is the achieved throughput over the whole run.
func (r *Result) FPS() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(len(r.Frames)) / r.Elapsed.Seconds()
}

func (o Options) validate() error {
	switch {
	case o.Scene == nil:
		return fmt.Errorf("scene is required")
	case o.Motion == nil:
		return fmt.Errorf("motion is required")
	case o.Pipeline == nil:
		return fmt.Errorf("pipeline is required")
	case o.Width <= 0 || o.Height <= 0:
		return fmt.Errorf("size must be positive, got %dx%d", o.Width, o.Height)
	case o.Frames <= 0:
		return fmt.Errorf("frames must be positive, got %d", o.Frames)
	}
	return nil
}

// Run opens the pipeline, writes Frames frames and finishes it. The caller
// still owns the pipeline and must close it. A cancelled context stops the
// loop between frames and leaves the file unfinished.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	r := render.ForScene(opts.Scene, opts.Width, opts.Height)
	fb := render.NewFrameBuffer(opts.Width, opts.Height)
	sorted := make([]scene.Atom, 0, opts.Scene.Len())

	result := &Result{Frames: make([]FrameStat, 0, opts.Frames)}
	start := time.Now()

	if err := opts.Pipeline.Open(); err != nil {
		return result, err
	}

	for i := 0; i < opts.Frames; i++ {
		select {
		case <-ctx.Done():
			result.Elapsed = time.Since(start)
			return result, ctx.Err()
		default:
		}

		eye := opts.Motion.Position(i, opts.Frames)

		t0 := time.Now()
		sorted = opts.Scene.SortedInto(sorted, eye)
		if err := r.Render(fb, sorted, eye); err != nil {
			return result, fmt.Errorf("render frame %d: %w", i, err)
		}
		t1 := time.Now()

		if err := opts.Pipeline.Write(fb.Pix); err != nil {
			return result, err
		}

		stat := FrameStat{
			Index:  i,
			Total:  opts.Frames,
			Camera: [3]float32{eye.X, eye.Y, eye.Z},
			Render: t1.Sub(t0),
			Encode: time.Since(t1),
		}
		result.Frames = append(result.Frames, stat)
		if opts.Progress != nil {
			stat.Frame = fb
			opts.Progress(stat)
		}
	}

	if err := opts.Pipeline.Finish(); err != nil {
		return result, err
	}
	result.Elapsed = time.Since(start)
	return result, nil
}

// Still renders a single frame of the clip without encoding it.
func Still(s *scene.Scene, m animate.Motion, width, height, frame, total int) (*render.FrameBuffer, error) {
	if s == nil || m == nil {
		return nil, fmt.Errorf("scene and motion are required")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("size must be positive, got %dx%d", width, height)
	}
	eye := m.Position(frame, total)
	fb := render.NewFrameBuffer(width, height)
	if err := render.ForScene(s, width, height).Render(fb, s.Sorted(eye), eye); err != nil {
		return nil, err
	}
	return fb, nil
}
