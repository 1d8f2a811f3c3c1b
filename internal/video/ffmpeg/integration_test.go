//go:build integration

package ffmpeg

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/san-kum/molvid/internal/render"
	"github.com/san-kum/molvid/internal/video"
)

var quiet = log.New(io.Discard)

func encode(t *testing.T, params video.Params, frames int, fill [4]uint8) {
	t.Helper()

	p, err := Create(params, quiet)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer p.Close()

	if err := p.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	fb := render.NewFrameBuffer(params.Width, params.Height)
	fb.Fill(fill)
	for i := 0; i < frames; i++ {
		if err := p.Write(fb.Pix); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	if err := p.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if p.Stats().Packets != frames {
		t.Errorf("expected %d packets, got %d", frames, p.Stats().Packets)
	}
}

func TestEncoderSettings(t *testing.T) {
	params := video.Params{Path: filepath.Join(t.TempDir(), "out.mp4"), Width: 64, Height: 64, FPS: 30}
	e, err := NewEncoder(params, quiet)
	if err != nil {
		t.Fatalf("new encoder: %v", err)
	}
	defer e.Close()

	if got := e.cc.GopSize(); got != video.GOPSize {
		t.Errorf("expected gop %d, got %d", video.GOPSize, got)
	}
	if got := e.cc.MaxBFrames(); got != video.MaxBFrames {
		t.Errorf("expected %d b-frames, got %d", video.MaxBFrames, got)
	}
	if _, err := os.Stat(params.Path); !os.IsNotExist(err) {
		t.Errorf("construction should not create the file: %v", err)
	}
}

func TestBackgroundClip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mp4")
	params := video.Params{Path: path, Width: 64, Height: 64, FPS: 30}
	encode(t, params, 5, render.Background)

	res, err := Probe(path)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if res.Codec != "hevc" {
		t.Errorf("expected hevc, got %s", res.Codec)
	}
	if res.Width != 64 || res.Height != 64 {
		t.Errorf("expected 64x64, got %dx%d", res.Width, res.Height)
	}
	if res.Frames != 5 {
		t.Errorf("expected 5 decoded frames, got %d", res.Frames)
	}
	if math.Abs(res.Duration-5.0/30.0) > 1.0/30.0 {
		t.Errorf("expected duration near %.3fs, got %.3fs", 5.0/30.0, res.Duration)
	}
}

func TestClipDurationFromContainer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mp4")
	params := video.Params{Path: path, Width: 64, Height: 64, FPS: 60}
	encode(t, params, 12, render.Background)

	res, err := Probe(path)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if math.Abs(res.Duration-12.0/60.0) > 1.0/60.0 {
		t.Errorf("expected duration near %.3fs, got %.3fs", 12.0/60.0, res.Duration)
	}
}

func TestSolidColorRoundTrip(t *testing.T) {
	colors := [][4]uint8{
		{200, 40, 40, 255},
		{30, 180, 60, 255},
		{20, 60, 220, 255},
	}
	const tolerance = 12.0

	for _, c := range colors {
		path := filepath.Join(t.TempDir(), "solid.mp4")
		params := video.Params{Path: path, Width: 64, Height: 48, FPS: 25}
		encode(t, params, 10, c)

		res, err := Probe(path)
		if err != nil {
			t.Fatalf("probe: %v", err)
		}
		if res.Frames != 10 {
			t.Errorf("%v: expected 10 frames, got %d", c, res.Frames)
		}
		got := []float64{res.MeanR, res.MeanG, res.MeanB}
		for i, v := range got {
			if math.Abs(v-float64(c[i])) > tolerance {
				t.Errorf("%v: channel %d decoded as %.1f", c, i, v)
			}
		}
	}
}

func TestFinishWithoutFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.mp4")
	p, err := Create(video.Params{Path: path, Width: 32, Height: 32, FPS: 30}, quiet)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if err := p.Open(); err != nil {
		t.Fatal(err)
	}
	if err := p.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected output file: %v", err)
	}
}

func TestUnknownContainer(t *testing.T) {
	_, err := NewEncoder(video.Params{Path: filepath.Join(t.TempDir(), "out.nosuchformat"), Width: 32, Height: 32, FPS: 30}, quiet)
	if !errors.Is(err, video.ErrFormatUnknown) {
		t.Errorf("expected ErrFormatUnknown, got %v", err)
	}
}

func TestUnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "out.mp4")
	p, err := Create(video.Params{Path: path, Width: 32, Height: 32, FPS: 30}, quiet)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if err := p.Open(); !errors.Is(err, video.ErrFileOpen) {
		t.Errorf("expected ErrFileOpen, got %v", err)
	}
}
