package ffmpeg

import (
	"errors"
	"fmt"
	"image"

	"github.com/asticode/go-astiav"
)

// ProbeResult describes the first video stream of a file, measured by
// decoding every frame.
type ProbeResult struct {
	Path      string
	Container string
	Codec     string
	Width     int
	Height    int
	Frames    int
	FrameRate float64
	Duration  float64 // seconds, as muxed

	// Mean color over every decoded pixel, 0-255.
	MeanR, MeanG, MeanB float64
}

var errNoVideo = errors.New("ffmpeg: no video stream")

// Probe demuxes and decodes path.
func Probe(path string) (*ProbeResult, error) {
	fc := astiav.AllocFormatContext()
	if fc == nil {
		return nil, errors.New("ffmpeg: cannot allocate format context")
	}
	defer fc.Free()

	if err := fc.OpenInput(path, nil, nil); err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fc.CloseInput()

	if err := fc.FindStreamInfo(nil); err != nil {
		return nil, fmt.Errorf("stream info: %w", err)
	}

	var stream *astiav.Stream
	for _, s := range fc.Streams() {
		if s.CodecParameters().MediaType() == astiav.MediaTypeVideo {
			stream = s
			break
		}
	}
	if stream == nil {
		return nil, errNoVideo
	}

	codec := astiav.FindDecoder(stream.CodecParameters().CodecID())
	if codec == nil {
		return nil, fmt.Errorf("no decoder for %v", stream.CodecParameters().CodecID())
	}
	dcc := astiav.AllocCodecContext(codec)
	if dcc == nil {
		return nil, errors.New("ffmpeg: cannot allocate decoder context")
	}
	defer dcc.Free()

	if err := stream.CodecParameters().ToCodecContext(dcc); err != nil {
		return nil, fmt.Errorf("decoder parameters: %w", err)
	}
	if err := dcc.Open(codec, nil); err != nil {
		return nil, fmt.Errorf("open decoder: %w", err)
	}

	res := &ProbeResult{
		Path:      path,
		Container: fc.InputFormat().Name(),
		Codec:     codec.Name(),
		Width:     stream.CodecParameters().Width(),
		Height:    stream.CodecParameters().Height(),
		FrameRate: stream.AvgFrameRate().Float64(),
	}

	pkt := astiav.AllocPacket()
	defer pkt.Free()
	frame := astiav.AllocFrame()
	defer frame.Free()

	var acc colorSum
	for {
		if err := fc.ReadFrame(pkt); err != nil {
			if errors.Is(err, astiav.ErrEof) {
				break
			}
			return nil, fmt.Errorf("read packet: %w", err)
		}
		if pkt.StreamIndex() != stream.Index() {
			pkt.Unref()
			continue
		}
		err := dcc.SendPacket(pkt)
		pkt.Unref()
		if err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		if err := receiveAll(dcc, frame, &acc, res); err != nil {
			return nil, err
		}
	}

	if err := dcc.SendPacket(nil); err != nil {
		return nil, fmt.Errorf("flush decoder: %w", err)
	}
	if err := receiveAll(dcc, frame, &acc, res); err != nil {
		return nil, err
	}

	res.MeanR, res.MeanG, res.MeanB = acc.mean()
	// AV_TIME_BASE units
	res.Duration = float64(fc.Duration()) / 1e6
	return res, nil
}

func receiveAll(dcc *astiav.CodecContext, frame *astiav.Frame, acc *colorSum, res *ProbeResult) error {
	for {
		if err := dcc.ReceiveFrame(frame); err != nil {
			if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
				return nil
			}
			return fmt.Errorf("receive frame: %w", err)
		}

		img, err := frame.Data().GuessImageFormat()
		if err == nil {
			err = frame.Data().ToImage(img)
		}
		frame.Unref()
		if err != nil {
			return fmt.Errorf("frame %d to image: %w", res.Frames, err)
		}
		acc.add(img)
		res.Frames++
	}
}

type colorSum struct {
	r, g, b float64
	n       float64
}

func (c *colorSum) add(img image.Image) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			c.r += float64(r >> 8)
			c.g += float64(g >> 8)
			c.b += float64(b >> 8)
			c.n++
		}
	}
}

func (c *colorSum) mean() (float64, float64, float64) {
	if c.n == 0 {
		return 0, 0, 0
	}
	return c.r / c.n, c.g / c.n, c.b / c.n
}
