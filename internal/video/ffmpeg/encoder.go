// Package ffmpeg implements video.Backend on top of libavformat, libavcodec
// and libswscale.
package ffmpeg

import (
	"errors"
	"fmt"
	"os"

	"github.com/asticode/go-astiav"
	"github.com/charmbracelet/log"

	"github.com/san-kum/molvid/internal/video"
)

// Encoder writes one HEVC stream into a container picked from the output
// file name. It owns every native object and frees them in Close.
type Encoder struct {
	params video.Params
	logger *log.Logger

	codec  *astiav.Codec
	fc     *astiav.FormatContext
	cc     *astiav.CodecContext
	stream *astiav.Stream
	pb     *astiav.IOContext
	src    *astiav.Frame
	dst    *astiav.Frame
	ssc    *astiav.SoftwareScaleContext
	pkt    *astiav.Packet

	header bool
	closed bool
}

// NewEncoder binds the HEVC encoder to a new output context. No file is
// created until Open.
func NewEncoder(params video.Params, logger *log.Logger) (*Encoder, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	if params.Verbose {
		astiav.SetLogLevel(astiav.LogLevelInfo)
	} else {
		astiav.SetLogLevel(astiav.LogLevelError)
	}

	e := &Encoder{params: params, logger: logger}

	fc, err := astiav.AllocOutputFormatContext(nil, "", params.Path)
	if err != nil || fc == nil {
		return nil, fmt.Errorf("%w: %s", video.ErrFormatUnknown, params.Path)
	}
	e.fc = fc

	e.codec = astiav.FindEncoder(astiav.CodecIDHevc)
	if e.codec == nil {
		e.Close()
		return nil, fmt.Errorf("%w: hevc", video.ErrCodecUnavailable)
	}

	if e.stream = fc.NewStream(nil); e.stream == nil {
		e.Close()
		return nil, fmt.Errorf("%w: stream", video.ErrAlloc)
	}
	if e.cc = astiav.AllocCodecContext(e.codec); e.cc == nil {
		e.Close()
		return nil, fmt.Errorf("%w: codec context", video.ErrAlloc)
	}
	if e.pkt = astiav.AllocPacket(); e.pkt == nil {
		e.Close()
		return nil, fmt.Errorf("%w: packet", video.ErrAlloc)
	}

	timeBase := astiav.NewRational(1, video.TicksPerSecond)
	e.cc.SetWidth(params.Width)
	e.cc.SetHeight(params.Height)
	e.cc.SetPixelFormat(astiav.PixelFormatYuv420P)
	e.cc.SetBitRate(video.BitRate)
	e.cc.SetTimeBase(timeBase)
	e.cc.SetFramerate(astiav.NewRational(params.FPS, 1))
	e.cc.SetGopSize(video.GOPSize)
	e.cc.SetMaxBFrames(video.MaxBFrames)
	if fc.OutputFormat().Flags().Has(astiav.IOFormatFlagGlobalheader) {
		e.cc.SetFlags(e.cc.Flags().Add(astiav.CodecContextFlagGlobalHeader))
	}
	e.stream.SetTimeBase(timeBase)

	return e, nil
}

// Create builds an Encoder and wraps it in a Pipeline.
func Create(params video.Params, logger *log.Logger) (*video.Pipeline, error) {
	e, err := NewEncoder(params, logger)
	if err != nil {
		return nil, &video.StageError{Stage: video.StageConstruct, Err: err}
	}
	return video.NewPipeline(e, params, video.WithLogger(e.logger))
}

func (e *Encoder) Name() string { return "libav/" + e.codec.Name() }

func (e *Encoder) Open() error {
	opts := astiav.NewDictionary()
	defer opts.Free()
	if err := opts.Set("preset", video.Preset, astiav.NewDictionaryFlags()); err != nil {
		return fmt.Errorf("%w: preset: %w", video.ErrCodecOpen, err)
	}
	if err := e.cc.Open(e.codec, opts); err != nil {
		return fmt.Errorf("%w: %w", video.ErrCodecOpen, err)
	}
	if err := e.stream.CodecParameters().FromCodecContext(e.cc); err != nil {
		return fmt.Errorf("%w: codec parameters: %w", video.ErrCodecOpen, err)
	}

	if !e.fc.OutputFormat().Flags().Has(astiav.IOFormatFlagNofile) {
		pb, err := astiav.OpenIOContext(e.params.Path, astiav.NewIOContextFlags(astiav.IOContextFlagWrite), nil, nil)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", video.ErrFileOpen, e.params.Path, err)
		}
		e.pb = pb
		e.fc.SetPb(pb)
	}

	if err := e.fc.WriteHeader(nil); err != nil {
		e.discard()
		return fmt.Errorf("%w: %w", video.ErrHeader, err)
	}
	e.header = true

	if e.params.Verbose {
		e.fc.Dump(0, e.params.Path, true)
	}
	return nil
}

// discard drops a file whose header could not be written.
func (e *Encoder) discard() {
	if e.pb != nil {
		e.pb.Close()
		e.pb = nil
	}
	if err := os.Remove(e.params.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		e.logger.Warn("cannot remove partial output", "path", e.params.Path, "err", err)
	}
}

func (e *Encoder) Prepare() error {
	w, h := e.params.Width, e.params.Height

	if e.src = astiav.AllocFrame(); e.src == nil {
		return fmt.Errorf("%w: source frame", video.ErrAlloc)
	}
	e.src.SetWidth(w)
	e.src.SetHeight(h)
	e.src.SetPixelFormat(astiav.PixelFormatRgba)
	if err := e.src.AllocBuffer(1); err != nil {
		return fmt.Errorf("%w: source buffer: %w", video.ErrAlloc, err)
	}

	if e.dst = astiav.AllocFrame(); e.dst == nil {
		return fmt.Errorf("%w: output frame", video.ErrAlloc)
	}
	e.dst.SetWidth(w)
	e.dst.SetHeight(h)
	e.dst.SetPixelFormat(astiav.PixelFormatYuv420P)
	if err := e.dst.AllocBuffer(0); err != nil {
		return fmt.Errorf("%w: output buffer: %w", video.ErrAlloc, err)
	}

	ssc, err := astiav.CreateSoftwareScaleContext(
		w, h, astiav.PixelFormatRgba,
		w, h, astiav.PixelFormatYuv420P,
		astiav.NewSoftwareScaleContextFlags(astiav.SoftwareScaleContextFlagBicubic),
	)
	if err != nil {
		return fmt.Errorf("%w: scale context: %w", video.ErrAlloc, err)
	}
	e.ssc = ssc
	return nil
}

func (e *Encoder) Encode(rgba []byte, pts int64) (int, error) {
	if err := e.src.Data().SetBytes(rgba, 1); err != nil {
		return 0, fmt.Errorf("%w: %w", video.ErrConvert, err)
	}
	// The encoder may still reference the previous picture.
	if err := e.dst.MakeWritable(); err != nil {
		return 0, fmt.Errorf("%w: %w", video.ErrAlloc, err)
	}
	if err := e.ssc.ScaleFrame(e.src, e.dst); err != nil {
		return 0, fmt.Errorf("%w: %w", video.ErrConvert, err)
	}
	e.dst.SetPts(pts)

	if err := e.cc.SendFrame(e.dst); err != nil {
		return 0, fmt.Errorf("%w: pts %d: %w", video.ErrSendFrame, pts, err)
	}
	return e.drain()
}

// drain muxes every packet the encoder has ready.
func (e *Encoder) drain() (int, error) {
	n := 0
	for {
		if err := e.cc.ReceivePacket(e.pkt); err != nil {
			if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
				return n, nil
			}
			return n, fmt.Errorf("%w: %w", video.ErrReceive, err)
		}

		// The muxer may have replaced the stream time base in WriteHeader.
		e.pkt.RescaleTs(e.cc.TimeBase(), e.stream.TimeBase())
		e.pkt.SetStreamIndex(e.stream.Index())
		err := e.fc.WriteInterleavedFrame(e.pkt)
		e.pkt.Unref()
		if err != nil {
			return n, fmt.Errorf("%w: %w", video.ErrMux, err)
		}
		n++
	}
}

func (e *Encoder) Flush() (int, error) {
	if err := e.cc.SendFrame(nil); err != nil {
		return 0, fmt.Errorf("%w: end of stream: %w", video.ErrSendFrame, err)
	}
	n, err := e.drain()
	if err != nil {
		return n, err
	}

	if err := e.fc.WriteTrailer(); err != nil {
		return n, fmt.Errorf("%w: %w", video.ErrTrailer, err)
	}
	if e.pb != nil {
		err := e.pb.Close()
		e.pb = nil
		if err != nil {
			return n, fmt.Errorf("%w: %w", video.ErrFileClose, err)
		}
	}
	return n, nil
}

// Close frees frames, codec context, format context, scale context and
// packet, in that order. An output left open by a failed run is closed but
// not finalized.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	var err error
	if e.pb != nil {
		if e.header {
			e.logger.Warn("output closed without trailer", "path", e.params.Path)
		}
		if cerr := e.pb.Close(); cerr != nil {
			err = fmt.Errorf("%w: %w", video.ErrFileClose, cerr)
		}
		e.pb = nil
	}
	if e.dst != nil {
		e.dst.Free()
	}
	if e.src != nil {
		e.src.Free()
	}
	if e.cc != nil {
		e.cc.Free()
	}
	if e.fc != nil {
		e.fc.Free()
	}
	if e.ssc != nil {
		e.ssc.Free()
	}
	if e.pkt != nil {
		e.pkt.Free()
	}
	return err
}
