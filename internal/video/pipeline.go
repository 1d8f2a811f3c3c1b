package video

import (
	"fmt"

	"github.com/charmbracelet/log"
)

// State is the lifecycle position of a Pipeline.
type State int

const (
	Constructed State = iota
	Opened
	Writing
	Finished
	Closed
	Failed
)

func (s State) String() string {
	switch s {
	case Constructed:
		return "constructed"
	case Opened:
		return "opened"
	case Writing:
		return "writing"
	case Finished:
		return "finished"
	case Closed:
		return "closed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Stats summarizes what a pipeline has produced so far.
type Stats struct {
	Frames  int64
	Packets int
	LastPTS int64
	State   State
}

// Pipeline sequences RGBA frames into a Backend:
// Constructed -> Opened -> Writing... -> Finished. Every error is fatal; after
// one the pipeline only accepts Close.
//
// A Pipeline is not safe for concurrent use.
type Pipeline struct {
	backend Backend
	params  Params
	state   State
	clock   Clock
	packets int
	lastPTS int64
	logger  *log.Logger
}

type Option func(*Pipeline)

func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline wraps a constructed backend. The backend is closed if params
// are rejected.
func NewPipeline(b Backend, params Params, opts ...Option) (*Pipeline, error) {
	if err := params.Validate(); err != nil {
		b.Close()
		return nil, &StageError{Stage: StageConstruct, Err: err}
	}
	p := &Pipeline{
		backend: b,
		params:  params,
		state:   Constructed,
		clock:   NewClock(params.TicksPerFrame()),
		lastPTS: -1,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Pipeline) State() State   { return p.state }
func (p *Pipeline) Params() Params { return p.params }

func (p *Pipeline) Stats() Stats {
	return Stats{Frames: p.clock.Frames(), Packets: p.packets, LastPTS: p.lastPTS, State: p.state}
}

// Open opens the codec and the output file and writes the header.
func (p *Pipeline) Open() error {
	if p.state != Constructed {
		return &StageError{Stage: StageOpen, Err: p.misuse()}
	}
	if err := p.backend.Open(); err != nil {
		return p.fail(StageOpen, err)
	}
	p.state = Opened
	p.logger.Info("encoder opened", "path", p.params.Path, "backend", p.backend.Name(),
		"size", fmt.Sprintf("%dx%d", p.params.Width, p.params.Height), "fps", p.params.FPS)
	return nil
}

// Write encodes one RGBA frame of exactly Width*Height*4 bytes.
//
// The first Write performs the Opened -> Writing transition, which allocates
// the reusable frame and conversion context exactly once.
func (p *Pipeline) Write(rgba []byte) error {
	frame := p.clock.Frames()
	switch p.state {
	case Opened:
		if err := p.backend.Prepare(); err != nil {
			return p.failFrame(StagePrepare, frame, err)
		}
		p.state = Writing
		p.logger.Debug("conversion context ready", "from", "rgba", "to", "yuv420p")
	case Writing:
	default:
		return &StageError{Stage: StageWrite, Frame: frame, Err: p.misuse()}
	}

	if len(rgba) != p.params.FrameSize() {
		return p.failFrame(StageWrite, frame, fmt.Errorf("%w: got %d bytes, want %d", ErrFrameSize, len(rgba), p.params.FrameSize()))
	}

	pts := p.clock.Next()
	n, err := p.backend.Encode(rgba, pts)
	if err != nil {
		return p.failFrame(StageWrite, frame, err)
	}
	p.packets += n
	p.lastPTS = pts
	p.logger.Debug("frame written", "frame", frame, "pts", pts, "packets", n)
	return nil
}

// Finish drains the encoder, writes the trailer and closes the file. It must
// be called once, after the last Write.
func (p *Pipeline) Finish() error {
	if p.state != Opened && p.state != Writing {
		return &StageError{Stage: StageFinish, Err: p.misuse()}
	}
	n, err := p.backend.Flush()
	p.packets += n
	if err != nil {
		return p.fail(StageFinish, err)
	}
	p.state = Finished
	p.logger.Info("encoder finished", "path", p.params.Path, "frames", p.clock.Frames(), "packets", p.packets)
	return nil
}

// Close releases the backend. It is safe in any state and idempotent, so
// callers defer it right after construction.
func (p *Pipeline) Close() error {
	if p.state == Closed {
		return nil
	}
	p.state = Closed
	if err := p.backend.Close(); err != nil {
		return &StageError{Stage: StageClose, Err: err}
	}
	return nil
}

func (p *Pipeline) misuse() error {
	switch p.state {
	case Constructed:
		return ErrNotOpen
	case Finished, Closed:
		return ErrFinished
	case Failed:
		return ErrFailed
	}
	return fmt.Errorf("%w: %s", ErrState, p.state)
}

func (p *Pipeline) fail(stage Stage, err error) error {
	return p.failFrame(stage, p.clock.Frames(), err)
}

func (p *Pipeline) failFrame(stage Stage, frame int64, err error) error {
	p.state = Failed
	p.logger.Error("encoder failed", "stage", stage, "frame", frame, "err", err)
	return &StageError{Stage: stage, Frame: frame, Err: err}
}
