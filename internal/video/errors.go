package video

import (
	"errors"
	"fmt"
)

// Lifecycle errors.
var (
	// ErrNotOpen indicates Write or Finish before Open.
	ErrNotOpen = errors.New("video: pipeline not opened")

	// ErrFinished indicates use after Finish or Close.
	ErrFinished = errors.New("video: pipeline already finished")

	// ErrState indicates any other out-of-order call, such as opening twice.
	ErrState = errors.New("video: invalid pipeline state")

	// ErrFailed indicates use after an earlier fatal error.
	ErrFailed = errors.New("video: pipeline failed earlier")

	// ErrFrameSize indicates an RGBA buffer that is not width*height*4 bytes.
	ErrFrameSize = errors.New("video: frame buffer size mismatch")

	// ErrInvalidParams indicates construction parameters the encoder cannot take.
	ErrInvalidParams = errors.New("video: invalid parameters")
)

// Setup errors, raised at construction.
var (
	ErrFormatUnknown    = errors.New("video: cannot guess output format")
	ErrCodecUnavailable = errors.New("video: codec unavailable")
	ErrAlloc            = errors.New("video: allocation failed")
)

// Open errors.
var (
	ErrCodecOpen = errors.New("video: cannot open codec")
	ErrFileOpen  = errors.New("video: cannot open output file")
	ErrHeader    = errors.New("video: cannot write header")
)

// Runtime errors.
var (
	ErrConvert   = errors.New("video: pixel conversion failed")
	ErrSendFrame = errors.New("video: encoder rejected frame")
	ErrReceive   = errors.New("video: encoder failed to produce packet")
	ErrMux       = errors.New("video: cannot write packet")
)

// Teardown errors.
var (
	ErrTrailer   = errors.New("video: cannot write trailer")
	ErrFileClose = errors.New("video: cannot close output file")
)

// Stage names a pipeline operation.
type Stage string

const (
	StageConstruct Stage = "construct"
	StageOpen      Stage = "open"
	StagePrepare   Stage = "prepare"
	StageWrite     Stage = "write"
	StageFinish    Stage = "finish"
	StageClose     Stage = "close"
)

// StageError wraps an error with the stage and frame it happened at.
type StageError struct {
	Stage Stage
	Frame int64
	Err   error
}

func (e *StageError) Error() string {
	if e.Stage == StageWrite || e.Stage == StagePrepare {
		return fmt.Sprintf("%s frame %d: %v", e.Stage, e.Frame, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
