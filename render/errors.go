package render

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrNoSuitableDevice is returned when no physical device can render to the
// surface.
var ErrNoSuitableDevice = errors.New("render: failed to find a suitable GPU")

// ErrShutdown is returned by DrawFrame after Shutdown.
var ErrShutdown = errors.New("render: renderer is shut down")

// State is a step of the per-frame state machine.
type State int

const (
	StateIdle State = iota
	StateWaiting
	StateAcquiring
	StateRecording
	StateSubmitting
	StatePresenting
	StateRecreating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaiting:
		return "waiting"
	case StateAcquiring:
		return "acquiring"
	case StateRecording:
		return "recording"
	case StateSubmitting:
		return "submitting"
	case StatePresenting:
		return "presenting"
	case StateRecreating:
		return "recreating"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// FrameError is a fatal driver error raised while drawing a frame. The
// renderer is left in a state where only Shutdown is meaningful.
type FrameError struct {
	Stage State
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("draw frame: %s: %v", e.Stage, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}
