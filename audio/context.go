package audio

import (
	"context"

	"github.com/pkg/errors"

	"github.com/lixenwraith/sonify/wave"
)

// State is the lifecycle of an output context
type State int

const (
	StateSuspended State = iota
	StateRunning
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateSuspended:
		return "suspended"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Sentinel errors
var (
	ErrClosed            = errors.New("audio context closed")
	ErrUnknownSink       = errors.New("unknown audio sink")
	ErrInvalidConnection = errors.New("invalid node connection")
)

// Context is an audio output with its own monotonic clock
// Time only advances while the context is running
type Context interface {
	// CurrentTime returns the audio clock in seconds
	CurrentTime() float64
	State() State
	// Resume starts output, it may block until the device is ready
	Resume(ctx context.Context) error
	NewOscillator() Oscillator
	NewGain() Gain
	Destination() Node
	Close() error
}

// Factory creates an output context; a nil context with nil error means the
// host has no audio and playback becomes a no-op
type Factory func() (Context, error)

// Node is a graph element; each node feeds a single output
type Node interface {
	Connect(dst Node) error
}

// Param is an automatable value on the audio clock
type Param interface {
	SetValueAtTime(value, at float64)
	LinearRampToValueAtTime(value, at float64)
}

// Oscillator is a periodic tone source, sine until a waveform is set
type Oscillator interface {
	Node
	SetFrequency(hz float64)
	SetWaveform(w *wave.Waveform)
	Start(at float64) error
	Stop(at float64)
}

// Gain scales its input by an automated factor, initially 1
type Gain interface {
	Node
	Gain() Param
}
