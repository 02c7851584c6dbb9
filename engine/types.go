package engine

import (
	"github.com/pkg/errors"

	"github.com/lixenwraith/sonify/aesthetic"
	"github.com/lixenwraith/sonify/consonance"
	"github.com/lixenwraith/sonify/envelope"
)

// Sentinel errors
var (
	ErrResume      = errors.New("audio resume failed")
	ErrNotRetained = errors.New("engine not retained")
)

// resumeError keeps the device cause while matching ErrResume
type resumeError struct {
	cause error
}

func (e *resumeError) Error() string {
	return "audio resume failed: " + e.cause.Error()
}

func (e *resumeError) Is(target error) bool {
	return target == ErrResume
}

func (e *resumeError) Unwrap() error {
	return e.cause
}

// Cue is one resolved change ready to render
type Cue struct {
	Params aesthetic.Params

	// Frequency overrides the root pitch in Hz, 0 derives it from Params.BaseMidi
	Frequency float64
	// Harmonics is the timbre harmonic count, 0 uses the default
	Harmonics int
	// Volume is the peak gain, global volume times per-path volume
	Volume float64
	// Offset delays the onset past the current audio time, in seconds
	Offset float64

	PerformanceMode bool

	// OnError receives failures raised after Play returned, inside the scheduled render
	OnError func(error)
}

// Rendering describes what Play scheduled
type Rendering struct {
	Skipped bool // no audio context on this host

	Start      float64
	Duration   float64
	RootHz     float64
	IntervalHz float64
	Semitones  float64
	Brightness float64
	Harmonics  int
	Ranking    consonance.Ranking
	Dyad       envelope.Dyad
}
