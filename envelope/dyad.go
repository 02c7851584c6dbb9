package envelope

import (
	"github.com/lixenwraith/sonify/constant"
)

// PlanInput carries resolved cue parameters; Start and Duration are audio-clock seconds
type PlanInput struct {
	Start        float64
	Duration     float64
	Arousal      float64
	Valence      float64
	Simultaneity float64
	Volume       float64 // peak gain, global volume times per-path volume
	RootHz       float64
	IntervalHz   float64
}

// Voice is one oscillator of a dyad
type Voice struct {
	Frequency float64
	Start     float64
	Stop      float64
	Envelope  Envelope
}

// Points returns the voice gain automation
func (v Voice) Points() []Point {
	return v.Envelope.Points(v.Start)
}

// Dyad is the root and interval tone of one rendered cue
type Dyad struct {
	Root     Voice
	Interval Voice
}

// End returns when the last voice falls silent
func (d Dyad) End() float64 {
	if d.Interval.Stop > d.Root.Stop {
		return d.Interval.Stop
	}
	return d.Root.Stop
}

// Spread returns the onset gap of the interval voice
func Spread(duration, simultaneity float64) float64 {
	return (1 - simultaneity) * duration * constant.EnvMaxSpread
}

// Plan turns resolved parameters into concrete voice timings
func Plan(in PlanInput) Dyad {
	env := Shape(in.Duration, in.Arousal, in.Valence, in.Volume)
	total := env.Total()

	secondOnset := in.Start + Spread(in.Duration, in.Simultaneity)

	return Dyad{
		Root: Voice{
			Frequency: in.RootHz,
			Start:     in.Start,
			Stop:      in.Start + total,
			Envelope:  env,
		},
		Interval: Voice{
			Frequency: in.IntervalHz,
			Start:     secondOnset,
			Stop:      secondOnset + total,
			Envelope:  env,
		},
	}
}
