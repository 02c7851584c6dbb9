package envelope

import (
	"math"

	"github.com/lixenwraith/sonify/constant"
)

// Envelope is an attack-decay-sustain-release gain shape, times in seconds
type Envelope struct {
	Attack  float64
	Decay   float64
	Sustain float64 // hold time at SustainLevel
	Release float64

	Peak         float64
	SustainLevel float64 // absolute gain, Peak scaled by valence
}

// Total returns the envelope length from onset to silence
func (e Envelope) Total() float64 {
	return e.Attack + e.Decay + e.Sustain + e.Release
}

// Point is one gain automation step; Ramp means linear approach from the previous point
type Point struct {
	Time  float64
	Value float64
	Ramp  bool
}

// Points lays the envelope onto the audio timeline starting at onset
func (e Envelope) Points(onset float64) []Point {
	attackEnd := onset + e.Attack
	decayEnd := attackEnd + e.Decay
	sustainEnd := decayEnd + e.Sustain
	releaseEnd := sustainEnd + e.Release

	return []Point{
		{Time: onset, Value: 0},
		{Time: attackEnd, Value: e.Peak, Ramp: true},
		{Time: decayEnd, Value: e.SustainLevel, Ramp: true},
		{Time: sustainEnd, Value: e.SustainLevel, Ramp: true},
		{Time: releaseEnd, Value: 0, Ramp: true},
	}
}

// ValueAt evaluates the envelope at t seconds after onset
func (e Envelope) ValueAt(t float64) float64 {
	switch {
	case t < 0:
		return 0
	case t < e.Attack:
		return e.Peak * t / e.Attack
	case t < e.Attack+e.Decay:
		frac := (t - e.Attack) / e.Decay
		return e.Peak + (e.SustainLevel-e.Peak)*frac
	case t < e.Attack+e.Decay+e.Sustain:
		return e.SustainLevel
	case t < e.Total():
		frac := (t - e.Attack - e.Decay - e.Sustain) / e.Release
		return e.SustainLevel * (1 - frac)
	}
	return 0
}

// Shape derives the envelope for a cue of the given duration
// High arousal shortens the edges; high valence lifts the sustain level
func Shape(duration, arousal, valence, peak float64) Envelope {
	slack := 1 - arousal
	e := Envelope{
		Attack:  constant.EnvAttackMin + constant.EnvAttackSpan*slack,
		Decay:   constant.EnvDecayMin + constant.EnvDecaySpan*slack,
		Release: constant.EnvReleaseMin + constant.EnvReleaseSpan*slack,
		Peak:    peak,
	}
	e.SustainLevel = peak * (constant.EnvSustainFloor + constant.EnvSustainSpan*valence)
	e.Sustain = math.Max(0, duration-e.Attack-e.Decay-e.Release)
	return e
}
