package consonance

import (
	"math"

	"github.com/lixenwraith/sonify/timbre"
)

// Sensory roughness curve constants (Plomp-Levelt curve, Sethares parameterisation)
// These are tuned values; changing them changes every ranking
const (
	dStar = 0.24
	s1    = 0.0207
	s2    = 18.96
	b1    = 3.51
	b2    = 5.75
)

// Roughness is the dissonance contribution of two partials
// Frequency difference is scaled by the critical bandwidth at the lower partial
// and the result weighted by the smaller amplitude; equal frequencies give 0
func Roughness(f1, a1, f2, a2 float64) float64 {
	fmin := math.Min(f1, f2)
	s := dStar / (s1*fmin + s2)
	x := s * math.Abs(f2-f1)
	return math.Min(a1, a2) * (math.Exp(-b1*x) - math.Exp(-b2*x))
}

// Dissonance sums roughness over every partial pair across two tones
func Dissonance(tone, other []timbre.Partial) float64 {
	total := 0.0
	for _, p := range tone {
		for _, q := range other {
			total += Roughness(p.Frequency, p.Amplitude, q.Frequency, q.Amplitude)
		}
	}
	return total
}

// IntervalDissonance scores the interval base→base·2^(semitones/12) for a timbre
func IntervalDissonance(base, semitones, brightness float64, harmonics int) float64 {
	root := timbre.Partials(base, brightness, harmonics)
	upper := timbre.Partials(base*math.Pow(2, semitones/12), brightness, harmonics)
	return Dissonance(root, upper)
}
