package timbre

import "math"

// MaxHarmonics bounds partial series length for both scoring and synthesis
const MaxHarmonics = 32

// RolloffDBPerOctave is the attenuation slope at brightness 0
const RolloffDBPerOctave = 24.0

// Partial is one component of a harmonic series
type Partial struct {
	Frequency float64
	Amplitude float64
}

// CapHarmonics clamps a harmonic count to [1, MaxHarmonics]
func CapHarmonics(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxHarmonics {
		return MaxHarmonics
	}
	return n
}

// Rolloff is the brightness-controlled attenuation factor for harmonic n
// (1-brightness)*24 dB per octave above the fundamental
func Rolloff(n int, brightness float64) float64 {
	if n <= 1 {
		return 1
	}
	db := (1 - clamp01(brightness)) * RolloffDBPerOctave * math.Log2(float64(n))
	return math.Pow(10, -db/20)
}

// Amplitude of harmonic n: 1/n² scaled by the rolloff
func Amplitude(n int, brightness float64) float64 {
	return Rolloff(n, brightness) / float64(n*n)
}

// Partials builds the harmonic series of a tone, count is capped first
func Partials(fundamental, brightness float64, count int) []Partial {
	count = CapHarmonics(count)
	partials := make([]Partial, count)
	for i := range partials {
		n := i + 1
		partials[i] = Partial{
			Frequency: fundamental * float64(n),
			Amplitude: Amplitude(n, brightness),
		}
	}
	return partials
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
