package wave

import (
	"fmt"
	"math"

	"github.com/ktye/fft"

	"github.com/lixenwraith/sonify/constant"
	"github.com/lixenwraith/sonify/timbre"
)

// Waveform is a reusable single-period harmonic wavetable
// Real/Imag are Fourier coefficients (index = harmonic), Table is one period
// of samples in [-1, 1] built from them
type Waveform struct {
	Brightness float64
	Harmonics  int
	Real       []float64
	Imag       []float64
	Table      []float64
}

// Synthesize builds a waveform for brightness and harmonic count
// Coefficients follow the same 1/n² rolloff model used for consonance scoring
func Synthesize(brightness float64, harmonics int) (*Waveform, error) {
	harmonics = timbre.CapHarmonics(harmonics)

	re := make([]float64, harmonics+1)
	im := make([]float64, harmonics+1)
	for n := 1; n <= harmonics; n++ {
		im[n] = timbre.Amplitude(n, brightness)
	}

	table, err := buildTable(im, constant.WaveTableSize)
	if err != nil {
		return nil, err
	}

	return &Waveform{
		Brightness: brightness,
		Harmonics:  harmonics,
		Real:       re,
		Imag:       im,
		Table:      table,
	}, nil
}

// buildTable runs an inverse FFT over the sine-series spectrum and peak-normalises
func buildTable(imag []float64, size int) ([]float64, error) {
	if len(imag) >= size/2 {
		return nil, fmt.Errorf("wave: %d harmonics exceed table size %d", len(imag)-1, size)
	}

	transform, err := fft.New(size)
	if err != nil {
		return nil, fmt.Errorf("wave: fft init: %w", err)
	}

	// sin(nθ) = (e^{inθ} - e^{-inθ}) / 2i
	spectrum := make([]complex128, size)
	for n := 1; n < len(imag); n++ {
		spectrum[n] = complex(0, -imag[n]/2)
		spectrum[size-n] = complex(0, imag[n]/2)
	}
	samples := transform.Inverse(spectrum)

	table := make([]float64, size)
	peak := 0.0
	for i := range table {
		table[i] = real(samples[i])
		peak = math.Max(peak, math.Abs(table[i]))
	}
	if peak > 0 {
		for i := range table {
			table[i] /= peak
		}
	}
	return table, nil
}

// Sample reads the table at phase in [0, 1) with linear interpolation
func (w *Waveform) Sample(phase float64) float64 {
	n := len(w.Table)
	if n == 0 {
		return 0
	}
	pos := phase * float64(n)
	i := int(pos)
	frac := pos - float64(i)
	i %= n
	j := (i + 1) % n
	return w.Table[i] + (w.Table[j]-w.Table[i])*frac
}
