package timbre

// Timbre is the continuous synthesis description used by the wave synthesizer
type Timbre struct {
	Brightness float64 `json:"brightness"`
	Harmonics  int     `json:"numHarmonics,omitempty"`
}

// Waveform is a named classic oscillator shape
type Waveform string

const (
	Sine     Waveform = "sine"
	Triangle Waveform = "triangle"
	Square   Waveform = "square"
	Sawtooth Waveform = "sawtooth"
)

// waveformTimbres maps discrete shapes onto (brightness, harmonics)
// Sine keeps whatever brightness is already resolved, so it carries no brightness here
var waveformTimbres = map[Waveform]Timbre{
	Triangle: {Brightness: 0.35, Harmonics: 9},
	Square:   {Brightness: 0.5, Harmonics: 11},
	Sawtooth: {Brightness: 0.85, Harmonics: 13},
}

// Timbre translates the waveform, ok is false for unknown names
// setsBrightness is false for sine, which only pins the harmonic count
func (w Waveform) Timbre() (t Timbre, setsBrightness bool, ok bool) {
	if w == Sine {
		return Timbre{Harmonics: 1}, false, true
	}
	t, ok = waveformTimbres[w]
	return t, ok, ok
}
