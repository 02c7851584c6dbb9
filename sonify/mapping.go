package sonify

import (
	"log"

	"github.com/lixenwraith/sonify/aesthetic"
	"github.com/lixenwraith/sonify/timbre"
)

// SoundParams pins the sound of one path
type SoundParams struct {
	Frequency float64         `json:"frequency,omitempty"` // Hz
	Waveform  timbre.Waveform `json:"waveform,omitempty"`
	Timbre    *timbre.Timbre  `json:"timbre,omitempty"`
	Duration  float64         `json:"duration,omitempty"` // ms
	Volume    *float64        `json:"volume,omitempty"`   // 0-1, multiplies the global volume
}

// soundOverride is SoundParams split into an aesthetic layer and synthesis settings
type soundOverride struct {
	layer     *aesthetic.Overrides
	frequency float64
	harmonics int
	volume    float64
}

var noOverride = soundOverride{volume: 1}

// translate maps SoundParams onto the pipeline; an explicit Timbre wins over Waveform
func (p SoundParams) translate() soundOverride {
	o := soundOverride{layer: &aesthetic.Overrides{}, volume: 1}

	if p.Waveform != "" {
		t, setsBrightness, ok := p.Waveform.Timbre()
		if !ok {
			log.Printf("[SONIFY] unknown waveform %q", p.Waveform)
		} else {
			o.harmonics = t.Harmonics
			if setsBrightness {
				o.layer.Brightness = aesthetic.Float(t.Brightness)
			}
		}
	}

	if p.Timbre != nil {
		o.layer.Brightness = aesthetic.Float(p.Timbre.Brightness)
		if p.Timbre.Harmonics > 0 {
			o.harmonics = p.Timbre.Harmonics
		}
	}

	if p.Duration > 0 {
		o.layer.Duration = aesthetic.Float(p.Duration / 1000)
	}
	if p.Volume != nil {
		o.volume = clamp01(*p.Volume)
	}
	if p.Frequency > 0 {
		o.frequency = p.Frequency
	}
	return o
}
