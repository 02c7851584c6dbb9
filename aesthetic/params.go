package aesthetic

// Params are the perceptual parameters a cue is rendered from
// Bounded fields live in [0,1] once resolved; BaseMidi is a MIDI note number
// and Duration is in seconds with 0 meaning "use the engine default"
type Params struct {
	Pleasantness float64
	Brightness   float64
	Arousal      float64
	Valence      float64
	Simultaneity float64
	BaseMidi     float64
	Duration     float64
}

// Overrides is one layer of the resolution stack, nil fields leave the value alone
type Overrides struct {
	Pleasantness *float64 `json:"pleasantness,omitempty"`
	Brightness   *float64 `json:"brightness,omitempty"`
	Arousal      *float64 `json:"arousal,omitempty"`
	Valence      *float64 `json:"valence,omitempty"`
	Simultaneity *float64 `json:"simultaneity,omitempty"`
	BaseMidi     *float64 `json:"baseMidi,omitempty"`
	Duration     *float64 `json:"duration,omitempty"`
}

// Float returns a pointer for building Overrides literals
func Float(v float64) *float64 {
	return &v
}

// Apply overwrites only the fields the layer defines
func (o *Overrides) Apply(p Params) Params {
	if o == nil {
		return p
	}
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.Pleasantness, o.Pleasantness)
	set(&p.Brightness, o.Brightness)
	set(&p.Arousal, o.Arousal)
	set(&p.Valence, o.Valence)
	set(&p.Simultaneity, o.Simultaneity)
	set(&p.BaseMidi, o.BaseMidi)
	set(&p.Duration, o.Duration)
	return p
}

// Merge returns a layer where fields of next win over o
func (o *Overrides) Merge(next *Overrides) *Overrides {
	if o == nil {
		return next
	}
	if next == nil {
		return o
	}
	merged := *o
	pick := func(dst **float64, src *float64) {
		if src != nil {
			*dst = src
		}
	}
	pick(&merged.Pleasantness, next.Pleasantness)
	pick(&merged.Brightness, next.Brightness)
	pick(&merged.Arousal, next.Arousal)
	pick(&merged.Valence, next.Valence)
	pick(&merged.Simultaneity, next.Simultaneity)
	pick(&merged.BaseMidi, next.BaseMidi)
	pick(&merged.Duration, next.Duration)
	return &merged
}

// Clamped bounds the [0,1] fields and keeps Duration non-negative
func (p Params) Clamped() Params {
	p.Pleasantness = clamp01(p.Pleasantness)
	p.Brightness = clamp01(p.Brightness)
	p.Arousal = clamp01(p.Arousal)
	p.Valence = clamp01(p.Valence)
	p.Simultaneity = clamp01(p.Simultaneity)
	if !(p.Duration > 0) {
		p.Duration = 0
	}
	return p
}

func clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
