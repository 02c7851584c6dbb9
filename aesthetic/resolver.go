package aesthetic

import (
	"math"
	"reflect"
	"unicode/utf16"

	"github.com/lixenwraith/sonify/change"
)

// Baseline per value type, before operation and value-aware shaping
var typeBaseline = map[change.ValueType]Params{
	change.Boolean: {Pleasantness: 0.6, Brightness: 0.2, Arousal: 0.8, Valence: 0.5, Simultaneity: 1, BaseMidi: 67},
	change.Number:  {Pleasantness: 0.6, Brightness: 0.5, Arousal: 0.5, Valence: 0.5, Simultaneity: 1, BaseMidi: 60},
	change.String:  {Pleasantness: 0.6, Brightness: 0.8, Arousal: 0.4, Valence: 0.7, Simultaneity: 1, BaseMidi: 72},
	change.Object:  {Pleasantness: 0.6, Brightness: 0.5, Arousal: 0.5, Valence: 0.5, Simultaneity: 0.5, BaseMidi: 76},
	change.Array:   {Pleasantness: 0.6, Brightness: 0.5, Arousal: 0.5, Valence: 0.5, Simultaneity: 0.5, BaseMidi: 76},
}

// Operation shaping
const (
	addPitch        = 5.0
	addPleasantness = 0.2
	addValence      = 0.2

	removePitch        = -5.0
	removePleasantness = -0.3
	removeValence      = -0.3
	removeArousal      = 0.2
)

// Value-aware shaping
const (
	numericPitchSpan    = 7.0
	numericDurationBase = 0.1
	numericDurationSpan = 0.25

	arrayArousalSpan  = 0.3
	arrayDurationBase = 0.12
	arrayDurationSpan = 0.2

	boolPitchShift = 2.0
	boolDuration   = 0.06 // percussive
)

// Resolve layers baseline → each override in order, then clamps bounded fields
// Clamping happens only here so intermediate layers may push values out of range
func Resolve(c change.Change, layers ...*Overrides) Params {
	p := Baseline(c)
	for _, layer := range layers {
		p = layer.Apply(p)
	}
	return p.Clamped()
}

// Baseline derives unclamped parameters from the change alone
func Baseline(c change.Change) Params {
	p, ok := typeBaseline[c.ValueType]
	if !ok {
		p = typeBaseline[change.Object]
	}

	switch c.Op {
	case change.Add:
		p.BaseMidi += addPitch
		p.Pleasantness += addPleasantness
		p.Valence += addValence
	case change.Remove:
		p.BaseMidi += removePitch
		p.Pleasantness += removePleasantness
		p.Valence += removeValence
		p.Arousal += removeArousal
	case change.Update:
		refine(&p, c)
	}

	p.BaseMidi += PathOffset(c.Path)
	return p
}

// refine scales pitch, arousal and duration with the size of the update
func refine(p *Params, c change.Change) {
	if oldN, ok := number(c.OldValue); ok {
		if newN, ok := number(c.NewValue); ok {
			delta := newN - oldN
			rel := math.Min(math.Abs(delta)/(math.Abs(oldN)+1), 1)
			if math.IsNaN(rel) {
				rel = 1
			}
			sign := 1.0
			if delta < 0 {
				sign = -1
			}
			p.BaseMidi += sign * rel * numericPitchSpan
			p.Duration = numericDurationBase + rel*numericDurationSpan
			return
		}
	}

	if oldLen, ok := length(c.OldValue); ok {
		if newLen, ok := length(c.NewValue); ok {
			rel := math.Min(math.Abs(float64(newLen-oldLen))/float64(oldLen+1), 1)
			p.Arousal += rel * arrayArousalSpan
			p.Duration = arrayDurationBase + rel*arrayDurationSpan
			return
		}
	}

	if b, ok := c.NewValue.(bool); ok {
		if b {
			p.BaseMidi += boolPitchShift
		} else {
			p.BaseMidi -= boolPitchShift
		}
		p.Duration = boolDuration
	}
}

// PathHash is a stable order-sensitive 31-multiplier hash over the path's
// UTF-16 code units, so non-ASCII paths hash the same as in UTF-16 hosts
func PathHash(path string) uint32 {
	var h uint32
	for _, r := range path {
		if r < 0x10000 {
			h = h*31 + uint32(r)
			continue
		}
		hi, lo := utf16.EncodeRune(r)
		h = h*31 + uint32(hi)
		h = h*31 + uint32(lo)
	}
	return h
}

// PathOffset maps a path onto a fixed pitch offset in [-3, 3] semitones
// so repeated changes to one key keep a recognisable voice
func PathOffset(path string) float64 {
	return float64(int(PathHash(path)%7) - 3)
}

func number(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return 0, false
	}
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func length(v any) (int, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return 0, false
	}
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return rv.Len(), true
	}
	return 0, false
}
