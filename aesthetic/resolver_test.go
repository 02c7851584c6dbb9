package aesthetic

import (
	"math"
	"testing"

	"github.com/lixenwraith/sonify/change"
)

// TestResolveLargerNumericUpdatesSoundBigger verifies relative magnitude drives pitch and duration
func TestResolveLargerNumericUpdatesSoundBigger(t *testing.T) {
	small := Resolve(change.Change{Path: "count", Op: change.Update, ValueType: change.Number, OldValue: 100, NewValue: 101})
	large := Resolve(change.Change{Path: "count", Op: change.Update, ValueType: change.Number, OldValue: 0, NewValue: 100})

	if large.Duration <= small.Duration {
		t.Errorf("expected larger duration for 0->100 (%v) than 100->101 (%v)", large.Duration, small.Duration)
	}

	base := typeBaseline[change.Number].BaseMidi + PathOffset("count")
	if math.Abs(large.BaseMidi-base) <= math.Abs(small.BaseMidi-base) {
		t.Errorf("expected larger pitch offset for 0->100: small=%v large=%v base=%v", small.BaseMidi, large.BaseMidi, base)
	}
	if large.BaseMidi <= base {
		t.Errorf("increase should raise pitch, got %v (base %v)", large.BaseMidi, base)
	}

	down := Resolve(change.Change{Path: "count", Op: change.Update, ValueType: change.Number, OldValue: 100, NewValue: 0})
	if down.BaseMidi >= base {
		t.Errorf("decrease should lower pitch, got %v (base %v)", down.BaseMidi, base)
	}
}

// TestResolveOperationShaping verifies add sounds higher and sweeter than remove
func TestResolveOperationShaping(t *testing.T) {
	add := Resolve(change.Change{Path: "x", Op: change.Add, ValueType: change.String, NewValue: "a"})
	rem := Resolve(change.Change{Path: "x", Op: change.Remove, ValueType: change.String, OldValue: "a"})

	if add.BaseMidi <= rem.BaseMidi {
		t.Errorf("add pitch %v should exceed remove pitch %v", add.BaseMidi, rem.BaseMidi)
	}
	if add.Pleasantness <= rem.Pleasantness {
		t.Errorf("add pleasantness %v should exceed remove %v", add.Pleasantness, rem.Pleasantness)
	}
	if add.Valence <= rem.Valence {
		t.Errorf("add valence %v should exceed remove %v", add.Valence, rem.Valence)
	}
}

// TestResolveBoolean verifies boolean flips are short and directional
func TestResolveBoolean(t *testing.T) {
	on := Resolve(change.Change{Path: "flag", Op: change.Update, ValueType: change.Boolean, OldValue: false, NewValue: true})
	off := Resolve(change.Change{Path: "flag", Op: change.Update, ValueType: change.Boolean, OldValue: true, NewValue: false})

	if on.Duration != boolDuration || off.Duration != boolDuration {
		t.Errorf("boolean durations = %v, %v; want %v", on.Duration, off.Duration, boolDuration)
	}
	if on.BaseMidi-off.BaseMidi != 2*boolPitchShift {
		t.Errorf("true/false pitch gap = %v, want %v", on.BaseMidi-off.BaseMidi, 2*boolPitchShift)
	}
}

// TestResolveArrayLength verifies growth raises arousal and duration
func TestResolveArrayLength(t *testing.T) {
	same := Resolve(change.Change{Path: "items", Op: change.Update, ValueType: change.Array, OldValue: []int{1, 2}, NewValue: []int{1, 3}})
	grown := Resolve(change.Change{Path: "items", Op: change.Update, ValueType: change.Array, OldValue: []int{1, 2}, NewValue: []int{1, 2, 3, 4}})

	if grown.Arousal <= same.Arousal {
		t.Errorf("grown arousal %v should exceed same-length %v", grown.Arousal, same.Arousal)
	}
	if grown.Duration <= same.Duration {
		t.Errorf("grown duration %v should exceed same-length %v", grown.Duration, same.Duration)
	}
}

// TestResolveLayerOrder verifies later layers win and clamping happens last
func TestResolveLayerOrder(t *testing.T) {
	c := change.Change{Path: "a", Op: change.Update, ValueType: change.String, OldValue: "x", NewValue: "y"}

	static := &Overrides{Brightness: Float(0.1), Arousal: Float(5)}
	mapping := &Overrides{Brightness: Float(0.9)}
	hook := &Overrides{Arousal: Float(-2), Valence: Float(0.25)}

	p := Resolve(c, static, nil, mapping, hook)

	if p.Brightness != 0.9 {
		t.Errorf("brightness = %v, want mapping layer 0.9", p.Brightness)
	}
	if p.Arousal != 0 {
		t.Errorf("arousal = %v, want hook -2 clamped to 0", p.Arousal)
	}
	if p.Valence != 0.25 {
		t.Errorf("valence = %v, want 0.25", p.Valence)
	}

	p = Resolve(c, static)
	if p.Arousal != 1 {
		t.Errorf("arousal = %v, want 5 clamped to 1", p.Arousal)
	}
}

// TestResolveBoundedFields verifies every bounded field lands in [0,1]
func TestResolveBoundedFields(t *testing.T) {
	changes := []change.Change{
		{Path: "a", Op: change.Remove, ValueType: change.Boolean, OldValue: true},
		{Path: "b", Op: change.Add, ValueType: change.String, NewValue: "s"},
		{Path: "c", Op: change.Update, ValueType: change.Number, OldValue: 0.0, NewValue: math.Inf(1)},
		{Path: "d", Op: change.Update, ValueType: change.Array, OldValue: []int{}, NewValue: make([]int, 100)},
		{Path: "", Op: change.Update, ValueType: change.Object, OldValue: nil, NewValue: map[string]int{}},
	}
	for _, c := range changes {
		p := Resolve(c)
		for name, v := range map[string]float64{
			"pleasantness": p.Pleasantness,
			"brightness":   p.Brightness,
			"arousal":      p.Arousal,
			"valence":      p.Valence,
			"simultaneity": p.Simultaneity,
		} {
			if v < 0 || v > 1 || math.IsNaN(v) {
				t.Errorf("%s: %s = %v out of range", c.Path, name, v)
			}
		}
		if p.Duration < 0 {
			t.Errorf("%s: negative duration %v", c.Path, p.Duration)
		}
	}
}

// TestPathOffset verifies the offset is stable and bounded
func TestPathOffset(t *testing.T) {
	paths := []string{"", "root", "count", "user.name", "items", "a/b/c", "caf\u00e9"}
	for _, p := range paths {
		o := PathOffset(p)
		if o < -3 || o > 3 || o != math.Trunc(o) {
			t.Errorf("PathOffset(%q) = %v, want integer in [-3,3]", p, o)
		}
		if PathOffset(p) != o {
			t.Errorf("PathOffset(%q) not stable", p)
		}
	}

	// h("ab") = 97*31 + 98 = 3105, 3105 % 7 = 4
	if got := PathOffset("ab"); got != 1 {
		t.Errorf("PathOffset(ab) = %v, want 1", got)
	}
}

// TestPathHashCodeUnits verifies non-ASCII paths hash by UTF-16 code unit, not by byte
func TestPathHashCodeUnits(t *testing.T) {
	tests := []struct {
		path   string
		hash   uint32
		offset float64
	}{
		// c a f é as single units: 3045921 % 7 = 4
		{path: "caf\u00e9", hash: 3045921, offset: 1},
		// U+1F600 as the surrogate pair D83D DE00: 1772899 % 7 = 2
		{path: "\U0001F600", hash: 1772899, offset: -1},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := PathHash(tt.path); got != tt.hash {
				t.Errorf("PathHash = %d, want %d", got, tt.hash)
			}
			if got := PathOffset(tt.path); got != tt.offset {
				t.Errorf("PathOffset = %v, want %v", got, tt.offset)
			}
		})
	}
}

// TestOverridesMerge verifies later layer fields win while gaps fall through
func TestOverridesMerge(t *testing.T) {
	a := &Overrides{Brightness: Float(0.2), Valence: Float(0.3)}
	b := &Overrides{Brightness: Float(0.7)}

	m := a.Merge(b)
	if *m.Brightness != 0.7 || *m.Valence != 0.3 {
		t.Errorf("merge = brightness %v valence %v", *m.Brightness, *m.Valence)
	}
	if *a.Brightness != 0.2 {
		t.Error("merge mutated receiver")
	}
	var nilLayer *Overrides
	if nilLayer.Merge(b) != b {
		t.Error("nil receiver merge should return next")
	}
}
