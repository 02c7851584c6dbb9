package sonify

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/lixenwraith/sonify/aesthetic"
	"github.com/lixenwraith/sonify/audio"
	"github.com/lixenwraith/sonify/change"
	"github.com/lixenwraith/sonify/clock"
	"github.com/lixenwraith/sonify/engine"
	"github.com/lixenwraith/sonify/status"
	"github.com/lixenwraith/sonify/store"
	"github.com/lixenwraith/sonify/timbre"
)

// harness wires a client to fakes so tests control both clocks
type harness struct {
	ff  *audio.FakeFactory
	clk *clock.Manual
	reg *status.Registry
	eng *engine.Engine

	mu     sync.Mutex
	cues   []CueInfo
	errs   []error
	stages []Stage
}

func newHarness() *harness {
	h := &harness{
		ff:  audio.NewFakeFactory(),
		clk: clock.NewManual(time.Unix(0, 0)),
		reg: status.NewRegistry(),
	}
	h.eng = engine.New(engine.Config{Factory: h.ff.New, Clock: h.clk, Status: h.reg})
	return h
}

func (h *harness) config() Config {
	cfg := DefaultConfig()
	cfg.Engine = h.eng
	cfg.Clock = h.clk
	cfg.Status = h.reg
	cfg.PerformanceMode = true
	cfg.OnCue = func(ci CueInfo) {
		h.mu.Lock()
		h.cues = append(h.cues, ci)
		h.mu.Unlock()
	}
	cfg.OnError = func(err error, info ErrorInfo) {
		h.mu.Lock()
		h.errs = append(h.errs, err)
		h.stages = append(h.stages, info.Stage)
		h.mu.Unlock()
	}
	return cfg
}

func (h *harness) cueList() []CueInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]CueInfo(nil), h.cues...)
}

// TestDebounceLastWriteWins verifies a, b, a in one window flushes as b then a
func TestDebounceLastWriteWins(t *testing.T) {
	h := newHarness()
	cfg := h.config()
	cfg.DebounceMs = 50
	cfg.StaggerMs = 40

	s := store.New(nil)
	c, err := Attach(s, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	s.Set("a", 1)
	h.clk.Advance(10 * time.Millisecond)
	s.Set("b", 1)
	h.clk.Advance(10 * time.Millisecond)
	s.Set("a", 2)

	if len(h.cueList()) != 0 || c.Pending() != 3 {
		t.Fatalf("rendered before window expiry: cues=%d pending=%d", len(h.cueList()), c.Pending())
	}

	h.clk.Advance(50 * time.Millisecond)

	cues := h.cueList()
	if len(cues) != 2 {
		t.Fatalf("cues = %d, want 2", len(cues))
	}
	if cues[0].Change.Path != "b" || cues[1].Change.Path != "a" {
		t.Fatalf("order = %s, %s; want b, a", cues[0].Change.Path, cues[1].Change.Path)
	}
	if cues[1].Change.NewValue != 2 {
		t.Errorf("a kept %v, want most recent value 2", cues[1].Change.NewValue)
	}
	if cues[1].Offset <= cues[0].Offset {
		t.Errorf("a offset %v should be later than b offset %v", cues[1].Offset, cues[0].Offset)
	}
	if cues[1].Rendering.Start <= cues[0].Rendering.Start {
		t.Errorf("a start %v should be later than b start %v", cues[1].Rendering.Start, cues[0].Rendering.Start)
	}
	if got := h.reg.Counter(status.BatchesFlushed).Load(); got != 1 {
		t.Errorf("batches = %d, want 1", got)
	}
	if c.Pending() != 0 {
		t.Errorf("pending = %d after flush", c.Pending())
	}
}

// TestImmediateStagger verifies detection order and the stagger ceiling without debounce
func TestImmediateStagger(t *testing.T) {
	h := newHarness()
	cfg := h.config()
	cfg.StaggerMs = 40
	cfg.MaxStaggerMs = 100

	c := NewListener(cfg)
	defer c.Close()

	prev := map[string]any{}
	cur := map[string]any{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5}
	c.Listen(cur, prev)

	cues := h.cueList()
	want := []time.Duration{0, 40 * time.Millisecond, 80 * time.Millisecond, 100 * time.Millisecond, 100 * time.Millisecond}
	if len(cues) != len(want) {
		t.Fatalf("cues = %d, want %d", len(cues), len(want))
	}
	for i, ci := range cues {
		if ci.Offset != want[i] {
			t.Errorf("cue %d (%s) offset = %v, want %v", i, ci.Change.Path, ci.Offset, want[i])
		}
		if ci.Change.Op != change.Add {
			t.Errorf("cue %d op = %v, want add", i, ci.Change.Op)
		}
	}
	if cues[0].Change.Path != "a" || cues[4].Change.Path != "e" {
		t.Errorf("order = %s..%s, want a..e", cues[0].Change.Path, cues[4].Change.Path)
	}
}

// TestStaggerWithoutCeiling verifies a zero ceiling leaves the stagger unbounded
func TestStaggerWithoutCeiling(t *testing.T) {
	h := newHarness()
	cfg := h.config()
	cfg.StaggerMs = 40
	cfg.MaxStaggerMs = 0

	c := NewListener(cfg)
	defer c.Close()

	c.Listen(map[string]any{"a": 1, "b": 2, "c": 3}, map[string]any{})

	cues := h.cueList()
	if len(cues) != 3 {
		t.Fatalf("cues = %d, want 3", len(cues))
	}
	for i, ci := range cues {
		if want := time.Duration(i) * 40 * time.Millisecond; ci.Offset != want {
			t.Errorf("cue %d offset = %v, want %v", i, ci.Offset, want)
		}
	}
}

// TestNumericMagnitudeEndToEnd verifies a bigger relative delta sounds longer and further from the base pitch
func TestNumericMagnitudeEndToEnd(t *testing.T) {
	h := newHarness()
	c := NewListener(h.config())
	defer c.Close()

	c.Listen(map[string]any{"n": 101}, map[string]any{"n": 100})
	c.Listen(map[string]any{"n": 100}, map[string]any{"n": 0})

	cues := h.cueList()
	if len(cues) != 2 {
		t.Fatalf("cues = %d, want 2", len(cues))
	}
	small, large := cues[0], cues[1]

	if large.Rendering.Duration <= small.Rendering.Duration {
		t.Errorf("duration large %v <= small %v", large.Rendering.Duration, small.Rendering.Duration)
	}

	base := aesthetic.Baseline(change.Change{Path: "n", Op: change.Update, ValueType: change.Number}).BaseMidi
	if math.Abs(large.Params.BaseMidi-base) <= math.Abs(small.Params.BaseMidi-base) {
		t.Errorf("pitch offset large %v <= small %v", large.Params.BaseMidi-base, small.Params.BaseMidi-base)
	}
	if large.Rendering.RootHz <= small.Rendering.RootHz {
		t.Errorf("root large %v <= small %v", large.Rendering.RootHz, small.Rendering.RootHz)
	}
}

// TestSharedEngineLifetime verifies the engine survives until the last client detaches
func TestSharedEngineLifetime(t *testing.T) {
	h := newHarness()

	first := NewListener(h.config())
	second := NewListener(h.config())
	if h.eng.RetainCount() != 2 {
		t.Fatalf("retain = %d, want 2", h.eng.RetainCount())
	}

	first.Listen(map[string]any{"x": 1}, map[string]any{})
	fake := h.ff.Last()

	if err := first.Close(); err != nil {
		t.Fatal(err)
	}
	if !h.eng.Alive() || fake.State() == audio.StateClosed {
		t.Fatal("engine torn down while a client remains")
	}

	second.Listen(map[string]any{"x": 2}, map[string]any{"x": 1})
	h.clk.Advance(0)
	cues := h.cueList()
	if len(cues) != 2 || cues[1].Rendering.Skipped {
		t.Fatalf("second client cue missing: %+v", cues)
	}
	if len(fake.Oscillators()) != 4 {
		t.Errorf("oscillators = %d, want both cues rendered", len(fake.Oscillators()))
	}

	_ = second.Close()
	if h.eng.Alive() {
		t.Error("engine still alive after last detach")
	}
	if fake.State() != audio.StateClosed {
		t.Errorf("context state = %v, want closed", fake.State())
	}

	_ = second.Close()
	if h.eng.RetainCount() != 0 {
		t.Errorf("double close changed retain count to %d", h.eng.RetainCount())
	}
}

// TestCloseCancelsOwnBatchOnly verifies detaching clears only that client's pending work
func TestCloseCancelsOwnBatchOnly(t *testing.T) {
	h := newHarness()
	cfg := h.config()
	cfg.DebounceMs = 30

	a := NewListener(cfg)
	b := NewListener(cfg)
	defer b.Close()

	a.Listen(map[string]any{"from": "a"}, map[string]any{})
	b.Listen(map[string]any{"from": "b"}, map[string]any{})
	_ = a.Close()

	h.clk.Advance(30 * time.Millisecond)

	cues := h.cueList()
	if len(cues) != 1 || cues[0].Change.NewValue != "b" {
		t.Errorf("cues = %+v, want only b's change", cues)
	}
}

// TestSoundMappingLayers verifies mapping translation and that the hook is applied last
func TestSoundMappingLayers(t *testing.T) {
	h := newHarness()
	cfg := h.config()
	cfg.Volume = 0.4
	half := 0.5
	cfg.SoundMapping = map[string]SoundParams{
		"temp": {Frequency: 220, Waveform: timbre.Sawtooth, Duration: 500, Volume: &half},
		"hue":  {Waveform: timbre.Square, Timbre: &timbre.Timbre{Brightness: 0.2, Harmonics: 4}},
	}
	cfg.Aesthetics = &aesthetic.Overrides{Brightness: aesthetic.Float(0.7), Arousal: aesthetic.Float(0.9)}
	cfg.MapChangeToAesthetics = func(ch change.Change) *aesthetic.Overrides {
		if ch.Path == "hue" {
			return &aesthetic.Overrides{Brightness: aesthetic.Float(0.05)}
		}
		return nil
	}

	c := NewListener(cfg)
	defer c.Close()

	c.Listen(map[string]any{"temp": 1, "hue": "red", "plain": true}, map[string]any{})

	byPath := map[string]CueInfo{}
	for _, ci := range h.cueList() {
		byPath[ci.Change.Path] = ci
	}

	temp := byPath["temp"]
	if temp.Rendering.RootHz != 220 || temp.Rendering.Harmonics != 13 {
		t.Errorf("temp root/harmonics = %v/%d", temp.Rendering.RootHz, temp.Rendering.Harmonics)
	}
	if temp.Params.Brightness != 0.85 || temp.Params.Duration != 0.5 {
		t.Errorf("temp brightness/duration = %v/%v", temp.Params.Brightness, temp.Params.Duration)
	}
	if math.Abs(temp.Rendering.Dyad.Root.Envelope.Peak-0.2) > 1e-9 {
		t.Errorf("temp peak = %v, want 0.4*0.5", temp.Rendering.Dyad.Root.Envelope.Peak)
	}

	hue := byPath["hue"]
	if hue.Params.Brightness != 0.05 || hue.Rendering.Harmonics != 4 {
		t.Errorf("hue brightness/harmonics = %v/%d", hue.Params.Brightness, hue.Rendering.Harmonics)
	}

	plain := byPath["plain"]
	if plain.Params.Brightness != 0.7 || plain.Params.Arousal != 0.9 {
		t.Errorf("plain = %+v, want static layer", plain.Params)
	}
	if math.Abs(plain.Rendering.Dyad.Root.Envelope.Peak-0.4) > 1e-9 {
		t.Errorf("plain peak = %v, want 0.4", plain.Rendering.Dyad.Root.Envelope.Peak)
	}
}

// TestErrorStages verifies each failure class reaches the hook with its stage
func TestErrorStages(t *testing.T) {
	t.Run("hook panic", func(t *testing.T) {
		h := newHarness()
		cfg := h.config()
		cfg.MapChangeToAesthetics = func(ch change.Change) *aesthetic.Overrides {
			if ch.Path == "bad" {
				panic("hook bug")
			}
			return nil
		}
		c := NewListener(cfg)
		defer c.Close()

		c.Listen(map[string]any{"bad": 1, "good": 2}, map[string]any{})

		if len(h.stages) != 1 || h.stages[0] != StageStateChange {
			t.Errorf("stages = %v, want [%s]", h.stages, StageStateChange)
		}
		if cues := h.cueList(); len(cues) != 1 || cues[0].Change.Path != "good" {
			t.Errorf("cues = %+v, want good only", cues)
		}
	})

	t.Run("resume failure", func(t *testing.T) {
		h := newHarness()
		c := NewListener(h.config())
		defer c.Close()

		c.Listen(map[string]any{"x": 1}, map[string]any{})
		fake := h.ff.Last()
		fake.SetState(audio.StateSuspended)
		fake.FailResume(errors.New("autoplay blocked"))

		c.Listen(map[string]any{"x": 2}, map[string]any{"x": 1})

		if len(h.stages) != 1 || h.stages[0] != StageAudioResume {
			t.Errorf("stages = %v, want [%s]", h.stages, StageAudioResume)
		}
		if got := h.reg.Counter(status.ErrorsResume).Load(); got != 1 {
			t.Errorf("resume errors = %d", got)
		}
	})

	t.Run("render failure", func(t *testing.T) {
		h := newHarness()
		c := NewListener(h.config())
		defer c.Close()

		c.Listen(map[string]any{"x": 1}, map[string]any{})
		_ = h.ff.Last().Close()
		h.clk.Advance(0)

		if len(h.stages) != 1 || h.stages[0] != StagePlayback {
			t.Errorf("stages = %v, want [%s]", h.stages, StagePlayback)
		}
		if !errors.Is(h.errs[0], audio.ErrClosed) {
			t.Errorf("err = %v, want ErrClosed", h.errs[0])
		}
	})

	t.Run("error hook panic", func(t *testing.T) {
		h := newHarness()
		cfg := h.config()
		cfg.OnError = func(error, ErrorInfo) { panic("hook also broken") }
		cfg.MapChangeToAesthetics = func(change.Change) *aesthetic.Overrides { panic("boom") }
		c := NewListener(cfg)
		defer c.Close()

		defer func() {
			if r := recover(); r != nil {
				t.Errorf("panic escaped to host: %v", r)
			}
		}()
		c.Listen(map[string]any{"x": 1}, map[string]any{})
		if got := h.reg.Counter(status.ErrorsPipeline).Load(); got != 1 {
			t.Errorf("pipeline errors = %d, want 1", got)
		}
	})
}

// TestDisabledClient verifies a disabled client ignores updates and drops its batch
func TestDisabledClient(t *testing.T) {
	h := newHarness()
	cfg := h.config()
	cfg.Enabled = false
	cfg.DebounceMs = 20

	c := NewListener(cfg)
	defer c.Close()

	c.Listen(map[string]any{"x": 1}, map[string]any{})
	h.clk.Advance(20 * time.Millisecond)
	if len(h.cueList()) != 0 {
		t.Fatal("disabled client rendered")
	}

	c.SetEnabled(true)
	c.Listen(map[string]any{"x": 2}, map[string]any{"x": 1})
	c.SetEnabled(false)
	h.clk.Advance(20 * time.Millisecond)
	if len(h.cueList()) != 0 || c.Pending() != 0 {
		t.Error("disabling should drop the pending batch")
	}
	if c.Enabled() {
		t.Error("Enabled() = true")
	}
}

// TestFlushAndReplay verifies manual flush and full-state replay
func TestFlushAndReplay(t *testing.T) {
	h := newHarness()
	cfg := h.config()
	cfg.DebounceMs = 1000

	s := store.New(store.State{"a": 1, "b": "two"})
	c, err := Attach(s, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	s.Set("c", true)
	c.Flush()
	if cues := h.cueList(); len(cues) != 1 || cues[0].Change.Path != "c" {
		t.Fatalf("flush cues = %+v", cues)
	}

	h.clk.Advance(2 * time.Second)
	if len(h.cueList()) != 1 {
		t.Error("flushed batch rendered twice")
	}

	if err := c.Replay(); err != nil {
		t.Fatal(err)
	}
	cues := h.cueList()[1:]
	if len(cues) != 3 {
		t.Fatalf("replay cues = %d, want 3", len(cues))
	}
	for _, ci := range cues {
		if ci.Change.Op != change.Add {
			t.Errorf("replayed %s as %v, want add", ci.Change.Path, ci.Change.Op)
		}
	}

	detached := NewListener(h.config())
	defer detached.Close()
	if err := detached.Replay(); !errors.Is(err, ErrNoStore) {
		t.Errorf("listener replay = %v, want ErrNoStore", err)
	}
}

// TestAttachFollowsStoreLifetime verifies store teardown closes the client
func TestAttachFollowsStoreLifetime(t *testing.T) {
	h := newHarness()
	s := store.New(nil)

	if _, err := Attach(nil, h.config()); !errors.Is(err, ErrNoStore) {
		t.Errorf("nil store err = %v", err)
	}

	c, err := Attach(s, h.config())
	if err != nil {
		t.Fatal(err)
	}
	if s.Listeners() != 1 || h.eng.RetainCount() != 1 {
		t.Fatalf("listeners = %d retain = %d", s.Listeners(), h.eng.RetainCount())
	}

	s.Close()

	if h.eng.RetainCount() != 0 {
		t.Errorf("retain = %d after store close", h.eng.RetainCount())
	}
	if err := c.Replay(); !errors.Is(err, ErrClosed) {
		t.Errorf("replay after close = %v, want ErrClosed", err)
	}
}

// TestNoAudioHost verifies cues are skipped silently without an output context
func TestNoAudioHost(t *testing.T) {
	h := newHarness()
	h.ff.NoAudio()
	c := NewListener(h.config())
	defer c.Close()

	c.Listen(map[string]any{"x": 1}, map[string]any{})

	cues := h.cueList()
	if len(cues) != 1 || !cues[0].Rendering.Skipped {
		t.Errorf("cues = %+v, want one skipped", cues)
	}
	if len(h.errs) != 0 {
		t.Errorf("errors = %v, want none", h.errs)
	}
	if got := h.reg.Counter(status.CuesSkipped).Load(); got != 1 {
		t.Errorf("skipped = %d", got)
	}
}

// TestDedupe verifies last-occurrence ordering
func TestDedupe(t *testing.T) {
	batch := []change.Change{
		{Path: "a", NewValue: 1},
		{Path: "b", NewValue: 1},
		{Path: "c", NewValue: 1},
		{Path: "a", NewValue: 2},
		{Path: "b", NewValue: 2},
	}
	out := dedupe(batch)
	want := []string{"c", "a", "b"}
	if len(out) != len(want) {
		t.Fatalf("out = %+v", out)
	}
	for i, p := range want {
		if out[i].Path != p {
			t.Errorf("position %d = %s, want %s", i, out[i].Path, p)
		}
	}
	if out[1].NewValue != 2 || out[2].NewValue != 2 {
		t.Error("dedupe kept stale values")
	}
}

// TestSetVolumeScalesLaterCues verifies the global volume is clamped and applied to new cues
func TestSetVolumeScalesLaterCues(t *testing.T) {
	h := newHarness()
	c := NewListener(h.config())
	defer c.Close()

	c.SetVolume(2)
	if c.Volume() != 1 {
		t.Fatalf("Volume() = %v, want 1", c.Volume())
	}
	c.SetVolume(0.5)
	c.Listen(map[string]any{"x": 1}, map[string]any{})

	cues := h.cueList()
	if len(cues) != 1 {
		t.Fatalf("cues = %d", len(cues))
	}
	if peak := cues[0].Rendering.Dyad.Root.Envelope.Peak; math.Abs(peak-0.5) > 1e-9 {
		t.Errorf("peak = %v, want 0.5", peak)
	}
}
