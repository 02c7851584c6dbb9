package engine

import (
	"context"
	"log"
	"math"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/lixenwraith/sonify/audio"
	"github.com/lixenwraith/sonify/clock"
	"github.com/lixenwraith/sonify/consonance"
	"github.com/lixenwraith/sonify/constant"
	"github.com/lixenwraith/sonify/scheduler"
	"github.com/lixenwraith/sonify/status"
	"github.com/lixenwraith/sonify/timbre"
	"github.com/lixenwraith/sonify/wave"
)

// Config wires the engine's collaborators
type Config struct {
	Factory       audio.Factory
	Clock         clock.Clock
	Status        *status.Registry
	Scheduler     scheduler.Options
	RankCacheSize int
}

// slot is everything scoped to one output context's lifetime
type slot struct {
	ctx   audio.Context
	waves *wave.Cache
	sched *scheduler.Scheduler
}

// Engine owns the shared output context, its caches and its scheduler
// It lives while the retain count is positive and tears everything down at zero
type Engine struct {
	factory   audio.Factory
	clk       clock.Clock
	schedOpts scheduler.Options
	ranker    *consonance.Ranker

	mu      sync.Mutex
	retain  int
	current *slot
	noAudio bool // factory reported no audio until next teardown

	statRetain   *status.AtomicFloat
	statContexts *atomic.Int64
}

// New creates an engine; a nil Factory means the host has no audio
func New(cfg Config) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = clock.NewReal()
	}
	if cfg.Factory == nil {
		cfg.Factory = func() (audio.Context, error) { return nil, nil }
	}
	if cfg.Scheduler.Status == nil {
		cfg.Scheduler.Status = cfg.Status
	}

	return &Engine{
		factory:      cfg.Factory,
		clk:          cfg.Clock,
		schedOpts:    cfg.Scheduler,
		ranker:       consonance.NewRanker(cfg.RankCacheSize),
		statRetain:   cfg.Status.Gauge(status.EngineRetain),
		statContexts: cfg.Status.Counter(status.EngineContexts),
	}
}

var (
	sharedOnce sync.Once
	shared     *Engine
)

// Shared returns the process-wide engine on the configured beep backend
// Callers still Retain and Release it; it is rebuilt lazily after teardown
func Shared() *Engine {
	sharedOnce.Do(func() {
		shared = New(Config{Factory: audio.BeepFactory(audio.LoadBackendConfig())})
	})
	return shared
}

// Retain registers an attachment and returns the new count
func (e *Engine) Retain() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.retain++
	e.statRetain.Set(float64(e.retain))
	return e.retain
}

// Release drops an attachment; reaching zero tears the engine down
func (e *Engine) Release() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.retain == 0 {
		log.Printf("[ENGINE] release without retain")
		return 0
	}
	e.retain--
	e.statRetain.Set(float64(e.retain))
	if e.retain == 0 {
		e.teardownLocked()
	}
	return e.retain
}

// RetainCount returns the number of live attachments
func (e *Engine) RetainCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.retain
}

// Alive reports whether any attachment holds the engine
func (e *Engine) Alive() bool {
	return e.RetainCount() > 0
}

// Context returns the live output context, nil before first use or after teardown
func (e *Engine) Context() audio.Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return nil
	}
	return e.current.ctx
}

// Pending returns the number of render tasks waiting on the scheduler
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return 0
	}
	return e.current.sched.Len()
}

// WaveCacheLen returns the waveform count of the live context
func (e *Engine) WaveCacheLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.current == nil {
		return 0
	}
	return e.current.waves.Len()
}

// RankCacheLen returns the consonance cache size
func (e *Engine) RankCacheLen() int {
	return e.ranker.Len()
}

// teardownLocked cancels the scheduler, clears caches and closes the context
func (e *Engine) teardownLocked() {
	if s := e.current; s != nil {
		e.current = nil
		e.dropSlot(s)
	}
	e.ranker.Clear()
	e.noAudio = false
	log.Printf("[ENGINE] torn down")
}

func (e *Engine) dropSlot(s *slot) {
	s.sched.Cancel()
	s.waves.Clear()
	if err := s.ctx.Close(); err != nil {
		log.Printf("[ENGINE] close context: %v", err)
	}
}

// acquire returns the live slot, creating or recreating the context as needed
// A nil slot with nil error means no audio is available
func (e *Engine) acquire() (*slot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.retain == 0 {
		return nil, ErrNotRetained
	}

	if s := e.current; s != nil {
		if s.ctx.State() != audio.StateClosed {
			return s, nil
		}
		log.Printf("[ENGINE] context closed externally, recreating")
		e.current = nil
		e.dropSlot(s)
	}
	if e.noAudio {
		return nil, nil
	}

	ctx, err := e.factory()
	if err != nil {
		return nil, errors.Wrap(err, "create audio context")
	}
	if ctx == nil {
		e.noAudio = true
		log.Printf("[ENGINE] no audio context, playback disabled")
		return nil, nil
	}

	s := &slot{
		ctx:   ctx,
		waves: wave.NewCache(),
		sched: scheduler.New(ctx.CurrentTime, e.clk, e.schedOpts),
	}
	e.current = s
	e.statContexts.Add(1)
	return s, nil
}

// MidiToHz converts a MIDI note number to frequency, A4 = 69 = 440 Hz
func MidiToHz(midi float64) float64 {
	return 440 * math.Pow(2, (midi-69)/12)
}

// resume brings a suspended context up, outside the engine lock
func resume(ctx context.Context, s *slot) error {
	if s.ctx.State() == audio.StateRunning {
		return nil
	}
	if err := s.ctx.Resume(ctx); err != nil {
		return &resumeError{cause: err}
	}
	return nil
}

// timbreFor applies defaults and the harmonic cap
func timbreFor(cue Cue) (brightness float64, harmonics int) {
	harmonics = cue.Harmonics
	if harmonics <= 0 {
		harmonics = constant.DefaultHarmonics
	}
	return cue.Params.Brightness, timbre.CapHarmonics(harmonics)
}
