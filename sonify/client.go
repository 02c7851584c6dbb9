package sonify

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/lixenwraith/sonify/change"
	"github.com/lixenwraith/sonify/clock"
	"github.com/lixenwraith/sonify/engine"
	"github.com/lixenwraith/sonify/status"
)

// batchState is the debounce state machine: Idle → Accumulating → Flushing → Idle
type batchState int

const (
	stateIdle batchState = iota
	stateAccumulating
	stateFlushing
)

func (s batchState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateAccumulating:
		return "accumulating"
	case stateFlushing:
		return "flushing"
	}
	return "unknown"
}

// Client turns state transitions into cues on a shared engine
// Each client holds one retain on the engine until Close
type Client struct {
	cfg   Config
	eng   *engine.Engine
	clk   clock.Clock
	store Store

	ctx    context.Context
	cancel context.CancelFunc

	enabled atomic.Bool
	volume  status.AtomicFloat

	mu          sync.Mutex
	state       batchState
	pending     []change.Change
	timer       clock.Timer
	gen         uint64 // bumps on every (re)arm so stale timers do nothing
	closed      bool
	unsubscribe func()

	statRendered *atomic.Int64
	statSkipped  *atomic.Int64
	statBatches  *atomic.Int64
	statPipeline *atomic.Int64
	statPlayback *atomic.Int64
	statResume   *atomic.Int64
}

// NewListener creates a client that is fed through Listen
func NewListener(cfg Config) *Client {
	if cfg.Engine == nil {
		cfg.Engine = engine.Shared()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewReal()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		cfg:          cfg,
		eng:          cfg.Engine,
		clk:          cfg.Clock,
		ctx:          ctx,
		cancel:       cancel,
		statRendered: cfg.Status.Counter(status.CuesRendered),
		statSkipped:  cfg.Status.Counter(status.CuesSkipped),
		statBatches:  cfg.Status.Counter(status.BatchesFlushed),
		statPipeline: cfg.Status.Counter(status.ErrorsPipeline),
		statPlayback: cfg.Status.Counter(status.ErrorsPlayback),
		statResume:   cfg.Status.Counter(status.ErrorsResume),
	}
	c.enabled.Store(cfg.Enabled)
	c.volume.Set(clamp01(cfg.Volume))

	c.eng.Retain()
	return c
}

// Attach subscribes a new client to store
// If the store implements CleanupRegistrar the client closes with it
func Attach(store Store, cfg Config) (*Client, error) {
	if store == nil {
		return nil, ErrNoStore
	}

	c := NewListener(cfg)
	unsubscribe := store.Subscribe(c.Listen)

	c.mu.Lock()
	c.store = store
	c.unsubscribe = unsubscribe
	c.mu.Unlock()

	if reg, ok := store.(CleanupRegistrar); ok {
		reg.OnClose(func() {
			_ = c.Close()
		})
	}
	return c, nil
}

// Listen is the subscription callback; it never panics into the host
func (c *Client) Listen(current, previous any) {
	defer func() {
		if r := recover(); r != nil {
			c.report(errors.Errorf("panic: %v", r), ErrorInfo{Stage: StageStateChange})
		}
	}()

	if !c.enabled.Load() {
		return
	}
	changes := change.Detect(current, previous)
	if len(changes) == 0 {
		return
	}
	c.Emit(changes)
}

// Emit queues changes into the current batch, or renders them now without debounce
func (c *Client) Emit(changes []change.Change) {
	window := c.cfg.debounce()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if window <= 0 {
		c.mu.Unlock()
		c.render(changes)
		return
	}

	c.pending = append(c.pending, changes...)
	c.state = stateAccumulating
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.timer = c.clk.AfterFunc(window, func() {
		c.flush(gen)
	})
	c.mu.Unlock()
}

// Flush renders the pending batch immediately
func (c *Client) Flush() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	c.flush(gen)
}

// flush takes the batch if gen is still current and renders it deduplicated
func (c *Client) flush(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.gen || len(c.pending) == 0 {
		c.mu.Unlock()
		return
	}
	batch := c.pending
	c.pending = nil
	c.timer = nil
	c.state = stateFlushing
	c.mu.Unlock()

	c.statBatches.Add(1)
	c.render(dedupe(batch))

	c.mu.Lock()
	if c.state == stateFlushing {
		c.state = stateIdle
	}
	c.mu.Unlock()
}

// dedupe keeps each path's most recent change, ordered by that occurrence
func dedupe(batch []change.Change) []change.Change {
	last := make(map[string]int, len(batch))
	for i, ch := range batch {
		last[ch.Path] = i
	}
	out := make([]change.Change, 0, len(last))
	for i, ch := range batch {
		if last[ch.Path] == i {
			out = append(out, ch)
		}
	}
	return out
}

// Replay renders the host's whole current state as additions
func (c *Client) Replay() error {
	c.mu.Lock()
	store, closed := c.store, c.closed
	c.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if store == nil {
		return ErrNoStore
	}
	if !c.enabled.Load() {
		return nil
	}
	c.render(change.Detect(store.GetState(), map[string]any{}))
	return nil
}

// SetEnabled toggles processing; disabling drops the pending batch
func (c *Client) SetEnabled(enabled bool) {
	c.enabled.Store(enabled)
	if enabled {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropPendingLocked()
}

// Enabled reports whether changes are being processed
func (c *Client) Enabled() bool {
	return c.enabled.Load()
}

// SetVolume changes the global gain multiplier for later cues
func (c *Client) SetVolume(v float64) {
	if prev := c.volume.Swap(clamp01(v)); prev != c.volume.Get() {
		log.Printf("[SONIFY] volume %.2f -> %.2f", prev, c.volume.Get())
	}
}

// Volume returns the global gain multiplier
func (c *Client) Volume() float64 {
	return c.volume.Get()
}

// Pending returns the number of changes waiting in the batch
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close cancels the pending batch, unsubscribes and releases the engine
// Only the first call has an effect
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.dropPendingLocked()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	c.cancel()
	c.eng.Release()
	return nil
}

func (c *Client) dropPendingLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
	c.pending = nil
	c.state = stateIdle
}

// report counts, logs and forwards a failure; the hook cannot break the pipeline
func (c *Client) report(err error, info ErrorInfo) {
	switch info.Stage {
	case StageStateChange:
		c.statPipeline.Add(1)
	case StageAudioResume:
		c.statResume.Add(1)
	default:
		c.statPlayback.Add(1)
	}

	if info.Change != nil {
		log.Printf("[SONIFY] %s %s: %v", info.Stage, info.Change.Path, err)
	} else {
		log.Printf("[SONIFY] %s: %v", info.Stage, err)
	}

	if c.cfg.OnError == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[SONIFY] error hook panicked: %v", r)
		}
	}()
	c.cfg.OnError(err, info)
}
