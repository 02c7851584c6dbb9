package audio

import (
	"context"
	"log"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/pkg/errors"
)

// BeepContext renders the node graph through a beep mixer
// It is itself the streamer handed to the sink, so the sample count it
// emits is the audio clock
type BeepContext struct {
	sr     beep.SampleRate
	buffer int
	sink   Sink

	mu     sync.Mutex // guards the stream graph and pos against the sink goroutine
	mixer  *beep.Mixer
	master *effects.Volume
	pos    int64

	lifeMu sync.Mutex // serializes Resume and Close
	state  atomic.Int32

	dest *destination
}

// NewBeepContext creates a suspended context bound to the configured sink
func NewBeepContext(cfg BackendConfig) (*BeepContext, error) {
	sink, err := NewSink(cfg.Sink)
	if err != nil {
		return nil, err
	}
	return NewBeepContextWithSink(cfg, sink), nil
}

// NewBeepContextWithSink creates a suspended context on an explicit sink
func NewBeepContextWithSink(cfg BackendConfig, sink Sink) *BeepContext {
	cfg = mergeDefaults(cfg)
	mixer := &beep.Mixer{}
	c := &BeepContext{
		sr:     beep.SampleRate(cfg.SampleRate),
		buffer: beep.SampleRate(cfg.SampleRate).N(cfg.BufferDuration),
		sink:   sink,
		mixer:  mixer,
		master: &effects.Volume{Streamer: mixer, Base: 2},
	}
	c.SetMasterGain(*cfg.MasterGain)
	c.dest = &destination{ctx: c}
	c.state.Store(int32(StateSuspended))
	return c
}

// BeepFactory returns a Factory building beep contexts from cfg
func BeepFactory(cfg BackendConfig) Factory {
	return func() (Context, error) {
		c, err := NewBeepContext(cfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// SetMasterGain scales the mixed output before limiting, linear gain
func (c *BeepContext) SetMasterGain(gain float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gain <= 0 {
		c.master.Silent = true
		c.master.Volume = 0
		return
	}
	c.master.Silent = false
	c.master.Volume = math.Log2(gain)
}

// SampleRate returns the output rate
func (c *BeepContext) SampleRate() beep.SampleRate {
	return c.sr
}

func (c *BeepContext) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return float64(c.pos) / float64(c.sr)
}

func (c *BeepContext) State() State {
	return State(c.state.Load())
}

// Resume opens the sink; a running context returns immediately
func (c *BeepContext) Resume(ctx context.Context) error {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	switch c.State() {
	case StateRunning:
		return nil
	case StateClosed:
		return ErrClosed
	}

	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "resume")
	}
	if err := c.sink.Open(c.sr, c.buffer, c); err != nil {
		log.Printf("[AUDIO] sink open failed: %v", err)
		return errors.Wrap(err, "open sink")
	}
	c.state.Store(int32(StateRunning))
	log.Printf("[AUDIO] running at %d Hz, buffer %d samples", int(c.sr), c.buffer)
	return nil
}

// Close releases the sink and drops every voice, further use fails with ErrClosed
func (c *BeepContext) Close() error {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	if c.State() == StateClosed {
		return nil
	}
	wasRunning := c.State() == StateRunning
	c.state.Store(int32(StateClosed))

	c.mu.Lock()
	c.mixer.Clear()
	c.mu.Unlock()

	if wasRunning {
		return c.sink.Close()
	}
	return nil
}

func (c *BeepContext) NewOscillator() Oscillator {
	return newOscillator(c)
}

func (c *BeepContext) NewGain() Gain {
	return &gainNode{ctx: c, gain: newAutomation(1)}
}

func (c *BeepContext) Destination() Node {
	return c.dest
}

// Stream implements beep.Streamer; it always fills the buffer, silence when idle
func (c *BeepContext) Stream(samples [][2]float64) (int, bool) {
	c.mu.Lock()
	n, _ := c.master.Stream(samples)
	for i := n; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}
	c.pos += int64(len(samples))
	c.mu.Unlock()

	for i := range samples {
		samples[i][0] = softLimit(samples[i][0])
		samples[i][1] = softLimit(samples[i][1])
	}
	return len(samples), true
}

func (c *BeepContext) Err() error {
	return nil
}

// addVoice aligns the voice to the current stream position and mixes it in
func (c *BeepContext) addVoice(v *voice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v.pos = c.pos
	c.mixer.Add(v)
}

// Voices returns the number of streamers in the mixer
func (c *BeepContext) Voices() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mixer.Len()
}

// checkTarget accepts gains and the destination of this context
func (c *BeepContext) checkTarget(dst Node) error {
	switch n := dst.(type) {
	case *gainNode:
		if n.ctx == c {
			return nil
		}
	case *destination:
		if n.ctx == c {
			return nil
		}
	}
	return errors.Wrapf(ErrInvalidConnection, "cannot connect to %T", dst)
}

// sampleAt converts audio time to a sample index, clamped at zero
func (c *BeepContext) sampleAt(t float64) int64 {
	if !(t > 0) {
		return 0
	}
	return int64(math.Round(t * float64(c.sr)))
}
