package audio

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/lixenwraith/sonify/status"
	"github.com/lixenwraith/sonify/wave"
)

// maxChainDepth bounds gain chains, deeper graphs are treated as cycles
const maxChainDepth = 32

type destination struct {
	ctx *BeepContext
}

func (d *destination) Connect(Node) error {
	return errors.Wrap(ErrInvalidConnection, "destination has no output")
}

type gainNode struct {
	ctx  *BeepContext
	gain *automation

	mu  sync.Mutex
	out Node
}

func (g *gainNode) Connect(dst Node) error {
	if err := g.ctx.checkTarget(dst); err != nil {
		return err
	}
	g.mu.Lock()
	g.out = dst
	g.mu.Unlock()
	return nil
}

func (g *gainNode) Gain() Param {
	return g.gain
}

func (g *gainNode) output() Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.out
}

type oscillatorNode struct {
	ctx  *BeepContext
	freq *status.AtomicFloat

	mu      sync.Mutex
	out     Node
	table   *wave.Waveform
	stopAt  float64
	stopSet bool
	voice   *voice
}

func newOscillator(c *BeepContext) *oscillatorNode {
	o := &oscillatorNode{ctx: c, freq: new(status.AtomicFloat)}
	o.freq.Set(440)
	return o
}

func (o *oscillatorNode) Connect(dst Node) error {
	if err := o.ctx.checkTarget(dst); err != nil {
		return err
	}
	o.mu.Lock()
	o.out = dst
	o.mu.Unlock()
	return nil
}

func (o *oscillatorNode) SetFrequency(hz float64) {
	o.freq.Set(hz)
}

func (o *oscillatorNode) SetWaveform(w *wave.Waveform) {
	o.mu.Lock()
	o.table = w
	o.mu.Unlock()
}

// Start resolves the route to the destination and begins mixing at audio time at
func (o *oscillatorNode) Start(at float64) error {
	if o.ctx.State() == StateClosed {
		return ErrClosed
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.voice != nil {
		return errors.New("oscillator already started")
	}

	gains, err := resolveChain(o.out)
	if err != nil {
		return err
	}

	v := &voice{
		sr:    float64(o.ctx.sr),
		freq:  o.freq,
		table: o.table,
		gains: gains,
		start: o.ctx.sampleAt(at),
	}
	if o.stopSet {
		v.stop.Store(o.ctx.sampleAt(o.stopAt))
	} else {
		v.stop.Store(math.MaxInt64)
	}
	o.voice = v
	o.ctx.addVoice(v)
	return nil
}

// Stop schedules the end of the tone, before or after Start
func (o *oscillatorNode) Stop(at float64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.stopAt, o.stopSet = at, true
	if o.voice != nil {
		o.voice.stop.Store(o.ctx.sampleAt(at))
	}
}

// resolveChain walks gains from node to the destination
func resolveChain(node Node) ([]*automation, error) {
	var gains []*automation
	for depth := 0; depth <= maxChainDepth; depth++ {
		switch n := node.(type) {
		case *destination:
			return gains, nil
		case *gainNode:
			gains = append(gains, n.gain)
			node = n.output()
		case nil:
			return nil, errors.Wrap(ErrInvalidConnection, "not routed to destination")
		default:
			return nil, errors.Wrapf(ErrInvalidConnection, "unexpected node %T", n)
		}
	}
	return nil, errors.Wrap(ErrInvalidConnection, "gain chain too deep or cyclic")
}

// voice is the streamer realising one started oscillator and its gain chain
type voice struct {
	sr    float64
	freq  *status.AtomicFloat
	table *wave.Waveform
	gains []*automation

	start int64
	stop  atomic.Int64

	// touched only from the stream goroutine after addVoice
	pos   int64
	phase float64
}

func (v *voice) Stream(samples [][2]float64) (int, bool) {
	stop := v.stop.Load()
	if v.pos >= stop {
		return 0, false
	}

	step := v.freq.Get() / v.sr
	for i := range samples {
		var s float64
		if v.pos >= v.start && v.pos < stop {
			if v.table != nil {
				s = v.table.Sample(v.phase)
			} else {
				s = math.Sin(2 * math.Pi * v.phase)
			}
			v.phase += step
			v.phase -= math.Floor(v.phase)

			t := float64(v.pos) / v.sr
			for _, g := range v.gains {
				s *= g.valueAt(t)
			}
		}
		samples[i][0] = s
		samples[i][1] = s
		v.pos++
	}
	return len(samples), true
}

func (v *voice) Err() error {
	return nil
}
