package audio

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/lixenwraith/sonify/wave"
)

// Fake is an in-memory Context recording the graph it is asked to build
// Time moves only through SetTime
type Fake struct {
	mu        sync.Mutex
	now       float64
	state     State
	resumeErr error

	ResumeCalls int
	CloseCalls  int

	oscillators []*FakeOscillator
	gains       []*FakeGain
	dest        *fakeNode
}

// NewFake creates a suspended fake context at time 0
func NewFake() *Fake {
	f := &Fake{state: StateSuspended}
	f.dest = &fakeNode{ctx: f, name: "destination"}
	return f
}

// SetTime moves the audio clock
func (f *Fake) SetTime(t float64) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

// FailResume makes subsequent Resume calls return err, nil clears it
func (f *Fake) FailResume(err error) {
	f.mu.Lock()
	f.resumeErr = err
	f.mu.Unlock()
}

// SetState forces a lifecycle state
func (f *Fake) SetState(s State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

func (f *Fake) CurrentTime() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Fake) Resume(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ResumeCalls++
	if f.state == StateClosed {
		return ErrClosed
	}
	if f.resumeErr != nil {
		return f.resumeErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.state = StateRunning
	return nil
}

func (f *Fake) NewOscillator() Oscillator {
	f.mu.Lock()
	defer f.mu.Unlock()

	o := &FakeOscillator{fakeNode: fakeNode{ctx: f, name: "oscillator"}}
	f.oscillators = append(f.oscillators, o)
	return o
}

func (f *Fake) NewGain() Gain {
	f.mu.Lock()
	defer f.mu.Unlock()

	g := &FakeGain{fakeNode: fakeNode{ctx: f, name: "gain"}, param: &FakeParam{}}
	f.gains = append(f.gains, g)
	return g
}

func (f *Fake) Destination() Node {
	return f.dest
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CloseCalls++
	f.state = StateClosed
	return nil
}

// Oscillators returns the oscillators created so far
func (f *Fake) Oscillators() []*FakeOscillator {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeOscillator(nil), f.oscillators...)
}

// Gains returns the gains created so far
func (f *Fake) Gains() []*FakeGain {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeGain(nil), f.gains...)
}

// IsDestination reports whether n is this context's destination
func (f *Fake) IsDestination(n Node) bool {
	return n == Node(f.dest)
}

type fakeNode struct {
	ctx  *Fake
	name string

	mu  sync.Mutex
	out Node
}

func (n *fakeNode) Connect(dst Node) error {
	if dst == nil {
		return errors.Wrap(ErrInvalidConnection, "nil target")
	}
	if n.name == "destination" {
		return errors.Wrap(ErrInvalidConnection, "destination has no output")
	}
	n.mu.Lock()
	n.out = dst
	n.mu.Unlock()
	return nil
}

// Output returns the connected node
func (n *fakeNode) Output() Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.out
}

// FakeOscillator records frequency, waveform and start/stop times
type FakeOscillator struct {
	fakeNode

	Frequency float64
	Waveform  *wave.Waveform
	StartAt   float64
	StopAt    float64
	Started   bool
	Stopped   bool
}

func (o *FakeOscillator) SetFrequency(hz float64) {
	o.mu.Lock()
	o.Frequency = hz
	o.mu.Unlock()
}

func (o *FakeOscillator) SetWaveform(w *wave.Waveform) {
	o.mu.Lock()
	o.Waveform = w
	o.mu.Unlock()
}

func (o *FakeOscillator) Start(at float64) error {
	if o.ctx.State() == StateClosed {
		return ErrClosed
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Started {
		return errors.New("oscillator already started")
	}
	o.StartAt, o.Started = at, true
	return nil
}

func (o *FakeOscillator) Stop(at float64) {
	o.mu.Lock()
	o.StopAt, o.Stopped = at, true
	o.mu.Unlock()
}

// FakeGain records automation calls
type FakeGain struct {
	fakeNode
	param *FakeParam
}

func (g *FakeGain) Gain() Param {
	return g.param
}

// Param returns the recording param
func (g *FakeGain) Param() *FakeParam {
	return g.param
}

// ParamEvent is one recorded automation call
type ParamEvent struct {
	Value float64
	At    float64
	Ramp  bool
}

// FakeParam records automation calls in call order
type FakeParam struct {
	mu     sync.Mutex
	events []ParamEvent
}

func (p *FakeParam) SetValueAtTime(value, at float64) {
	p.mu.Lock()
	p.events = append(p.events, ParamEvent{Value: value, At: at})
	p.mu.Unlock()
}

func (p *FakeParam) LinearRampToValueAtTime(value, at float64) {
	p.mu.Lock()
	p.events = append(p.events, ParamEvent{Value: value, At: at, Ramp: true})
	p.mu.Unlock()
}

// Events returns recorded calls
func (p *FakeParam) Events() []ParamEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ParamEvent(nil), p.events...)
}

// FakeFactory hands out fresh Fake contexts and remembers them
type FakeFactory struct {
	mu       sync.Mutex
	contexts []*Fake
	err      error
	none     bool
}

// NewFakeFactory creates a factory producing suspended fakes
func NewFakeFactory() *FakeFactory {
	return &FakeFactory{}
}

// Fail makes the factory return err
func (ff *FakeFactory) Fail(err error) {
	ff.mu.Lock()
	ff.err = err
	ff.mu.Unlock()
}

// NoAudio makes the factory report a host without audio
func (ff *FakeFactory) NoAudio() {
	ff.mu.Lock()
	ff.none = true
	ff.mu.Unlock()
}

// New implements Factory
func (ff *FakeFactory) New() (Context, error) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if ff.err != nil {
		return nil, ff.err
	}
	if ff.none {
		return nil, nil
	}
	f := NewFake()
	ff.contexts = append(ff.contexts, f)
	return f, nil
}

// Contexts returns every context created so far
func (ff *FakeFactory) Contexts() []*Fake {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	return append([]*Fake(nil), ff.contexts...)
}

// Last returns the most recent context or nil
func (ff *FakeFactory) Last() *Fake {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	if len(ff.contexts) == 0 {
		return nil
	}
	return ff.contexts[len(ff.contexts)-1]
}
