package audio

import (
	"sort"
	"sync"
	"sync/atomic"
)

type paramEvent struct {
	at    float64
	value float64
	ramp  bool
}

// automation is a copy-on-write event list so the audio goroutine reads without locking
type automation struct {
	initial float64
	mu      sync.Mutex // serializes writers
	events  atomic.Pointer[[]paramEvent]
}

func newAutomation(initial float64) *automation {
	a := &automation{initial: initial}
	a.events.Store(&[]paramEvent{})
	return a
}

func (a *automation) SetValueAtTime(value, at float64) {
	a.insert(paramEvent{at: at, value: value})
}

func (a *automation) LinearRampToValueAtTime(value, at float64) {
	a.insert(paramEvent{at: at, value: value, ramp: true})
}

// insert keeps events sorted by time, equal times in call order
func (a *automation) insert(e paramEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	cur := *a.events.Load()
	pos := sort.Search(len(cur), func(i int) bool {
		return cur[i].at > e.at
	})
	next := make([]paramEvent, 0, len(cur)+1)
	next = append(next, cur[:pos]...)
	next = append(next, e)
	next = append(next, cur[pos:]...)
	a.events.Store(&next)
}

// valueAt evaluates the automation curve at audio time t
// A ramp interpolates from the preceding event, or from the initial value at time 0
func (a *automation) valueAt(t float64) float64 {
	events := *a.events.Load()

	prevAt, prevValue := 0.0, a.initial
	for _, e := range events {
		if e.at <= t {
			prevAt, prevValue = e.at, e.value
			continue
		}
		if !e.ramp {
			return prevValue
		}
		span := e.at - prevAt
		if span <= 0 {
			return e.value
		}
		return prevValue + (e.value-prevValue)*(t-prevAt)/span
	}
	return prevValue
}
