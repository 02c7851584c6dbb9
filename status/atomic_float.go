package status

import (
	"math"
	"sync/atomic"
)

// AtomicFloat is a float64 gauge held as its IEEE-754 bit pattern
// The zero value reads 0
type AtomicFloat struct {
	bits atomic.Uint64
}

func (f *AtomicFloat) Set(v float64) {
	f.bits.Store(math.Float64bits(v))
}

func (f *AtomicFloat) Get() float64 {
	return math.Float64frombits(f.bits.Load())
}

// Swap stores v and returns the previous value
func (f *AtomicFloat) Swap(v float64) float64 {
	return math.Float64frombits(f.bits.Swap(math.Float64bits(v)))
}

// Update applies fn until no concurrent writer intervenes and returns what was stored
func (f *AtomicFloat) Update(fn func(cur float64) float64) float64 {
	for {
		old := f.bits.Load()
		next := fn(math.Float64frombits(old))
		if f.bits.CompareAndSwap(old, math.Float64bits(next)) {
			return next
		}
	}
}

func (f *AtomicFloat) Add(delta float64) float64 {
	return f.Update(func(cur float64) float64 { return cur + delta })
}
