package status

import (
	"sync"
	"testing"
)

// TestRegistryCounterIdentity verifies repeated lookups share one counter
func TestRegistryCounterIdentity(t *testing.T) {
	r := NewRegistry()
	a := r.Counter(CuesRendered)
	b := r.Counter(CuesRendered)
	if a != b {
		t.Fatal("expected cached pointer")
	}
	a.Add(2)
	if b.Load() != 2 {
		t.Errorf("counter = %d, want 2", b.Load())
	}
}

// TestRegistryNilSafe verifies a nil registry hands out detached metrics
func TestRegistryNilSafe(t *testing.T) {
	var r *Registry
	r.Counter(ErrorsPlayback).Add(1)
	r.Gauge(EngineRetain).Set(3)
	if len(r.Snapshot()) != 0 {
		t.Error("nil registry snapshot should be empty")
	}
}

// TestRegistrySnapshot verifies counters and gauges are both reported
func TestRegistrySnapshot(t *testing.T) {
	r := NewRegistry()
	r.Counter(BatchesFlushed).Add(4)
	r.Gauge(EngineRetain).Set(2)

	snap := r.Snapshot()
	if snap[BatchesFlushed] != 4 || snap[EngineRetain] != 2 {
		t.Errorf("snapshot = %v", snap)
	}
	if r.TotalCount() != 2 {
		t.Errorf("TotalCount = %d, want 2", r.TotalCount())
	}
}

// TestAtomicFloatSwapUpdate verifies Swap returns the old value and Update stores fn's result
func TestAtomicFloatSwapUpdate(t *testing.T) {
	var f AtomicFloat
	if prev := f.Swap(0.3); prev != 0 {
		t.Errorf("Swap on zero value returned %v", prev)
	}
	if prev := f.Swap(0.7); prev != 0.3 {
		t.Errorf("Swap returned %v, want 0.3", prev)
	}
	got := f.Update(func(cur float64) float64 { return cur * 2 })
	if got != 1.4 || f.Get() != 1.4 {
		t.Errorf("Update = %v, Get = %v, want 1.4", got, f.Get())
	}
}

// TestAtomicFloatConcurrentAdd verifies the CAS loop under contention
func TestAtomicFloatConcurrentAdd(t *testing.T) {
	var f AtomicFloat
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				f.Add(0.5)
			}
		}()
	}
	wg.Wait()
	if f.Get() != 2500 {
		t.Errorf("sum = %v, want 2500", f.Get())
	}
}

// TestMetricMapRangeSorted verifies deterministic iteration
func TestMetricMapRangeSorted(t *testing.T) {
	m := NewMetricMap[int]()
	for _, k := range []string{"c", "a", "b"} {
		*m.Get(k) = len(k)
	}
	var keys []string
	m.Range(func(key string, _ *int) {
		keys = append(keys, key)
	})
	if len(keys) != 3 || keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Errorf("keys = %v", keys)
	}
	if got := m.Keys(); len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("Keys() = %v", got)
	}
	if !m.Has("a") || m.Has("z") {
		t.Error("Has mismatch")
	}
}
