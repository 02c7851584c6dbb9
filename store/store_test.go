package store

import (
	"testing"
)

// TestUpdatePublishesSnapshots verifies listeners see distinct current and previous snapshots
func TestUpdatePublishesSnapshots(t *testing.T) {
	s := New(State{"count": 1})

	var got [][2]State
	s.Subscribe(func(current, previous any) {
		got = append(got, [2]State{current.(State), previous.(State)})
	})

	s.Set("count", 2)
	s.Delete("count")

	if len(got) != 2 {
		t.Fatalf("notifications = %d, want 2", len(got))
	}
	if got[0][0]["count"] != 2 || got[0][1]["count"] != 1 {
		t.Errorf("first = %v", got[0])
	}
	if _, ok := got[1][0]["count"]; ok {
		t.Error("delete should remove key from current")
	}
	if got[1][1]["count"] != 2 {
		t.Errorf("second previous = %v", got[1][1])
	}
}

// TestSubscribeUnsubscribe verifies unsubscribe is idempotent and stops delivery
func TestSubscribeUnsubscribe(t *testing.T) {
	s := New(nil)
	calls := 0
	unsub := s.Subscribe(func(any, any) { calls++ })

	s.Set("a", 1)
	unsub()
	unsub()
	s.Set("a", 2)

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if s.Listeners() != 0 {
		t.Errorf("listeners = %d", s.Listeners())
	}
}

// TestUpdateBatches verifies a multi-key update notifies once
func TestUpdateBatches(t *testing.T) {
	s := New(nil)
	calls := 0
	s.Subscribe(func(any, any) { calls++ })

	s.Update(func(d State) {
		d["a"] = 1
		d["b"] = "x"
	})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if keys := s.Keys(); len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("keys = %v", keys)
	}
}

// TestListenerPanicIsolated verifies one failing listener does not block others or the mutation
func TestListenerPanicIsolated(t *testing.T) {
	s := New(nil)
	s.Subscribe(func(any, any) { panic("listener bug") })
	second := false
	s.Subscribe(func(any, any) { second = true })

	s.Set("k", true)

	if v, _ := s.Get("k"); v != true {
		t.Error("mutation lost")
	}
	if !second {
		t.Error("second listener not called")
	}
}

// TestCloseRunsCleanups verifies OnClose hooks and post-close behaviour
func TestCloseRunsCleanups(t *testing.T) {
	s := New(nil)
	var order []int
	s.OnClose(func() { order = append(order, 1) })
	s.OnClose(func() { order = append(order, 2) })

	s.Close()
	s.Close()

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("cleanup order = %v", order)
	}

	late := false
	s.OnClose(func() { late = true })
	if !late {
		t.Error("cleanup registered after close should run immediately")
	}

	s.Set("x", 1)
	if _, ok := s.Get("x"); ok {
		t.Error("closed store accepted a mutation")
	}
}

// TestNewCopiesInitial verifies the seed map is not aliased
func TestNewCopiesInitial(t *testing.T) {
	seed := State{"a": 1}
	s := New(seed)
	seed["a"] = 99
	if v, _ := s.Get("a"); v != 1 {
		t.Errorf("a = %v, want 1", v)
	}
}
