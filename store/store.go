// Package store is an observable in-memory key/value state container
// Every mutation publishes a fresh snapshot, so listeners may keep the
// previous one around without copying
package store

import (
	"log"
	"sort"
	"sync"
)

// Listener receives the snapshot after a mutation and the one before it
type Listener = func(current, previous any)

// State is a point-in-time snapshot, never mutated after publication
type State = map[string]any

type subscription struct {
	id uint64
	fn Listener
}

// Store holds top-level keyed state
type Store struct {
	mu       sync.Mutex
	state    State
	subs     []subscription
	nextID   uint64
	cleanups []func()
	closed   bool

	notifyMu sync.Mutex // keeps notifications in mutation order
}

// New creates a store seeded with a copy of initial
func New(initial State) *Store {
	return &Store{state: clone(initial)}
}

// GetState returns the current snapshot
func (s *Store) GetState() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot is GetState with the concrete type
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Get reads one key
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.state[key]
	return v, ok
}

// Keys returns the current keys in sorted order
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.state))
	for k := range s.state {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns one key
func (s *Store) Set(key string, value any) {
	s.Update(func(draft State) {
		draft[key] = value
	})
}

// Delete removes one key, a missing key still notifies
func (s *Store) Delete(key string) {
	s.Update(func(draft State) {
		delete(draft, key)
	})
}

// Update applies fn to a draft copy and publishes it as one mutation
func (s *Store) Update(fn func(draft State)) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	previous := s.state
	draft := clone(previous)
	fn(draft)
	s.state = draft
	subs := append([]subscription(nil), s.subs...)
	s.mu.Unlock()

	for _, sub := range subs {
		notify(sub, draft, previous)
	}
}

// Subscribe registers l and returns its unsubscribe function
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: l})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i], s.subs[i+1:]...)
					break
				}
			}
		})
	}
}

// Listeners returns the subscriber count
func (s *Store) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// OnClose registers a cleanup run by Close, in registration order
func (s *Store) OnClose(fn func()) {
	s.mu.Lock()
	if !s.closed {
		s.cleanups = append(s.cleanups, fn)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn()
}

// Close runs cleanups, drops subscribers and rejects further mutations
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cleanups := s.cleanups
	s.cleanups = nil
	s.mu.Unlock()

	for _, fn := range cleanups {
		fn()
	}

	s.mu.Lock()
	s.subs = nil
	s.mu.Unlock()
}

// notify isolates a listener panic from the mutation and other listeners
func notify(sub subscription, current, previous State) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[STORE] listener %d panicked: %v", sub.id, r)
		}
	}()
	sub.fn(current, previous)
}

func clone(src State) State {
	dst := make(State, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
