package wave

import (
	"math"
	"sync"

	"github.com/lixenwraith/sonify/timbre"
)

type cacheKey struct {
	brightness int64 // 0.001
	harmonics  int
}

// Cache holds synthesized waveforms for one output context
// Entries live until Clear, which the owner calls when that context is torn down
type Cache struct {
	mu    sync.RWMutex
	store map[cacheKey]*Waveform
}

// NewCache creates an empty waveform cache
func NewCache() *Cache {
	return &Cache{store: make(map[cacheKey]*Waveform)}
}

// Get returns the cached waveform for the key or synthesizes it
// Identical quantized keys return the same *Waveform
func (c *Cache) Get(brightness float64, harmonics int) (*Waveform, error) {
	key := cacheKey{
		brightness: int64(math.Round(brightness * 1000)),
		harmonics:  timbre.CapHarmonics(harmonics),
	}

	c.mu.RLock()
	if w, ok := c.store[key]; ok {
		c.mu.RUnlock()
		return w, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if w, ok := c.store[key]; ok {
		return w, nil
	}

	w, err := Synthesize(float64(key.brightness)/1000, key.harmonics)
	if err != nil {
		return nil, err
	}
	c.store[key] = w
	return w, nil
}

// Len returns the number of cached waveforms
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Clear drops every cached waveform
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[cacheKey]*Waveform)
}
