package sonify

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/lixenwraith/sonify/aesthetic"
	"github.com/lixenwraith/sonify/change"
	"github.com/lixenwraith/sonify/clock"
	"github.com/lixenwraith/sonify/constant"
	"github.com/lixenwraith/sonify/engine"
	"github.com/lixenwraith/sonify/status"
)

// Config controls one client
type Config struct {
	Enabled      bool
	Volume       float64 // global gain multiplier, 0-1
	DebounceMs   int     // batching window, 0 renders immediately
	StaggerMs    int     // spacing between changes of one batch
	MaxStaggerMs int     // stagger ceiling, 0 means none

	// SoundMapping overrides sound per top-level path
	SoundMapping map[string]SoundParams
	// Aesthetics is a static layer applied to every change
	Aesthetics *aesthetic.Overrides
	// MapChangeToAesthetics returns a per-change layer applied last, nil result is ignored
	MapChangeToAesthetics func(change.Change) *aesthetic.Overrides

	// PerformanceMode skips dissonance scoring and uses the static ranking
	PerformanceMode bool

	OnError ErrorHandler
	OnCue   func(CueInfo)

	// Engine defaults to engine.Shared()
	Engine *engine.Engine
	// Clock drives debounce timers, defaults to the wall clock
	Clock  clock.Clock
	Status *status.Registry
}

// DefaultConfig returns an enabled client rendering changes immediately
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		Volume:       constant.DefaultVolume,
		StaggerMs:    int(constant.DefaultStagger / time.Millisecond),
		MaxStaggerMs: int(constant.DefaultMaxStagger / time.Millisecond),
	}
}

// LoadConfig reads SONIFY_* environment variables over DefaultConfig
// Malformed values are logged and ignored
func LoadConfig() Config {
	cfg := DefaultConfig()

	if enabled := os.Getenv("SONIFY_ENABLED"); enabled != "" {
		if val, err := strconv.ParseBool(enabled); err == nil {
			cfg.Enabled = val
		}
	}

	// Volume (0-100 converted to 0.0-1.0)
	if volume := os.Getenv("SONIFY_VOLUME"); volume != "" {
		if val, err := strconv.Atoi(volume); err == nil {
			cfg.Volume = clamp01(float64(val) / 100.0)
		}
	}

	readMs := func(name string, dst *int) {
		if raw := os.Getenv(name); raw != "" {
			if val, err := strconv.Atoi(raw); err == nil && val >= 0 {
				*dst = val
			}
		}
	}
	readMs("SONIFY_DEBOUNCE_MS", &cfg.DebounceMs)
	readMs("SONIFY_STAGGER_MS", &cfg.StaggerMs)
	readMs("SONIFY_MAX_STAGGER_MS", &cfg.MaxStaggerMs)

	if perf := os.Getenv("SONIFY_PERFORMANCE_MODE"); perf != "" {
		if val, err := strconv.ParseBool(perf); err == nil {
			cfg.PerformanceMode = val
		}
	}

	if mapping := os.Getenv("SONIFY_SOUND_MAPPING"); mapping != "" {
		var m map[string]SoundParams
		if err := json.Unmarshal([]byte(mapping), &m); err != nil {
			log.Printf("[SONIFY] ignoring SONIFY_SOUND_MAPPING: %v", err)
		} else {
			cfg.SoundMapping = m
		}
	}

	if aes := os.Getenv("SONIFY_AESTHETICS"); aes != "" {
		var o aesthetic.Overrides
		if err := json.Unmarshal([]byte(aes), &o); err != nil {
			log.Printf("[SONIFY] ignoring SONIFY_AESTHETICS: %v", err)
		} else {
			cfg.Aesthetics = &o
		}
	}

	return cfg
}

func (c Config) debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// staggerAt returns min(i·stagger, maxStagger); a non-positive ceiling is unbounded
func (c Config) staggerAt(i int) time.Duration {
	d := time.Duration(i) * time.Duration(c.StaggerMs) * time.Millisecond
	if ceiling := time.Duration(c.MaxStaggerMs) * time.Millisecond; ceiling > 0 && d > ceiling {
		d = ceiling
	}
	if d < 0 {
		d = 0
	}
	return d
}

func clamp01(v float64) float64 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
