package main

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/lixenwraith/sonify/sonify"
	"github.com/lixenwraith/sonify/store"
)

var labels = []string{"idle", "loading", "ready", "syncing", "degraded", "offline", "café", "終了"}

// initialState seeds the demo store
func initialState() store.State {
	return store.State{
		"score":  50,
		"active": false,
		"items":  []any{},
		"label":  "idle",
	}
}

// action is one keyboard-driven store mutation
type action struct {
	key   rune
	label string
	apply func(draft store.State, rng *rand.Rand)
}

var actions = []action{
	{'+', "score+", func(d store.State, rng *rand.Rand) { d["score"] = intOf(d["score"]) + 1 + rng.Intn(5) }},
	{'-', "score-", func(d store.State, rng *rand.Rand) { d["score"] = intOf(d["score"]) - 1 - rng.Intn(5) }},
	{'j', "jump", func(d store.State, _ *rand.Rand) { d["score"] = intOf(d["score"])*10 + 1 }},
	{'t', "toggle", func(d store.State, _ *rand.Rand) { b, _ := d["active"].(bool); d["active"] = !b }},
	{'a', "push", func(d store.State, rng *rand.Rand) {
		items, _ := d["items"].([]any)
		next := make([]any, len(items), len(items)+1)
		copy(next, items)
		d["items"] = append(next, rng.Intn(100))
	}},
	{'x', "pop", func(d store.State, _ *rand.Rand) {
		items, _ := d["items"].([]any)
		if len(items) > 0 {
			d["items"] = append([]any(nil), items[:len(items)-1]...)
		}
	}},
	{'l', "label", func(d store.State, rng *rand.Rand) { d["label"] = labels[rng.Intn(len(labels))] }},
	{'d', "drop label", func(d store.State, _ *rand.Rand) {
		if _, ok := d["label"]; ok {
			delete(d, "label")
		} else {
			d["label"] = labels[0]
		}
	}},
}

func findAction(key rune) (action, bool) {
	for _, a := range actions {
		if a.key == key {
			return a, true
		}
	}
	return action{}, false
}

func intOf(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

// cueEntry is one rendered cue as shown in the log
type cueEntry struct {
	at    time.Time
	text  string
	color colorful.Color
}

// cueLog keeps the most recent cues; OnCue may fire from timer goroutines
type cueLog struct {
	mu      sync.Mutex
	entries []cueEntry
	max     int
}

func newCueLog(max int) *cueLog {
	return &cueLog{max: max}
}

func (l *cueLog) Add(ci sonify.CueInfo) {
	e := cueEntry{at: time.Now(), text: formatCue(ci), color: cueColor(ci)}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
}

// Recent returns up to n entries, newest first
func (l *cueLog) Recent(n int) []cueEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]cueEntry, 0, n)
	for i := len(l.entries) - 1; i >= len(l.entries)-n; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

func formatCue(ci sonify.CueInfo) string {
	if ci.Rendering.Skipped {
		return fmt.Sprintf("%-8s %-6s (silent)", ci.Change.Path, ci.Change.Op)
	}
	return fmt.Sprintf("%-8s %-6s %7.1fHz %+5.1fst %4.0fms +%dms",
		ci.Change.Path, ci.Change.Op,
		ci.Rendering.RootHz, ci.Rendering.Semitones,
		ci.Rendering.Duration*1000, ci.Offset.Milliseconds())
}

// cueColor maps valence to hue (red → green), brightness to saturation and arousal to value
func cueColor(ci sonify.CueInfo) colorful.Color {
	p := ci.Params
	return colorful.Hsv(p.Valence*120, 0.3+0.7*p.Brightness, 0.5+0.5*p.Arousal).Clamped()
}
