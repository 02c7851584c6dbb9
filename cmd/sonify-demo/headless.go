package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/lixenwraith/sonify/sonify"
	"github.com/lixenwraith/sonify/status"
	"github.com/lixenwraith/sonify/store"
)

// runHeadless applies random actions on a ticker and prints each cue
func runHeadless(s *store.Store, cfg sonify.Config, reg *status.Registry, sink string) error {
	cfg.OnCue = func(ci sonify.CueInfo) {
		fmt.Println(formatCue(ci))
	}
	cfg.OnError = func(err error, info sonify.ErrorInfo) {
		fmt.Printf("error [%s]: %v\n", info.Stage, err)
	}

	client, err := sonify.Attach(s, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	fmt.Printf("sonify-demo: headless, sink=%s debounce=%dms\n", sink, cfg.DebounceMs)

	sigCh, stop := notifyShutdown()
	defer stop()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	interval := *intervalFlag
	if interval <= 0 {
		interval = 400 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for n := 0; *countFlag == 0 || n < *countFlag; n++ {
		select {
		case <-sigCh:
			return nil
		case <-ticker.C:
			a := actions[rng.Intn(len(actions))]
			s.Update(func(d store.State) { a.apply(d, rng) })
		}
	}

	// Let the last cue leave the scheduler before the engine is released
	client.Flush()
	time.Sleep(500 * time.Millisecond)

	for _, key := range reg.Counters.Keys() {
		fmt.Printf("%s=%d\n", key, reg.Counter(key).Load())
	}
	return nil
}
