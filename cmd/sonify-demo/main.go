// sonify-demo mutates a small store from the keyboard and plays each change
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"slices"
	"time"

	"golang.org/x/term"

	"github.com/lixenwraith/sonify/audio"
	"github.com/lixenwraith/sonify/engine"
	"github.com/lixenwraith/sonify/sonify"
	"github.com/lixenwraith/sonify/status"
	"github.com/lixenwraith/sonify/store"
)

var (
	debugFlag    = flag.Bool("debug", false, "Write logs to logs/sonify-demo.log")
	sinkFlag     = flag.String("sink", "", "Audio sink (overrides SONIFY_AUDIO_SINK)")
	debounceFlag = flag.Int("debounce", -1, "Debounce window in ms, negative keeps SONIFY_DEBOUNCE_MS")
	headlessFlag = flag.Bool("headless", false, "Run scripted mutations without a terminal UI")
	intervalFlag = flag.Duration("interval", 400*time.Millisecond, "Headless mutation interval")
	countFlag    = flag.Int("count", 0, "Headless mutation count, 0 runs until interrupted")
)

func main() {
	flag.Parse()

	if logFile := setupLogging(*debugFlag); logFile != nil {
		defer logFile.Close()
	}

	backend := audio.LoadBackendConfig()
	if *sinkFlag != "" {
		backend.Sink = *sinkFlag
	}
	if !slices.Contains(audio.SinkNames(), backend.Sink) {
		fmt.Fprintf(os.Stderr, "Unknown sink %q (available: %v)\n", backend.Sink, audio.SinkNames())
		os.Exit(2)
	}

	reg := status.NewRegistry()
	eng := engine.New(engine.Config{
		Factory: audio.BeepFactory(backend),
		Status:  reg,
	})

	cfg := sonify.LoadConfig()
	cfg.Engine = eng
	cfg.Status = reg
	if *debounceFlag >= 0 {
		cfg.DebounceMs = *debounceFlag
	}

	s := store.New(initialState())
	defer s.Close()

	headless := *headlessFlag || !term.IsTerminal(int(os.Stdout.Fd()))
	if headless {
		if err := runHeadless(s, cfg, reg, backend.Sink); err != nil {
			fmt.Fprintf(os.Stderr, "sonify-demo: %v\n", err)
			os.Exit(1)
		}
		return
	}

	demo, err := NewDemo(s, cfg, reg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}

	// Restore the terminal before reporting a crash
	defer func() {
		if r := recover(); r != nil {
			demo.cleanup()
			fmt.Fprintf(os.Stderr, "\n\x1b[31mSONIFY-DEMO CRASHED: %v\x1b[0m\n", r)
			fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", debug.Stack())
			os.Exit(1)
		}
	}()
	defer demo.cleanup()

	demo.run()
}
