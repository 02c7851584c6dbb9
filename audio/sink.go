package audio

import (
	"sort"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/pkg/errors"
)

// Registered sink names
const (
	SinkSpeaker = "speaker"
	SinkNull    = "null"
)

// Sink pulls rendered samples from a streamer into a device
type Sink interface {
	Open(sr beep.SampleRate, bufferSize int, src beep.Streamer) error
	Close() error
}

// SinkFactory builds a fresh sink per context
type SinkFactory func() Sink

var (
	sinkMu sync.RWMutex
	sinks  = map[string]SinkFactory{
		SinkSpeaker: func() Sink { return &speakerSink{} },
		SinkNull:    func() Sink { return &nullSink{} },
	}
)

// RegisterSink adds or replaces a named sink
func RegisterSink(name string, f SinkFactory) {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	sinks[name] = f
}

// NewSink builds the named sink
func NewSink(name string) (Sink, error) {
	sinkMu.RLock()
	f, ok := sinks[name]
	sinkMu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSink, "%q", name)
	}
	return f(), nil
}

// SinkNames lists registered sinks in sorted order
func SinkNames() []string {
	sinkMu.RLock()
	defer sinkMu.RUnlock()

	names := make([]string, 0, len(sinks))
	for name := range sinks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// speakerSink plays through the process-wide beep speaker
type speakerSink struct {
	mu   sync.Mutex
	open bool
}

func (s *speakerSink) Open(sr beep.SampleRate, bufferSize int, src beep.Streamer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return nil
	}
	if err := speaker.Init(sr, bufferSize); err != nil {
		return err
	}
	speaker.Play(src)
	s.open = true
	return nil
}

func (s *speakerSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil
	}
	speaker.Clear()
	speaker.Close()
	s.open = false
	return nil
}

// nullSink drains the streamer on a ticker and discards the samples
// Hosts without a device still get an advancing audio clock
type nullSink struct {
	mu     sync.Mutex
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func (s *nullSink) Open(sr beep.SampleRate, bufferSize int, src beep.Streamer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopCh != nil {
		return nil
	}
	if bufferSize <= 0 {
		bufferSize = sr.N(50 * time.Millisecond)
	}
	s.stopCh = make(chan struct{})
	s.wg.Add(1)
	go s.loop(sr.D(bufferSize), bufferSize, src, s.stopCh)
	return nil
}

func (s *nullSink) loop(period time.Duration, bufferSize int, src beep.Streamer, stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	buf := make([][2]float64, bufferSize)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, ok := src.Stream(buf); !ok {
				return
			}
		}
	}
}

func (s *nullSink) Close() error {
	s.mu.Lock()
	stop := s.stopCh
	s.stopCh = nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		s.wg.Wait()
	}
	return nil
}
