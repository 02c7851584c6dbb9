//go:build portaudio

package audio

import (
	"sync"

	"github.com/gopxl/beep"
	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"
)

// SinkPortAudio streams through the default PortAudio output device
const SinkPortAudio = "portaudio"

func init() {
	RegisterSink(SinkPortAudio, func() Sink { return &portaudioSink{} })
}

type portaudioSink struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	src    beep.Streamer
	buf    [][2]float64
}

func (s *portaudioSink) Open(sr beep.SampleRate, bufferSize int, src beep.Streamer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream != nil {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return errors.Wrap(err, "portaudio init")
	}

	s.src = src
	s.buf = make([][2]float64, bufferSize)

	// Output only, two non-interleaved channels
	stream, err := portaudio.OpenDefaultStream(0, 2, float64(sr), bufferSize, s.process)
	if err != nil {
		portaudio.Terminate()
		return errors.Wrap(err, "portaudio open")
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return errors.Wrap(err, "portaudio start")
	}
	s.stream = stream
	return nil
}

// process runs on the PortAudio callback thread
func (s *portaudioSink) process(out [][]float32) {
	n := len(out[0])
	if cap(s.buf) < n {
		s.buf = make([][2]float64, n)
	}
	buf := s.buf[:n]
	s.src.Stream(buf)
	for i := range buf {
		out[0][i] = float32(buf[i][0])
		out[1][i] = float32(buf[i][1])
	}
}

func (s *portaudioSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		return nil
	}
	err := s.stream.Stop()
	if cerr := s.stream.Close(); err == nil {
		err = cerr
	}
	s.stream = nil
	if terr := portaudio.Terminate(); err == nil {
		err = terr
	}
	return err
}
