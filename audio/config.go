package audio

import (
	"os"
	"strconv"
	"time"

	"github.com/lixenwraith/sonify/constant"
)

// BackendConfig selects and tunes the output device
type BackendConfig struct {
	Sink           string        // registered sink name
	SampleRate     int           // Hz
	BufferDuration time.Duration // sink latency
	MasterGain     *float64      // linear 0-1, nil means unity
}

// DefaultBackendConfig returns speaker output at the standard rate
func DefaultBackendConfig() BackendConfig {
	return BackendConfig{
		Sink:           SinkSpeaker,
		SampleRate:     constant.AudioSampleRate,
		BufferDuration: constant.AudioBufferDuration,
		MasterGain:     MasterGain(1),
	}
}

// LoadBackendConfig reads SONIFY_AUDIO_SINK, SONIFY_SAMPLE_RATE, SONIFY_BUFFER_MS
// and SONIFY_MASTER_GAIN (0-100) over the defaults, ignoring malformed values
func LoadBackendConfig() BackendConfig {
	cfg := DefaultBackendConfig()

	if sink := os.Getenv("SONIFY_AUDIO_SINK"); sink != "" {
		cfg.Sink = sink
	}

	if sampleRate := os.Getenv("SONIFY_SAMPLE_RATE"); sampleRate != "" {
		if val, err := strconv.Atoi(sampleRate); err == nil && val > 0 {
			cfg.SampleRate = val
		}
	}

	if buffer := os.Getenv("SONIFY_BUFFER_MS"); buffer != "" {
		if val, err := strconv.Atoi(buffer); err == nil && val > 0 {
			cfg.BufferDuration = time.Duration(val) * time.Millisecond
		}
	}

	// Master gain (0-100 converted to 0.0-1.0)
	if gain := os.Getenv("SONIFY_MASTER_GAIN"); gain != "" {
		if val, err := strconv.Atoi(gain); err == nil {
			cfg.MasterGain = MasterGain(float64(val) / 100.0)
		}
	}

	return cfg
}

// MasterGain returns a master gain setting clamped to [0, 1]
func MasterGain(v float64) *float64 {
	if !(v > 0) {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return &v
}

// mergeDefaults fills unset fields; an explicit zero gain stays silent
func mergeDefaults(cfg BackendConfig) BackendConfig {
	def := DefaultBackendConfig()
	if cfg.Sink == "" {
		cfg.Sink = def.Sink
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.BufferDuration <= 0 {
		cfg.BufferDuration = def.BufferDuration
	}
	if cfg.MasterGain == nil {
		cfg.MasterGain = def.MasterGain
	}
	return cfg
}
