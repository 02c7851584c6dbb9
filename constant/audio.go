package constant

import "time"

// Audio Hardware Settings
const (
	AudioSampleRate = 44100
	AudioChannels   = 2

	// AudioBufferDuration determines sink latency
	AudioBufferDuration = 50 * time.Millisecond
)

// Soft limiter knee, applied to the mixed output before it reaches the sink
const (
	LimiterThreshold = 0.8
	LimiterCeiling   = 0.2
	LimiterSlope     = 5.0
)

// Lookahead Scheduling
const (
	// LookaheadHorizon is how far ahead of the audio clock tasks are dispatched (seconds)
	LookaheadHorizon = 0.1

	// LookaheadPoll is the pump re-arm delay while items remain queued
	LookaheadPoll = 25 * time.Millisecond

	// ScheduleLatency pushes cue onsets slightly past the current audio time (seconds)
	ScheduleLatency = 0.005
)

// Cue Defaults
const (
	// DefaultCueDuration applies when neither aesthetics nor mapping set a duration (seconds)
	DefaultCueDuration = 0.15

	// DefaultHarmonics is the timbre harmonic count when no override names one
	DefaultHarmonics = 10

	// DefaultVolume is the global gain multiplier
	DefaultVolume = 0.3

	// DefaultStagger and DefaultMaxStagger space out changes within a batch
	DefaultStagger    = 40 * time.Millisecond
	DefaultMaxStagger = 400 * time.Millisecond
)

// Caches
const (
	// RankingCacheSize bounds the consonance ranking cache (FIFO eviction)
	RankingCacheSize = 256

	// WaveTableSize is the sample length of one synthesized waveform period
	WaveTableSize = 2048
)

// Envelope shaping, each pair is (floor, arousal-scaled span) in seconds
const (
	EnvAttackMin   = 0.005
	EnvAttackSpan  = 0.045
	EnvDecayMin    = 0.02
	EnvDecaySpan   = 0.08
	EnvReleaseMin  = 0.03
	EnvReleaseSpan = 0.12

	EnvSustainFloor = 0.3
	EnvSustainSpan  = 0.5

	// EnvMaxSpread is the largest onset gap between dyad voices, as a fraction of duration
	EnvMaxSpread = 0.8
)
