package sonify

import (
	"time"

	"github.com/pkg/errors"

	"github.com/lixenwraith/sonify/aesthetic"
	"github.com/lixenwraith/sonify/change"
	"github.com/lixenwraith/sonify/engine"
)

// Sentinel errors
var (
	ErrNoStore = errors.New("no store attached")
	ErrClosed  = errors.New("client closed")
)

// Stage names where a non-fatal failure happened
type Stage string

const (
	StageStateChange Stage = "state-change-processing"
	StagePlayback    Stage = "playback"
	StageAudioResume Stage = "audio-resume"
)

// ErrorInfo locates a reported failure; Change is nil for batch-level failures
type ErrorInfo struct {
	Stage  Stage
	Change *change.Change
}

// ErrorHandler receives every non-fatal failure, it must not block
type ErrorHandler func(err error, info ErrorInfo)

// CueInfo describes one rendered change
type CueInfo struct {
	Change    change.Change
	Params    aesthetic.Params
	Rendering engine.Rendering
	Offset    time.Duration
}

// Listener is the subscription callback shape
type Listener = func(current, previous any)

// Store is the state host a client attaches to
type Store interface {
	Subscribe(listener Listener) (unsubscribe func())
	GetState() any
}

// CleanupRegistrar is implemented by hosts that can run the client's cleanup on their own teardown
type CleanupRegistrar interface {
	OnClose(fn func())
}
