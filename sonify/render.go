package sonify

import (
	"time"

	"github.com/pkg/errors"

	"github.com/lixenwraith/sonify/aesthetic"
	"github.com/lixenwraith/sonify/change"
	"github.com/lixenwraith/sonify/engine"
)

// render plays changes in order, each offset by its stagger position
func (c *Client) render(changes []change.Change) {
	for i, ch := range changes {
		c.renderOne(ch, c.cfg.staggerAt(i))
	}
}

// renderOne isolates one change so a failure cannot block the rest of the batch
func (c *Client) renderOne(ch change.Change, offset time.Duration) {
	cue, params, ok := c.resolve(ch, offset)
	if !ok {
		c.statSkipped.Add(1)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			c.statSkipped.Add(1)
			c.report(errors.Errorf("panic: %v", r), ErrorInfo{Stage: StagePlayback, Change: &ch})
		}
	}()

	r, err := c.eng.Play(c.ctx, cue)
	if err != nil {
		c.statSkipped.Add(1)
		stage := StagePlayback
		if errors.Is(err, engine.ErrResume) {
			stage = StageAudioResume
		}
		c.report(err, ErrorInfo{Stage: stage, Change: &ch})
		return
	}

	if r.Skipped {
		c.statSkipped.Add(1)
	} else {
		c.statRendered.Add(1)
	}

	if c.cfg.OnCue != nil {
		c.cfg.OnCue(CueInfo{Change: ch, Params: params, Rendering: r, Offset: offset})
	}
}

// resolve layers baseline → static aesthetics → path mapping → hook and builds the cue
// A failing hook is a pipeline failure
func (c *Client) resolve(ch change.Change, offset time.Duration) (cue engine.Cue, params aesthetic.Params, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.report(errors.Errorf("resolve panic: %v", r), ErrorInfo{Stage: StageStateChange, Change: &ch})
			ok = false
		}
	}()

	layers := []*aesthetic.Overrides{c.cfg.Aesthetics}

	sound := noOverride
	if sp, found := c.cfg.SoundMapping[ch.Path]; found {
		sound = sp.translate()
		layers = append(layers, sound.layer)
	}
	if hook := c.cfg.MapChangeToAesthetics; hook != nil {
		layers = append(layers, hook(ch))
	}

	params = aesthetic.Resolve(ch, layers...)

	cue = engine.Cue{
		Params:          params,
		Frequency:       sound.frequency,
		Harmonics:       sound.harmonics,
		Volume:          c.volume.Get() * sound.volume,
		Offset:          offset.Seconds(),
		PerformanceMode: c.cfg.PerformanceMode,
		OnError: func(err error) {
			c.report(err, ErrorInfo{Stage: StagePlayback, Change: &ch})
		},
	}
	return cue, params, true
}
