package engine

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/lixenwraith/sonify/audio"
	"github.com/lixenwraith/sonify/consonance"
	"github.com/lixenwraith/sonify/constant"
	"github.com/lixenwraith/sonify/envelope"
	"github.com/lixenwraith/sonify/wave"
)

// Play plans a dyad for cue and schedules its node graph on the lookahead scheduler
// Errors returned here happen before scheduling; later failures go to cue.OnError
func (e *Engine) Play(ctx context.Context, cue Cue) (Rendering, error) {
	s, err := e.acquire()
	if err != nil {
		return Rendering{}, err
	}
	if s == nil {
		return Rendering{Skipped: true}, nil
	}

	if err := resume(ctx, s); err != nil {
		return Rendering{}, err
	}

	r := e.plan(s.ctx.CurrentTime(), cue)

	w, err := s.waves.Get(r.Brightness, r.Harmonics)
	if err != nil {
		return Rendering{}, errors.Wrap(err, "synthesize waveform")
	}

	task := func(float64) error {
		return renderDyad(s.ctx, w, r.Dyad, cue.OnError)
	}
	if _, err := s.sched.Schedule(r.Start, task); err != nil {
		return Rendering{}, errors.Wrap(err, "schedule cue")
	}
	return r, nil
}

// plan resolves pitch, interval and envelope timing for a cue at audio time now
func (e *Engine) plan(now float64, cue Cue) Rendering {
	brightness, harmonics := timbreFor(cue)

	duration := cue.Params.Duration
	if duration <= 0 {
		duration = constant.DefaultCueDuration
	}

	rootHz := cue.Frequency
	if !(rootHz > 0) {
		rootHz = MidiToHz(cue.Params.BaseMidi)
	}

	ranking := e.ranker.Rank(consonance.Query{
		BaseFrequency:   rootHz,
		Brightness:      brightness,
		Harmonics:       harmonics,
		PerformanceMode: cue.PerformanceMode,
	})
	semitones := consonance.MapPleasantnessToIntervalContinuous(cue.Params.Pleasantness, ranking)
	intervalHz := rootHz * math.Pow(2, semitones/12)

	offset := cue.Offset
	if !(offset > 0) {
		offset = 0
	}
	start := now + constant.ScheduleLatency + offset

	dyad := envelope.Plan(envelope.PlanInput{
		Start:        start,
		Duration:     duration,
		Arousal:      cue.Params.Arousal,
		Valence:      cue.Params.Valence,
		Simultaneity: cue.Params.Simultaneity,
		Volume:       cue.Volume,
		RootHz:       rootHz,
		IntervalHz:   intervalHz,
	})

	return Rendering{
		Start:      start,
		Duration:   duration,
		RootHz:     rootHz,
		IntervalHz: intervalHz,
		Semitones:  semitones,
		Brightness: brightness,
		Harmonics:  harmonics,
		Ranking:    ranking,
		Dyad:       dyad,
	}
}

// renderDyad builds osc → gain → destination for both voices
// Panics are converted so the caller's hook still hears about them
func renderDyad(ctx audio.Context, w *wave.Waveform, d envelope.Dyad, onError func(error)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("render panic: %v", r)
		}
		if err != nil && onError != nil {
			onError(err)
		}
	}()

	for _, v := range []envelope.Voice{d.Root, d.Interval} {
		if err := renderVoice(ctx, w, v); err != nil {
			return err
		}
	}
	return nil
}

func renderVoice(ctx audio.Context, w *wave.Waveform, v envelope.Voice) error {
	osc := ctx.NewOscillator()
	osc.SetFrequency(v.Frequency)
	osc.SetWaveform(w)

	gain := ctx.NewGain()
	param := gain.Gain()
	for _, p := range v.Points() {
		if p.Ramp {
			param.LinearRampToValueAtTime(p.Value, p.Time)
		} else {
			param.SetValueAtTime(p.Value, p.Time)
		}
	}

	if err := osc.Connect(gain); err != nil {
		return errors.Wrap(err, "connect oscillator")
	}
	if err := gain.Connect(ctx.Destination()); err != nil {
		return errors.Wrap(err, "connect gain")
	}
	osc.Stop(v.Stop)
	if err := osc.Start(v.Start); err != nil {
		return errors.Wrap(err, "start oscillator")
	}
	return nil
}
