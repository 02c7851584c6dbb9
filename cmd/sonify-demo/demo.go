package main

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/lixenwraith/sonify/sonify"
	"github.com/lixenwraith/sonify/status"
	"github.com/lixenwraith/sonify/store"
)

const (
	frameInterval = 33 * time.Millisecond
	cueLogSize    = 64
	volumeStep    = 0.05
	flashDuration = 1500 * time.Millisecond
)

var (
	styleHeader = tcell.StyleDefault.Background(tcell.NewRGBColor(40, 50, 70)).Foreground(tcell.NewRGBColor(100, 200, 220)).Bold(true)
	styleText   = tcell.StyleDefault.Foreground(tcell.NewRGBColor(200, 200, 200))
	styleDim    = tcell.StyleDefault.Foreground(tcell.NewRGBColor(100, 100, 100))
	styleTitle  = tcell.StyleDefault.Foreground(tcell.NewRGBColor(255, 180, 100)).Bold(true)
	styleError  = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
)

// Demo is the interactive terminal front end
type Demo struct {
	screen        tcell.Screen
	width, height int

	store  *store.Store
	client *sonify.Client
	reg    *status.Registry
	cues   *cueLog
	rng    *rand.Rand

	flash     string
	flashErr  bool
	flashTime time.Time
}

// NewDemo initializes the screen and attaches a client to s
func NewDemo(s *store.Store, cfg sonify.Config, reg *status.Registry) (*Demo, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}

	d := &Demo{
		screen: screen,
		store:  s,
		reg:    reg,
		cues:   newCueLog(cueLogSize),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	d.width, d.height = screen.Size()

	cfg.OnCue = d.cues.Add
	cfg.OnError = func(err error, info sonify.ErrorInfo) {
		// Called off the UI goroutine; the screen queues posted events
		_ = screen.PostEvent(tcell.NewEventInterrupt(fmt.Sprintf("%s: %v", info.Stage, err)))
	}

	client, err := sonify.Attach(s, cfg)
	if err != nil {
		screen.Fini()
		return nil, err
	}
	d.client = client
	return d, nil
}

func (d *Demo) setFlash(msg string, isErr bool) {
	d.flash, d.flashErr, d.flashTime = msg, isErr, time.Now()
}

// handleInput returns false when the demo should exit
func (d *Demo) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}

		switch r := ev.Rune(); r {
		case 'q':
			return false
		case 'r':
			if err := d.client.Replay(); err != nil {
				d.setFlash(err.Error(), true)
			} else {
				d.setFlash("replayed state", false)
			}
		case 'f':
			d.client.Flush()
		case 'm':
			d.client.SetEnabled(!d.client.Enabled())
			d.setFlash(fmt.Sprintf("enabled=%t", d.client.Enabled()), false)
		case '[':
			d.client.SetVolume(d.client.Volume() - volumeStep)
		case ']':
			d.client.SetVolume(d.client.Volume() + volumeStep)
		default:
			if a, ok := findAction(r); ok {
				d.store.Update(func(draft store.State) { a.apply(draft, d.rng) })
			}
		}

	case *tcell.EventInterrupt:
		if msg, ok := ev.Data().(string); ok {
			d.setFlash(msg, true)
		}

	case *tcell.EventResize:
		d.width, d.height = d.screen.Size()
		d.screen.Sync()
	}
	return true
}

func (d *Demo) draw() {
	d.screen.Clear()
	if d.width < 20 || d.height < 8 {
		drawText(d.screen, 0, 0, d.width, "terminal too small", styleError)
		d.screen.Show()
		return
	}

	header := fmt.Sprintf(" SONIFY DEMO  enabled=%t  volume=%.2f  pending=%d",
		d.client.Enabled(), d.client.Volume(), d.client.Pending())
	fillRow(d.screen, 0, d.width, styleHeader)
	drawText(d.screen, 0, 0, d.width, header, styleHeader)

	left := d.width / 3
	if left < 24 {
		left = 24
	}
	bodyTop, bodyBottom := 2, d.height-3

	y := d.drawState(0, bodyTop, left-1)
	d.drawCounters(0, y+1, left-1, bodyBottom)
	d.drawCues(left+1, bodyTop, d.width-left-1, bodyBottom)
	d.drawFooter()

	d.screen.Show()
}

func (d *Demo) drawState(x, y, w int) int {
	drawText(d.screen, x+1, y, w, "STATE", styleTitle)
	y++
	state := d.store.Snapshot()
	for _, key := range d.store.Keys() {
		drawText(d.screen, x+1, y, w-1, fmt.Sprintf("%-7s %v", key, state[key]), styleText)
		y++
	}
	return y
}

func (d *Demo) drawCounters(x, y, w, bottom int) {
	if y >= bottom {
		return
	}
	drawText(d.screen, x+1, y, w, "COUNTERS", styleTitle)
	y++

	snap := d.reg.Snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if y >= bottom {
			return
		}
		drawText(d.screen, x+1, y, w-1, fmt.Sprintf("%-22s %g", k, snap[k]), styleDim)
		y++
	}
}

func (d *Demo) drawCues(x, y, w, bottom int) {
	drawText(d.screen, x, y, w, "CUES", styleTitle)
	y++
	for _, e := range d.cues.Recent(bottom - y) {
		r, g, b := e.color.RGB255()
		style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
		drawText(d.screen, x, y, w, e.at.Format("15:04:05.000")+" "+e.text, style)
		y++
	}
}

func (d *Demo) drawFooter() {
	if d.flash != "" && time.Since(d.flashTime) < flashDuration {
		style := styleText
		if d.flashErr {
			style = styleError
		}
		drawText(d.screen, 1, d.height-2, d.width-2, d.flash, style)
	}

	var help []string
	for _, a := range actions {
		help = append(help, string(a.key)+" "+a.label)
	}
	help = append(help, "r replay", "f flush", "m mute", "[ ] volume", "q quit")
	drawText(d.screen, 1, d.height-1, d.width-2, strings.Join(help, " │ "), styleDim)
}

// drawText writes text clipped to maxW display columns
func drawText(s tcell.Screen, x, y, maxW int, text string, style tcell.Style) {
	if maxW <= 0 {
		return
	}
	if runewidth.StringWidth(text) > maxW {
		text = runewidth.Truncate(text, maxW, "…")
	}
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
}

func fillRow(s tcell.Screen, y, w int, style tcell.Style) {
	for x := 0; x < w; x++ {
		s.SetContent(x, y, ' ', nil, style)
	}
}

func (d *Demo) run() {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	sigCh, stop := notifyShutdown()
	defer stop()

	screen := d.screen
	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !d.handleInput(ev) {
				return
			}
		case <-sigCh:
			return
		case <-ticker.C:
			d.draw()
		}
	}
}

// cleanup detaches from the store and restores the terminal; safe to call twice
func (d *Demo) cleanup() {
	if d.client != nil {
		_ = d.client.Close()
	}
	if d.screen != nil {
		d.screen.Fini()
		d.screen = nil
	}
}
