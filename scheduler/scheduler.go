package scheduler

import (
	"log"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/lixenwraith/sonify/clock"
	"github.com/lixenwraith/sonify/constant"
	"github.com/lixenwraith/sonify/status"
)

// Sentinel errors
var (
	ErrInvalidSchedule = errors.New("invalid schedule time")
	ErrCancelled       = errors.New("scheduler cancelled")
)

// Task runs once its audio-clock time enters the lookahead window
// at is the time the task was scheduled for, not the dispatch time
type Task func(at float64) error

// Options tunes dispatch timing, zero values take defaults
type Options struct {
	Horizon float64       // seconds ahead of the audio clock
	Poll    time.Duration // re-arm delay while items remain
	Status  *status.Registry
}

type item struct {
	at   float64
	id   uint64
	task Task
}

// Scheduler dispatches time-stamped tasks slightly ahead of an audio clock
// The host clock only drives the pump cadence, ordering follows the audio clock
type Scheduler struct {
	audioNow func() float64
	clk      clock.Clock
	horizon  float64
	poll     time.Duration

	mu        sync.Mutex
	queue     []item
	nextID    uint64
	timer     clock.Timer
	cancelled bool

	statDispatched *atomic.Int64
	statRejected   *atomic.Int64
	statFailed     *atomic.Int64
}

// New creates a scheduler reading audio time from audioNow
func New(audioNow func() float64, clk clock.Clock, opts Options) *Scheduler {
	if opts.Horizon <= 0 {
		opts.Horizon = constant.LookaheadHorizon
	}
	if opts.Poll <= 0 {
		opts.Poll = constant.LookaheadPoll
	}
	if clk == nil {
		clk = clock.NewReal()
	}

	return &Scheduler{
		audioNow:       audioNow,
		clk:            clk,
		horizon:        opts.Horizon,
		poll:           opts.Poll,
		statDispatched: opts.Status.Counter(status.SchedulerDispatched),
		statRejected:   opts.Status.Counter(status.SchedulerRejected),
		statFailed:     opts.Status.Counter(status.SchedulerFailed),
	}
}

// Schedule queues task for audio time at and returns its sequence id
// Items with equal time run in insertion order
func (s *Scheduler) Schedule(at float64, task Task) (uint64, error) {
	if math.IsNaN(at) || math.IsInf(at, 0) || at < 0 {
		s.statRejected.Add(1)
		log.Printf("[SCHED] rejected task at %v", at)
		return 0, errors.Wrapf(ErrInvalidSchedule, "time %v", at)
	}
	if task == nil {
		s.statRejected.Add(1)
		return 0, errors.Wrap(ErrInvalidSchedule, "nil task")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled {
		return 0, ErrCancelled
	}

	s.nextID++
	it := item{at: at, id: s.nextID, task: task}

	pos := sort.Search(len(s.queue), func(i int) bool {
		return s.queue[i].at > at
	})
	s.queue = append(s.queue, item{})
	copy(s.queue[pos+1:], s.queue[pos:])
	s.queue[pos] = it

	if s.timer == nil {
		// First opportunity is immediate, polling only applies to leftovers
		s.timer = s.clk.AfterFunc(0, s.Pump)
	}
	return it.id, nil
}

// Pump dispatches every item due within the horizon
// Tasks run outside the lock so they may schedule further work
func (s *Scheduler) Pump() {
	now := s.audioNow()

	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancelled {
		s.mu.Unlock()
		return
	}

	limit := now + s.horizon
	n := 0
	for n < len(s.queue) && s.queue[n].at <= limit {
		n++
	}
	due := make([]item, n)
	copy(due, s.queue[:n])
	s.queue = s.queue[n:]

	if len(s.queue) > 0 {
		s.timer = s.clk.AfterFunc(s.poll, s.Pump)
	}
	s.mu.Unlock()

	for _, it := range due {
		s.run(it)
	}
}

// run executes one task, containing errors and panics
func (s *Scheduler) run(it item) {
	defer func() {
		if r := recover(); r != nil {
			s.statFailed.Add(1)
			log.Printf("[SCHED] task %d at %.3f panicked: %v", it.id, it.at, r)
		}
	}()

	if err := it.task(it.at); err != nil {
		s.statFailed.Add(1)
		log.Printf("[SCHED] task %d at %.3f failed: %v", it.id, it.at, err)
		return
	}
	s.statDispatched.Add(1)
}

// Cancel drops every pending item and halts polling
// Tasks already handed out by a running Pump still complete
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelled = true
	s.queue = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Cancelled reports whether Cancel was called
func (s *Scheduler) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// Len returns the number of queued items
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}
