package engine

import "time"

// Clock arms a repeating timer. The returned cancel func must be safe to
// call more than once.
type Clock interface {
	Every(d time.Duration, fn func()) (cancel func())
}

type SchedulerState string

const (
	SchedulerIdle    SchedulerState = "idle"
	SchedulerRunning SchedulerState = "running"
	SchedulerPaused  SchedulerState = "paused"
)

type AdvanceReason string

const (
	AdvanceTimeout AdvanceReason = "timeout"
	AdvancePass    AdvanceReason = "pass"
	AdvanceBid     AdvanceReason = "bid"
)

// TurnEvent is reported for every timer driven change.
type TurnEvent struct {
	Current   int
	Remaining int
	Advanced  bool
	Reason    AdvanceReason
}

// Scheduler rotates the turn between n participants, counting down
// turnSeconds units per turn.
type Scheduler struct {
	clock       Clock
	unit        time.Duration
	turnSeconds int
	observe     func(TurnEvent)

	state     SchedulerState
	size      int
	current   int
	remaining int
	cancel    func()
}

func NewScheduler(clock Clock, unit time.Duration, turnSeconds int, observe func(TurnEvent)) *Scheduler {
	if unit <= 0 {
		unit = time.Second
	}
	if turnSeconds <= 0 {
		turnSeconds = DefaultTurnSeconds
	}
	return &Scheduler{
		clock:       clock,
		unit:        unit,
		turnSeconds: turnSeconds,
		observe:     observe,
		state:       SchedulerIdle,
	}
}

func (s *Scheduler) State() SchedulerState { return s.state }
func (s *Scheduler) Current() int          { return s.current }
func (s *Scheduler) Remaining() int        { return s.remaining }
func (s *Scheduler) TurnSeconds() int      { return s.turnSeconds }

// Open starts the first turn. With no participants the scheduler stays idle.
func (s *Scheduler) Open(n int) {
	s.Close()
	if n <= 0 {
		return
	}
	s.size = n
	s.current = 0
	s.remaining = s.turnSeconds
	s.state = SchedulerRunning
	s.arm()
}

// Tick consumes one time unit. Ticks outside the running state are ignored.
func (s *Scheduler) Tick() {
	if s.state != SchedulerRunning {
		return
	}
	s.remaining--
	if s.remaining <= 0 {
		s.Advance(AdvanceTimeout)
		return
	}
	s.notify(TurnEvent{Current: s.current, Remaining: s.remaining})
}

// Advance hands the turn to the next participant and restarts the countdown.
// Timeout, pass and accepted bids all come through here. A paused countdown
// is resumed for the new turn.
func (s *Scheduler) Advance(reason AdvanceReason) {
	if s.state == SchedulerIdle {
		return
	}
	s.current = (s.current + 1) % s.size
	s.remaining = s.turnSeconds
	s.state = SchedulerRunning
	s.arm()
	s.notify(TurnEvent{Current: s.current, Remaining: s.remaining, Advanced: true, Reason: reason})
}

func (s *Scheduler) Pause() {
	if s.state == SchedulerRunning {
		s.state = SchedulerPaused
	}
}

func (s *Scheduler) Resume() {
	if s.state == SchedulerPaused {
		s.state = SchedulerRunning
	}
}

// Resize follows a change in the participant count during a round.
func (s *Scheduler) Resize(n int) {
	if s.state == SchedulerIdle {
		return
	}
	if n <= 0 {
		s.Close()
		return
	}
	s.size = n
	if s.current >= n {
		s.current = 0
		s.remaining = s.turnSeconds
		s.arm()
	}
}

// RemoveAt drops the participant at index i from the rotation. Whoever held
// the turn keeps it; if that was i the next participant gets a fresh turn.
func (s *Scheduler) RemoveAt(i int) {
	if s.state == SchedulerIdle || i < 0 || i >= s.size {
		return
	}
	s.size--
	if s.size == 0 {
		s.Close()
		return
	}
	switch {
	case i < s.current:
		s.current--
	case i == s.current:
		if s.current >= s.size {
			s.current = 0
		}
		s.remaining = s.turnSeconds
		if s.state == SchedulerRunning {
			s.arm()
		}
	}
}

// Close stops the countdown. Safe to call repeatedly.
func (s *Scheduler) Close() {
	s.disarm()
	s.state = SchedulerIdle
	s.size = 0
	s.current = 0
	s.remaining = 0
}

func (s *Scheduler) arm() {
	s.disarm()
	if s.clock == nil {
		return
	}
	s.cancel = s.clock.Every(s.unit, s.Tick)
}

func (s *Scheduler) disarm() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Scheduler) notify(ev TurnEvent) {
	if s.observe != nil {
		s.observe(ev)
	}
}
