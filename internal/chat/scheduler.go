package chat

import (
	"sync"
	"time"
)

// Timer is a pending deferred callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// ClockScheduler schedules on the wall clock.
type ClockScheduler struct{}

func (ClockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ManualScheduler queues callbacks until Step runs them. It is used to drive
// a reveal deterministically.
type ManualScheduler struct {
	mu      sync.Mutex
	pending []*manualTimer
	Delays  []time.Duration
}

type manualTimer struct {
	f       func()
	stopped bool
	s       *ManualScheduler
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{f: f, s: s}
	s.pending = append(s.pending, t)
	s.Delays = append(s.Delays, d)
	return t
}

// Step fires the oldest live callback. It reports false when none is pending.
func (s *ManualScheduler) Step() bool {
	s.mu.Lock()
	for len(s.pending) > 0 {
		t := s.pending[0]
		s.pending = s.pending[1:]
		if t.stopped {
			continue
		}
		t.stopped = true
		s.mu.Unlock()
		t.f()
		return true
	}
	s.mu.Unlock()
	return false
}

// Drain steps until nothing is pending.
func (s *ManualScheduler) Drain() int {
	n := 0
	for s.Step() {
		n++
	}
	return n
}
