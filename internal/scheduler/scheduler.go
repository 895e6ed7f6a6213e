package scheduler

import (
	"context"
	"sync"
	"time"
)

// Scheduler is the single tick dispatcher behind all periodic monitoring
// work. Every per-entity timer (journey reminder, route check, cleanup
// sweep) is one keyed entry here rather than its own goroutine or timer.
type Scheduler interface {
	Schedule(key string, delay time.Duration, fn func())
	ScheduleEvery(key string, interval time.Duration, fn func())
	Cancel(key string)
}

type entry struct {
	key      string
	at       time.Time
	interval time.Duration // zero for one-shot entries
	fn       func()
}

// TickScheduler owns all next-fire times and runs callbacks serially on
// one loop, so callbacks never race each other.
type TickScheduler struct {
	mu      sync.Mutex
	clock   Clock
	entries map[string]*entry
	wake    chan struct{}
}

func New(clock Clock) *TickScheduler {
	if clock == nil {
		clock = RealClock()
	}
	return &TickScheduler{
		clock:   clock,
		entries: make(map[string]*entry),
		wake:    make(chan struct{}, 1),
	}
}

// Schedule registers a one-shot callback. An existing entry with the
// same key is replaced.
func (s *TickScheduler) Schedule(key string, delay time.Duration, fn func()) {
	s.add(&entry{key: key, at: s.clock.Now().Add(delay), fn: fn})
}

// ScheduleEvery registers a recurring callback, first firing one
// interval from now.
func (s *TickScheduler) ScheduleEvery(key string, interval time.Duration, fn func()) {
	s.add(&entry{key: key, at: s.clock.Now().Add(interval), interval: interval, fn: fn})
}

func (s *TickScheduler) add(e *entry) {
	s.mu.Lock()
	s.entries[e.key] = e
	s.mu.Unlock()
	s.notify()
}

// Cancel removes an entry. Canceling an unknown key is a no-op; a
// callback already running is not interrupted.
func (s *TickScheduler) Cancel(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	s.notify()
}

func (s *TickScheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run drives the dispatcher until ctx is done.
func (s *TickScheduler) Run(ctx context.Context) {
	const idleWait = time.Minute

	for {
		wait := idleWait
		if next, ok := s.nextFireTime(); ok {
			wait = next.Sub(s.clock.Now())
			if wait < 0 {
				wait = 0
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-s.wake:
			// re-evaluate next fire time
		case <-s.clock.After(wait):
			s.fireDue()
		}
	}
}

func (s *TickScheduler) nextFireTime() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next time.Time
	found := false
	for _, e := range s.entries {
		if !found || e.at.Before(next) {
			next = e.at
			found = true
		}
	}
	return next, found
}

func (s *TickScheduler) fireDue() {
	now := s.clock.Now()

	s.mu.Lock()
	var due []*entry
	for key, e := range s.entries {
		if e.at.After(now) {
			continue
		}
		due = append(due, e)
		if e.interval > 0 {
			e.at = now.Add(e.interval)
		} else {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()

	for _, e := range due {
		e.fn()
	}
}
