package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSchedule_OneShotFiresOnce(t *testing.T) {
	clock := NewFakeClock(time.Unix(1700000000, 0))
	s := New(clock)

	fired := 0
	s.Schedule("journey:abc", 15*time.Minute, func() { fired++ })

	clock.Advance(14 * time.Minute)
	s.fireDue()
	assert.Equal(t, 0, fired)

	clock.Advance(time.Minute)
	s.fireDue()
	assert.Equal(t, 1, fired)

	// entry is gone after firing
	clock.Advance(time.Hour)
	s.fireDue()
	assert.Equal(t, 1, fired)
}

func TestScheduleEvery_Recurs(t *testing.T) {
	clock := NewFakeClock(time.Unix(1700000000, 0))
	s := New(clock)

	fired := 0
	s.ScheduleEvery("route:xyz", 30*time.Second, func() { fired++ })

	for i := 0; i < 3; i++ {
		clock.Advance(30 * time.Second)
		s.fireDue()
	}
	assert.Equal(t, 3, fired)
}

func TestSchedule_ReplacesExistingKey(t *testing.T) {
	clock := NewFakeClock(time.Unix(1700000000, 0))
	s := New(clock)

	var got string
	s.Schedule("journey:abc", 10*time.Minute, func() { got = "first" })
	s.Schedule("journey:abc", 20*time.Minute, func() { got = "second" })

	clock.Advance(10 * time.Minute)
	s.fireDue()
	assert.Empty(t, got, "replaced entry must not fire at the old deadline")

	clock.Advance(10 * time.Minute)
	s.fireDue()
	assert.Equal(t, "second", got)
}

func TestCancel(t *testing.T) {
	clock := NewFakeClock(time.Unix(1700000000, 0))
	s := New(clock)

	fired := false
	s.Schedule("journey:abc", time.Minute, func() { fired = true })
	s.Cancel("journey:abc")
	s.Cancel("journey:unknown") // no-op

	clock.Advance(2 * time.Minute)
	s.fireDue()
	assert.False(t, fired)
}

func TestNextFireTime_PicksEarliest(t *testing.T) {
	clock := NewFakeClock(time.Unix(1700000000, 0))
	s := New(clock)

	s.Schedule("b", 20*time.Minute, func() {})
	s.Schedule("a", 5*time.Minute, func() {})

	next, ok := s.nextFireTime()
	assert.True(t, ok)
	assert.Equal(t, clock.Now().Add(5*time.Minute), next)
}

func TestRun_FiresWithRealClock(t *testing.T) {
	s := New(RealClock())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	var fired atomic.Bool
	s.Schedule("quick", 10*time.Millisecond, func() { fired.Store(true) })

	assert.Eventually(t, fired.Load, time.Second, 5*time.Millisecond)
}
