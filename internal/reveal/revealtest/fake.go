// Package revealtest provides deterministic stand-ins for the reveal
// package's scheduler and observer capabilities.
package revealtest

import (
	"time"

	"github.com/rushilahane/portfolio/internal/reveal"
)

type entry struct {
	id        int
	fn        func()
	cancelled bool
}

// ManualScheduler runs repeating callbacks only when Advance is called. Every
// registered callback fires once per step, in registration order.
type ManualScheduler struct {
	entries   []*entry
	next      int
	Scheduled int
	Cancelled int
	Steps     int
}

// NewManualScheduler returns an empty scheduler.
func NewManualScheduler() *ManualScheduler { return &ManualScheduler{} }

// Every implements reveal.Scheduler. The interval is ignored: one Advance step
// is one tick.
func (s *ManualScheduler) Every(_ time.Duration, fn func()) reveal.Cancel {
	e := &entry{id: s.next, fn: fn}
	s.next++
	s.entries = append(s.entries, e)
	s.Scheduled++
	return func() {
		if e.cancelled {
			return
		}
		e.cancelled = true
		s.Cancelled++
	}
}

// Active returns the number of callbacks still scheduled.
func (s *ManualScheduler) Active() int {
	n := 0
	for _, e := range s.entries {
		if !e.cancelled {
			n++
		}
	}
	return n
}

// Advance runs n ticks.
func (s *ManualScheduler) Advance(n int) {
	for i := 0; i < n; i++ {
		s.Steps++
		live := s.entries[:0]
		for _, e := range s.entries {
			if !e.cancelled {
				live = append(live, e)
			}
		}
		s.entries = live
		for _, e := range append([]*entry(nil), live...) {
			if !e.cancelled {
				e.fn()
			}
		}
	}
}

// FakeObserver records observations and lets tests emit ratios.
type FakeObserver struct {
	callbacks map[reveal.Region]func(float64)
	Observed  int
	Released  int
	// Initial, when set, is reported synchronously from ObserveRegion.
	Initial *float64
}

// NewFakeObserver returns an observer with no regions.
func NewFakeObserver() *FakeObserver {
	return &FakeObserver{callbacks: make(map[reveal.Region]func(float64))}
}

// ObserveRegion implements reveal.Observer.
func (o *FakeObserver) ObserveRegion(region reveal.Region, _ float64, fn func(float64)) reveal.Release {
	o.callbacks[region] = fn
	o.Observed++
	if o.Initial != nil {
		fn(*o.Initial)
	}
	released := false
	return func() {
		if released {
			return
		}
		released = true
		o.Released++
		delete(o.callbacks, region)
	}
}

// Watching reports whether region is still observed.
func (o *FakeObserver) Watching(region reveal.Region) bool {
	_, ok := o.callbacks[region]
	return ok
}

// Emit delivers ratio to region's observer. It reports false when nothing
// observes region.
func (o *FakeObserver) Emit(region reveal.Region, ratio float64) bool {
	fn, ok := o.callbacks[region]
	if !ok {
		return false
	}
	fn(ratio)
	return true
}
