// Package reveal implements the viewport-gated count-up mechanism used by the
// portfolio's metric sections.
//
// A Gate watches one region and fires its Signal the first time the region is
// visible enough. Counters subscribe to that signal and ramp from 0 to their
// target on a Scheduler tick. Nothing in this package is safe for concurrent
// use; every call is expected to come from a single event loop (see FrameLoop).
package reveal

// Signal is a one-shot boolean. It moves from false to true at most once.
type Signal struct {
	fired bool
	subs  map[int]func()
	next  int
}

// NewSignal returns an unfired signal.
func NewSignal() *Signal {
	return &Signal{subs: make(map[int]func())}
}

// Fired reports whether the signal has fired.
func (s *Signal) Fired() bool { return s.fired }

// Fire sets the signal and notifies subscribers in subscription order.
// Calls after the first are ignored.
func (s *Signal) Fire() {
	if s.fired {
		return
	}
	s.fired = true
	for i := 0; i < s.next; i++ {
		if fn, ok := s.subs[i]; ok {
			fn()
		}
	}
	s.subs = nil
}

// Subscribe registers fn to run when the signal fires. If the signal already
// fired, fn runs immediately. The returned func removes the subscription.
func (s *Signal) Subscribe(fn func()) func() {
	if s.fired {
		fn()
		return func() {}
	}
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		if s.subs != nil {
			delete(s.subs, id)
		}
	}
}
