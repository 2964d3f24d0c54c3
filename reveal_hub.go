package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/rushilahane/portfolio/internal/reveal"
)

// ErrSessionNotFound means the reveal session expired or never existed.
var ErrSessionNotFound = errors.New("reveal session not found")

// ErrUnknownGroup means no metric group has that name.
var ErrUnknownGroup = errors.New("unknown metric group")

// countFrame is one displayed value sent to the browser.
type countFrame struct {
	Index int  `json:"index"`
	Value int  `json:"value"`
	Done  bool `json:"done"`
}

// revealSession is one mounted metric group streaming to one browser. The
// group and the observer callback live on the session's frame loop.
type revealSession struct {
	id     string
	group  string
	clock  clockwork.Clock
	loop   *reveal.FrameLoop
	cancel context.CancelFunc

	// loop goroutine only
	grp       *reveal.Group
	observe   func(ratio float64)
	remaining int

	mu       sync.Mutex
	pending  map[int]countFrame
	finished bool
	notify   chan struct{}
	streams  int
	lastSeen time.Time

	done      chan struct{}
	closeOnce sync.Once
}

// ObserveRegion implements reveal.Observer. Ratios arrive through Report.
func (s *revealSession) ObserveRegion(_ reveal.Region, _ float64, fn func(float64)) reveal.Release {
	s.observe = fn
	return func() { s.observe = nil }
}

func (s *revealSession) onChange(index, current int, done bool) {
	s.mu.Lock()
	s.lastSeen = s.clock.Now()
	s.pending[index] = countFrame{Index: index, Value: current, Done: done}
	if done {
		s.remaining--
		if s.remaining <= 0 {
			s.finished = true
		}
	}
	s.mu.Unlock()
	s.wake()
}

func (s *revealSession) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// drain returns the frames queued since the last call, in index order.
func (s *revealSession) drain() ([]countFrame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	frames := make([]countFrame, 0, len(s.pending))
	for _, f := range s.pending {
		frames = append(frames, f)
	}
	s.pending = make(map[int]countFrame)
	sort.Slice(frames, func(i, j int) bool { return frames[i].Index < frames[j].Index })
	return frames, s.finished
}

// attach marks a stream as reading the session. The returned func detaches it.
func (s *revealSession) attach() func() {
	s.mu.Lock()
	s.streams++
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.streams--
			s.lastSeen = s.clock.Now()
			s.mu.Unlock()
		})
	}
}

func (s *revealSession) touch() {
	s.mu.Lock()
	s.lastSeen = s.clock.Now()
	s.mu.Unlock()
}

// idle reports whether no stream reads the session and nothing happened on it
// since cutoff.
func (s *revealSession) idle(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streams == 0 && s.lastSeen.Before(cutoff)
}

// Done is closed when the session is torn down.
func (s *revealSession) Done() <-chan struct{} { return s.done }

func (s *revealSession) close() {
	s.closeOnce.Do(func() {
		s.loop.Do(func() {
			if s.grp != nil {
				s.grp.Close()
			}
		})
		s.cancel()
		s.loop.Close()
		close(s.done)
	})
}

// RevealHub owns the live reveal sessions.
type RevealHub struct {
	clock   clockwork.Clock
	ttl     time.Duration
	groups  map[string]MetricGroup
	metrics *Metrics

	mu       sync.Mutex
	sessions map[string]*revealSession
}

// NewRevealHub creates a hub whose sessions tick every tick and expire after ttl.
func NewRevealHub(clock clockwork.Clock, tick, ttl time.Duration, metrics *Metrics) *RevealHub {
	return &RevealHub{
		clock:    clock,
		ttl:      ttl,
		groups:   metricGroups(tick),
		metrics:  metrics,
		sessions: make(map[string]*revealSession),
	}
}

// Open mounts a metric group and returns its session. The counters start when
// the group's gate sees a ratio at or above its threshold.
func (h *RevealHub) Open(group string, metrics []reveal.Metric) (*revealSession, error) {
	mg, ok := h.groups[group]
	if !ok {
		return nil, fmt.Errorf("%q: %w", group, ErrUnknownGroup)
	}

	// Zero targets finish at construction and never report.
	remaining := 0
	for _, m := range metrics {
		if m.Target > 0 {
			remaining++
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &revealSession{
		id:        uuid.NewString(),
		group:     group,
		clock:     h.clock,
		lastSeen:  h.clock.Now(),
		loop:      reveal.NewFrameLoop(h.clock),
		cancel:    cancel,
		remaining: remaining,
		pending:   make(map[int]countFrame),
		notify:    make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	go func() {
		_ = s.loop.Run(ctx)
	}()

	s.loop.Do(func() {
		s.grp = reveal.NewGroup(metrics, mg.Config, s.loop, func(index, current int, done bool) {
			if done && h.metrics != nil {
				h.metrics.CountersFinished.WithLabelValues(group).Inc()
			}
			s.onChange(index, current, done)
		})
		s.grp.Mount(s, reveal.Region(group))
		if s.grp.Finished() {
			s.mu.Lock()
			s.finished = true
			s.mu.Unlock()
			s.wake()
		}
	})

	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.RevealSessions.Inc()
	}
	slog.Debug("Reveal session opened", "session", s.id, "group", group, "metrics", len(metrics))
	return s, nil
}

// Report feeds an intersection ratio to the session's gate.
func (h *RevealHub) Report(id string, ratio float64) error {
	h.mu.Lock()
	s, ok := h.sessions[id]
	h.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.touch()
	posted := s.loop.Post(func() {
		if s.observe != nil {
			s.observe(ratio)
		}
	})
	if !posted {
		return ErrSessionNotFound
	}
	return nil
}

// Close tears down a session. Unknown ids are ignored.
func (h *RevealHub) Close(id string) {
	h.mu.Lock()
	s, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()
	if !ok {
		return
	}
	s.close()
	if h.metrics != nil {
		h.metrics.RevealSessions.Dec()
	}
	slog.Debug("Reveal session closed", "session", id)
}

// Sweep closes sessions that no stream reads and that saw no report or tick
// for the hub's ttl. It returns how many it closed.
func (h *RevealHub) Sweep() int {
	cutoff := h.clock.Now().Add(-h.ttl)
	h.mu.Lock()
	var stale []string
	for id, s := range h.sessions {
		if s.idle(cutoff) {
			stale = append(stale, id)
		}
	}
	h.mu.Unlock()

	for _, id := range stale {
		h.Close(id)
	}
	return len(stale)
}

// Len returns the number of open sessions.
func (h *RevealHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Shutdown closes every session.
func (h *RevealHub) Shutdown() {
	h.mu.Lock()
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	h.mu.Unlock()
	for _, id := range ids {
		h.Close(id)
	}
}
