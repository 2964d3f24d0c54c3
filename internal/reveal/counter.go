package reveal

import (
	"math/bits"
	"time"
)

// Default ramp durations.
const (
	DefaultDuration = 1800 * time.Millisecond
	MetricsDuration = 1600 * time.Millisecond
)

// State is a counter's lifecycle stage.
type State int

const (
	Idle State = iota
	Running
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Counter ramps a displayed integer from 0 to a target once it is activated.
//
// Each tick advances an accumulator by target/(duration/interval). The
// accumulator is derived from the tick count, so the last tick lands exactly
// on the target instead of drifting below it.
type Counter struct {
	sched    Scheduler
	interval time.Duration

	target   int
	duration time.Duration
	ticks    int64
	current  int
	state    State
	active   bool
	cancel   Cancel
	closed   bool
	onChange func(current int, done bool)
}

// CounterOption configures a Counter.
type CounterOption func(*Counter)

// WithTickInterval overrides DefaultTickInterval.
func WithTickInterval(d time.Duration) CounterOption {
	return func(c *Counter) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithOnChange registers fn to run whenever the displayed value changes and
// once more when the counter finishes.
func WithOnChange(fn func(current int, done bool)) CounterOption {
	return func(c *Counter) { c.onChange = fn }
}

// NewCounter returns an idle counter. A target of 0 is finished immediately.
// Negative targets are treated as 0 and a non-positive duration as
// DefaultDuration.
func NewCounter(target int, duration time.Duration, sched Scheduler, opts ...CounterOption) *Counter {
	c := &Counter{sched: sched, interval: DefaultTickInterval}
	for _, opt := range opts {
		opt(c)
	}
	c.init(target, duration)
	return c
}

func (c *Counter) init(target int, duration time.Duration) {
	if target < 0 {
		target = 0
	}
	if duration <= 0 {
		duration = DefaultDuration
	}
	c.target = target
	c.duration = duration
	c.ticks = 0
	c.current = 0
	c.state = Idle
	if target == 0 {
		c.state = Done
	}
}

// Target returns the value the counter ramps to.
func (c *Counter) Target() int { return c.target }

// Current returns the displayed value.
func (c *Counter) Current() int { return c.current }

// State returns the lifecycle stage.
func (c *Counter) State() State { return c.state }

// Finished reports whether the counter reached its target.
func (c *Counter) Finished() bool { return c.state == Done }

// SetActive feeds the external activity signal. The first true starts the
// ramp; everything after that is ignored by the ramp.
func (c *Counter) SetActive(active bool) {
	if c.closed {
		return
	}
	c.active = active
	if active && c.state == Idle {
		c.start()
	}
}

func (c *Counter) start() {
	c.state = Running
	if c.sched == nil {
		return
	}
	c.cancel = c.sched.Every(c.interval, c.tick)
}

func (c *Counter) tick() {
	if c.closed || c.state != Running {
		return
	}
	c.ticks++
	next := c.current
	if acc := c.accumulated(); acc >= c.target {
		next = c.target
	} else if acc > next {
		next = acc
	}

	changed := next != c.current
	c.current = next
	if c.current == c.target {
		c.state = Done
		c.stop()
		c.notify(true)
		return
	}
	if changed {
		c.notify(false)
	}
}

// accumulated returns floor(target * elapsed / duration) without overflowing
// for any int target.
func (c *Counter) accumulated() int {
	elapsed := uint64(c.ticks) * uint64(c.interval)
	if elapsed >= uint64(c.duration) {
		return c.target
	}
	hi, lo := bits.Mul64(uint64(c.target), elapsed)
	// elapsed < duration keeps the quotient below target, so hi < duration.
	q, _ := bits.Div64(hi, lo, uint64(c.duration))
	return int(q)
}

func (c *Counter) notify(done bool) {
	if c.onChange != nil {
		c.onChange(c.current, done)
	}
}

func (c *Counter) stop() {
	if c.cancel != nil {
		cancel := c.cancel
		c.cancel = nil
		cancel()
	}
}

// Retarget re-initialises the counter from Idle with a new target and
// duration, discarding progress. If the last activity input was true the new
// ramp starts right away.
func (c *Counter) Retarget(target int, duration time.Duration) {
	if c.closed {
		return
	}
	c.stop()
	c.init(target, duration)
	if c.active && c.state == Idle {
		c.start()
	}
}

// Close cancels any pending tick. No callback runs after Close.
func (c *Counter) Close() {
	c.closed = true
	c.onChange = nil
	c.stop()
}
