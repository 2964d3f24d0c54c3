package reveal

import "time"

// Metric is one displayed number in a group.
type Metric struct {
	Label  string
	Target int
	Suffix string
}

// GroupConfig tunes a Group. Zero values fall back to the package defaults.
type GroupConfig struct {
	Threshold    float64
	Duration     time.Duration
	TickInterval time.Duration
}

// Group is a section of metrics behind one gate. All counters start on the
// same gate event and then run independently.
type Group struct {
	gate     *Gate
	counters []*Counter
	unsub    func()
	closed   bool
}

// NewGroup builds one gate and one counter per metric. onChange, if not nil,
// receives the metric index with every displayed value.
func NewGroup(metrics []Metric, cfg GroupConfig, sched Scheduler, onChange func(index, current int, done bool)) *Group {
	if cfg.Duration <= 0 {
		cfg.Duration = DefaultDuration
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	g := &Group{gate: NewGate(cfg.Threshold)}
	for i, m := range metrics {
		opts := []CounterOption{WithTickInterval(cfg.TickInterval)}
		if onChange != nil {
			idx := i
			opts = append(opts, WithOnChange(func(current int, done bool) {
				onChange(idx, current, done)
			}))
		}
		g.counters = append(g.counters, NewCounter(m.Target, cfg.Duration, sched, opts...))
	}
	g.unsub = g.gate.InView().Subscribe(func() {
		for _, c := range g.counters {
			c.SetActive(true)
		}
	})
	return g
}

// Gate returns the group's gate.
func (g *Group) Gate() *Gate { return g.gate }

// Counters returns the counters in metric order.
func (g *Group) Counters() []*Counter { return g.counters }

// Mount starts observing region through obs.
func (g *Group) Mount(obs Observer, region Region) {
	if g.closed {
		return
	}
	g.gate.Mount(obs, region)
}

// Values returns the displayed value of every counter.
func (g *Group) Values() []int {
	out := make([]int, len(g.counters))
	for i, c := range g.counters {
		out[i] = c.Current()
	}
	return out
}

// Finished reports whether every counter reached its target.
func (g *Group) Finished() bool {
	for _, c := range g.counters {
		if !c.Finished() {
			return false
		}
	}
	return true
}

// Close tears down the gate and every counter. It is idempotent.
func (g *Group) Close() {
	if g.closed {
		return
	}
	g.closed = true
	g.unsub()
	g.gate.Close()
	for _, c := range g.counters {
		c.Close()
	}
}
