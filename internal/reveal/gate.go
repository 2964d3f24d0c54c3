package reveal

// Region identifies a rendered area. The empty Region means no area exists.
type Region string

// Release stops an observation. Calling it more than once is a no-op.
type Release func()

// Observer delivers intersection ratios for a region. Implementations call fn
// with the fraction of the region inside the viewport, in [0, 1].
type Observer interface {
	ObserveRegion(region Region, threshold float64, fn func(ratio float64)) Release
}

// Default gate thresholds.
const (
	HeroThreshold    = 0.2
	MetricsThreshold = 0.1
)

// Gate reports, once, that a region became visible.
type Gate struct {
	threshold float64
	inView    *Signal
	release   Release
	closed    bool
}

// NewGate returns a gate that opens at the given visible fraction. Values
// outside [0, 1] are clamped.
func NewGate(threshold float64) *Gate {
	switch {
	case threshold < 0:
		threshold = 0
	case threshold > 1:
		threshold = 1
	}
	return &Gate{threshold: threshold, inView: NewSignal()}
}

// Threshold returns the visible fraction the gate needs.
func (g *Gate) Threshold() float64 { return g.threshold }

// InView returns the gate's one-shot signal.
func (g *Gate) InView() *Signal { return g.inView }

// Mount starts observing region. A nil observer, an empty region or a gate
// that is already open or mounted is a no-op.
func (g *Gate) Mount(obs Observer, region Region) {
	if obs == nil || region == "" || g.closed || g.release != nil || g.inView.Fired() {
		return
	}
	release := obs.ObserveRegion(region, g.threshold, g.Handle)
	if g.inView.Fired() {
		// The observer reported synchronously and the gate is already open.
		if release != nil {
			release()
		}
		return
	}
	g.release = release
}

// Handle processes one intersection ratio.
func (g *Gate) Handle(ratio float64) {
	if g.closed || g.inView.Fired() || ratio < g.threshold {
		return
	}
	g.inView.Fire()
	g.stopObserving()
}

// Close releases the observation and ignores any later ratios. It is safe to
// call at any time, any number of times.
func (g *Gate) Close() {
	g.closed = true
	g.stopObserving()
}

func (g *Gate) stopObserving() {
	if g.release != nil {
		release := g.release
		g.release = nil
		release()
	}
}
