package reveal_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushilahane/portfolio/internal/reveal"
	"github.com/rushilahane/portfolio/internal/reveal/revealtest"
)

func dashboardMetrics() []reveal.Metric {
	return []reveal.Metric{
		{Label: "Faster Update Cycles", Target: 70, Suffix: "%"},
		{Label: "Re-render Reduction", Target: 60, Suffix: "%"},
		{Label: "OCR Accuracy", Target: 95, Suffix: "%"},
	}
}

func TestGroup_StartsTogetherAndFinishesByDeadline(t *testing.T) {
	sched := revealtest.NewManualScheduler()
	obs := revealtest.NewFakeObserver()
	g := reveal.NewGroup(dashboardMetrics(), reveal.GroupConfig{
		Threshold: reveal.MetricsThreshold,
		Duration:  reveal.MetricsDuration,
	}, sched, nil)
	g.Mount(obs, "metrics")

	sched.Advance(40)
	require.Equal(t, []int{0, 0, 0}, g.Values(), "nothing moves before the gate fires")
	require.Equal(t, 0, sched.Scheduled)

	require.True(t, obs.Emit("metrics", 0.5))
	require.Equal(t, 3, sched.Scheduled)
	assert.Equal(t, []int{0, 0, 0}, g.Values(), "first tick comes after the gate")

	sched.Advance(1)
	assert.Equal(t, []int{0, 0, 0}, g.Values())
	sched.Advance(1)
	assert.Equal(t, []int{1, 1, 1}, g.Values())

	sched.Advance(98)
	assert.Equal(t, []int{70, 60, 95}, g.Values())
	assert.True(t, g.Finished())
	assert.Equal(t, 0, sched.Active())

	sched.Advance(100)
	assert.Equal(t, []int{70, 60, 95}, g.Values())
}

func TestGroup_OneGatePerGroup(t *testing.T) {
	sched := revealtest.NewManualScheduler()
	obs := revealtest.NewFakeObserver()
	g := reveal.NewGroup(dashboardMetrics(), reveal.GroupConfig{Threshold: 0.1}, sched, nil)
	g.Mount(obs, "metrics")
	g.Mount(obs, "metrics")

	assert.Equal(t, 1, obs.Observed)
	assert.Len(t, g.Counters(), 3)
}

func TestGroup_OnChangeCarriesIndex(t *testing.T) {
	sched := revealtest.NewManualScheduler()
	obs := revealtest.NewFakeObserver()
	final := map[int]int{}
	g := reveal.NewGroup(dashboardMetrics(), reveal.GroupConfig{
		Threshold: 0.1,
		Duration:  reveal.MetricsDuration,
	}, sched, func(index, current int, done bool) {
		if done {
			final[index] = current
		}
	})
	g.Mount(obs, "metrics")
	obs.Emit("metrics", 0.1)
	sched.Advance(100)

	assert.Equal(t, map[int]int{0: 70, 1: 60, 2: 95}, final)
}

func TestGroup_CloseStopsEverything(t *testing.T) {
	sched := revealtest.NewManualScheduler()
	obs := revealtest.NewFakeObserver()
	changes := 0
	g := reveal.NewGroup(dashboardMetrics(), reveal.GroupConfig{Threshold: 0.1}, sched, func(int, int, bool) {
		changes++
	})
	g.Mount(obs, "metrics")
	obs.Emit("metrics", 1)
	sched.Advance(20)
	before := g.Values()
	seen := changes

	g.Close()
	g.Close()
	assert.NotPanics(t, func() { sched.Advance(300) })
	assert.Equal(t, before, g.Values())
	assert.Equal(t, seen, changes)
	assert.Equal(t, 0, sched.Active())
}

func TestGroup_CloseBeforeVisible(t *testing.T) {
	sched := revealtest.NewManualScheduler()
	obs := revealtest.NewFakeObserver()
	g := reveal.NewGroup(dashboardMetrics(), reveal.GroupConfig{Threshold: 0.1}, sched, nil)
	g.Mount(obs, "metrics")

	g.Close()
	assert.Equal(t, 1, obs.Released)
	assert.False(t, obs.Emit("metrics", 1))
	g.Gate().Handle(1)
	sched.Advance(200)
	assert.Equal(t, []int{0, 0, 0}, g.Values())
	assert.Equal(t, 0, sched.Scheduled)
}
