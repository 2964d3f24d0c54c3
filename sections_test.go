package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushilahane/portfolio/internal/reveal"
)

func TestToggleAccordion(t *testing.T) {
	assert.Equal(t, -1, ToggleAccordion(0, 0), "clicking the open entry closes it")
	assert.Equal(t, 2, ToggleAccordion(0, 2))
	assert.Equal(t, 1, ToggleAccordion(-1, 1))
	assert.Equal(t, 3, ToggleAccordion(-1, 3))
}

func TestNavLinks(t *testing.T) {
	links := NavLinks()
	require.Len(t, links, 4)
	assert.Equal(t, NavLink{Label: "About", Anchor: "#about"}, links[0])
	assert.Equal(t, NavLink{Label: "Contact", Anchor: "#contact"}, links[3])
}

func TestSectionsOrder(t *testing.T) {
	assert.Equal(t, []string{
		"navbar", "hero", "about", "skills", "experience", "projects", "live-apps", "contact", "footer",
	}, Sections)
}

func TestMetricGroups(t *testing.T) {
	groups := metricGroups(reveal.DefaultTickInterval)

	hero := groups[GroupHero].Config
	assert.Equal(t, reveal.HeroThreshold, hero.Threshold)
	assert.Equal(t, 1800*time.Millisecond, hero.Duration)

	metrics := groups[GroupMetrics].Config
	assert.Equal(t, reveal.MetricsThreshold, metrics.Threshold)
	assert.Equal(t, 1600*time.Millisecond, metrics.Duration)

	_, ok := groupStats(DefaultPortfolio(), "footer")
	assert.False(t, ok)
}

func TestBuildPage(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	data, err := BuildPage(DefaultPortfolio(), now)
	require.NoError(t, err)

	assert.Equal(t, 2026, data.Year)
	assert.Equal(t, 0, data.OpenIdx)
	require.Len(t, data.Hero, 4)
	assert.Equal(t, CounterView{Index: 0, Label: "Years Experience", Target: 5, Suffix: "+"}, data.Hero[0])
	require.Len(t, data.Metrics, 3)
	assert.Contains(t, string(data.About), "<p>Senior Mobile Developer")
}
