package main

import (
	"fmt"
	"html/template"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rushilahane/portfolio/internal/reveal"
)

// Sections in render order.
var Sections = []string{
	"navbar", "hero", "about", "skills", "experience", "projects", "live-apps", "contact", "footer",
}

var navTargets = []string{"about", "experience", "projects", "contact"}

// NavLink is one navbar entry.
type NavLink struct {
	Label  string
	Anchor string
}

// NavLinks returns the navbar entries with display labels.
func NavLinks() []NavLink {
	title := cases.Title(language.English)
	links := make([]NavLink, 0, len(navTargets))
	for _, t := range navTargets {
		links = append(links, NavLink{Label: title.String(t), Anchor: "#" + t})
	}
	return links
}

// ToggleAccordion returns the open index after clicking idx. Clicking the open
// entry closes it (-1).
func ToggleAccordion(open, idx int) int {
	if open == idx {
		return -1
	}
	return idx
}

// MetricGroup describes one counter group on the page.
type MetricGroup struct {
	Name   string
	Config reveal.GroupConfig
}

// Metric group names.
const (
	GroupHero    = "hero"
	GroupMetrics = "metrics"
)

// metricGroups lists the groups the page renders.
func metricGroups(tick time.Duration) map[string]MetricGroup {
	return map[string]MetricGroup{
		GroupHero: {
			Name: GroupHero,
			Config: reveal.GroupConfig{
				Threshold:    reveal.HeroThreshold,
				Duration:     reveal.DefaultDuration,
				TickInterval: tick,
			},
		},
		GroupMetrics: {
			Name: GroupMetrics,
			Config: reveal.GroupConfig{
				Threshold:    reveal.MetricsThreshold,
				Duration:     reveal.MetricsDuration,
				TickInterval: tick,
			},
		},
	}
}

// groupStats returns the stats behind a metric group.
func groupStats(p *Portfolio, group string) ([]Stat, bool) {
	switch group {
	case GroupHero:
		return p.Stats, true
	case GroupMetrics:
		return p.Metrics, true
	default:
		return nil, false
	}
}

// CounterView is a metric as first rendered: the value starts at 0 and the
// stream fills it in.
type CounterView struct {
	Index  int
	Label  string
	Target int
	Suffix string
}

// PageData is the template model for the whole page.
type PageData struct {
	P          *Portfolio
	About      template.HTML
	Nav        []NavLink
	Sections   []string
	OpenIdx    int
	Hero       []CounterView
	Metrics    []CounterView
	Year       int
	StaticMode bool
}

func counterViews(stats []Stat) ([]CounterView, error) {
	metrics, err := RevealMetrics(stats)
	if err != nil {
		return nil, err
	}
	views := make([]CounterView, len(metrics))
	for i, m := range metrics {
		views[i] = CounterView{Index: i, Label: m.Label, Target: m.Target, Suffix: m.Suffix}
	}
	return views, nil
}

// BuildPage assembles the template model.
func BuildPage(p *Portfolio, now time.Time) (*PageData, error) {
	about, err := p.AboutHTML()
	if err != nil {
		return nil, err
	}
	hero, err := counterViews(p.Stats)
	if err != nil {
		return nil, fmt.Errorf("hero stats: %w", err)
	}
	metrics, err := counterViews(p.Metrics)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	return &PageData{
		P:        p,
		About:    about,
		Nav:      NavLinks(),
		Sections: Sections,
		OpenIdx:  0,
		Hero:     hero,
		Metrics:  metrics,
		Year:     now.Year(),
	}, nil
}
