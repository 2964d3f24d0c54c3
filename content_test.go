package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStat(t *testing.T) {
	cases := []struct {
		in     string
		n      int
		suffix string
	}{
		{"70%", 70, "%"},
		{"5+", 5, "+"},
		{"500", 500, ""},
		{" 2.5s ", 2, ".5s"},
	}
	for _, tc := range cases {
		n, suffix, err := ParseStat(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.n, n, tc.in)
		assert.Equal(t, tc.suffix, suffix, tc.in)
	}

	for _, bad := range []string{"", "%70", "-3", "N/A"} {
		_, _, err := ParseStat(bad)
		assert.ErrorIs(t, err, errNoLeadingNumber, bad)
	}
}

func TestRevealMetrics_DefaultContent(t *testing.T) {
	p := DefaultPortfolio()
	require.NoError(t, p.Validate())

	metrics, err := RevealMetrics(p.Metrics)
	require.NoError(t, err)
	require.Len(t, metrics, 3)
	assert.Equal(t, 70, metrics[0].Target)
	assert.Equal(t, 60, metrics[1].Target)
	assert.Equal(t, 95, metrics[2].Target)
	assert.Equal(t, "%", metrics[2].Suffix)
	assert.Equal(t, "OCR Accuracy", metrics[2].Label)
}

func TestPortfolio_Names(t *testing.T) {
	p := DefaultPortfolio()
	assert.Equal(t, "Rushikesh", p.FirstName())
	assert.Equal(t, "RL", p.Initials())
}

func TestPortfolio_AboutHTML(t *testing.T) {
	p := &Portfolio{Name: "A", About: "First paragraph.\n\nSecond *one*."}
	html, err := p.AboutHTML()
	require.NoError(t, err)
	assert.Equal(t, "<p>First paragraph.</p>\n<p>Second <em>one</em>.</p>\n", string(html))
}

const testContent = `
name: Ada Example
role: Engineer
github: https://github.com/ada
stats:
  - value: "3+"
    label: Years
metrics:
  - value: "42%"
    label: Faster builds
liveApps:
  - name: Demo
    url: https://example.com/demo
`

func writeContent(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "portfolio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadPortfolio(t *testing.T) {
	path := writeContent(t, t.TempDir(), testContent)

	p, err := LoadPortfolio(path)
	require.NoError(t, err)
	assert.Equal(t, "Ada Example", p.Name)
	assert.Equal(t, []Stat{{Value: "42%", Label: "Faster builds"}}, p.Metrics)
	assert.Equal(t, "https://example.com/demo", p.LiveApps[0].URL)
}

func TestLoadPortfolio_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadPortfolio(writeContent(t, dir, "role: nobody\n"))
	assert.ErrorContains(t, err, "name is required")

	_, err = LoadPortfolio(writeContent(t, dir, "name: X\nstats:\n  - value: lots\n    label: Y\n"))
	assert.ErrorIs(t, err, errNoLeadingNumber)

	_, err = LoadPortfolio(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestContentStore_Reload(t *testing.T) {
	dir := t.TempDir()
	path := writeContent(t, dir, testContent)
	store, err := NewContentStore(path)
	require.NoError(t, err)
	require.Equal(t, "Ada Example", store.Get().Name)

	writeContent(t, dir, "name: broken\nstats:\n  - value: x\n")
	assert.Error(t, store.Reload())
	assert.Equal(t, "Ada Example", store.Get().Name, "bad file keeps previous content")

	writeContent(t, dir, "name: Grace Example\n")
	require.NoError(t, store.Reload())
	assert.Equal(t, "Grace Example", store.Get().Name)
}

func TestContentStore_Builtin(t *testing.T) {
	store, err := NewContentStore("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPortfolio().Name, store.Get().Name)
	assert.NoError(t, store.Reload())
	assert.NoError(t, store.Watch(context.Background()))
}

func TestContentStore_WatchPicksUpWrites(t *testing.T) {
	dir := t.TempDir()
	path := writeContent(t, dir, testContent)
	store, err := NewContentStore(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watchErr := make(chan error, 1)
	go func() { watchErr <- store.Watch(ctx) }()

	require.Eventually(t, func() bool {
		// Rewrite until the watcher is registered and sees it.
		_ = os.WriteFile(path, []byte("name: Watched Example\n"), 0o644)
		return store.Get().Name == "Watched Example"
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-watchErr)
}
