package main

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushilahane/portfolio/internal/reveal"
)

type sseEvent struct {
	name string
	data string
}

// readEvents parses a server-sent event stream until it ends.
func readEvents(body io.Reader, out chan<- sseEvent) {
	defer close(out)
	sc := bufio.NewScanner(body)
	var ev sseEvent
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			ev.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			ev.data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "" && ev.name != "":
			out <- ev
			ev = sseEvent{}
		}
	}
}

func nextEvent(t *testing.T, events <-chan sseEvent) sseEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "stream ended early")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return sseEvent{}
	}
}

func postRatio(t *testing.T, base, session string, ratio string) int {
	t.Helper()
	resp, err := http.Post(base+"/reveal/"+session+"/visibility", "application/json", strings.NewReader(`{"ratio":`+ratio+`}`))
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestRevealStream_CountsUpAfterVisibility(t *testing.T) {
	clock := clockwork.NewFakeClock()
	srv := newTestServer(t, clock)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/reveal/metrics/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	events := make(chan sseEvent, 512)
	go readEvents(resp.Body, events)

	first := nextEvent(t, events)
	require.Equal(t, "session", first.name)
	var hello struct {
		ID    string `json:"id"`
		Group string `json:"group"`
	}
	require.NoError(t, json.Unmarshal([]byte(first.data), &hello))
	require.NotEmpty(t, hello.ID)
	assert.Equal(t, "metrics", hello.Group)

	// Below the 0.1 threshold nothing is scheduled, so time passing changes nothing.
	require.Equal(t, http.StatusAccepted, postRatio(t, ts.URL, hello.ID, "0.05"))
	clock.Advance(time.Second)

	require.Equal(t, http.StatusBadRequest, postRatio(t, ts.URL, hello.ID, "1.5"))
	require.Equal(t, http.StatusNotFound, postRatio(t, ts.URL, "nope", "0.5"))
	require.Equal(t, http.StatusAccepted, postRatio(t, ts.URL, hello.ID, "0.4"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for ctx.Err() == nil {
			clock.Advance(reveal.DefaultTickInterval)
			time.Sleep(time.Millisecond)
		}
	}()

	last := map[int]int{}
	for {
		ev := nextEvent(t, events)
		if ev.name == "done" {
			break
		}
		require.Equal(t, "count", ev.name)
		var f countFrame
		require.NoError(t, json.Unmarshal([]byte(ev.data), &f))
		require.GreaterOrEqual(t, f.Value, last[f.Index], "values never go down")
		last[f.Index] = f.Value
	}
	assert.Equal(t, map[int]int{0: 70, 1: 60, 2: 95}, last)

	require.Eventually(t, func() bool {
		stats, err := srv.store.Stats(context.Background(), clock.Now())
		return err == nil && stats.TotalReveals == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return srv.hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestRevealStream_UnknownGroup(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := do(srv.Router(), httptest.NewRequest(http.MethodGet, "/reveal/footer/stream", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRevealStream_ClientDisconnectTearsDown(t *testing.T) {
	clock := clockwork.NewFakeClock()
	srv := newTestServer(t, clock)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/reveal/hero/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	events := make(chan sseEvent, 16)
	go readEvents(resp.Body, events)
	require.Equal(t, "session", nextEvent(t, events).name)
	require.Equal(t, 1, srv.hub.Len())

	cancel()
	resp.Body.Close()
	require.Eventually(t, func() bool { return srv.hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestRevealHub_ZeroTargetsFinishImmediately(t *testing.T) {
	hub := NewRevealHub(clockwork.NewFakeClock(), reveal.DefaultTickInterval, time.Minute, nil)
	defer hub.Shutdown()

	s, err := hub.Open(GroupMetrics, []reveal.Metric{{Label: "none", Target: 0}})
	require.NoError(t, err)

	select {
	case <-s.notify:
	case <-time.After(time.Second):
		t.Fatal("no wake-up for a finished group")
	}
	frames, finished := s.drain()
	assert.Empty(t, frames)
	assert.True(t, finished)
}

func TestRevealHub_SweepAndClose(t *testing.T) {
	clock := clockwork.NewFakeClock()
	hub := NewRevealHub(clock, reveal.DefaultTickInterval, time.Minute, NewMetrics())
	defer hub.Shutdown()

	metrics := []reveal.Metric{{Label: "a", Target: 10}}
	old, err := hub.Open(GroupHero, metrics)
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)
	fresh, err := hub.Open(GroupHero, metrics)
	require.NoError(t, err)

	assert.Equal(t, 1, hub.Sweep())
	assert.Equal(t, 1, hub.Len())
	select {
	case <-old.Done():
	default:
		t.Fatal("swept session not closed")
	}
	assert.ErrorIs(t, hub.Report(old.id, 1), ErrSessionNotFound)
	assert.NoError(t, hub.Report(fresh.id, 1))

	hub.Close(fresh.id)
	hub.Close(fresh.id)
	assert.Equal(t, 0, hub.Len())

	_, err = hub.Open("footer", metrics)
	assert.ErrorIs(t, err, ErrUnknownGroup)
}

func TestRevealHub_SweepKeepsRunningSession(t *testing.T) {
	clock := clockwork.NewFakeClock()
	hub := NewRevealHub(clock, reveal.DefaultTickInterval, time.Minute, nil)
	defer hub.Shutdown()

	s, err := hub.Open(GroupMetrics, []reveal.Metric{{Label: "a", Target: 95}})
	require.NoError(t, err)

	clock.Advance(59*time.Second + 900*time.Millisecond)
	require.NoError(t, hub.Report(s.id, 1))
	var state reveal.State
	require.True(t, s.loop.Do(func() { state = s.grp.Counters()[0].State() }))
	require.Equal(t, reveal.Running, state)

	clock.Advance(200 * time.Millisecond)
	assert.Equal(t, 0, hub.Sweep(), "a reported session is not stale")
	assert.Equal(t, 1, hub.Len())
	select {
	case <-s.Done():
		t.Fatal("running session torn down")
	default:
	}
}

func TestRevealHub_SweepSkipsAttachedStreams(t *testing.T) {
	clock := clockwork.NewFakeClock()
	hub := NewRevealHub(clock, reveal.DefaultTickInterval, time.Minute, nil)
	defer hub.Shutdown()

	s, err := hub.Open(GroupHero, []reveal.Metric{{Label: "a", Target: 10}})
	require.NoError(t, err)
	detach := s.attach()

	clock.Advance(5 * time.Minute)
	assert.Equal(t, 0, hub.Sweep())

	detach()
	detach()
	assert.Equal(t, 0, hub.Sweep(), "ttl counts from the detach")

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, hub.Sweep())
	assert.Equal(t, 0, hub.Len())
}
