package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_Stats(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	now := time.Date(2026, 5, 20, 15, 0, 0, 0, time.UTC)

	require.NoError(t, store.RecordVisit(ctx, "aaa", "ua", "/", now.Add(-time.Hour)))
	require.NoError(t, store.RecordVisit(ctx, "aaa", "ua", "/", now.Add(-20*time.Hour)))
	require.NoError(t, store.RecordVisit(ctx, "bbb", "ua", "/", now.Add(-3*24*time.Hour)))
	require.NoError(t, store.RecordVisit(ctx, "ccc", "ua", "/", now.Add(-30*24*time.Hour)))

	require.NoError(t, store.RecordReveal(ctx, "metrics", "s1", now))
	require.NoError(t, store.RecordReveal(ctx, "metrics", "s2", now))
	require.NoError(t, store.RecordReveal(ctx, "hero", "s3", now))
	require.NoError(t, store.RecordQRDownload(ctx, "github", now))

	stats, err := store.Stats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalVisitors)
	assert.Equal(t, int64(3), stats.UniqueVisitors)
	assert.Equal(t, int64(1), stats.VisitorsToday)
	assert.Equal(t, int64(3), stats.VisitorsThisWeek)
	assert.Equal(t, int64(3), stats.TotalReveals)
	assert.Equal(t, []GroupCount{{Group: "metrics", Count: 2}, {Group: "hero", Count: 1}}, stats.RevealsByGroup)
	assert.Equal(t, []QRCount{{Name: "github", Count: 1}}, stats.QRDownloads)
	require.Len(t, stats.RecentVisitors, 4)
	assert.Equal(t, "aaa", stats.RecentVisitors[0].HashedIP)
	assert.True(t, stats.RecentVisitors[0].Timestamp.Equal(now.Add(-time.Hour)))
}

func TestStore_CleanupVisitors(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	now := time.Date(2026, 5, 20, 15, 0, 0, 0, time.UTC)

	require.NoError(t, store.RecordVisit(ctx, "old", "ua", "/", now.Add(-400*24*time.Hour)))
	require.NoError(t, store.RecordVisit(ctx, "new", "ua", "/", now.Add(-time.Hour)))

	removed, err := store.CleanupVisitors(ctx, now.Add(-365*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	visitors, err := store.RecentVisitors(ctx, 10)
	require.NoError(t, err)
	require.Len(t, visitors, 1)
	assert.Equal(t, "new", visitors[0].HashedIP)
}

func TestStore_EmptyStats(t *testing.T) {
	stats, err := newTestStore(t).Stats(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalVisitors)
	assert.Empty(t, stats.RevealsByGroup)
	assert.Empty(t, stats.RecentVisitors)
}
