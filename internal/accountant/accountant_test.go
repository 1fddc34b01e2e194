package accountant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronsb/playtimed/internal/domain"
)

// fakeStore implements domain.Store, recording only the session calls
// Advance makes; every other method panics if exercised.
type fakeStore struct {
	domain.Store
	opened []int64
	closed []int64
}

func (f *fakeStore) OpenSession(ctx context.Context, user string, patternID int64, startedAt time.Time) (int64, error) {
	id := int64(len(f.opened) + 1)
	f.opened = append(f.opened, id)
	return id, nil
}

func (f *fakeStore) OpenSessionsForUser(ctx context.Context, user string) ([]domain.Session, error) {
	var sessions []domain.Session
	for _, id := range f.opened {
		sessions = append(sessions, domain.Session{ID: id, User: user})
	}
	return sessions, nil
}

func (f *fakeStore) CloseSession(ctx context.Context, sessionID int64, reason domain.EndReason, endedAt time.Time) error {
	f.closed = append(f.closed, sessionID)
	return nil
}

// TestAdvance_LauncherOnlyActivityAccumulatesTotalNotGaming covers the
// idle-launcher scenario: a non-gaming tracked category, already running at
// the start, stays active for 30 minutes (60 ticks of 30s) with no gaming
// activity present, so total_time_sec advances while gaming_time_sec stays
// at zero.
func TestAdvance_LauncherOnlyActivityAccumulatesTotalNotGaming(t *testing.T) {
	a := New(&fakeStore{}, 30*time.Second, nil)
	start := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	summary := domain.DailySummary{User: "alice", Date: "2026-08-03", LastPollAt: start, TrackedActive: true}

	now := start
	out := summary
	for i := 0; i < 60; i++ {
		now = now.Add(30 * time.Second)
		var err error
		out, err = a.Advance(context.Background(), now, out, false, true, 0, nil)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1800), out.TotalTimeSec)
	assert.Zero(t, out.GamingTimeSec)
	assert.False(t, out.GamingActive)
	assert.True(t, out.TrackedActive)
}

func TestAdvance_GamingActivityAccumulatesBoth(t *testing.T) {
	a := New(&fakeStore{}, 30*time.Second, nil)
	start := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	summary := domain.DailySummary{User: "alice", Date: "2026-08-03", LastPollAt: start, GamingActive: true, TrackedActive: true}

	now := start.Add(30 * time.Second)
	out, err := a.Advance(context.Background(), now, summary, true, true, 7, []int{123})
	require.NoError(t, err)

	assert.Equal(t, int64(30), out.TotalTimeSec)
	assert.Equal(t, int64(30), out.GamingTimeSec)
}

func TestAdvance_GamingStartOpensSession(t *testing.T) {
	store := &fakeStore{}
	a := New(store, 30*time.Second, nil)
	start := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	summary := domain.DailySummary{User: "alice", Date: "2026-08-03", LastPollAt: start}

	now := start.Add(30 * time.Second)
	out, err := a.Advance(context.Background(), now, summary, true, true, 7, []int{123})
	require.NoError(t, err)

	require.NotNil(t, out.GamingStartedAt)
	assert.Len(t, store.opened, 1)
	assert.Zero(t, out.GamingTimeSec, "no gaming time accrues on the tick gaming starts")
}

func TestAdvance_GamingStopSealsSessionsAndAccruesFinalTick(t *testing.T) {
	store := &fakeStore{opened: []int64{1}}
	a := New(store, 30*time.Second, nil)
	start := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	summary := domain.DailySummary{User: "alice", Date: "2026-08-03", LastPollAt: start, GamingActive: true, TrackedActive: true}

	now := start.Add(30 * time.Second)
	out, err := a.Advance(context.Background(), now, summary, false, false, 0, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(30), out.GamingTimeSec)
	assert.Equal(t, int64(30), out.TotalTimeSec)
	assert.Nil(t, out.GamingStartedAt)
	assert.Equal(t, []int64{1}, store.closed)
}

func TestAdvance_ElapsedTimeClampedAcrossSuspendGap(t *testing.T) {
	a := New(&fakeStore{}, 30*time.Second, nil)
	start := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	summary := domain.DailySummary{User: "alice", Date: "2026-08-03", LastPollAt: start, GamingActive: true, TrackedActive: true}

	now := start.Add(2 * time.Hour)
	out, err := a.Advance(context.Background(), now, summary, true, true, 7, []int{123})
	require.NoError(t, err)

	assert.Equal(t, int64(60), out.GamingTimeSec, "elapsed must clamp to 2x tick period")
}

func TestAdvance_NoTrackedActivityLeavesTotalUnchanged(t *testing.T) {
	a := New(&fakeStore{}, 30*time.Second, nil)
	start := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	summary := domain.DailySummary{User: "alice", Date: "2026-08-03", LastPollAt: start}

	now := start.Add(30 * time.Second)
	out, err := a.Advance(context.Background(), now, summary, false, false, 0, nil)
	require.NoError(t, err)

	assert.Zero(t, out.TotalTimeSec)
	assert.Zero(t, out.GamingTimeSec)
}
