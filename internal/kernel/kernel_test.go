package kernel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronsb/playtimed/internal/domain"
)

func baseUser() domain.User { return domain.User{Name: "alice", UID: 1000, Enabled: true} }

func baseLimits() domain.Limits {
	return domain.Limits{User: "alice", GamingLimitMin: 60, GracePeriodSec: 300}
}

func TestEvaluate_AvailableToGraceOnLimitReached(t *testing.T) {
	k := New(nil, nil, domain.ModeNormal, nil)
	now := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	summary := domain.DailySummary{User: "alice", Date: "2026-08-03", State: domain.StateAvailable, GamingTimeSec: 3600}

	out, dec, err := k.Evaluate(context.Background(), now, baseUser(), baseLimits(), summary, GamingActivity{Active: true, PIDs: []int{123}}, 4)
	require.NoError(t, err)

	assert.Equal(t, domain.StateGrace, out.State)
	require.NotNil(t, out.GraceStartedAt)
	assert.Empty(t, dec.KillPIDs, "grace period must not kill immediately")
	assertHasIntention(t, dec, "time_expired")
}

func TestEvaluate_GraceToEnforcingAfterGracePeriodElapses(t *testing.T) {
	k := New(nil, nil, domain.ModeNormal, nil)
	graceStart := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	now := graceStart.Add(301 * time.Second)
	summary := domain.DailySummary{User: "alice", Date: "2026-08-03", State: domain.StateGrace, GamingTimeSec: 3600, GraceStartedAt: &graceStart}

	out, dec, err := k.Evaluate(context.Background(), now, baseUser(), baseLimits(), summary, GamingActivity{Active: true, PIDs: []int{123}}, 4)
	require.NoError(t, err)

	assert.Equal(t, domain.StateEnforcing, out.State)
	assert.Equal(t, []int{123}, dec.KillPIDs)
	assertHasIntention(t, dec, "enforcement")
}

func TestEvaluate_GraceReturnsToAvailableWhenGamingStops(t *testing.T) {
	k := New(nil, nil, domain.ModeNormal, nil)
	graceStart := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	now := graceStart.Add(10 * time.Second)
	summary := domain.DailySummary{User: "alice", Date: "2026-08-03", State: domain.StateGrace, GamingTimeSec: 3600, GraceStartedAt: &graceStart}

	out, dec, err := k.Evaluate(context.Background(), now, baseUser(), baseLimits(), summary, GamingActivity{Active: false}, 4)
	require.NoError(t, err)

	assert.Equal(t, domain.StateAvailable, out.State)
	assert.Nil(t, out.GraceStartedAt)
	assert.Empty(t, dec.KillPIDs)
}

func TestEvaluate_PassthroughModeNeverKills(t *testing.T) {
	k := New(nil, nil, domain.ModePassthrough, nil)
	graceStart := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	now := graceStart.Add(301 * time.Second)
	summary := domain.DailySummary{User: "alice", Date: "2026-08-03", State: domain.StateGrace, GamingTimeSec: 3600, GraceStartedAt: &graceStart}

	out, dec, err := k.Evaluate(context.Background(), now, baseUser(), baseLimits(), summary, GamingActivity{Active: true, PIDs: []int{123}}, 4)
	require.NoError(t, err)

	assert.Equal(t, domain.StateEnforcing, out.State)
	assert.Empty(t, dec.KillPIDs, "passthrough mode records the transition but never enforces")
}

func TestEvaluate_OutsideHoursKillsImmediately(t *testing.T) {
	k := New(nil, nil, domain.ModeNormal, nil)
	now := time.Date(2026, 8, 3, 2, 0, 0, 0, time.UTC)
	limits := baseLimits()
	limits.Schedule = allDeniedGrid()
	summary := domain.DailySummary{User: "alice", Date: "2026-08-02", State: domain.StateAvailable, LastStateChange: now}

	out, dec, err := k.Evaluate(context.Background(), now, baseUser(), limits, summary, GamingActivity{Active: true, PIDs: []int{55}}, 4)
	require.NoError(t, err)

	assert.Equal(t, domain.StateOutsideHours, out.State)
	assert.Equal(t, []int{55}, dec.KillPIDs)
	assertHasIntention(t, dec, "outside_hours")
}

func TestEvaluate_WarningThresholdsFireOnce(t *testing.T) {
	k := New(nil, nil, domain.ModeNormal, nil)
	now := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	summary := domain.DailySummary{User: "alice", Date: "2026-08-03", State: domain.StateAvailable, GamingTimeSec: (60 - 30) * 60}

	out, dec, err := k.Evaluate(context.Background(), now, baseUser(), baseLimits(), summary, GamingActivity{Active: true}, 4)
	require.NoError(t, err)
	assert.True(t, out.Warned30)
	assertHasIntention(t, dec, "time_warning_30")

	// A second tick at the same threshold must not re-fire.
	out2, dec2, err := k.Evaluate(context.Background(), now.Add(time.Minute), baseUser(), baseLimits(), out, GamingActivity{Active: true}, 4)
	require.NoError(t, err)
	assert.True(t, out2.Warned30)
	assertNoIntention(t, dec2, "time_warning_30")
}

func TestEvaluate_DayRollover_ResetsCounters(t *testing.T) {
	k := New(nil, nil, domain.ModeNormal, nil)
	lastChange := time.Date(2026, 8, 3, 3, 0, 0, 0, time.UTC)
	now := time.Date(2026, 8, 4, 5, 0, 0, 0, time.UTC)
	summary := domain.DailySummary{
		User: "alice", Date: "2026-08-03", State: domain.StateEnforcing,
		GamingTimeSec: 5000, Warned30: true, LastStateChange: lastChange,
	}

	out, dec, err := k.Evaluate(context.Background(), now, baseUser(), baseLimits(), summary, GamingActivity{Active: false}, 4)
	require.NoError(t, err)

	assert.Equal(t, domain.StateAvailable, out.State)
	assert.Zero(t, out.GamingTimeSec)
	assert.False(t, out.Warned30)
	assertHasIntention(t, dec, "day_reset")
}

func allDeniedGrid() string {
	b := make([]byte, 168)
	for i := range b {
		b[i] = '0'
	}
	return string(b)
}

func assertHasIntention(t *testing.T, dec Decision, intention string) {
	t.Helper()
	for _, e := range dec.Events {
		if e.Intention == intention {
			return
		}
	}
	t.Errorf("expected an event with intention %q, got %+v", intention, dec.Events)
}

func assertNoIntention(t *testing.T, dec Decision, intention string) {
	t.Helper()
	for _, e := range dec.Events {
		if e.Intention == intention {
			t.Errorf("did not expect intention %q, got %+v", intention, dec.Events)
		}
	}
}
