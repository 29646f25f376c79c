package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestObserveBalance_AnchorsOncePerPeriod tests that intra-period balance
// changes leave the anchors alone
func TestObserveBalance_AnchorsOncePerPeriod(t *testing.T) {
	var s State
	s.ObserveBalance(dec("1000"), t0)
	s.ObserveBalance(dec("900"), t0.Add(time.Hour))
	s.ObserveBalance(dec("1200"), t0.Add(2*time.Hour))

	assertDecimal(t, "1000", *s.SessionStart)
	assertDecimal(t, "1000", *s.DailyStart)
	assertDecimal(t, "1000", *s.MonthlyStart)
	assert.Equal(t, "2026-03-10", s.LastDailyKey)
	assert.Equal(t, "2026-03", s.LastMonthlyKey)
}

// TestObserveBalance_DayRollover tests that a new UTC day re-anchors only the
// daily period
func TestObserveBalance_DayRollover(t *testing.T) {
	var s State
	s.ObserveBalance(dec("1000"), t0)
	s.ObserveBalance(dec("950"), time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC))

	assertDecimal(t, "1000", *s.SessionStart)
	assertDecimal(t, "950", *s.DailyStart)
	assertDecimal(t, "1000", *s.MonthlyStart)
	assert.Equal(t, "2026-03-11", s.LastDailyKey)
}

// TestObserveBalance_MonthRollover tests that a new UTC month re-anchors the
// day and the month and lifts a halt
func TestObserveBalance_MonthRollover(t *testing.T) {
	var s State
	s.ObserveBalance(dec("1000"), t0)
	s.Halted = true

	s.ObserveBalance(dec("700"), time.Date(2026, 4, 1, 0, 0, 1, 0, time.UTC))

	assertDecimal(t, "1000", *s.SessionStart)
	assertDecimal(t, "700", *s.DailyStart)
	assertDecimal(t, "700", *s.MonthlyStart)
	assert.False(t, s.Halted)
}

// TestObserveBalance_UsesUTC tests that period keys come from UTC, not the
// caller's zone
func TestObserveBalance_UsesUTC(t *testing.T) {
	zone := time.FixedZone("UTC-5", -5*3600)
	var s State
	// 2026-03-10 22:00 in UTC-5 is 2026-03-11 03:00 UTC.
	s.ObserveBalance(dec("1000"), time.Date(2026, 3, 10, 22, 0, 0, 0, zone))
	assert.Equal(t, "2026-03-11", s.LastDailyKey)
}

// TestIsPaused_LazyExpiry tests that an expired pause is cleared on read
func TestIsPaused_LazyExpiry(t *testing.T) {
	var s State
	assert.False(t, s.IsPaused(t0))

	s.armPause(t0.Add(30 * time.Minute))
	assert.True(t, s.IsPaused(t0.Add(29*time.Minute)))
	require.NotNil(t, s.PauseUntil)

	assert.False(t, s.IsPaused(t0.Add(30*time.Minute)))
	assert.Nil(t, s.PauseUntil)
}

// TestRecordOutcome_LossStreak tests streak counting and the loss pause
func TestRecordOutcome_LossStreak(t *testing.T) {
	lim := defaultLimits()
	var s State

	for i := 1; i < 5; i++ {
		assert.Nil(t, s.RecordOutcome(false, lim, t0))
		assert.Equal(t, i, s.ConsecutiveLosses)
	}

	until := s.RecordOutcome(false, lim, t0)
	require.NotNil(t, until)
	assert.Equal(t, t0.Add(30*time.Minute), *until)
	assert.Equal(t, 5, s.ConsecutiveLosses)

	// Pausing does not reset the streak, only a win does.
	assert.False(t, s.IsPaused(t0.Add(31*time.Minute)))
	assert.Equal(t, 5, s.ConsecutiveLosses)

	assert.Nil(t, s.RecordOutcome(true, lim, t0))
	assert.Equal(t, 0, s.ConsecutiveLosses)
}

// TestSnapshot_NoSideEffects tests that a snapshot never clears a pause
func TestSnapshot_NoSideEffects(t *testing.T) {
	var s State
	s.ObserveBalance(dec("1000"), t0)
	s.armPause(t0.Add(time.Minute))

	snap := s.Snapshot(t0.Add(2 * time.Minute))
	assert.False(t, snap.Paused)
	require.NotNil(t, snap.PauseUntil)
	require.NotNil(t, s.PauseUntil)

	// Mutating the copy must not reach the state.
	*snap.SessionStartBalance = dec("1")
	assertDecimal(t, "1000", *s.SessionStart)
}

// TestNewSession tests that a new session keeps day and month bookkeeping
func TestNewSession(t *testing.T) {
	s := anchoredState(t0, "1000", "1000", "1000")
	s.ConsecutiveLosses = 3
	s.Halted = true
	s.armPause(t0.Add(time.Hour))

	s.NewSession()
	s.ObserveBalance(dec("800"), t0)

	assert.Equal(t, 0, s.ConsecutiveLosses)
	assert.Nil(t, s.PauseUntil)
	assert.True(t, s.Halted)
	assertDecimal(t, "800", *s.SessionStart)
	assertDecimal(t, "1000", *s.DailyStart)
	assertDecimal(t, "1000", *s.MonthlyStart)
}

// TestNextUTCMidnight tests the daily pause boundary
func TestNextUTCMidnight(t *testing.T) {
	want := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, want, NextUTCMidnight(t0))
	assert.Equal(t, want, NextUTCMidnight(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		NextUTCMidnight(time.Date(2026, 12, 31, 23, 59, 59, 0, time.UTC)))
}
