package risk

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducminhle1904/polymarket-risk/internal/clock"
	"github.com/ducminhle1904/polymarket-risk/internal/config"
)

type recordingObserver struct {
	trips      []Reason
	rejections []Reason
	trades     int
	pauses     []*time.Time
	sized      int
	fallbacks  int
	resets     int
}

func (o *recordingObserver) BreakerTripped(r Reason) { o.trips = append(o.trips, r) }
func (o *recordingObserver) FilterRejected(r Reason) { o.rejections = append(o.rejections, r) }
func (o *recordingObserver) TradeRecorded(bool, int) { o.trades++ }
func (o *recordingObserver) PauseChanged(u *time.Time) {
	o.pauses = append(o.pauses, u)
}
func (o *recordingObserver) PositionSized(_ decimal.Decimal, fallback bool) {
	o.sized++
	if fallback {
		o.fallbacks++
	}
}
func (o *recordingObserver) SessionReset() { o.resets++ }

func newTestManager(t *testing.T, cfg config.RiskConfig) (*Manager, *clock.Manual, *recordingObserver, *bytes.Buffer) {
	t.Helper()
	clk := clock.NewManual(t0)
	obs := &recordingObserver{}
	var buf bytes.Buffer
	m := NewManager(cfg,
		WithClock(clk),
		WithObserver(obs),
		WithLogger(zerolog.New(&buf)),
	)
	return m, clk, obs, &buf
}

// TestManager_ConsecutiveLossPause tests that five losses pause for thirty
// minutes and a win resets the streak
func TestManager_ConsecutiveLossPause(t *testing.T) {
	m, clk, obs, logs := newTestManager(t, config.Default())

	for i := 0; i < 4; i++ {
		m.RecordTrade(false, dec("-1.5"))
	}
	assert.False(t, m.IsPaused())

	m.RecordTrade(false, dec("-1.5"))
	require.True(t, m.IsPaused())
	require.NotNil(t, m.PauseUntil())
	assert.Equal(t, t0.Add(30*time.Minute), *m.PauseUntil())
	assert.Contains(t, logs.String(), "Consecutive loss limit reached")

	clk.Advance(30*time.Minute - time.Second)
	assert.True(t, m.IsPaused())

	clk.Advance(time.Second)
	assert.False(t, m.IsPaused())
	assert.Nil(t, m.PauseUntil())
	assert.Contains(t, logs.String(), "Pause expired")
	assert.Equal(t, 5, m.Snapshot().ConsecutiveLosses)

	m.RecordTrade(true, dec("2"))
	assert.Equal(t, 0, m.Snapshot().ConsecutiveLosses)
	assert.Equal(t, 6, obs.trades)
	require.Len(t, obs.pauses, 2)
	assert.NotNil(t, obs.pauses[0])
	assert.Nil(t, obs.pauses[1])
}

// TestManager_Gate tests the admission order: pause, breakers, filters
func TestManager_Gate(t *testing.T) {
	m, clk, obs, _ := newTestManager(t, config.Default())

	ok := m.Gate(Candidate{Balance: dec("1000")})
	assert.True(t, ok.Allowed)

	d := m.Gate(Candidate{Balance: dec("1000"), Market: MarketObservation{RSI8: f64(95)}})
	assert.Equal(t, ReasonRSIOverbought, d.Reason)
	assert.Equal(t, []Reason{ReasonRSIOverbought}, obs.rejections)

	d = m.Gate(Candidate{Balance: dec("950"), Market: MarketObservation{RSI8: f64(95)}})
	assert.Equal(t, ReasonSessionDrawdown, d.Reason)
	assert.Equal(t, []Reason{ReasonSessionDrawdown}, obs.trips)

	clk.Advance(10 * time.Minute)
	d = m.Gate(Candidate{Balance: dec("1000")})
	assert.Equal(t, ReasonPaused, d.Reason)
	assert.Contains(t, d.Detail, "2026-03-10T16:30:00Z")

	m.Resume()
	assert.False(t, m.IsPaused())
	d = m.Gate(Candidate{Balance: dec("1000")})
	assert.True(t, d.Allowed)
}

// TestManager_PositionSizeFallbackLogged tests that the fallback distance is
// logged and reported
func TestManager_PositionSizeFallbackLogged(t *testing.T) {
	m, _, obs, logs := newTestManager(t, config.Default())

	ps := m.PositionSize(SizeRequest{Balance: dec("1000"), Entry: dec("0.60"), Stop: decPtr("0.61")})
	assert.True(t, ps.FallbackDistance)
	assert.Contains(t, logs.String(), `"level":"warn"`)
	assert.Contains(t, logs.String(), "fallback risk distance")
	assert.Equal(t, 1, obs.fallbacks)

	m.PositionSize(SizeRequest{Balance: dec("1000"), Entry: dec("0.60")})
	assert.Equal(t, 2, obs.sized)
	assert.Equal(t, 1, obs.fallbacks)
}

// TestManager_MonthlyHaltAndClear tests the manual halt lifecycle across
// sessions
func TestManager_MonthlyHaltAndClear(t *testing.T) {
	m, clk, _, logs := newTestManager(t, config.Default())

	require.True(t, m.CheckCircuitBreakers(dec("1000"), nil).Allowed)

	clk.Advance(24 * time.Hour)
	m.Reset()
	require.True(t, m.CheckCircuitBreakers(dec("850"), nil).Allowed)

	clk.Advance(24 * time.Hour)
	m.Reset()
	d := m.CheckCircuitBreakers(dec("800"), nil)
	require.Equal(t, ReasonMonthlyDrawdown, d.Reason)
	assert.True(t, m.Snapshot().Halted)
	assert.False(t, m.IsPaused())

	m.Reset()
	assert.Equal(t, ReasonMonthlyDrawdown, m.CheckCircuitBreakers(dec("810"), nil).Reason)

	m.ClearHalt(dec("810"))
	assert.Contains(t, logs.String(), "Monthly halt cleared")
	assert.True(t, m.CheckCircuitBreakers(dec("810"), nil).Allowed)

	snap := m.Snapshot()
	assert.False(t, snap.Halted)
	require.NotNil(t, snap.MonthlyStartBalance)
	assertDecimal(t, "810", *snap.MonthlyStartBalance)
}

// TestManager_PlanExitUsesClock tests that the time stop is measured from the
// manager clock
func TestManager_PlanExitUsesClock(t *testing.T) {
	m, clk, _, _ := newTestManager(t, config.Default())
	clk.Advance(time.Minute)

	plan := m.PlanExit(dec("0.60"), dec("100"))
	assert.Equal(t, t0.Add(3*time.Minute), plan.TimeStopAt)
}

// TestManager_Snapshot tests the dashboard view
func TestManager_Snapshot(t *testing.T) {
	m, clk, _, _ := newTestManager(t, config.Default())

	snap := m.Snapshot()
	assert.Nil(t, snap.SessionStartBalance)
	assert.False(t, snap.Paused)

	m.CheckCircuitBreakers(dec("1000"), nil)
	m.CheckCircuitBreakers(dec("955"), nil)

	snap = m.Snapshot()
	assert.True(t, snap.Paused)
	require.NotNil(t, snap.PauseUntil)
	assert.Equal(t, t0.Add(time.Hour), *snap.PauseUntil)
	assertDecimal(t, "1000", *snap.SessionStartBalance)
	assertDecimal(t, "1000", *snap.DailyStartBalance)
	assert.Equal(t, t0, snap.TakenAt)

	clk.Advance(2 * time.Hour)
	snap = m.Snapshot()
	assert.False(t, snap.Paused)
	assert.NotNil(t, snap.PauseUntil, "snapshot must not clear an expired pause")
}

// TestManager_ConcurrentRecordTrade tests that concurrent callers never lose
// an update
func TestManager_ConcurrentRecordTrade(t *testing.T) {
	cfg := config.Default()
	cfg.ConsecutiveLossesPause = 20
	m, _, _, _ := newTestManager(t, cfg)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordTrade(false, dec("-1"))
			m.CheckCircuitBreakers(dec("1000"), nil)
			m.IsPaused()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, m.Snapshot().ConsecutiveLosses)
	assert.True(t, m.IsPaused())
}

// TestManager_StateRestore tests that an exported state restores the pause
// and the loss streak into a fresh manager
func TestManager_StateRestore(t *testing.T) {
	m, _, _, _ := newTestManager(t, config.Default())
	for i := 0; i < 5; i++ {
		m.RecordTrade(false, dec("-1"))
	}
	m.CheckCircuitBreakers(dec("1000"), nil)
	saved := m.State()
	require.NotNil(t, saved.PauseUntil)

	saved.ConsecutiveLosses = 99
	assert.Equal(t, 5, m.Snapshot().ConsecutiveLosses)
	saved.ConsecutiveLosses = 5

	restored, clk, obs, logs := newTestManager(t, config.Default())
	restored.Restore(saved)
	assert.True(t, restored.IsPaused())
	assert.Equal(t, 5, restored.Snapshot().ConsecutiveLosses)
	assert.Nil(t, restored.Snapshot().SessionStartBalance)
	assertDecimal(t, "1000", *restored.Snapshot().DailyStartBalance)
	assert.Contains(t, logs.String(), "Risk state restored")
	require.Len(t, obs.pauses, 1)

	clk.Advance(30 * time.Minute)
	assert.False(t, restored.IsPaused())
}

// TestManager_RestoreStartsNewSession tests that the first balance seen after
// a restore anchors a new session instead of measuring against the old one
func TestManager_RestoreStartsNewSession(t *testing.T) {
	first, _, _, _ := newTestManager(t, config.Default())
	require.True(t, first.CheckCircuitBreakers(dec("1000"), nil).Allowed)
	saved := first.State()

	second, clk, _, _ := newTestManager(t, config.Default())
	clk.Advance(2 * time.Hour)
	second.Restore(saved)

	d := second.CheckCircuitBreakers(dec("955"), nil)
	assert.True(t, d.Allowed, d.Detail)
	snap := second.Snapshot()
	require.NotNil(t, snap.SessionStartBalance)
	assertDecimal(t, "955", *snap.SessionStartBalance)
	assertDecimal(t, "1000", *snap.DailyStartBalance)

	// The restored session still trips from its own anchor.
	assert.Equal(t, ReasonSessionDrawdown, second.CheckCircuitBreakers(dec("916.80"), nil).Reason)
}
