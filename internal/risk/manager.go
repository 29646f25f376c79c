// Package risk is the risk-control core: circuit breakers, a pause state
// machine, position sizing and pre-trade filters for a short-horizon
// strategy. It gates and sizes trades proposed elsewhere; it never decides
// what to trade.
package risk

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/polymarket-risk/internal/clock"
	"github.com/ducminhle1904/polymarket-risk/internal/config"
)

// Manager owns the risk state of one trading session. All methods are safe
// for concurrent use; each call samples the clock once.
type Manager struct {
	mu       sync.Mutex
	limits   Limits
	clock    clock.Clock
	log      zerolog.Logger
	observer Observer
	state    State
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the system clock.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// WithObserver attaches an event observer such as a metrics recorder.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		if o != nil {
			m.observer = o
		}
	}
}

// NewManager builds a Manager from validated thresholds.
func NewManager(cfg config.RiskConfig, opts ...Option) *Manager {
	m := &Manager{
		limits:   NewLimits(cfg),
		clock:    clock.System{},
		log:      zerolog.Nop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With().Str("module", "risk").Logger()
	return m
}

// Limits returns the thresholds the Manager was built with.
func (m *Manager) Limits() Limits {
	return m.limits
}

// IsPaused reports whether trading is paused. An expired pause is cleared as
// a side effect of this call.
func (m *Manager) IsPaused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isPausedLocked(m.clock.Now())
}

func (m *Manager) isPausedLocked(now time.Time) bool {
	paused, expired := m.state.checkPause(now)
	if expired {
		m.log.Info().Msg("Pause expired, trading resumed")
		m.observer.PauseChanged(nil)
	}
	return paused
}

// PauseUntil returns the active pause expiry, or nil. Like IsPaused it clears
// an expired pause.
func (m *Manager) PauseUntil() *time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.isPausedLocked(m.clock.Now()) {
		return nil
	}
	u := *m.state.PauseUntil
	return &u
}

// CheckCircuitBreakers observes balance and evaluates the drawdown and
// volatility breakers.
func (m *Manager) CheckCircuitBreakers(balance decimal.Decimal, volatility *float64) Decision {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkBreakersLocked(balance, m.clock.Now(), volatility)
}

func (m *Manager) checkBreakersLocked(balance decimal.Decimal, now time.Time, volatility *float64) Decision {
	d := EvaluateBreakers(&m.state, m.limits, balance, now, volatility)
	if d.Allowed {
		return d
	}

	ev := m.log.Warn().
		Str("reason", string(d.Reason)).
		Str("balance", balance.StringFixed(2))
	if d.PauseUntil != nil {
		ev = ev.Time("pause_until", *d.PauseUntil)
		m.observer.PauseChanged(d.PauseUntil)
	}
	ev.Msg(d.Detail)
	m.observer.BreakerTripped(d.Reason)
	return d
}

// PreTradeFilters runs the microstructure filter chain.
func (m *Manager) PreTradeFilters(obs MarketObservation) FilterResult {
	res := RunPreTradeFilters(m.limits, obs)
	if !res.Allowed {
		m.log.Debug().Str("reason", string(res.Reason)).Msg(res.Detail)
		m.mu.Lock()
		m.observer.FilterRejected(res.Reason)
		m.mu.Unlock()
	}
	return res
}

// PositionSize sizes a trade. A fallback risk distance is logged as an
// anomaly; it is not an error.
func (m *Manager) PositionSize(req SizeRequest) PositionSize {
	ps := SizePosition(m.limits, req)
	if ps.FallbackDistance {
		m.log.Warn().
			Str("entry", req.Entry.String()).
			Str("stop", ps.StopPrice.String()).
			Msg("Stop at or above entry, using fallback risk distance")
	}
	m.mu.Lock()
	m.observer.PositionSized(ps.NotionalUSD, ps.FallbackDistance)
	m.mu.Unlock()
	return ps
}

// Gate runs the full admission sequence for a candidate: pause check,
// circuit breakers, then filters. The returned Decision carries the first
// denial.
func (m *Manager) Gate(c Candidate) Decision {
	m.mu.Lock()
	now := m.clock.Now()
	if m.isPausedLocked(now) {
		until := *m.state.PauseUntil
		m.mu.Unlock()
		return Decision{
			Reason: ReasonPaused,
			Detail: "paused until " + until.Format(time.RFC3339),
		}
	}
	d := m.checkBreakersLocked(c.Balance, now, c.Volatility)
	m.mu.Unlock()
	if !d.Allowed {
		return d
	}

	res := m.PreTradeFilters(c.Market)
	if !res.Allowed {
		return Decision{Reason: res.Reason, Detail: res.Detail}
	}
	return Decision{Allowed: true}
}

// RecordTrade reports a resolved trade. A win resets the loss streak; a loss
// extends it and arms the consecutive-loss pause when the limit is reached.
func (m *Manager) RecordTrade(success bool, pnl decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	until := m.state.RecordOutcome(success, m.limits, now)
	m.observer.TradeRecorded(success, m.state.ConsecutiveLosses)

	if success {
		m.log.Info().Str("pnl", pnl.StringFixed(2)).Msg("Trade won, loss streak reset")
		return
	}
	m.log.Info().
		Str("pnl", pnl.StringFixed(2)).
		Int("consecutive_losses", m.state.ConsecutiveLosses).
		Msg("Trade lost")
	if until != nil {
		m.log.Warn().
			Int("consecutive_losses", m.state.ConsecutiveLosses).
			Time("pause_until", *until).
			Msg("Consecutive loss limit reached, pausing")
		m.observer.PauseChanged(until)
	}
}

// PlanExit builds the exit bracket for a position opened now.
func (m *Manager) PlanExit(entry, shares decimal.Decimal) ExitPlan {
	return PlanExit(m.limits, entry, shares, m.clock.Now())
}

// Snapshot returns a point-in-time view of the risk state. It does not clear
// an expired pause.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Snapshot(m.clock.Now())
}

// State returns a deep copy of the raw risk state for persistence.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Restore replaces the risk state, typically with one loaded at startup.
// The loss streak, pause, halt and day/month anchors carry over; the
// session anchor does not, so the restored process starts a new session.
// An already expired pause is cleared on the next read as usual.
func (m *Manager) Restore(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s.Clone()
	m.state.dropSession()
	m.log.Info().
		Int("consecutive_losses", s.ConsecutiveLosses).
		Bool("halted", s.Halted).
		Msg("Risk state restored")
	m.observer.PauseChanged(s.Clone().PauseUntil)
}

// Resume lifts an active pause immediately. It does not lift a monthly halt
// or touch the loss streak.
func (m *Manager) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.PauseUntil == nil {
		return
	}
	m.state.PauseUntil = nil
	m.log.Info().Msg("Pause lifted manually")
	m.observer.PauseChanged(nil)
}

// ClearHalt lifts a monthly drawdown halt after manual review. The daily and
// monthly anchors restart from balance.
func (m *Manager) ClearHalt(balance decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wasHalted := m.state.Halted
	m.state.ClearHalt(balance, m.clock.Now())
	m.log.Info().
		Bool("was_halted", wasHalted).
		Str("balance", balance.StringFixed(2)).
		Msg("Monthly halt cleared")
}

// Reset starts a new session. The session anchor is taken from the next
// observed balance. Day and month anchors and a monthly halt are kept.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.NewSession()
	m.observer.SessionReset()
	m.log.Info().Msg("New risk session started")
}
