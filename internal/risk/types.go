package risk

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/polymarket-risk/internal/config"
)

// Reason is a machine readable denial code.
type Reason string

const (
	ReasonPaused          Reason = "paused"
	ReasonSessionDrawdown Reason = "session_drawdown"
	ReasonDailyDrawdown   Reason = "daily_drawdown"
	ReasonMonthlyDrawdown Reason = "monthly_drawdown"
	ReasonVolatilityKill  Reason = "volatility_kill"

	ReasonTimeToResolution Reason = "time_to_resolution"
	ReasonVolume60s        Reason = "volume_60s"
	ReasonZscore3Min       Reason = "zscore_3min"
	ReasonRSIOverbought    Reason = "rsi_overbought"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)

	// fallbackDistanceFraction is the risk distance, as a fraction of entry,
	// used when the stop is at or above the entry.
	fallbackDistanceFraction = decimal.RequireFromString("0.01")
)

// Decision is the outcome of a circuit breaker evaluation or a full gate.
// Reason is empty iff Allowed.
type Decision struct {
	Allowed    bool
	Reason     Reason
	Detail     string
	PauseUntil *time.Time // set when this evaluation armed a pause
}

// FilterResult is the outcome of the pre-trade filter chain.
// Reason is empty iff Allowed.
type FilterResult struct {
	Allowed bool
	Reason  Reason
	Detail  string
}

// SizeRequest carries the per-call sizing inputs. Nil pointers fall back to
// the configured values.
type SizeRequest struct {
	Balance decimal.Decimal
	Entry   decimal.Decimal
	Stop    *decimal.Decimal

	RiskFraction   *decimal.Decimal // 0.008 means 0.8% of balance at risk
	CapFraction    *decimal.Decimal // 0.25 means at most 25% of balance
	MaxPositionUSD *decimal.Decimal
}

// Sizing caps reported in PositionSize.CappedBy.
const (
	CapNone        = ""
	CapPositionPct = "position_cap"
	CapMaxUSD      = "max_position_usd"
)

// PositionSize is the sizer output. Shares are whole units and NotionalUSD is
// rounded down to the cent; NotionalUSD is always derived from Shares.
type PositionSize struct {
	Shares      decimal.Decimal
	NotionalUSD decimal.Decimal

	StopPrice        decimal.Decimal
	RiskDistance     decimal.Decimal
	FallbackDistance bool
	CappedBy         string
}

// MarketObservation holds the optional microstructure signals for the filter
// chain. A nil field skips its filter.
type MarketObservation struct {
	SecondsUntilResolution *float64
	Volume60sUSD           *float64
	Zscore3Min             *float64
	RSI8                   *float64
}

// Candidate bundles everything Gate needs for one proposed trade.
type Candidate struct {
	Balance    decimal.Decimal
	Volatility *float64
	Market     MarketObservation
}

// Snapshot is a point-in-time, read-only view of the risk state for
// dashboards and status endpoints.
type Snapshot struct {
	ConsecutiveLosses   int              `json:"consecutive_losses"`
	Paused              bool             `json:"paused"`
	PauseUntil          *time.Time       `json:"pause_until"`
	Halted              bool             `json:"halted"`
	SessionStartBalance *decimal.Decimal `json:"session_start_balance"`
	DailyStartBalance   *decimal.Decimal `json:"daily_start_balance"`
	MonthlyStartBalance *decimal.Decimal `json:"monthly_start_balance"`
	TakenAt             time.Time        `json:"taken_at"`
}

// Limits is the immutable, decimal form of config.RiskConfig used by the
// evaluators.
type Limits struct {
	RiskFraction   decimal.Decimal
	StopLossPct    decimal.Decimal
	CapFraction    decimal.Decimal
	MaxPositionUSD decimal.Decimal

	TakeProfitPctToOne        decimal.Decimal
	TakeProfitFirstPortionPct decimal.Decimal
	TimeStop                  time.Duration

	ConsecutiveLossesPause int
	ConsecutiveLossPause   time.Duration

	SessionDrawdownPct decimal.Decimal
	SessionPause       time.Duration
	DailyDrawdownPct   decimal.Decimal
	MonthlyDrawdownPct decimal.Decimal

	VolatilitySkip1MinStd *float64

	MinSecondsUntilResolution float64
	MinVolume60sUSD           *float64
	MaxZscore3Min             *float64
	MaxRSIOverbought          *float64
}

// NewLimits converts validated thresholds into Limits.
func NewLimits(cfg config.RiskConfig) Limits {
	pct := func(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }
	minutes := func(m int) time.Duration { return time.Duration(m) * time.Minute }

	return Limits{
		RiskFraction:   pct(cfg.RiskPerTradePct).Div(hundred),
		StopLossPct:    pct(cfg.StopLossPct),
		CapFraction:    pct(cfg.PositionCapPct).Div(hundred),
		MaxPositionUSD: decimal.NewFromFloat(cfg.MaxPositionSize),

		TakeProfitPctToOne:        pct(cfg.TakeProfitPctToOne),
		TakeProfitFirstPortionPct: pct(cfg.TakeProfitFirstPortionPct),
		TimeStop:                  time.Duration(cfg.TimeStopSeconds) * time.Second,

		ConsecutiveLossesPause: cfg.ConsecutiveLossesPause,
		ConsecutiveLossPause:   minutes(cfg.ConsecutiveLossPauseMinutes),

		SessionDrawdownPct: pct(cfg.SessionDrawdownPct),
		SessionPause:       minutes(cfg.SessionPauseMinutes),
		DailyDrawdownPct:   pct(cfg.DailyDrawdownPct),
		MonthlyDrawdownPct: pct(cfg.MonthlyDrawdownPct),

		VolatilitySkip1MinStd: copyFloat(cfg.VolatilitySkip1MinStd),

		MinSecondsUntilResolution: float64(cfg.MinSecondsUntilResolution),
		MinVolume60sUSD:           copyFloat(cfg.MinVolume60sUSD),
		MaxZscore3Min:             copyFloat(cfg.MaxZscore3Min),
		MaxRSIOverbought:          copyFloat(cfg.MaxRSIOverbought),
	}
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
