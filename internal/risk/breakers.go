package risk

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EvaluateBreakers observes balance and then checks, in priority order, the
// session, daily and monthly drawdown breakers and the volatility kill
// switch. The first tripped breaker wins.
//
// Session and daily trips arm a pause on s; the daily pause runs to the next
// UTC midnight regardless of the configured minutes. A monthly trip only
// denies, and keeps denying until the halt is cleared or the month rolls
// over. Volatility kills deny without pausing.
func EvaluateBreakers(s *State, lim Limits, balance decimal.Decimal, now time.Time, volatility *float64) Decision {
	s.ObserveBalance(balance, now)

	if pct, ok := drawdownPct(balance, s.SessionStart); ok && pct.LessThanOrEqual(lim.SessionDrawdownPct.Neg()) {
		until := s.armPause(now.Add(lim.SessionPause))
		return Decision{
			Reason:     ReasonSessionDrawdown,
			Detail:     fmt.Sprintf("session_drawdown: %s%% <= -%s%%", pct.StringFixed(2), lim.SessionDrawdownPct),
			PauseUntil: until,
		}
	}

	if pct, ok := drawdownPct(balance, s.DailyStart); ok && pct.LessThanOrEqual(lim.DailyDrawdownPct.Neg()) {
		until := s.armPause(NextUTCMidnight(now))
		return Decision{
			Reason:     ReasonDailyDrawdown,
			Detail:     fmt.Sprintf("daily_drawdown: %s%% <= -%s%%", pct.StringFixed(2), lim.DailyDrawdownPct),
			PauseUntil: until,
		}
	}

	if s.Halted {
		return Decision{Reason: ReasonMonthlyDrawdown, Detail: haltedDetail(s.HaltedAt)}
	}
	if pct, ok := drawdownPct(balance, s.MonthlyStart); ok && pct.LessThanOrEqual(lim.MonthlyDrawdownPct.Neg()) {
		s.halt(now)
		return Decision{
			Reason: ReasonMonthlyDrawdown,
			Detail: fmt.Sprintf("monthly_drawdown: %s%% <= -%s%% (halt bot - manual review required)",
				pct.StringFixed(2), lim.MonthlyDrawdownPct),
		}
	}

	if lim.VolatilitySkip1MinStd != nil && volatility != nil && *volatility > *lim.VolatilitySkip1MinStd {
		return Decision{
			Reason: ReasonVolatilityKill,
			Detail: fmt.Sprintf("volatility_kill: 1min_std=%.4f > %g", *volatility, *lim.VolatilitySkip1MinStd),
		}
	}

	return Decision{Allowed: true}
}

// haltedDetail describes a halt that is still in force from an earlier trip.
func haltedDetail(since *time.Time) string {
	if since == nil {
		return "monthly_drawdown: halted (manual review required)"
	}
	return "monthly_drawdown: halted since " + since.UTC().Format(time.RFC3339) + " (manual review required)"
}

// drawdownPct returns (balance - anchor) / anchor * 100. A missing or
// non-positive anchor disables the breaker.
func drawdownPct(balance decimal.Decimal, anchor *decimal.Decimal) (decimal.Decimal, bool) {
	if anchor == nil || anchor.Sign() <= 0 {
		return decimal.Zero, false
	}
	return balance.Sub(*anchor).Div(*anchor).Mul(hundred), true
}
