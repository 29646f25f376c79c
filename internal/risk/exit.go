package risk

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExitPlan is the bracket for an opened position: a fixed stop, a first
// take-profit that sells part of the position, and a time stop for the rest.
type ExitPlan struct {
	StopPrice        decimal.Decimal
	TakeProfitPrice  decimal.Decimal
	TakeProfitShares decimal.Decimal
	RunnerShares     decimal.Decimal
	TimeStopAt       time.Time
}

// PlanExit builds the exit bracket for a binary outcome share bought at
// entry. The take-profit target is TakeProfitPctToOne percent of the way from
// entry to 1. Entries outside (0, 1) have no room to profit and get a zero
// plan.
func PlanExit(lim Limits, entry, shares decimal.Decimal, openedAt time.Time) ExitPlan {
	if entry.Sign() <= 0 || entry.GreaterThanOrEqual(one) || shares.Sign() <= 0 {
		return ExitPlan{}
	}
	shares = shares.Floor()

	stop := entry.Mul(one.Sub(lim.StopLossPct.Div(hundred))).RoundDown(2)
	tp := entry.Add(one.Sub(entry).Mul(lim.TakeProfitPctToOne).Div(hundred)).RoundDown(2)

	first := shares.Mul(lim.TakeProfitFirstPortionPct).Div(hundred).Floor()

	return ExitPlan{
		StopPrice:        stop,
		TakeProfitPrice:  tp,
		TakeProfitShares: first,
		RunnerShares:     shares.Sub(first),
		TimeStopAt:       openedAt.Add(lim.TimeStop).UTC(),
	}
}
