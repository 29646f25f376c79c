package risk

import "github.com/shopspring/decimal"

// SizePosition turns a balance and entry price into a whole-share position.
//
// The risk budget (balance * risk fraction) is divided by the distance to the
// stop. A stop at or above the entry falls back to a distance of 1% of the
// entry and sets FallbackDistance. The result is then clamped to the percent
// of account cap and to the absolute USD ceiling, in that order; each clamp
// re-derives shares by flooring and notional from the floored shares.
func SizePosition(lim Limits, req SizeRequest) PositionSize {
	riskFraction := pick(req.RiskFraction, lim.RiskFraction)
	capFraction := pick(req.CapFraction, lim.CapFraction)
	maxUSD := pick(req.MaxPositionUSD, lim.MaxPositionUSD)

	balance, entry := req.Balance, req.Entry
	if balance.Sign() <= 0 || entry.Sign() <= 0 {
		return PositionSize{Shares: decimal.Zero, NotionalUSD: decimal.Zero}
	}

	var stop decimal.Decimal
	if req.Stop != nil {
		stop = *req.Stop
	} else {
		stop = entry.Mul(one.Sub(lim.StopLossPct.Div(hundred)))
	}

	out := PositionSize{StopPrice: stop}

	distance := entry.Sub(stop)
	if distance.Sign() <= 0 {
		distance = entry.Mul(fallbackDistanceFraction)
		out.FallbackDistance = true
	}
	out.RiskDistance = distance

	budget := balance.Mul(riskFraction)
	shares := floorDiv(budget, distance)
	notional := shares.Mul(entry).RoundDown(2)

	if limit := balance.Mul(capFraction); notional.GreaterThan(limit) {
		shares, notional = clampTo(limit, entry)
		out.CappedBy = CapPositionPct
	}
	if notional.GreaterThan(maxUSD) {
		shares, notional = clampTo(maxUSD, entry)
		out.CappedBy = CapMaxUSD
	}

	out.Shares = shares
	out.NotionalUSD = notional
	return out
}

// clampTo returns the largest whole share count whose cost fits in limit and
// the matching notional.
func clampTo(limit, entry decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if limit.Sign() <= 0 {
		return decimal.Zero, decimal.Zero
	}
	shares := floorDiv(limit, entry)
	return shares, shares.Mul(entry).RoundDown(2)
}

// floorDiv returns the whole number of times d fits in n, never negative.
// Div rounds at DivisionPrecision and can land on the next integer, so the
// quotient comes from an exact integer QuoRem instead.
func floorDiv(n, d decimal.Decimal) decimal.Decimal {
	q, _ := n.QuoRem(d, 0)
	if q.Sign() < 0 {
		return decimal.Zero
	}
	return q
}

func pick(override *decimal.Decimal, def decimal.Decimal) decimal.Decimal {
	if override != nil {
		return *override
	}
	return def
}
