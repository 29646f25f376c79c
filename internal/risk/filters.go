package risk

import (
	"fmt"
	"math"
)

// RunPreTradeFilters applies the microstructure filters in a fixed order and
// returns the first failure. A filter runs only when its threshold is
// configured and its observation is supplied.
func RunPreTradeFilters(lim Limits, obs MarketObservation) FilterResult {
	if lim.MinSecondsUntilResolution > 0 && obs.SecondsUntilResolution != nil {
		if v := *obs.SecondsUntilResolution; v < lim.MinSecondsUntilResolution {
			return reject(ReasonTimeToResolution, "time_to_resolution: %.0fs < %.0fs", v, lim.MinSecondsUntilResolution)
		}
	}

	if lim.MinVolume60sUSD != nil && obs.Volume60sUSD != nil {
		if v := *obs.Volume60sUSD; v < *lim.MinVolume60sUSD {
			return reject(ReasonVolume60s, "volume_60s: $%.2f < $%.2f", v, *lim.MinVolume60sUSD)
		}
	}

	if lim.MaxZscore3Min != nil && obs.Zscore3Min != nil {
		if v := *obs.Zscore3Min; math.Abs(v) > *lim.MaxZscore3Min {
			return reject(ReasonZscore3Min, "zscore_3min: |%.2f| > %.2f", v, *lim.MaxZscore3Min)
		}
	}

	if lim.MaxRSIOverbought != nil && obs.RSI8 != nil {
		if v := *obs.RSI8; v > *lim.MaxRSIOverbought {
			return reject(ReasonRSIOverbought, "rsi_overbought: %.1f > %.1f", v, *lim.MaxRSIOverbought)
		}
	}

	return FilterResult{Allowed: true}
}

func reject(reason Reason, format string, args ...interface{}) FilterResult {
	return FilterResult{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}
