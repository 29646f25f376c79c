package notifications

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ducminhle1904/polymarket-risk/internal/risk"
)

// BreakerAlerter turns circuit breaker decisions into alerts. It sends once
// per trip: repeated denials for the same reason stay quiet until trading is
// allowed again or a different breaker trips. Delivery failures are logged
// and never reach the caller.
type BreakerAlerter struct {
	mu       sync.Mutex
	notifier Notifier
	log      zerolog.Logger
	last     risk.Reason
}

func NewBreakerAlerter(n Notifier, log zerolog.Logger) *BreakerAlerter {
	return &BreakerAlerter{notifier: n, log: log}
}

// Observe inspects a decision and reports whether an alert was sent.
func (a *BreakerAlerter) Observe(d risk.Decision) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if d.Allowed {
		a.last = ""
		return false
	}
	if !isBreaker(d.Reason) || d.Reason == a.last {
		return false
	}
	a.last = d.Reason

	if a.notifier == nil {
		return false
	}
	if err := a.notifier.SendAlert(levelFor(d.Reason), formatBreaker(d)); err != nil {
		a.log.Error().Err(err).Str("reason", string(d.Reason)).Msg("Failed to send breaker alert")
		return false
	}
	return true
}

func isBreaker(r risk.Reason) bool {
	switch r {
	case risk.ReasonSessionDrawdown, risk.ReasonDailyDrawdown,
		risk.ReasonMonthlyDrawdown, risk.ReasonVolatilityKill:
		return true
	}
	return false
}

func levelFor(r risk.Reason) string {
	if r == risk.ReasonMonthlyDrawdown {
		return LevelError
	}
	return LevelWarning
}

func formatBreaker(d risk.Decision) string {
	msg := fmt.Sprintf("Circuit breaker `%s` tripped\n`%s`", d.Reason, d.Detail)
	if d.PauseUntil != nil {
		msg += fmt.Sprintf("\nTrading paused until %s UTC", d.PauseUntil.UTC().Format("2006-01-02 15:04"))
	}
	if d.Reason == risk.ReasonMonthlyDrawdown {
		msg += "\nManual review required before trading resumes"
	}
	return msg
}
