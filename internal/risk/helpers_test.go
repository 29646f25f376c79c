package risk

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ducminhle1904/polymarket-risk/internal/config"
)

var t0 = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func f64(v float64) *float64 { return &v }

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func defaultLimits() Limits { return NewLimits(config.Default()) }

// anchoredState returns a state whose anchors are already set for the period
// containing now.
func anchoredState(now time.Time, session, daily, monthly string) *State {
	return &State{
		SessionStart:   decPtr(session),
		DailyStart:     decPtr(daily),
		MonthlyStart:   decPtr(monthly),
		LastSessionKey: sessionKey,
		LastDailyKey:   now.UTC().Format(dayLayout),
		LastMonthlyKey: now.UTC().Format(monthLayout),
	}
}
