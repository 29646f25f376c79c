package risk

import (
	"time"

	"github.com/shopspring/decimal"
)

// Observer receives risk events as they happen. Implementations must be
// cheap and must not call back into the Manager; they run under its lock.
type Observer interface {
	BreakerTripped(reason Reason)
	FilterRejected(reason Reason)
	TradeRecorded(success bool, consecutiveLosses int)
	PauseChanged(until *time.Time)
	PositionSized(notional decimal.Decimal, fallback bool)
	SessionReset()
}

type nopObserver struct{}

func (nopObserver) BreakerTripped(Reason) {}
func (nopObserver) FilterRejected(Reason) {}
func (nopObserver) TradeRecorded(bool, int) {}
func (nopObserver) PauseChanged(*time.Time) {}
func (nopObserver) PositionSized(decimal.Decimal, bool) {}
func (nopObserver) SessionReset() {}
