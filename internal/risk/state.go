package risk

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	sessionKey  = "session"
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// State is the session-scoped risk record. It is not safe for concurrent
// use; Manager serializes access to it.
type State struct {
	ConsecutiveLosses int        `json:"consecutive_losses"`
	PauseUntil        *time.Time `json:"pause_until,omitempty"`

	SessionStart *decimal.Decimal `json:"session_start,omitempty"`
	DailyStart   *decimal.Decimal `json:"daily_start,omitempty"`
	MonthlyStart *decimal.Decimal `json:"monthly_start,omitempty"`

	LastSessionKey string `json:"last_session_key"`
	LastDailyKey   string `json:"last_daily_key"`
	LastMonthlyKey string `json:"last_monthly_key"`

	// Halted is set by a monthly drawdown trip. Only ClearHalt or a new UTC
	// month lifts it.
	Halted   bool       `json:"halted"`
	HaltedAt *time.Time `json:"halted_at,omitempty"`
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	c := s
	if s.PauseUntil != nil {
		u := *s.PauseUntil
		c.PauseUntil = &u
	}
	if s.HaltedAt != nil {
		h := *s.HaltedAt
		c.HaltedAt = &h
	}
	c.SessionStart = copyDecimal(s.SessionStart)
	c.DailyStart = copyDecimal(s.DailyStart)
	c.MonthlyStart = copyDecimal(s.MonthlyStart)
	return c
}

// ObserveBalance anchors the session, UTC day and UTC month to balance when
// the anchor is missing or its period key has rolled over. Anchors are never
// adjusted mid-period.
func (s *State) ObserveBalance(balance decimal.Decimal, now time.Time) {
	now = now.UTC()

	if s.SessionStart == nil || s.LastSessionKey != sessionKey {
		s.SessionStart = anchor(balance)
		s.LastSessionKey = sessionKey
	}
	if day := now.Format(dayLayout); s.DailyStart == nil || s.LastDailyKey != day {
		s.DailyStart = anchor(balance)
		s.LastDailyKey = day
	}
	if month := now.Format(monthLayout); s.MonthlyStart == nil || s.LastMonthlyKey != month {
		s.MonthlyStart = anchor(balance)
		s.LastMonthlyKey = month
		s.clearHalt()
	}
}

func anchor(balance decimal.Decimal) *decimal.Decimal {
	b := balance
	return &b
}

// IsPaused reports whether a pause is active at now. It has a side effect:
// an expired pause is cleared, so the first read at or after expiry returns
// false and leaves PauseUntil nil. There is no background timer; callers
// must poll.
func (s *State) IsPaused(now time.Time) bool {
	paused, _ := s.checkPause(now)
	return paused
}

// checkPause is IsPaused that also reports whether this call cleared an
// expired pause.
func (s *State) checkPause(now time.Time) (paused, expired bool) {
	if s.PauseUntil == nil {
		return false, false
	}
	if !now.Before(*s.PauseUntil) {
		s.PauseUntil = nil
		return false, true
	}
	return true, false
}

func (s *State) armPause(until time.Time) *time.Time {
	u := until.UTC()
	s.PauseUntil = &u
	ret := u
	return &ret
}

// RecordOutcome updates the loss streak. A win resets it to zero; a loss
// increments it and arms a pause once the streak reaches the configured
// limit. The streak itself is only reset by a later win.
func (s *State) RecordOutcome(success bool, lim Limits, now time.Time) (pausedUntil *time.Time) {
	if success {
		s.ConsecutiveLosses = 0
		return nil
	}
	s.ConsecutiveLosses++
	if lim.ConsecutiveLossesPause > 0 && s.ConsecutiveLosses >= lim.ConsecutiveLossesPause {
		return s.armPause(now.Add(lim.ConsecutiveLossPause))
	}
	return nil
}

// Snapshot returns a copy of the state without triggering lazy expiry.
func (s *State) Snapshot(now time.Time) Snapshot {
	snap := Snapshot{
		ConsecutiveLosses:   s.ConsecutiveLosses,
		Halted:              s.Halted,
		SessionStartBalance: copyDecimal(s.SessionStart),
		DailyStartBalance:   copyDecimal(s.DailyStart),
		MonthlyStartBalance: copyDecimal(s.MonthlyStart),
		TakenAt:             now.UTC(),
	}
	if s.PauseUntil != nil {
		u := *s.PauseUntil
		snap.PauseUntil = &u
		snap.Paused = now.Before(u)
	}
	return snap
}

func copyDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

// NextUTCMidnight returns the start of the UTC calendar day after now.
func NextUTCMidnight(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}

// ClearHalt lifts a monthly halt after manual review and re-anchors the day
// and month to the reviewed balance so the breakers measure from it.
func (s *State) ClearHalt(balance decimal.Decimal, now time.Time) {
	now = now.UTC()
	s.clearHalt()
	s.DailyStart = anchor(balance)
	s.LastDailyKey = now.Format(dayLayout)
	s.MonthlyStart = anchor(balance)
	s.LastMonthlyKey = now.Format(monthLayout)
}

// NewSession drops the session anchor and clears the loss streak and any
// pause. Day and month anchors and a monthly halt carry over.
func (s *State) NewSession() {
	s.ConsecutiveLosses = 0
	s.PauseUntil = nil
	s.dropSession()
}

// dropSession forgets the session anchor so the next observed balance
// starts a fresh session.
func (s *State) dropSession() {
	s.SessionStart = nil
	s.LastSessionKey = ""
}

func (s *State) halt(now time.Time) {
	at := now.UTC()
	s.Halted = true
	s.HaltedAt = &at
}

func (s *State) clearHalt() {
	s.Halted = false
	s.HaltedAt = nil
}
