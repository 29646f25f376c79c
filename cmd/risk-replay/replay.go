package main

import (
	"github.com/rs/zerolog"

	"github.com/ducminhle1904/polymarket-risk/internal/clock"
	"github.com/ducminhle1904/polymarket-risk/internal/notifications"
	"github.com/ducminhle1904/polymarket-risk/internal/risk"
	"github.com/ducminhle1904/polymarket-risk/pkg/reporting"
)

// Replayer drives a risk manager through recorded events on a manual clock.
type Replayer struct {
	manager *risk.Manager
	clock   *clock.Manual
	journal *reporting.Journal
	alerter *notifications.BreakerAlerter
	log     zerolog.Logger
}

func NewReplayer(m *risk.Manager, clk *clock.Manual, alerter *notifications.BreakerAlerter, log zerolog.Logger) *Replayer {
	return &Replayer{
		manager: m,
		clock:   clk,
		journal: reporting.NewJournal(),
		alerter: alerter,
		log:     log,
	}
}

func (r *Replayer) Journal() *reporting.Journal { return r.journal }

// Run replays events in order.
func (r *Replayer) Run(events []Event) {
	for _, ev := range events {
		r.clock.Set(ev.Time)
		switch ev.Kind {
		case reporting.KindCandidate:
			r.candidate(ev)
		case reporting.KindOutcome:
			r.outcome(ev)
		}
	}
}

func (r *Replayer) candidate(ev Event) {
	d := r.manager.Gate(risk.Candidate{
		Balance:    ev.Balance,
		Volatility: ev.Volatility,
		Market:     ev.Market,
	})
	if r.alerter != nil {
		r.alerter.Observe(d)
	}

	entry := reporting.Entry{
		Time:    ev.Time,
		Kind:    reporting.KindCandidate,
		Balance: ev.Balance,
		Allowed: d.Allowed,
		Reason:  d.Reason,
		Detail:  d.Detail,
	}

	if d.Allowed {
		ps := r.manager.PositionSize(risk.SizeRequest{
			Balance: ev.Balance,
			Entry:   ev.Entry,
			Stop:    ev.Stop,
		})
		entry.Shares = ps.Shares
		entry.Notional = ps.NotionalUSD
		entry.CappedBy = ps.CappedBy
		entry.Fallback = ps.FallbackDistance

		if ps.Shares.IsPositive() {
			plan := r.manager.PlanExit(ev.Entry, ps.Shares)
			r.log.Debug().
				Int("line", ev.Line).
				Str("shares", ps.Shares.String()).
				Str("notional", ps.NotionalUSD.StringFixed(2)).
				Str("stop", plan.StopPrice.String()).
				Str("take_profit", plan.TakeProfitPrice.String()).
				Str("tp_shares", plan.TakeProfitShares.String()).
				Time("time_stop", plan.TimeStopAt).
				Msg("Candidate sized")
		}
	}

	r.stamp(&entry)
	r.journal.Add(entry)
}

func (r *Replayer) outcome(ev Event) {
	r.manager.RecordTrade(ev.Success, ev.PnL)

	entry := reporting.Entry{
		Time:    ev.Time,
		Kind:    reporting.KindOutcome,
		Balance: ev.Balance,
		Success: ev.Success,
		PnL:     ev.PnL,
	}
	r.stamp(&entry)
	r.journal.Add(entry)
}

func (r *Replayer) stamp(e *reporting.Entry) {
	snap := r.manager.Snapshot()
	e.ConsecutiveLosses = snap.ConsecutiveLosses
	if snap.Paused {
		e.PauseUntil = snap.PauseUntil
	}
}
