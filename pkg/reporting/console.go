package reporting

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/polymarket-risk/internal/risk"
)

// DefaultConsoleReporter renders journals and risk snapshots as tables
type DefaultConsoleReporter struct {
	out io.Writer
}

// NewDefaultConsoleReporter creates a console reporter writing to out
func NewDefaultConsoleReporter(out io.Writer) *DefaultConsoleReporter {
	return &DefaultConsoleReporter{out: out}
}

// PrintSnapshot prints the current risk state
func (r *DefaultConsoleReporter) PrintSnapshot(snap risk.Snapshot) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle("RISK STATE")
	t.SetStyle(table.StyleRounded)

	status := "🟢 trading"
	switch {
	case snap.Halted:
		status = "🛑 halted (manual review)"
	case snap.Paused:
		status = "⏸️ paused"
	}

	t.AppendRows([]table.Row{
		{"📊 Status", status},
		{"❌ Loss Streak", snap.ConsecutiveLosses},
		{"⏰ Pause Until", formatTime(snap.PauseUntil)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"💰 Session Start", formatMoney(snap.SessionStartBalance)},
		{"📅 Day Start", formatMoney(snap.DailyStartBalance)},
		{"🗓️ Month Start", formatMoney(snap.MonthlyStartBalance)},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, WidthMax: 18, Align: text.AlignLeft},
		{Number: 2, WidthMin: 25, WidthMax: 40, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Fprintln(r.out)
}

// PrintJournal prints the last n journal entries
func (r *DefaultConsoleReporter) PrintJournal(j *Journal, n int) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle(fmt.Sprintf("RISK JOURNAL (last %d of %d)", min(n, j.Len()), j.Len()))
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Time", "Kind", "Balance", "Decision", "Shares", "Notional", "Losses"})

	for _, e := range j.Tail(n) {
		decision, shares, notional := "", "", ""
		switch e.Kind {
		case KindCandidate:
			decision = "✅ allowed"
			if !e.Allowed {
				decision = "⛔ " + string(e.Reason)
			} else {
				shares = e.Shares.String()
				notional = "$" + e.Notional.StringFixed(2)
			}
		case KindOutcome:
			decision = "❌ loss " + e.PnL.StringFixed(2)
			if e.Success {
				decision = "✅ win " + e.PnL.StringFixed(2)
			}
		}
		t.AppendRow(table.Row{
			e.Time.UTC().Format("2006-01-02 15:04:05"),
			e.Kind,
			"$" + e.Balance.StringFixed(2),
			decision,
			shares,
			notional,
			e.ConsecutiveLosses,
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})

	t.Render()
	fmt.Fprintln(r.out)
}

// PrintSummary prints the journal aggregates
func (r *DefaultConsoleReporter) PrintSummary(s Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle("REPLAY SUMMARY")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"💰 Start Balance", "$" + s.StartBalance.StringFixed(2)},
		{"💰 End Balance", "$" + s.EndBalance.StringFixed(2)},
		{"📈 Realized PnL", "$" + s.TotalPnL.StringFixed(2)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"🔎 Candidates", s.Candidates},
		{"✅ Allowed", s.Allowed},
		{"⛔ Denied", s.Denied},
		{"💵 Sized Notional", "$" + s.TotalNotional.StringFixed(2)},
	})
	for _, rc := range s.SortedDenials() {
		t.AppendRow(table.Row{"   " + string(rc.Reason), rc.Count})
	}
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"🔄 Outcomes", s.Outcomes},
		{"✅ Wins", s.Wins},
		{"❌ Losses", s.Losses},
		{"📉 Max Loss Streak", s.MaxLossStreak},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 20, WidthMax: 24, Align: text.AlignLeft},
		{Number: 2, WidthMin: 15, WidthMax: 30, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Fprintln(r.out)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

func formatMoney(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return "$" + d.StringFixed(2)
}
