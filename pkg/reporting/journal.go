// Package reporting renders a replayed risk session as console tables,
// CSV and Excel workbooks.
package reporting

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ducminhle1904/polymarket-risk/internal/risk"
)

// Entry kinds.
const (
	KindCandidate = "candidate"
	KindOutcome   = "outcome"
)

// Entry is one replayed event and what the risk manager made of it.
type Entry struct {
	Time    time.Time
	Kind    string
	Balance decimal.Decimal

	// Candidate fields
	Allowed  bool
	Reason   risk.Reason
	Detail   string
	Shares   decimal.Decimal
	Notional decimal.Decimal
	CappedBy string
	Fallback bool

	// Outcome fields
	Success bool
	PnL     decimal.Decimal

	ConsecutiveLosses int
	PauseUntil        *time.Time
}

// Summary aggregates a journal.
type Summary struct {
	Candidates    int
	Allowed       int
	Denied        int
	DeniedBy      map[risk.Reason]int
	Outcomes      int
	Wins          int
	Losses        int
	TotalPnL      decimal.Decimal
	MaxLossStreak int
	TotalNotional decimal.Decimal
	StartBalance  decimal.Decimal
	EndBalance    decimal.Decimal
}

// ReasonCount is one row of Summary.DeniedBy in display order.
type ReasonCount struct {
	Reason risk.Reason
	Count  int
}

// SortedDenials returns DeniedBy ordered by count, then reason.
func (s Summary) SortedDenials() []ReasonCount {
	out := make([]ReasonCount, 0, len(s.DeniedBy))
	for r, n := range s.DeniedBy {
		out = append(out, ReasonCount{Reason: r, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}

// Journal collects entries in arrival order. It is safe for concurrent use.
type Journal struct {
	mu      sync.Mutex
	entries []Entry
}

func NewJournal() *Journal {
	return &Journal{}
}

func (j *Journal) Add(e Entry) {
	j.mu.Lock()
	j.entries = append(j.entries, e)
	j.mu.Unlock()
}

// Entries returns a copy of every entry.
func (j *Journal) Entries() []Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Entry, len(j.entries))
	copy(out, j.entries)
	return out
}

// Tail returns up to the last n entries.
func (j *Journal) Tail(n int) []Entry {
	all := j.Entries()
	if n <= 0 || n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}

func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

// Summarize aggregates the journal.
func (j *Journal) Summarize() Summary {
	s := Summary{
		DeniedBy:      make(map[risk.Reason]int),
		TotalPnL:      decimal.Zero,
		TotalNotional: decimal.Zero,
	}

	entries := j.Entries()
	for i, e := range entries {
		if i == 0 {
			s.StartBalance = e.Balance
		}
		s.EndBalance = e.Balance
		if e.ConsecutiveLosses > s.MaxLossStreak {
			s.MaxLossStreak = e.ConsecutiveLosses
		}

		switch e.Kind {
		case KindCandidate:
			s.Candidates++
			if e.Allowed {
				s.Allowed++
				s.TotalNotional = s.TotalNotional.Add(e.Notional)
			} else {
				s.Denied++
				s.DeniedBy[e.Reason]++
			}
		case KindOutcome:
			s.Outcomes++
			if e.Success {
				s.Wins++
			} else {
				s.Losses++
			}
			s.TotalPnL = s.TotalPnL.Add(e.PnL)
		}
	}
	return s
}
