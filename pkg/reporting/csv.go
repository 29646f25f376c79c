package reporting

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultCSVReporter implements CSV output functionality
type DefaultCSVReporter struct{}

// NewDefaultCSVReporter creates a new CSV reporter
func NewDefaultCSVReporter() *DefaultCSVReporter {
	return &DefaultCSVReporter{}
}

var journalHeaders = []string{
	"Time", "Kind", "Balance", "Allowed", "Reason", "Detail",
	"Shares", "Notional", "Capped_By", "Fallback",
	"Success", "PnL", "Consecutive_Losses", "Pause_Until",
}

// WriteJournalCSV writes the journal to path. A .xlsx path is delegated to
// the Excel writer.
func (r *DefaultCSVReporter) WriteJournalCSV(j *Journal, path string) error {
	if err := EnsureDirectoryExists(path); err != nil {
		return err
	}

	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return WriteJournalXLSX(j, path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(journalHeaders); err != nil {
		return err
	}
	for _, e := range j.Entries() {
		if err := w.Write(journalRow(e)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func journalRow(e Entry) []string {
	row := []string{
		e.Time.UTC().Format(time.RFC3339),
		e.Kind,
		e.Balance.StringFixed(2),
		"", "", "", "", "", "", "", "", "",
		strconv.Itoa(e.ConsecutiveLosses),
		"",
	}
	switch e.Kind {
	case KindCandidate:
		row[3] = strconv.FormatBool(e.Allowed)
		row[4] = string(e.Reason)
		row[5] = e.Detail
		if e.Allowed {
			row[6] = e.Shares.String()
			row[7] = e.Notional.StringFixed(2)
			row[8] = e.CappedBy
			row[9] = strconv.FormatBool(e.Fallback)
		}
	case KindOutcome:
		row[10] = strconv.FormatBool(e.Success)
		row[11] = e.PnL.StringFixed(2)
	}
	if e.PauseUntil != nil {
		row[13] = e.PauseUntil.UTC().Format(time.RFC3339)
	}
	return row
}
