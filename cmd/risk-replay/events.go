package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	rerrors "github.com/ducminhle1904/polymarket-risk/internal/errors"
	"github.com/ducminhle1904/polymarket-risk/internal/risk"
	"github.com/ducminhle1904/polymarket-risk/pkg/reporting"
)

// Event is one row of a replay file.
type Event struct {
	Line       int
	Time       time.Time
	Kind       string
	Balance    decimal.Decimal
	Entry      decimal.Decimal
	Stop       *decimal.Decimal
	Volatility *float64
	Market     risk.MarketObservation
	Success    bool
	PnL        decimal.Decimal
}

var requiredColumns = []string{"timestamp", "kind", "balance"}

// ParseEvents reads a replay CSV. The header row names the columns; only
// timestamp, kind and balance are required. Bad rows are returned as input
// errors and skipped. A missing header or unreadable file is fatal.
func ParseEvents(r io.Reader) ([]Event, []error, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, rerrors.WrapError(err, rerrors.ErrorCategoryFatal, "replay", "read_header")
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, nil, rerrors.NewFatalError("replay", "read_header", "missing required column").
				WithContext("column", c)
		}
	}

	var (
		events  []Event
		rowErrs []error
		last    time.Time
	)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			rowErrs = append(rowErrs, rerrors.NewInputError("replay", "read_row", err).WithContext("line", line))
			continue
		}

		ev, err := parseRow(cols, record)
		if err == nil && ev.Time.Before(last) {
			err = fmt.Errorf("timestamp %s is before previous row", ev.Time.Format(time.RFC3339))
		}
		if err != nil {
			rowErrs = append(rowErrs, rerrors.NewInputError("replay", "parse_row", err).WithContext("line", line))
			continue
		}
		ev.Line = line
		last = ev.Time
		events = append(events, ev)
	}
	return events, rowErrs, nil
}

type row struct {
	cols   map[string]int
	record []string
}

func (r row) get(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}

func parseRow(cols map[string]int, record []string) (Event, error) {
	r := row{cols: cols, record: record}
	var ev Event
	var err error

	if ev.Time, err = time.Parse(time.RFC3339, r.get("timestamp")); err != nil {
		return ev, fmt.Errorf("timestamp: %w", err)
	}
	ev.Time = ev.Time.UTC()

	ev.Kind = strings.ToLower(r.get("kind"))
	if ev.Balance, err = decimal.NewFromString(r.get("balance")); err != nil {
		return ev, fmt.Errorf("balance: %w", err)
	}

	switch ev.Kind {
	case reporting.KindCandidate:
		if ev.Entry, err = decimal.NewFromString(r.get("entry")); err != nil {
			return ev, fmt.Errorf("entry: %w", err)
		}
		if ev.Stop, err = optDecimal(r.get("stop")); err != nil {
			return ev, fmt.Errorf("stop: %w", err)
		}
		floats := []struct {
			name string
			dst  **float64
		}{
			{"volatility", &ev.Volatility},
			{"volume_60s", &ev.Market.Volume60sUSD},
			{"zscore_3min", &ev.Market.Zscore3Min},
			{"rsi_8", &ev.Market.RSI8},
			{"seconds_to_resolution", &ev.Market.SecondsUntilResolution},
		}
		for _, f := range floats {
			if *f.dst, err = optFloat(r.get(f.name)); err != nil {
				return ev, fmt.Errorf("%s: %w", f.name, err)
			}
		}

	case reporting.KindOutcome:
		if ev.Success, err = strconv.ParseBool(r.get("success")); err != nil {
			return ev, fmt.Errorf("success: %w", err)
		}
		if pnl := r.get("pnl"); pnl != "" {
			if ev.PnL, err = decimal.NewFromString(pnl); err != nil {
				return ev, fmt.Errorf("pnl: %w", err)
			}
		}

	default:
		return ev, fmt.Errorf("unknown kind %q", ev.Kind)
	}
	return ev, nil
}

func optDecimal(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func optFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
