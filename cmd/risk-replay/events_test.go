package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "github.com/ducminhle1904/polymarket-risk/internal/errors"
)

const header = "timestamp,kind,balance,entry,stop,volatility,volume_60s,zscore_3min,rsi_8,seconds_to_resolution,success,pnl\n"

// TestParseEvents tests candidate and outcome rows
func TestParseEvents(t *testing.T) {
	in := header +
		"2026-03-10T12:00:00Z,candidate,1000,0.60,0.57,0.01,,1.2,65,200,,\n" +
		"2026-03-10T12:02:00Z,outcome,990,,,,,,,,false,-10\n" +
		"2026-03-10T12:03:00Z,CANDIDATE,990,0.55,,,,,,,,\n"

	events, rowErrs, err := ParseEvents(strings.NewReader(in))
	require.NoError(t, err)
	assert.Empty(t, rowErrs)
	require.Len(t, events, 3)

	c := events[0]
	assert.Equal(t, 2, c.Line)
	assert.Equal(t, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC), c.Time)
	assert.Equal(t, "candidate", c.Kind)
	assert.Equal(t, "0.6", c.Entry.String())
	require.NotNil(t, c.Stop)
	assert.Equal(t, "0.57", c.Stop.String())
	require.NotNil(t, c.Volatility)
	assert.Equal(t, 0.01, *c.Volatility)
	assert.Nil(t, c.Market.Volume60sUSD)
	assert.Equal(t, 1.2, *c.Market.Zscore3Min)
	assert.Equal(t, 65.0, *c.Market.RSI8)
	assert.Equal(t, 200.0, *c.Market.SecondsUntilResolution)

	o := events[1]
	assert.Equal(t, "outcome", o.Kind)
	assert.False(t, o.Success)
	assert.Equal(t, "-10", o.PnL.String())

	assert.Nil(t, events[2].Stop)
	assert.Equal(t, "candidate", events[2].Kind)
}

// TestParseEvents_BadRowsSkipped tests that invalid rows become input errors
func TestParseEvents_BadRowsSkipped(t *testing.T) {
	in := header +
		"2026-03-10T12:00:00Z,candidate,1000,0.60,,,,,,,,\n" +
		"not-a-time,candidate,1000,0.60,,,,,,,,\n" +
		"2026-03-10T12:01:00Z,candidate,abc,0.60,,,,,,,,\n" +
		"2026-03-10T12:01:00Z,candidate,1000,,,,,,,,,\n" +
		"2026-03-10T12:01:00Z,outcome,1000,,,,,,,,maybe,\n" +
		"2026-03-10T12:01:00Z,deposit,1000,,,,,,,,,\n" +
		"2026-03-10T11:00:00Z,candidate,1000,0.60,,,,,,,,\n" +
		"2026-03-10T12:05:00Z,outcome,1005,,,,,,,,true,\n"

	events, rowErrs, err := ParseEvents(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 9, events[1].Line)
	assert.True(t, events[1].PnL.IsZero())

	require.Len(t, rowErrs, 6)
	for i, e := range rowErrs {
		re, ok := rerrors.As(e)
		require.True(t, ok)
		assert.Equal(t, rerrors.ErrorCategoryInput, re.Category)
		assert.Equal(t, rerrors.RecoveryActionSkip, re.GetRecoveryAction())
		assert.Equal(t, i+3, re.Context["line"])
	}
	assert.Contains(t, rowErrs[5].Error(), "before previous row")
}

// TestParseEvents_Header tests header handling
func TestParseEvents_Header(t *testing.T) {
	_, _, err := ParseEvents(strings.NewReader(""))
	require.Error(t, err)
	assert.True(t, rerrors.IsFatal(err))

	_, _, err = ParseEvents(strings.NewReader("timestamp,kind\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column=balance")

	// Columns may come in any order and extra columns are ignored.
	events, _, err := ParseEvents(strings.NewReader("kind,note,balance,timestamp,entry\ncandidate,x,500,2026-03-10T12:00:00Z,0.4\n"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "500", events[0].Balance.String())
}
