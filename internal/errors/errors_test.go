package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigurationErrorIsFatal(t *testing.T) {
	err := NewConfigurationError("config", "load", "risk_per_trade_pct out of range").
		WithContext("value", 7.5)

	assert.True(t, err.IsFatal())
	assert.False(t, err.IsRetryable())
	assert.Equal(t, RecoveryActionStop, err.GetRecoveryAction())
	assert.Equal(t, "[CONFIG:config] load: risk_per_trade_pct out of range (value=7.5)", err.Error())
}

func TestWrapErrorUnwraps(t *testing.T) {
	base := stderrors.New("bad float")
	err := NewInputError("replay", "parse_row", base).WithContext("line", 4)

	require.NotNil(t, err)
	assert.ErrorIs(t, err, base)
	assert.False(t, err.IsFatal())
	assert.False(t, err.IsRetryable())
	assert.Equal(t, RecoveryActionSkip, err.GetRecoveryAction())
	assert.Contains(t, err.Error(), "line=4")
	assert.Contains(t, err.Error(), "bad float")
}

func TestWrapErrorNil(t *testing.T) {
	assert.Nil(t, WrapError(nil, ErrorCategoryFatal, "x", "y"))
}

func TestIsFatalThroughWrapping(t *testing.T) {
	inner := NewFatalError("main", "start", "no thresholds")
	wrapped := fmt.Errorf("startup: %w", inner)

	assert.True(t, IsFatal(wrapped))
	assert.False(t, IsFatal(stderrors.New("plain")))

	re, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "start", re.Operation)
}

func TestValidationErrorNotRetryable(t *testing.T) {
	err := NewValidationError("config", "validate", "bad")
	assert.False(t, err.IsRetryable())
	assert.False(t, err.IsFatal())
	assert.Equal(t, "[VALIDATION:config] validate: bad (ignored)", err.WithMessage("bad (ignored)").Error())
}

func TestNetworkErrorRetryable(t *testing.T) {
	err := NewNetworkError("telegram", "send_alert", stderrors.New("connection refused"))
	assert.True(t, err.IsRetryable())
	assert.Equal(t, RecoveryActionRetry, err.GetRecoveryAction())
	assert.Equal(t, "[NETWORK:telegram] send_alert: operation failed: connection refused", err.Error())
	assert.Nil(t, NewNetworkError("telegram", "send_alert", nil))
}
