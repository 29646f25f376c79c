package notifications

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rerrors "github.com/ducminhle1904/polymarket-risk/internal/errors"
)

func TestSlackNotifier_SendAlert(t *testing.T) {
	var payload map[string]string
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, NewSlackNotifier(srv.URL).SendAlert(LevelError, "monthly drawdown"))
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, ":rotating_light: *Risk Alert*\nmonthly drawdown", payload["text"])
}

func TestSlackNotifier_ServerErrorRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewSlackNotifier(srv.URL).SendAlert(LevelWarning, "x")
	require.Error(t, err)
	re, ok := rerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, rerrors.RecoveryActionRetry, re.GetRecoveryAction())
}

func TestSlackFromEnv(t *testing.T) {
	t.Setenv("SLACK_WEBHOOK_URL", "")
	assert.Nil(t, SlackFromEnv())

	t.Setenv("SLACK_WEBHOOK_URL", " https://hooks.slack.com/services/X ")
	n := SlackFromEnv()
	require.NotNil(t, n)
	assert.Equal(t, "https://hooks.slack.com/services/X", n.webhookURL)
}
