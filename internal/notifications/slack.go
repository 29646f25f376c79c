package notifications

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	rerrors "github.com/ducminhle1904/polymarket-risk/internal/errors"
)

// SlackNotifier posts alerts to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// SlackFromEnv builds a notifier from SLACK_WEBHOOK_URL, or returns nil.
func SlackFromEnv() *SlackNotifier {
	u := strings.TrimSpace(os.Getenv("SLACK_WEBHOOK_URL"))
	if u == "" {
		return nil
	}
	return NewSlackNotifier(u)
}

func (s *SlackNotifier) SendAlert(level, message string) error {
	emoji := ":information_source:"
	switch level {
	case LevelWarning:
		emoji = ":warning:"
	case LevelError:
		emoji = ":rotating_light:"
	case LevelSuccess:
		emoji = ":white_check_mark:"
	}

	body, err := json.Marshal(map[string]string{
		"text": fmt.Sprintf("%s *Risk Alert*\n%s", emoji, message),
	})
	if err != nil {
		return rerrors.WrapError(err, rerrors.ErrorCategoryFatal, "slack", "send_alert")
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return rerrors.NewNetworkError("slack", "send_alert", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return rerrors.NewRiskError(rerrors.ErrorCategoryNetwork, "slack", "send_alert",
			fmt.Sprintf("slack webhook returned status %d", resp.StatusCode)).
			WithRetryable(resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500)
	}
	return nil
}
