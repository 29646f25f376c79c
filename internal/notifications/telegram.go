package notifications

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	rerrors "github.com/ducminhle1904/polymarket-risk/internal/errors"
)

const defaultTelegramAPI = "https://api.telegram.org"

type TelegramNotifier struct {
	token   string
	chatID  string
	apiBase string
	client  *http.Client
}

func NewTelegramNotifier(token, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		token:   token,
		chatID:  chatID,
		apiBase: defaultTelegramAPI,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// WithAPIBase points the notifier at a different Bot API host.
func (t *TelegramNotifier) WithAPIBase(base string) *TelegramNotifier {
	t.apiBase = strings.TrimRight(base, "/")
	return t
}

// TelegramFromEnv builds a notifier from TELEGRAM_BOT_TOKEN and
// TELEGRAM_CHAT_ID. It returns nil when either is unset.
func TelegramFromEnv() *TelegramNotifier {
	token := strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	chatID := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID"))
	if token == "" || chatID == "" {
		return nil
	}
	return NewTelegramNotifier(token, chatID)
}

func (t *TelegramNotifier) SendAlert(level, message string) error {
	emoji := "ℹ️"
	switch level {
	case LevelWarning:
		emoji = "⚠️"
	case LevelError:
		emoji = "🚨"
	case LevelSuccess:
		emoji = "✅"
	}

	text := fmt.Sprintf("%s *Risk Alert*\n\n%s", emoji, message)

	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)

	data := url.Values{}
	data.Set("chat_id", t.chatID)
	data.Set("text", text)
	data.Set("parse_mode", "Markdown")

	resp, err := t.client.Post(apiURL, "application/x-www-form-urlencoded",
		strings.NewReader(data.Encode()))
	if err != nil {
		return rerrors.NewNetworkError("telegram", "send_alert", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return rerrors.NewRiskError(rerrors.ErrorCategoryNetwork, "telegram", "send_alert",
			fmt.Sprintf("telegram API returned status %d", resp.StatusCode)).
			WithRetryable(resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500)
	}

	return nil
}
