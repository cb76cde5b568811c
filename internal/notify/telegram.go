package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Telegram sends messages through the Telegram bot API.
type Telegram struct {
	botToken   string
	chatID     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewTelegram creates a Telegram notifier
func NewTelegram(botToken, chatID string, logger *logrus.Logger) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// NotifyTrade sends a trade notification
func (t *Telegram) NotifyTrade(ctx context.Context, text string) {
	t.send(ctx, text)
}

// NotifyLifecycle sends a session/monitor lifecycle notification
func (t *Telegram) NotifyLifecycle(ctx context.Context, text string) {
	t.send(ctx, text)
}

func (t *Telegram) send(ctx context.Context, text string) {
	payload := map[string]interface{}{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "HTML",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		t.logger.WithError(err).Warn("⚠️ Failed to marshal Telegram payload")
		return
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.botToken)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		t.logger.WithError(err).Warn("⚠️ Failed to build Telegram request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.logger.WithError(err).Warn("⚠️ Telegram notification failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		t.logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   string(respBody),
		}).Warn("⚠️ Telegram notification rejected")
	}
}

var _ Notifier = (*Telegram)(nil)
