// Package notify sends run updates to Telegram. Notifications are
// best-effort: a delivery failure is logged and swallowed, never propagated
// into the pipeline.
package notify

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// Notifier delivers a human-readable status message.
type Notifier interface {
	Send(text string)
}

// Telegram posts messages to a chat via the Bot API.
type Telegram struct {
	token      string
	chatID     string
	httpClient *http.Client
}

// NewTelegram returns a Telegram notifier, or a Nop when credentials are
// missing so callers never need to branch.
func NewTelegram(token, chatID string) Notifier {
	if token == "" || chatID == "" {
		log.Println("[notify] Telegram credentials not set — notifications disabled")
		return Nop{}
	}
	return &Telegram{
		token:      token,
		chatID:     chatID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *Telegram) Send(text string) {
	payload, err := json.Marshal(map[string]string{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "HTML",
	})
	if err != nil {
		log.Printf("[notify] Warning: encode message: %v", err)
		return
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)
	resp, err := t.httpClient.Post(url, "application/json", strings.NewReader(string(payload)))
	if err != nil {
		log.Printf("[notify] Warning: Telegram send failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[notify] Warning: Telegram HTTP %d", resp.StatusCode)
	}
}

// Nop discards all messages.
type Nop struct{}

func (Nop) Send(string) {}
