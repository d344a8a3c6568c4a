// Package telegram delivers slot notifications through the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/slotwatch/internal/ports"
)

const (
	DefaultAPIBase = "https://api.telegram.org"
	DefaultTimeout = 20 * time.Second

	maxRawChars      = 3000
	maxSlotsChars    = 500
	maxMessageChars  = 4096
	maxErrorBodySize = 2048
	userAgent        = "slotwatch"
)

type Config struct {
	APIBase string
	Token   string
	ChatID  string
	Timeout time.Duration
}

type Notifier struct {
	endpoint string
	token    string
	chatID   string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

func NewNotifier(cfg Config) (*Notifier, error) {
	token := strings.TrimSpace(cfg.Token)
	chatID := strings.TrimSpace(cfg.ChatID)
	if token == "" || chatID == "" {
		return nil, errors.New("telegram notifier requires a bot token and a chat id")
	}

	base := strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/")
	if base == "" {
		base = DefaultAPIBase
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Notifier{
		endpoint: base + "/bot" + token + "/sendMessage",
		token:    token,
		chatID:   chatID,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResponse struct {
	OK          *bool  `json:"ok"`
	Description string `json:"description"`
}

func (n *Notifier) Notify(ctx context.Context, details map[string]any) error {
	return n.send(ctx, FormatMessage(details))
}

func (n *Notifier) send(ctx context.Context, text string) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: n.chatID, Text: text})
	if err != nil {
		return fmt.Errorf("encode telegram message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build telegram request: %w", n.redact(err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram message: %w", n.redact(err))
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("telegram returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var decoded apiResponse
	if err := json.Unmarshal(respBody, &decoded); err == nil && decoded.OK != nil && !*decoded.OK {
		return fmt.Errorf("telegram rejected message: %s", decoded.Description)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

// redact strips the bot token from transport errors, which embed the URL.
func (n *Notifier) redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, n.token, "<token>")
	}

	return err
}

// FormatMessage renders the notification text: a short summary followed by
// the indented raw details. The slot list and raw dump are truncated and the
// whole text never exceeds Telegram's 4096-character message limit.
func FormatMessage(details map[string]any) string {
	var builder strings.Builder
	builder.WriteString("✅ Slot detected!\n\n")
	builder.WriteString("Earliest date: ")
	builder.WriteString(describe(details, "earliestDate"))
	builder.WriteString("\nSlots: ")
	builder.WriteString(truncate(describe(details, "earliestSlotLists"), maxSlotsChars))
	builder.WriteString("\n")
	builder.WriteString("\nRaw:\n")
	builder.WriteString(truncate(indented(details), maxRawChars))

	return truncate(builder.String(), maxMessageChars)
}

func describe(details map[string]any, key string) string {
	value, ok := details[key]
	if !ok || value == nil {
		return "None"
	}
	if text, ok := value.(string); ok {
		return text
	}

	encoded, err := marshal(value, "")
	if err != nil {
		return fmt.Sprint(value)
	}

	return encoded
}

func indented(details map[string]any) string {
	encoded, err := marshal(details, "  ")
	if err != nil {
		return fmt.Sprint(details)
	}

	return encoded
}

func marshal(value any, indent string) (string, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if indent != "" {
		encoder.SetIndent("", indent)
	}
	if err := encoder.Encode(value); err != nil {
		return "", err
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func truncate(text string, limit int) string {
	count := 0
	for i := range text {
		if count == limit {
			return text[:i]
		}
		count++
	}

	return text
}
