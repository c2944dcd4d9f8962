// File: internal/telegram/client.go
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/crack-enjoyer/RevsTrackerBot/internal/notify"
	"github.com/crack-enjoyer/RevsTrackerBot/pkg/utils"
)

const defaultAPIBase = "https://api.telegram.org"

// TelegramConfig holds Bot API configuration
type TelegramConfig struct {
	Token          string        `json:"token"`
	BaseURL        string        `json:"base_url"`
	RequestTimeout time.Duration `json:"request_timeout"`
	PollTimeout    time.Duration `json:"poll_timeout"`
}

// Client is a thin Telegram Bot API adapter. It implements notify.Notifier
// for outbound alerts and supplies inbound updates to the gateway.
type Client struct {
	config     *TelegramConfig
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// Update is one inbound Bot API update
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// Message is an inbound chat message
type Message struct {
	Chat Chat   `json:"chat"`
	Text string `json:"text"`
}

// Chat identifies the conversation a message belongs to
type Chat struct {
	ID int64 `json:"id"`
}

// apiResponse is the Bot API envelope
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

// NewClient creates a Telegram Bot API client
func NewClient(config *TelegramConfig) *Client {
	base := config.BaseURL
	if base == "" {
		base = defaultAPIBase
	}

	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryMax = 2
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 3 * time.Second
	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	// The long-poll getUpdates call holds the connection open up to
	// PollTimeout, so the client timeout must exceed it.
	if config.PollTimeout > 0 && timeout <= config.PollTimeout {
		timeout = config.PollTimeout + 10*time.Second
	}
	rc.HTTPClient.Timeout = timeout

	return &Client{
		config:     config,
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: rc.StandardClient(),
		logger:     utils.GetLogger(),
	}
}

// SendAlert implements notify.Notifier
func (c *Client) SendAlert(ctx context.Context, subscriber int64, text string) error {
	return c.SendMessage(ctx, subscriber, text)
}

// SendMessage delivers a text message to a chat. A response indicating the
// chat is permanently unreachable is mapped to notify.ErrRecipientGone.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}

	var ignored json.RawMessage
	return c.call(ctx, "sendMessage", payload, &ignored)
}

// GetUpdates long-polls for inbound updates starting at offset
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	pollTimeout := int64(c.config.PollTimeout / time.Second)
	payload := map[string]interface{}{
		"offset":          offset,
		"timeout":         pollTimeout,
		"allowed_updates": []string{"message"},
	}

	var updates []Update
	if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// GetMe verifies the bot token and returns the bot username
func (c *Client) GetMe(ctx context.Context) (string, error) {
	var me struct {
		Username string `json:"username"`
	}
	if err := c.call(ctx, "getMe", map[string]interface{}{}, &me); err != nil {
		return "", err
	}
	return me.Username, nil
}

// call performs one Bot API method invocation
func (c *Client) call(ctx context.Context, method string, payload interface{}, result interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeInternal, "Failed to encode Telegram request", err.Error())
	}

	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.config.Token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return utils.NewAppError(utils.ErrCodeInternal, "Failed to create Telegram request", err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return utils.NewAppError(utils.ErrCodeDelivery, "Telegram request failed", err.Error())
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return utils.NewAppError(utils.ErrCodeDelivery, "Failed to decode Telegram response", err.Error())
	}

	if !envelope.OK {
		if isRecipientGone(envelope) {
			return notify.ErrRecipientGone
		}
		return utils.NewAppError(utils.ErrCodeDelivery, "Telegram API error",
			fmt.Sprintf("%s (code %d)", envelope.Description, envelope.ErrorCode))
	}

	if result != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return utils.NewAppError(utils.ErrCodeDelivery, "Failed to decode Telegram result", err.Error())
		}
	}
	return nil
}

// isRecipientGone classifies Bot API errors that mean the chat can never be
// reached again: the user blocked the bot, the account is deactivated, or
// the chat was deleted.
func isRecipientGone(envelope apiResponse) bool {
	if envelope.ErrorCode == 403 {
		return true
	}
	desc := strings.ToLower(envelope.Description)
	return envelope.ErrorCode == 400 &&
		(strings.Contains(desc, "chat not found") || strings.Contains(desc, "user is deactivated"))
}

var _ notify.Notifier = (*Client)(nil)
