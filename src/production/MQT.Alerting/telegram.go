package alerting

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	config "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Config"
)

// ChatSender delivers a text message to a chat
type ChatSender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// TelegramClient talks to the Telegram Bot API
type TelegramClient struct {
	baseURL        string
	token          string
	httpClient     *http.Client
	circuitBreaker *CircuitBreaker
}

func NewTelegramClient(cfg config.TelegramConfig) *TelegramClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TelegramClient{
		baseURL:        strings.TrimRight(cfg.APIURL, "/"),
		token:          cfg.BotToken,
		httpClient:     &http.Client{Timeout: timeout},
		circuitBreaker: NewCircuitBreaker(cfg.FailureThreshold, cfg.ResetTimeout),
	}
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type botResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// SendMessage posts text to chatID. Failures are not retried. Only outages (network errors,
// 429 and 5xx) count toward the breaker; a 4xx about this chat does not affect other chats.
func (c *TelegramClient) SendMessage(ctx context.Context, chatID, text string) error {
	if c.token == "" {
		return fmt.Errorf("telegram bot token is not configured")
	}
	return c.circuitBreaker.Execute(func() error {
		resp, err := c.makeRequest(ctx, "sendMessage", sendMessageRequest{ChatID: chatID, Text: text})
		if err != nil {
			return fmt.Errorf("failed to call telegram: %w", err)
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if readErr != nil {
			return fmt.Errorf("telegram returned status %d, reading body: %w", resp.StatusCode, readErr)
		}

		var br botResponse
		if err := json.Unmarshal(body, &br); err != nil {
			err = fmt.Errorf("telegram returned status %d: %s", resp.StatusCode, string(body))
			if destinationFault(resp.StatusCode) {
				return rejected(err)
			}
			return err
		}
		if resp.StatusCode == http.StatusOK && br.OK {
			return nil
		}

		err = fmt.Errorf("telegram error %d for chat %s: %s", br.ErrorCode, chatID, br.Description)
		if resp.StatusCode == http.StatusOK || destinationFault(resp.StatusCode) {
			return rejected(err)
		}
		return err
	})
}

// destinationFault reports whether status blames the request rather than the Bot API
func destinationFault(status int) bool {
	return status >= 400 && status < 500 && status != http.StatusTooManyRequests
}

func (c *TelegramClient) makeRequest(ctx context.Context, method string, body interface{}) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.New("failed to create telegram request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "device-manager-alerts")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// *url.Error quotes the request URL, which carries the bot token
		var ue *url.Error
		if errors.As(err, &ue) {
			return nil, fmt.Errorf("%s %s/bot<redacted>/%s: %w", ue.Op, c.baseURL, method, ue.Err)
		}
		return nil, err
	}
	return resp, nil
}

// GetCircuitBreakerStatus returns the breaker state reported by the ingestor /health endpoint
func (c *TelegramClient) GetCircuitBreakerStatus() map[string]interface{} {
	return c.circuitBreaker.Status()
}
