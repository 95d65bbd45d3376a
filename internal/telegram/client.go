package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"aligner-bot/internal/apperr"
	"aligner-bot/internal/metrics"
)

const defaultAPIURL = "https://api.telegram.org"

// Sender is the outbound half of the Bot API used by the handler.
type Sender interface {
	SendMessage(ctx context.Context, req SendMessageRequest) (int64, error)
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
}

type Client struct {
	http *resty.Client
}

var _ Sender = (*Client)(nil)

// NewClient builds a Bot API client. apiURL may be empty to use the public
// endpoint. timeout must exceed the long-poll timeout.
func NewClient(token, apiURL string, timeout time.Duration) *Client {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http: resty.New().
			SetBaseURL(fmt.Sprintf("%s/bot%s", strings.TrimRight(apiURL, "/"), token)).
			SetHeader("Content-Type", "application/json").
			SetTimeout(timeout),
	}
}

func (c *Client) call(ctx context.Context, method string, payload, out any) error {
	var apiResp APIResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&apiResp).
		SetError(&apiResp).
		Post("/" + method)
	if err != nil {
		return c.fail(method, err)
	}
	if !apiResp.OK {
		if apiResp.Description == "" {
			apiResp.Description = resp.Status()
		}
		err := fmt.Errorf("telegram %d: %s", apiResp.ErrorCode, apiResp.Description)
		if apiResp.Parameters != nil && apiResp.Parameters.RetryAfter > 0 {
			err = fmt.Errorf("%w (retry after %ds)", err, apiResp.Parameters.RetryAfter)
		}
		return c.fail(method, err)
	}
	if out != nil && len(apiResp.Result) > 0 {
		if err := json.Unmarshal(apiResp.Result, out); err != nil {
			return c.fail(method, fmt.Errorf("decode result: %w", err))
		}
	}
	return nil
}

func (c *Client) fail(method string, err error) error {
	metrics.DeliveryFailuresTotal.WithLabelValues(method).Inc()
	return apperr.New(apperr.MessageDeliveryFailed, method, err)
}

func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var u User
	if err := c.call(ctx, "getMe", struct{}{}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	var updates []Update
	req := GetUpdatesRequest{Offset: offset, Timeout: timeout, AllowedUpdates: allowedUpdates}
	if err := c.call(ctx, "getUpdates", req, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (int64, error) {
	var msg MessageResult
	if err := c.call(ctx, "sendMessage", req, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	req := AnswerCallbackQueryRequest{CallbackQueryID: callbackID, Text: text}
	return c.call(ctx, "answerCallbackQuery", req, nil)
}

func (c *Client) SetWebhook(ctx context.Context, url, secretToken string) error {
	req := SetWebhookRequest{URL: url, SecretToken: secretToken, AllowedUpdates: allowedUpdates}
	return c.call(ctx, "setWebhook", req, nil)
}

func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.call(ctx, "deleteWebhook", DeleteWebhookRequest{}, nil)
}
