package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const defaultAPIBase = "https://api.telegram.org"

// APIError is an {ok:false} envelope surfaced as an error.
type APIError struct {
	Code        int
	Description string
	Parameters  *ResponseParameters
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: %d: %s", e.Code, e.Description)
}

// Client calls the Telegram Bot API. The token is carried in the request
// URL; every method is a POST with a JSON body.
type Client struct {
	Token      string
	APIBase    string // defaults to https://api.telegram.org
	HTTPClient *http.Client
}

// NewClient creates a Bot API client for the given bot token.
func NewClient(token string) *Client {
	return &Client{
		Token:      token,
		HTTPClient: http.DefaultClient,
	}
}

func (c *Client) methodURL(method string) string {
	base := c.APIBase
	if base == "" {
		base = defaultAPIBase
	}
	return fmt.Sprintf("%s/bot%s/%s", base, c.Token, method)
}

// Call invokes an arbitrary Bot API method by name. params is JSON-encoded
// as the request body; pass nil for parameterless methods. The returned
// envelope may be {ok:false}; Call does not turn that into an error, so
// callers that only care about success should use CallResult instead.
func (c *Client) Call(ctx context.Context, method string, params any) (*APIResponse, error) {
	var reqBody io.Reader
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal %s params: %w", method, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), reqBody)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	if params != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", method, err)
	}

	var envelope APIResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		// The API wraps errors in the envelope too, so a body that does
		// not parse means something other than Telegram answered.
		return nil, fmt.Errorf("decode %s response (status %d): %w", method, resp.StatusCode, err)
	}

	return &envelope, nil
}

// CallResult invokes a method and unmarshals a successful envelope's result
// into out. An {ok:false} envelope is returned as *APIError.
func (c *Client) CallResult(ctx context.Context, method string, params, out any) error {
	envelope, err := c.Call(ctx, method, params)
	if err != nil {
		return err
	}
	if !envelope.OK {
		return &APIError{
			Code:        envelope.ErrorCode,
			Description: envelope.Description,
			Parameters:  envelope.Parameters,
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("unmarshal %s result: %w", method, err)
	}
	return nil
}

// GetUpdatesParams are the parameters for getUpdates.
type GetUpdatesParams struct {
	Offset         int64    `json:"offset"`
	Limit          int      `json:"limit,omitempty"`
	Timeout        int      `json:"timeout,omitempty"` // long-poll seconds; 0 means short polling
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

// GetUpdates fetches a batch of updates starting at params.Offset.
// An {ok:false} envelope comes back as *APIError.
func (c *Client) GetUpdates(ctx context.Context, params GetUpdatesParams) ([]Update, error) {
	var updates []Update
	if err := c.CallResult(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// GetMe returns the bot's own account.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	var me User
	if err := c.CallResult(ctx, "getMe", nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// SendMessageParams are the parameters for sendMessage.
type SendMessageParams struct {
	ChatID           int64  `json:"chat_id"`
	Text             string `json:"text"`
	ParseMode        string `json:"parse_mode,omitempty"`
	ReplyToMessageID int64  `json:"reply_to_message_id,omitempty"`
}

// SendMessage sends a text message and returns the sent message.
func (c *Client) SendMessage(ctx context.Context, params SendMessageParams) (*Message, error) {
	var msg Message
	if err := c.CallResult(ctx, "sendMessage", params, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// AnswerCallbackQueryParams are the parameters for answerCallbackQuery.
type AnswerCallbackQueryParams struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
	ShowAlert       bool   `json:"show_alert,omitempty"`
}

// AnswerCallbackQuery acknowledges a callback query.
func (c *Client) AnswerCallbackQuery(ctx context.Context, params AnswerCallbackQueryParams) error {
	return c.CallResult(ctx, "answerCallbackQuery", params, nil)
}

// SetWebhookParams are the parameters for setWebhook.
type SetWebhookParams struct {
	URL            string   `json:"url"`
	SecretToken    string   `json:"secret_token,omitempty"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
	MaxConnections int      `json:"max_connections,omitempty"`
}

// SetWebhook registers url to receive pushed updates.
func (c *Client) SetWebhook(ctx context.Context, params SetWebhookParams) error {
	return c.CallResult(ctx, "setWebhook", params, nil)
}

// DeleteWebhook removes a previously registered webhook, switching the bot
// back to getUpdates delivery.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.CallResult(ctx, "deleteWebhook", nil, nil)
}

// GetWebhookInfo reports the current webhook status.
func (c *Client) GetWebhookInfo(ctx context.Context) (*WebhookInfo, error) {
	var info WebhookInfo
	if err := c.CallResult(ctx, "getWebhookInfo", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
