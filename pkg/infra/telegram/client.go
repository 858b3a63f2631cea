package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/gitlab-telegram/pkg/domain/interfaces"
	"github.com/m-mizutani/gitlab-telegram/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

const (
	DefaultAPIURL  = "https://api.telegram.org"
	defaultTimeout = 30 * time.Second

	// upper bound of the error body kept in the returned error
	maxErrorBody = 4096
)

var ErrSendMessage = goerr.New("telegram sendMessage failed")

type client struct {
	token      string
	apiURL     string
	httpClient *http.Client
}

// ClientOption is a functional option for the Telegram client
type ClientOption func(*client)

// WithAPIURL overrides the Bot API base URL
func WithAPIURL(apiURL string) ClientOption {
	return func(c *client) {
		c.apiURL = strings.TrimRight(apiURL, "/")
	}
}

// WithHTTPClient replaces the HTTP client used for Bot API calls
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Bot API client authenticated with token
func NewClient(token string, opts ...ClientOption) (interfaces.Messenger, error) {
	if token == "" {
		return nil, goerr.New("telegram bot token is required")
	}

	c := &client{
		token:      token,
		apiURL:     DefaultAPIURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

type sendMessageRequest struct {
	ChatID                model.ChatID `json:"chat_id"`
	Text                  string       `json:"text"`
	ParseMode             string       `json:"parse_mode,omitempty"`
	DisableWebPagePreview *bool        `json:"disable_web_page_preview,omitempty"`
}

// SendMessage calls the sendMessage method of the Bot API
func (c *client) SendMessage(ctx context.Context, chatID model.ChatID, text string, opts model.SendOptions) error {
	body := sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: opts.ParseMode,
	}
	if opts.DisableWebPagePreview {
		body.DisableWebPagePreview = &opts.DisableWebPagePreview
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return goerr.Wrap(err, "failed to encode sendMessage request")
	}

	// token is part of the path, keep it out of error values
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/bot"+c.token+"/sendMessage", bytes.NewReader(raw))
	if err != nil {
		return goerr.Wrap(err, "failed to create sendMessage request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(ErrSendMessage, "failed to call Telegram API",
			goerr.V("chat_id", chatID.String()),
			goerr.V("cause", redact(err.Error(), c.token)),
		)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return goerr.Wrap(ErrSendMessage, "Telegram API returned error status",
			goerr.V("chat_id", chatID.String()),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(respBody)),
		)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// redact removes the bot token from s. net/http errors embed the request URL.
func redact(s, token string) string {
	return strings.ReplaceAll(s, token, "[REDACTED]")
}
