package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gitlab-telegram/pkg/domain/interfaces"
	"github.com/m-mizutani/gitlab-telegram/pkg/domain/model"
	"github.com/m-mizutani/gitlab-telegram/pkg/utils/async"
)

// DefaultMaxBodySize bounds the webhook body read into memory. GitLab payloads
// with long descriptions or many builds stay far below it.
const DefaultMaxBodySize = 25 << 20

// WebhookHandler handles GitLab webhooks. It always answers 200 so that
// GitLab does not retry or disable the hook because of notification errors;
// outcomes are only logged.
type WebhookHandler struct {
	secretToken   string
	webhookUC     interfaces.WebhookUseCase
	asyncDispatch bool
	maxBodySize   int64
}

// WebhookOption is a functional option for WebhookHandler
type WebhookOption func(*WebhookHandler)

// WithMaxBodySize overrides DefaultMaxBodySize
func WithMaxBodySize(size int64) WebhookOption {
	return func(h *WebhookHandler) {
		h.maxBodySize = size
	}
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(secretToken string, webhookUC interfaces.WebhookUseCase, asyncDispatch bool, opts ...WebhookOption) *WebhookHandler {
	h := &WebhookHandler{
		secretToken:   secretToken,
		webhookUC:     webhookUC,
		asyncDispatch: asyncDispatch,
		maxBodySize:   DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle processes webhook requests
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	defer writeJSON(w, r, struct{}{})

	eventID := r.Header.Get("X-Gitlab-Event-UUID")
	if eventID == "" {
		eventID = uuid.NewString()
	}
	logger := ctxlog.From(r.Context()).With(
		"event_id", eventID,
		"gitlab_event", r.Header.Get("X-Gitlab-Event"),
	)
	ctx := ctxlog.With(r.Context(), logger)

	if !h.verifyToken(r.Header.Get("X-Gitlab-Token")) {
		logger.Warn("GitLab Secret Token mismatch")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, h.maxBodySize+1))
	if err != nil {
		logger.Warn("Failed to read request body", "error", err)
		return
	}
	if int64(len(body)) > h.maxBodySize {
		logger.Warn("Webhook body too large, event dropped",
			"limit", h.maxBodySize,
			"content_length", r.ContentLength,
		)
		return
	}

	event, ok := decodeEvent(body)
	if !ok {
		logger.Debug("Ignoring webhook body without object_kind")
		return
	}

	if h.asyncDispatch {
		async.Dispatch(ctx, func(ctx context.Context) error {
			h.webhookUC.Dispatch(ctx, event)
			return nil
		})
		return
	}

	h.dispatch(ctx, event)
}

// dispatch runs the use case and keeps a panic inside one event
func (h *WebhookHandler) dispatch(ctx context.Context, event *model.WebhookEvent) {
	defer func() {
		if r := recover(); r != nil {
			ctxlog.From(ctx).Error("panic in webhook dispatch",
				"recover", r,
				"stack", string(debug.Stack()),
			)
		}
	}()

	h.webhookUC.Dispatch(ctx, event)
}

// verifyToken compares the X-Gitlab-Token header with the shared secret
func (h *WebhookHandler) verifyToken(token string) bool {
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.secretToken)) == 1
}

// decodeEvent parses a webhook body. Bodies that are not a JSON object with
// an object_kind key are not events.
func decodeEvent(body []byte) (*model.WebhookEvent, bool) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, false
	}
	if _, ok := probe["object_kind"]; !ok {
		return nil, false
	}

	var event model.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, false
	}
	return &event, true
}
