package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gt"
	controller "github.com/m-mizutani/gitlab-telegram/pkg/controller/http"
	"github.com/m-mizutani/gitlab-telegram/pkg/domain/model"
	"github.com/m-mizutani/gitlab-telegram/pkg/usecase"
	"github.com/m-mizutani/gitlab-telegram/pkg/utils/async"
)

const testSecret = "test-secret"

// MockWebhookUseCase is a mock implementation of WebhookUseCase
type MockWebhookUseCase struct {
	dispatchFunc func(ctx context.Context, event *model.WebhookEvent)

	mu     sync.Mutex
	events []*model.WebhookEvent
}

func (m *MockWebhookUseCase) Dispatch(ctx context.Context, event *model.WebhookEvent) {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()

	if m.dispatchFunc != nil {
		m.dispatchFunc(ctx, event)
	}
}

func (m *MockWebhookUseCase) Events() []*model.WebhookEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.WebhookEvent(nil), m.events...)
}

// MockMessenger records sent messages
type MockMessenger struct {
	err error

	mu   sync.Mutex
	sent []sentMessage
}

type sentMessage struct {
	chatID string
	text   string
}

func (m *MockMessenger) SendMessage(ctx context.Context, chatID model.ChatID, text string, opts model.SendOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{chatID: chatID.String(), text: text})
	return m.err
}

func (m *MockMessenger) Sent() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

const issueBody = `{
	"object_kind": "issue",
	"project": {"id": 42, "name": "p"},
	"user": {"name": "Alice"},
	"object_attributes": {"action": "open", "title": "Bug", "url": "https://x/1"}
}`

func newWebhookRequest(body, token string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/gitlab", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Gitlab-Event", "Issue Hook")
	if token != "" {
		req.Header.Set("X-Gitlab-Token", token)
	}
	return req
}

func TestWebhookHandler_AlwaysAcknowledges(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		token        string
		wantDispatch bool
	}{
		{name: "valid event", body: issueBody, token: testSecret, wantDispatch: true},
		{name: "wrong token", body: issueBody, token: "wrong", wantDispatch: false},
		{name: "missing token", body: issueBody, token: "", wantDispatch: false},
		{name: "malformed JSON", body: `{"object_kind":`, token: testSecret, wantDispatch: false},
		{name: "JSON array", body: `[{"object_kind":"issue"}]`, token: testSecret, wantDispatch: false},
		{name: "missing object_kind", body: `{"project":{"id":42}}`, token: testSecret, wantDispatch: false},
		{name: "null object_kind", body: `{"object_kind":null,"project":{"id":42}}`, token: testSecret, wantDispatch: true},
		{name: "unknown kind", body: `{"object_kind":"push","project":{"id":42}}`, token: testSecret, wantDispatch: true},
		{name: "mistyped field", body: `{"object_kind":"issue","project":{"id":"42"}}`, token: testSecret, wantDispatch: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &MockWebhookUseCase{}
			handler := controller.NewWebhookHandler(testSecret, uc, false)

			w := httptest.NewRecorder()
			handler.Handle(w, newWebhookRequest(tt.body, tt.token))

			gt.Value(t, w.Code).Equal(http.StatusOK)
			gt.String(t, w.Body.String()).Equal("{}\n")

			if tt.wantDispatch {
				gt.A(t, uc.Events()).Length(1)
			} else {
				gt.A(t, uc.Events()).Length(0)
			}
		})
	}
}

// largeIssueBody returns a valid issue event of at least size bytes
func largeIssueBody(size int) string {
	return `{
	"object_kind": "issue",
	"project": {"id": 42, "name": "p"},
	"user": {"name": "Alice"},
	"object_attributes": {"action": "open", "title": "Bug", "url": "https://x/1", "description": "` +
		strings.Repeat("x", size) + `"}
}`
}

func TestWebhookHandler_BodySize(t *testing.T) {
	t.Run("body above 1 MiB is dispatched", func(t *testing.T) {
		uc := &MockWebhookUseCase{}
		handler := controller.NewWebhookHandler(testSecret, uc, false)

		w := httptest.NewRecorder()
		handler.Handle(w, newWebhookRequest(largeIssueBody(2<<20), testSecret))

		gt.Value(t, w.Code).Equal(http.StatusOK)
		gt.A(t, uc.Events()).Length(1)
	})

	t.Run("body over the limit is dropped with a warning", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))

		uc := &MockWebhookUseCase{}
		handler := controller.NewWebhookHandler(testSecret, uc, false, controller.WithMaxBodySize(1024))

		req := newWebhookRequest(largeIssueBody(2048), testSecret)
		req = req.WithContext(ctxlog.With(req.Context(), logger))

		w := httptest.NewRecorder()
		handler.Handle(w, req)

		gt.Value(t, w.Code).Equal(http.StatusOK)
		gt.String(t, w.Body.String()).Equal("{}\n")
		gt.A(t, uc.Events()).Length(0)
		gt.String(t, buf.String()).Contains("level=WARN")
		gt.String(t, buf.String()).Contains("Webhook body too large")
		gt.String(t, buf.String()).Contains("limit=1024")
	})

	t.Run("body exactly at the limit is dispatched", func(t *testing.T) {
		body := issueBody
		uc := &MockWebhookUseCase{}
		handler := controller.NewWebhookHandler(testSecret, uc, false, controller.WithMaxBodySize(int64(len(body))))

		w := httptest.NewRecorder()
		handler.Handle(w, newWebhookRequest(body, testSecret))

		gt.A(t, uc.Events()).Length(1)
	})
}

func TestWebhookHandler_DecodesEvent(t *testing.T) {
	uc := &MockWebhookUseCase{}
	handler := controller.NewWebhookHandler(testSecret, uc, false)

	w := httptest.NewRecorder()
	handler.Handle(w, newWebhookRequest(issueBody, testSecret))

	events := uc.Events()
	gt.A(t, events).Length(1)
	gt.Value(t, events[0].ObjectKind).Equal(model.EventKindIssue)
	id, ok := events[0].ProjectID()
	gt.True(t, ok)
	gt.Number(t, id).Equal(42)
	gt.Value(t, events[0].ObjectAttributes.Action).Equal("open")
}

func TestWebhookHandler_RecoversPanic(t *testing.T) {
	uc := &MockWebhookUseCase{
		dispatchFunc: func(ctx context.Context, event *model.WebhookEvent) {
			panic("formatter bug")
		},
	}
	handler := controller.NewWebhookHandler(testSecret, uc, false)

	w := httptest.NewRecorder()
	handler.Handle(w, newWebhookRequest(issueBody, testSecret))

	gt.Value(t, w.Code).Equal(http.StatusOK)
	gt.A(t, uc.Events()).Length(1)
}

func TestWebhookHandler_AsyncDispatch(t *testing.T) {
	uc := &MockWebhookUseCase{}
	handler := controller.NewWebhookHandler(testSecret, uc, true)

	w := httptest.NewRecorder()
	handler.Handle(w, newWebhookRequest(issueBody, testSecret))
	gt.Value(t, w.Code).Equal(http.StatusOK)

	gt.NoError(t, async.Wait(context.Background()))
	gt.A(t, uc.Events()).Length(1)
}

func newTestServer(t *testing.T, messenger *MockMessenger, health *model.HealthState) *httptest.Server {
	t.Helper()

	uc := usecase.NewWebhook(messenger, health,
		usecase.WithRoutingTable(model.NewRoutingTable(map[int64]model.ChatID{
			42: model.NewChatName("@g"),
		})),
	)
	server, err := controller.NewServer(
		context.Background(),
		uc,
		controller.WithAddr("localhost:0"),
		controller.WithSecretToken(testSecret),
		controller.WithHealth(health),
	)
	gt.NoError(t, err)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func postWebhook(t *testing.T, ts *httptest.Server, path, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, ts.URL+path, bytes.NewReader([]byte(body)))
	gt.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Gitlab-Token", testSecret)

	resp, err := http.DefaultClient.Do(req)
	gt.NoError(t, err)
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func TestWebhookHandler_Integration(t *testing.T) {
	messenger := &MockMessenger{}
	health := model.NewHealthState()
	ts := newTestServer(t, messenger, health)

	for _, path := range []string{"/gitlab", "/gitlab/"} {
		resp := postWebhook(t, ts, path, issueBody)
		gt.Value(t, resp.StatusCode).Equal(http.StatusOK)
	}

	sent := messenger.Sent()
	gt.A(t, sent).Length(2)
	gt.Value(t, sent[0].chatID).Equal("@g")
	gt.String(t, sent[0].text).Contains("New issue created by:")
	gt.String(t, sent[0].text).Contains("Bug")
	gt.False(t, health.HasError())
}

func TestWebhookHandler_DeliveryFailureDegradesHealth(t *testing.T) {
	messenger := &MockMessenger{err: errors.New("Telegram API 401: Unauthorized")}
	health := model.NewHealthState()
	ts := newTestServer(t, messenger, health)

	resp := postWebhook(t, ts, "/gitlab", issueBody)
	gt.Value(t, resp.StatusCode).Equal(http.StatusOK)
	gt.True(t, health.HasError())

	healthResp, err := http.Get(ts.URL + "/health")
	gt.NoError(t, err)
	defer func() {
		_ = healthResp.Body.Close()
	}()
	gt.Value(t, healthResp.StatusCode).Equal(http.StatusInternalServerError)

	var status model.HealthStatus
	gt.NoError(t, json.NewDecoder(healthResp.Body).Decode(&status))
	gt.Value(t, status.Result).Equal("NOK")
}
