package usecase

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gitlab-telegram/pkg/domain/interfaces"
	"github.com/m-mizutani/gitlab-telegram/pkg/domain/model"
	"github.com/m-mizutani/gitlab-telegram/pkg/utils/errutil"
	"github.com/m-mizutani/gitlab-telegram/pkg/utils/metrics"
	"github.com/m-mizutani/goerr/v2"
)

// sendOptions is applied to every notification
var sendOptions = model.SendOptions{
	ParseMode:             model.ParseModeMarkdownV2,
	DisableWebPagePreview: true,
}

type webhookUseCase struct {
	messenger interfaces.Messenger
	health    *model.HealthState

	routing             *model.RoutingTable
	pipelineBranch      string
	pipelineShowSuccess bool
}

// Option is a functional option for the webhook use case
type Option func(*webhookUseCase)

// WithRoutingTable sets the project to chat mapping
func WithRoutingTable(table *model.RoutingTable) Option {
	return func(uc *webhookUseCase) {
		uc.routing = table
	}
}

// WithPipelineBranch restricts pipeline notifications to one branch. An
// empty branch disables the filter.
func WithPipelineBranch(branch string) Option {
	return func(uc *webhookUseCase) {
		uc.pipelineBranch = branch
	}
}

// WithPipelineShowSuccess enables notifications for successful pipelines
func WithPipelineShowSuccess(show bool) Option {
	return func(uc *webhookUseCase) {
		uc.pipelineShowSuccess = show
	}
}

// NewWebhook creates a new instance of WebhookUseCase. health is set to error
// state when a notification cannot be delivered.
func NewWebhook(messenger interfaces.Messenger, health *model.HealthState, opts ...Option) *webhookUseCase {
	uc := &webhookUseCase{
		messenger: messenger,
		health:    health,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Dispatch sends the notification for event to the chat mapped to its
// project. Events without project, without mapping, of unsupported kind or
// without a notification-worthy action are dropped.
func (uc *webhookUseCase) Dispatch(ctx context.Context, event *model.WebhookEvent) {
	logger := ctxlog.From(ctx)
	kind := string(event.ObjectKind)
	if !event.ObjectKind.IsSupported() {
		kind = "other" // keep metric labels bounded
	}

	projectID, ok := event.ProjectID()
	if !ok {
		logger.Info("Webhook missing project", "body", event)
		metrics.CountNotification(kind, metrics.OutcomeUnrouted)
		return
	}

	chatID, ok := uc.routing.Lookup(projectID)
	if !ok {
		logger.Info("Project ID not in mapping", "project_id", projectID, "body", event)
		metrics.CountNotification(kind, metrics.OutcomeUnrouted)
		return
	}

	if !event.ObjectKind.IsSupported() {
		metrics.CountNotification(kind, metrics.OutcomeIgnored)
		return
	}

	msg, ok := uc.format(event)
	if !ok {
		logger.Debug("No notification for event",
			"kind", kind,
			"project_id", projectID,
		)
		metrics.CountNotification(kind, metrics.OutcomeSuppressed)
		return
	}

	if !uc.send(ctx, chatID, msg) {
		metrics.CountNotification(kind, metrics.OutcomeFailed)
		return
	}
	metrics.CountNotification(kind, metrics.OutcomeSent)
}

func (uc *webhookUseCase) format(event *model.WebhookEvent) (string, bool) {
	switch event.ObjectKind {
	case model.EventKindIssue:
		return FormatIssue(event)
	case model.EventKindMergeRequest:
		return FormatMergeRequest(event)
	case model.EventKindPipeline:
		if uc.pipelineBranch != "" && event.Ref() != uc.pipelineBranch {
			return "", false
		}
		return FormatPipeline(event, uc.pipelineShowSuccess)
	case model.EventKindDeployment:
		return FormatDeployment(event)
	case model.EventKindRelease:
		return FormatRelease(event)
	default:
		return "", false
	}
}

// send delivers msg. A failure is logged, reported and recorded in the health
// state; it is not retried.
func (uc *webhookUseCase) send(ctx context.Context, chatID model.ChatID, msg string) bool {
	logger := ctxlog.From(ctx)

	if err := uc.messenger.SendMessage(ctx, chatID, msg, sendOptions); err != nil {
		logger.Warn("Message send failed",
			slog.String("chat_id", chatID.String()),
			slog.String("message", msg),
		)
		errutil.Handle(ctx, goerr.Wrap(err, "failed to send notification",
			goerr.V("chat_id", chatID.String()),
		))
		uc.health.SetError(true)
		return false
	}

	return true
}
