package interfaces

import (
	"context"

	"github.com/m-mizutani/gitlab-telegram/pkg/domain/model"
)

// WebhookUseCase defines the interface for webhook event processing
type WebhookUseCase interface {
	// Dispatch routes an event to its chat and sends the notification.
	// Failures are logged and recorded, never returned.
	Dispatch(ctx context.Context, event *model.WebhookEvent)
}
