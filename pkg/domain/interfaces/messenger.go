package interfaces

import (
	"context"

	"github.com/m-mizutani/gitlab-telegram/pkg/domain/model"
)

// Messenger delivers notification text to a chat
type Messenger interface {
	// SendMessage sends text to chatID. It returns an error if the messaging
	// API does not accept the message.
	SendMessage(ctx context.Context, chatID model.ChatID, text string, opts model.SendOptions) error
}
