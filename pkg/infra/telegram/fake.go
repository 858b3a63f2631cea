package telegram

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gitlab-telegram/pkg/domain/interfaces"
	"github.com/m-mizutani/gitlab-telegram/pkg/domain/model"
)

type fakeClient struct{}

// NewFakeClient returns a Messenger that only logs messages. It is used when
// Telegram delivery is disabled.
func NewFakeClient() interfaces.Messenger {
	return &fakeClient{}
}

func (c *fakeClient) SendMessage(ctx context.Context, chatID model.ChatID, text string, opts model.SendOptions) error {
	ctxlog.From(ctx).Info("Fake Telegram send",
		"chat_id", chatID.String(),
		"text", text,
		"parse_mode", opts.ParseMode,
	)
	return nil
}
