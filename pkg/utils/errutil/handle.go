package errutil

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Handle logs err and reports it to Sentry if a Sentry client is configured.
// It is used where an error is terminal and cannot be returned to a caller.
func Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}
	logger := ctxlog.From(ctx)

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub = hub.Clone()
	if hub.Client() != nil {
		hub.ConfigureScope(func(scope *sentry.Scope) {
			if gerr := goerr.Unwrap(err); gerr != nil {
				scope.SetContext("goerr", sentry.Context(gerr.Values()))
			}
		})
		if evID := hub.CaptureException(err); evID != nil {
			logger = logger.With(slog.String("sentry_event_id", string(*evID)))
		}
	}

	logger.Error("error", slog.Any("error", err))
}
