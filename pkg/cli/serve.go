package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gitlab-telegram/pkg/cli/config"
	controller "github.com/m-mizutani/gitlab-telegram/pkg/controller/http"
	"github.com/m-mizutani/gitlab-telegram/pkg/domain/model"
	"github.com/m-mizutani/gitlab-telegram/pkg/usecase"
	"github.com/m-mizutani/gitlab-telegram/pkg/utils/async"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg   config.Server
		gitlabCfg   config.GitLab
		telegramCfg config.Telegram
		sentryCfg   config.Sentry
	)

	var flags []cli.Flag
	flags = append(flags, serverCfg.Flags()...)
	flags = append(flags, gitlabCfg.Flags()...)
	flags = append(flags, telegramCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			if err := sentryCfg.Configure(); err != nil {
				return err
			}
			defer sentry.Flush(2 * time.Second)

			routing, err := gitlabCfg.RoutingTable()
			if err != nil {
				return err
			}

			messenger, err := telegramCfg.NewMessenger()
			if err != nil {
				return err
			}

			logger.Info("Starting gitlab-telegram server",
				slog.String("addr", serverCfg.Addr()),
				slog.Int("routes", routing.Len()),
				slog.Bool("telegram_enabled", telegramCfg.Enabled),
				slog.String("pipeline_branch", gitlabCfg.PipelineBranch),
				slog.Bool("pipeline_show_success", gitlabCfg.PipelineShowSuccess),
				slog.Bool("async_dispatch", serverCfg.AsyncDispatch),
			)
			if !telegramCfg.Enabled {
				logger.Info("Telegram disabled, messages are only logged")
			}

			health := model.NewHealthState()

			// Create use cases
			webhookUC := usecase.NewWebhook(messenger, health,
				usecase.WithRoutingTable(routing),
				usecase.WithPipelineBranch(gitlabCfg.PipelineBranch),
				usecase.WithPipelineShowSuccess(gitlabCfg.PipelineShowSuccess),
			)

			// Create HTTP server with options
			server, err := controller.NewServer(
				ctx,
				webhookUC,
				controller.WithAddr(serverCfg.Addr()),
				controller.WithSecretToken(gitlabCfg.SecretToken),
				controller.WithHealth(health),
				controller.WithAsyncDispatch(serverCfg.AsyncDispatch),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			// Start server in goroutine
			errCh := make(chan error, 1)
			go func() {
				logger.Info("HTTP server listening", slog.String("url", serverCfg.PublicURL()))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "HTTP server error", goerr.V("addr", serverCfg.Addr()))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			case err := <-errCh:
				return err
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}
			if err := async.Wait(shutdownCtx); err != nil {
				logger.Warn("Pending notifications dropped on shutdown", slog.Any("error", err))
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
