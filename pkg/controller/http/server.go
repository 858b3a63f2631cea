package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/gitlab-telegram/pkg/domain/interfaces"
	"github.com/m-mizutani/gitlab-telegram/pkg/domain/model"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// config holds internal HTTP server configuration
type config struct {
	addr          string
	secretToken   string
	health        *model.HealthState
	asyncDispatch bool
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithSecretToken sets the token GitLab sends in X-Gitlab-Token
func WithSecretToken(token string) Option {
	return func(c *config) {
		c.secretToken = token
	}
}

// WithHealth sets the health state reported by /health
func WithHealth(health *model.HealthState) Option {
	return func(c *config) {
		c.health = health
	}
}

// WithAsyncDispatch acknowledges webhooks before the notification is sent
func WithAsyncDispatch(enabled bool) Option {
	return func(c *config) {
		c.asyncDispatch = enabled
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	ctx context.Context,
	webhookUC interfaces.WebhookUseCase,
	opts ...Option,
) (*Server, error) {
	// Default configuration
	cfg := &config{
		addr: ":3013",
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.health == nil {
		cfg.health = model.NewHealthState()
	}

	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	router.Get("/", handleHome)
	router.Get("/health", handleHealth(cfg.health))
	router.Handle("/metrics", promhttp.Handler())

	// Webhook endpoint
	webhookHandler := NewWebhookHandler(cfg.secretToken, webhookUC, cfg.asyncDispatch)
	router.Route("/gitlab", func(r chi.Router) {
		r.Post("/", webhookHandler.Handle)
	})

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
