package config

import (
	"github.com/m-mizutani/gitlab-telegram/pkg/domain/interfaces"
	"github.com/m-mizutani/gitlab-telegram/pkg/infra/telegram"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Telegram holds Telegram Bot API configuration
type Telegram struct {
	Enabled bool
	Token   string `masq:"secret"`
	APIURL  string
}

// Flags returns CLI flags for Telegram configuration
func (c *Telegram) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "telegram-enabled",
			Usage:       "Send messages to Telegram; when disabled messages are only logged",
			Value:       true,
			Destination: &c.Enabled,
			Sources:     cli.EnvVars("TELEGRAM_ENABLED"),
		},
		&cli.StringFlag{
			Name:        "telegram-token",
			Usage:       "Telegram bot token",
			Destination: &c.Token,
			Sources:     cli.EnvVars("TELEGRAM_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "telegram-api-url",
			Usage:       "Telegram Bot API base URL",
			Value:       telegram.DefaultAPIURL,
			Destination: &c.APIURL,
			Sources:     cli.EnvVars("TELEGRAM_API_URL"),
		},
	}
}

// NewMessenger creates the Telegram client, or a logging fake when Telegram
// is disabled
func (c *Telegram) NewMessenger() (interfaces.Messenger, error) {
	if !c.Enabled {
		return telegram.NewFakeClient(), nil
	}
	if c.Token == "" {
		return nil, goerr.New("telegram-token is required when Telegram is enabled")
	}

	return telegram.NewClient(c.Token, telegram.WithAPIURL(c.APIURL))
}
