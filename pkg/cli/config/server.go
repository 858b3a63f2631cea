package config

import (
	"net"
	"strconv"

	"github.com/urfave/cli/v3"
)

// Server holds server configuration
type Server struct {
	Host          string
	Port          int
	URL           string
	AsyncDispatch bool
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "host",
			Usage:       "Listen host, all interfaces if empty",
			Destination: &c.Host,
			Sources:     cli.EnvVars("HOST"),
		},
		&cli.IntFlag{
			Name:        "port",
			Usage:       "Listen port",
			Value:       3013,
			Destination: &c.Port,
			Sources:     cli.EnvVars("PORT"),
		},
		&cli.StringFlag{
			Name:        "url",
			Usage:       "Public host name shown in the startup log",
			Value:       "localhost",
			Destination: &c.URL,
			Sources:     cli.EnvVars("URL"),
		},
		&cli.BoolFlag{
			Name:        "async-dispatch",
			Usage:       "Acknowledge webhooks before sending notifications",
			Destination: &c.AsyncDispatch,
			Sources:     cli.EnvVars("ASYNC_DISPATCH"),
		},
	}
}

// Addr returns the listen address
func (c *Server) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// PublicURL returns the URL announced at startup
func (c *Server) PublicURL() string {
	return "http://" + net.JoinHostPort(c.URL, strconv.Itoa(c.Port))
}
