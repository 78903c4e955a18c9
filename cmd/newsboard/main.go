package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/deusflow/newsboard/internal/app"
	"github.com/deusflow/newsboard/internal/config"
	"github.com/deusflow/newsboard/internal/logger"
)

func main() {
	logger.Init()

	if err := rootApp().Run(os.Args); err != nil {
		logger.Error("newsboard failed", "error", err)
		os.Exit(1)
	}
}

func rootApp() *cli.App {
	return &cli.App{
		Name:  "newsboard",
		Usage: "Regional news feed aggregator with RSS and image proxies",
		Description: `Fetches the configured regional news feeds, normalizes their
		entries and serves them interleaved over HTTP, next to allow-listed
		RSS and image proxies, a message board and a weather forecast.

		Settings are read from the environment (PORT, SOURCES_FILE,
		REFRESH_INTERVAL, DB_DRIVER, ...). Flags override them, e.g.:

		--port => PORT=3001
		--sources => SOURCES_FILE=configs/sources.yaml
		`,
		Commands: []*cli.Command{
			serveCmd(),
			fetchCmd(),
			sourcesCmd(),
		},
		Action: func(ctx *cli.Context) error {
			return cli.ShowAppHelp(ctx)
		},
	}
}

var sourcesFlag = &cli.StringFlag{
	Name:    "sources",
	Aliases: []string{"s"},
	Usage:   "YAML file with the news sources (built-in list when empty)",
	EnvVars: []string{"SOURCES_FILE"},
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if ctx.IsSet("sources") {
		cfg.SourcesFile = ctx.String("sources")
	}
	if ctx.IsSet("port") {
		cfg.Port = ctx.Int("port")
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the news API, proxies and message board",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   3001,
				Usage:   "HTTP port",
				EnvVars: []string{"PORT"},
			},
			sourcesFlag,
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(c.Context)
			defer stop()

			a, err := app.New(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.Serve(ctx)
		},
	}
}

func fetchCmd() *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Run one refresh cycle and print the merged feed as JSON",
		ArgsUsage: "[source ids, comma separated]",
		Flags:     []cli.Flag{sourcesFlag},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			var ids []string
			if arg := c.Args().First(); arg != "" {
				ids = strings.Split(arg, ",")
			}

			ctx, stop := signalContext(c.Context)
			defer stop()
			return app.FetchOnce(ctx, cfg, ids, os.Stdout)
		},
	}
}

func sourcesCmd() *cli.Command {
	return &cli.Command{
		Name:  "sources",
		Usage: "List the configured sources and their feed URLs",
		Flags: []cli.Flag{sourcesFlag},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			return app.ListSources(cfg, os.Stdout)
		},
	}
}
