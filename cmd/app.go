package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/hydrostats/tsfit/internal/opt/shared/x/strx"

	"github.com/hydrostats/tsfit/internal/version"

	"github.com/hydrostats/tsfit/config"
	"github.com/hydrostats/tsfit/internal/core/logger"
	"github.com/urfave/cli/v3"
)

func App() *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Usage:   "Path to config file",
		Aliases: []string{"c"},
		Sources: cli.EnvVars("TSFIT_CONFIG_PATH"),
	}

	app := &cli.Command{
		Name:    "tsfit",
		Usage:   "Time-series transfer function modelling with pluggable chart backends",
		Version: version.Version,
		Commands: []*cli.Command{
			// fit the model, print the report, render nothing
			{
				Name:  "fit",
				Usage: "Fit the model and print parameters and metrics",
				Flags: []cli.Flag{
					configFlag,
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg := loadConfig(c, config.ModeFit)
					return RunFitMode(ctx, cfg)
				},
			},

			// one-shot render
			{
				Name:  "render",
				Usage: "Fit the model and render figures to the output directory",
				Flags: []cli.Flag{
					configFlag,
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg := loadConfig(c, config.ModeRender)
					return RunRenderMode(ctx, cfg)
				},
			},

			// daemon mode
			{
				Name:  "serve",
				Usage: "Run as a daemon: serve figures over HTTP, re-render on schedule",
				Flags: []cli.Flag{
					configFlag,
				},
				Action: func(_ context.Context, c *cli.Command) error {
					cfg := loadConfig(c, config.ModeServe)
					RunServeMode(cfg)
					return nil
				},
			},

			// fetch a figure from a running serve instance
			{
				Name:  "fetch",
				Usage: "Fetch a single figure by name from a running serve instance",

				Description: strx.HeredocTrim(`
				Downloads a rendered figure from the REST API of a tsfit
				process running in serve mode.

				Example:
				tsfit fetch --serve-addr=127.0.0.1:7070 well-1-plot-echarts.html ./out.html
				`),

				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "serve-addr",
						Required: true,
						Usage:    "The address of tsfit running in a serve mode",
					},
				},
				Action: func(_ context.Context, c *cli.Command) error {
					args := c.Args()
					if args.Len() != 2 {
						return fmt.Errorf("usage: fetch <FIGURE_NAME> <DEST_PATH>")
					}

					figureName := args.Get(0)
					destPath := args.Get(1)

					return FetchFigure(
						figureName,
						destPath,
						&FetchFigureOpts{
							Addr: c.String("serve-addr"),
						},
					)
				},
			},

			// probe chart backends
			{
				Name:  "backends",
				Usage: "List chart backends and their availability",
				Action: func(_ context.Context, _ *cli.Command) error {
					return RunBackendsProbe(os.Stdout)
				},
			},

			// validate config
			{
				Name:  "validate",
				Usage: "Validate the config file without running the application",
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:     "mode",
						Usage:    "Validate for mode: fit/render/serve",
						Aliases:  []string{"m"},
						Required: true,
					},
				},
				Action: func(_ context.Context, c *cli.Command) error {
					mode := c.String("mode")
					if mode == "" {
						log.Fatal("required flag 'mode' is empty")
					}
					_ = loadConfig(c, mode)
					fmt.Println("Configuration is valid.")
					return nil
				},
			},
		},
	}

	return app
}

func loadConfig(c *cli.Command, mode string) *config.Config {
	configPath := c.String("config")

	// 1) if -c flag is set -> must read config from file
	// 2) if $TSFIT_CONFIG_PATH is set -> must read config from file
	// 3) read config with go-envconfig otherwise
	var cfg *config.Config
	if configPath != "" {
		cfg = config.MustLoad(configPath, mode)
	} else {
		cfg = config.MustEnvconfig(mode)
	}

	// debug config (NOTE: sensitive fields are hidden)
	_, _ = fmt.Fprintf(os.Stderr, "STARTING WITH CONFIGURATION (%s):\n%s\n\n",
		filepath.ToSlash(configPath),
		cfg.String(),
	)

	logger.Init(&logger.Opts{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		AddSource: cfg.Log.AddSource,
	})
	return cfg
}
