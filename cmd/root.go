/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"bskyrss/bluesky"
	"bskyrss/config"
	"bskyrss/server"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

func RootApp() *cli.App {
	return &cli.App{
		Name:  "bskyrss",
		Usage: "RSS feeds for Bluesky users",
		UsageText: `bskyrss generate <handle>    Generate RSS feed for a Bluesky user
bskyrss serve                Start the RSS proxy server`,
		Description: `Fetches the profile and latest posts of a Bluesky user from the
public AppView and renders them as an RSS 2.0 feed.

The feed can be printed once with the generate command, or served over
HTTP at /rss/<handle or did> with the serve command.

Flags can generally be set via environment variables, e.g.:

--appview => BSKYRSS_APPVIEW=https://public.api.bsky.app
--port => BSKYRSS_PORT=3000 or PORT=3000`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "appview",
				Usage:   "Base URL of the Bluesky AppView to read from",
				EnvVars: []string{"BSKYRSS_APPVIEW"},
				Value:   bluesky.DefaultAppViewHost,
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "Timeout for generating a single feed",
				EnvVars: []string{"BSKYRSS_TIMEOUT"},
				Value:   server.DefaultTimeout,
			},
			&cli.StringFlag{
				Name:    "user-agent",
				Usage:   "User agent sent to the AppView",
				EnvVars: []string{"BSKYRSS_USER_AGENT"},
				Value:   "bskyrss",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to an optional TOML configuration file",
				EnvVars: []string{"BSKYRSS_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"BSKYRSS_LOG_LEVEL"},
				Value:   "info",
			},
		},
		Commands: []*cli.Command{
			generateCmd(),
			serveCmd(),
		},
		Before: func(ctx *cli.Context) error {
			cfg := &config.TomlConfig{}
			if path := ctx.String("config"); path != "" {
				loaded, err := config.LoadConfig(path)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			ctx.App.Metadata[configKey] = cfg

			return setupLogging(ctx, cfg)
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			if !ctx.Args().Present() {
				return cli.ShowAppHelp(ctx)
			}
			return usageExit(ctx, "Unknown command %q", ctx.Args().First())
		},
	}
}

// Run executes the command line and returns the process exit code
func Run(args []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), args, stdout, stderr)
}

func RunContext(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := RootApp()
	app.Writer = stdout
	app.ErrWriter = stderr

	// Exit codes are decided below rather than by urfave/cli calling os.Exit
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.RunContext(ctx, args)
	if err == nil {
		return 0
	}

	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		if msg := exitErr.Error(); msg != "" {
			fmt.Fprintf(stderr, "Error: %s\n", msg)
		}
		return exitErr.ExitCode()
	}

	fmt.Fprintf(stderr, "Error: %s\n", err)
	return 1
}

// usageExit prints an error followed by the usage text and exits with code 1
func usageExit(ctx *cli.Context, format string, a ...interface{}) error {
	fmt.Fprintf(ctx.App.ErrWriter, "Error: "+format+"\n", a...)
	_ = cli.ShowAppHelp(ctx)
	return cli.Exit("", 1)
}

func setupLogging(ctx *cli.Context, cfg *config.TomlConfig) error {
	// Logs go to stderr, stdout is reserved for generated feeds
	log.SetOutput(ctx.App.ErrWriter)

	levelName := ctx.String("log-level")
	if !ctx.IsSet("log-level") && cfg.LogLevel != "" {
		levelName = cfg.LogLevel
	}

	level, err := log.ParseLevel(levelName)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)
	return nil
}

func fileConfig(ctx *cli.Context) *config.TomlConfig {
	if cfg, ok := ctx.App.Metadata[configKey].(*config.TomlConfig); ok {
		return cfg
	}
	return &config.TomlConfig{}
}
