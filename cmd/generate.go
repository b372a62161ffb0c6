/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"time"

	"bskyrss/bluesky"
	"bskyrss/feeds"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func generateCmd() *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Usage:     "Generate RSS feed for a Bluesky user",
		ArgsUsage: "<handle>",
		Description: `Fetches the profile and the 50 latest posts and replies of a Bluesky
user and prints them as an RSS 2.0 feed to stdout.

The handle can also be a DID, e.g. did:plc:z72i7hdynmk6r22z27h6tvur.
Log messages are written to stderr.`,
		Action: func(ctx *cli.Context) error {
			handle := ctx.Args().First()
			if handle == "" {
				return usageExit(ctx, "Handle is required for generate command")
			}

			generator, timeout := newGenerator(ctx)

			genCtx, cancel := context.WithTimeout(ctx.Context, timeout)
			defer cancel()

			rss, err := generator.Generate(genCtx, handle)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			fmt.Fprintln(ctx.App.Writer, rss)
			return nil
		},
	}
}

// newGenerator builds the AppView client and feed generator from flags and config file.
// It also returns the timeout for a single generation.
func newGenerator(ctx *cli.Context) (*feeds.Generator, time.Duration) {
	cfg := fileConfig(ctx)

	appview := ctx.String("appview")
	if !ctx.IsSet("appview") && cfg.AppView != "" {
		appview = cfg.AppView
	}

	userAgent := ctx.String("user-agent")
	if !ctx.IsSet("user-agent") && cfg.UserAgent != "" {
		userAgent = cfg.UserAgent
	}

	timeout := ctx.Duration("timeout")
	if fromFile, _ := cfg.RequestTimeout(); !ctx.IsSet("timeout") && fromFile > 0 {
		timeout = fromFile
	}

	client := bluesky.NewClient(bluesky.ClientConfig{
		Host:      appview,
		UserAgent: userAgent,
	})

	log.WithFields(log.Fields{
		"appview": client.Host(),
		"timeout": timeout,
	}).Debug("Configured AppView client")

	return feeds.NewGenerator(client), timeout
}
