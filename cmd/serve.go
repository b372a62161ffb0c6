/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"bskyrss/server"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the RSS proxy server",
		Description: `Starts an HTTP server rendering Bluesky users as RSS feeds.

Routes:

GET /                      Usage hint
GET /rss/:handle_or_did    RSS 2.0 feed of the user
GET /metrics               Prometheus metrics`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on",
				EnvVars: []string{"BSKYRSS_PORT", "PORT"},
				Value:   3000,
			},
			&cli.StringSliceFlag{
				Name:    "allow-origins",
				Usage:   "Origins allowed to fetch feeds from a browser (CORS is off when empty)",
				EnvVars: []string{"BSKYRSS_ALLOW_ORIGINS"},
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg := fileConfig(ctx)

			port := ctx.Int("port")
			if !ctx.IsSet("port") && cfg.Server.Port != 0 {
				port = cfg.Server.Port
			}

			origins := ctx.StringSlice("allow-origins")
			if !ctx.IsSet("allow-origins") {
				origins = cfg.Server.AllowOrigins
			}
			origins = lo.Uniq(lo.Compact(lo.Map(origins, func(origin string, _ int) string {
				return strings.TrimSpace(origin)
			})))

			generator, timeout := newGenerator(ctx)

			app := server.Server(&server.ServerConfig{
				Generator:    generator,
				Timeout:      timeout,
				AllowOrigins: strings.Join(origins, ","),
			})

			// Graceful shutdown
			sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() {
				errc <- app.Listen(fmt.Sprintf(":%d", port))
			}()

			log.WithFields(log.Fields{
				"timeout": timeout,
				"origins": origins,
			}).Infof("Server started on http://localhost:%d", port)

			select {
			case err := <-errc:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-sigCtx.Done():
				log.Info("Gracefully shutting down...")
				return app.ShutdownWithTimeout(shutdownTimeout)
			}
		},
	}
}
