package server

import (
	"context"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const (
	// ContentTypeRSS is sent with every generated feed
	ContentTypeRSS = "application/xml; charset=utf-8"

	// DefaultTimeout bounds a single feed generation, both upstream calls included
	DefaultTimeout = 30 * time.Second

	indexText = "Bluesky RSS Generator 🦋\nUsage: /rss/:handle_or_did"
)

var feedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bskyrss_feed_requests_total",
	Help: "The total number of RSS feed requests served",
}, []string{"outcome"})

// Generator renders the RSS document of an actor. *feeds.Generator implements it.
type Generator interface {
	Generate(ctx context.Context, actor string) (string, error)
}

type ServerConfig struct {
	// The generator used to render feeds
	Generator Generator

	// Timeout for generating one feed. DefaultTimeout when zero.
	Timeout time.Duration

	// Comma separated list of origins allowed to fetch feeds from a browser.
	// CORS is disabled when empty.
	AllowOrigins string
}

// Returns a fiber.App instance to be used as an HTTP server for the RSS proxy
func Server(config *ServerConfig) *fiber.App {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Middleware to track the latency of each request
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		log.WithFields(log.Fields{
			"method":    c.Method(),
			"route":     c.Route().Path,
			"path":      c.Path(),
			"status":    c.Response().StatusCode(),
			"requestId": c.Locals("requestid"),
			"latency":   time.Since(start),
		}).Info("Request")
		return err
	})

	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(compress.New())

	if config.AllowOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: config.AllowOrigins,
			AllowMethods: "GET,HEAD,OPTIONS",
		}))
	}

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString(indexText)
	})

	app.Get("/rss/:actor", func(c *fiber.Ctx) error {
		// Path params are not unescaped by fiber, clients may encode the colons of a DID
		actor, err := url.PathUnescape(c.Params("actor"))
		if err != nil {
			feedRequests.WithLabelValues("error").Inc()
			c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
			return c.Status(fiber.StatusBadRequest).SendString("Error: invalid actor: " + err.Error())
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()

		rss, err := config.Generator.Generate(ctx, actor)
		if err != nil {
			feedRequests.WithLabelValues("error").Inc()
			log.WithFields(log.Fields{
				"actor": actor,
				"error": err,
			}).Error("Error generating feed")

			c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
			return c.Status(fiber.StatusInternalServerError).SendString("Error: " + err.Error())
		}

		feedRequests.WithLabelValues("success").Inc()
		c.Set(fiber.HeaderContentType, ContentTypeRSS)
		return c.Status(fiber.StatusOK).SendString(rss)
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	return app
}
