// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mia-platform/chirp/internal/info"
	"github.com/mia-platform/chirp/internal/logger"
	"github.com/mia-platform/chirp/pkg/chirp"
)

const (
	loggerName   = "chirp:server"
	statusPrefix = "/-/"
)

var (
	ErrServerListen   = errors.New("server listen error")
	ErrServerShutdown = errors.New("server shutdown error")
)

// Forwarder receives the entries collected from remote producers.
type Forwarder interface {
	Forward(entry chirp.Entry)
}

// batch is the body sent by the network transport.
type batch struct {
	Logs []chirp.Entry `json:"logs"`
}

type Server struct {
	config Config

	app *fiber.App
}

// NewServer returns a collector server forwarding every received entry to
// forwarder. The given collectors are exposed on the metrics route along with
// the process and runtime ones.
func NewServer(ctx context.Context, cfg Config, forwarder Forwarder, metrics ...prometheus.Collector) (*Server, error) {
	registry := prometheus.NewRegistry()
	metrics = append(metrics, collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	for _, collector := range metrics {
		if err := registry.Register(collector); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}

	app := fiber.New(fiber.Config{
		AppName:               info.AppName,
		DisableStartupMessage: cfg.DisableStartupMessage,
		BodyLimit:             cfg.BodyLimit,
	})
	log := logger.FromContext(ctx).WithName(loggerName)
	app.Use(logger.RequestMiddlewareLogger(log, []string{statusPrefix}))

	statusRoutes(app, info.AppName, info.Version)
	app.Get(statusPrefix+"metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	app.Post(cfg.CollectorPath, collectHandler(forwarder))

	return &Server{
		app:    app,
		config: cfg,
	}, nil
}

func statusRoutes(app *fiber.App, serviceName, serviceVersion string) {
	status := fiber.Map{
		"status":  "OK",
		"name":    serviceName,
		"version": serviceVersion,
	}

	app.Get(statusPrefix+"healthz", func(c *fiber.Ctx) error {
		return c.JSON(status)
	})
	app.Get(statusPrefix+"ready", func(c *fiber.Ctx) error {
		return c.JSON(status)
	})
}

func collectHandler(forwarder Forwarder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := logger.FromContext(c.UserContext())

		var received batch
		if err := json.Unmarshal(c.Body(), &received); err != nil {
			log.Debug("rejecting log batch", "error", err)
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"statusCode": http.StatusBadRequest,
				"error":      http.StatusText(http.StatusBadRequest),
				"message":    "body must be a JSON object with a logs array of entries",
			})
		}

		for _, entry := range received.Logs {
			forwarder.Forward(entry)
		}

		log.Debug("log batch collected", "entries", len(received.Logs))
		return c.SendStatus(http.StatusNoContent)
	}
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Start() error {
	if err := s.app.Listen(net.JoinHostPort(s.config.HTTPHost, s.config.HTTPPort)); err != nil {
		return fmt.Errorf("%w: %w", ErrServerListen, err)
	}
	return nil
}

func (s *Server) Stop() error {
	if err := s.app.Shutdown(); err != nil {
		return fmt.Errorf("%w: %w", ErrServerShutdown, err)
	}
	return nil
}

func (s *Server) StartAsync(ctx context.Context) {
	log := logger.FromContext(ctx).WithName(loggerName)
	go func() {
		if err := s.Start(); err != nil {
			log.Error(err.Error())
		}
	}()
}
