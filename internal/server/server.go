// Package server exposes the dashboards over HTTP with Fiber.
//
// Pages are rendered server side from dashboard.View; charts are drawn on
// request by the render package. The visitor's theme and filter choices live
// in a cookie backed Fiber session.
package server

import (
	"context"
	"embed"
	"html/template"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/ezoic/agrodash/dashboard"
	"github.com/ezoic/agrodash/internal/observability"
	agroErrors "github.com/ezoic/agrodash/pkg/errors"
	"github.com/ezoic/agrodash/pkg/log"
)

//go:embed templates/*.html
var templateFS embed.FS

const sessionCookie = "agrodash_session"

// Options configures a Server.
type Options struct {
	Registry   *dashboard.Registry
	Metrics    *observability.Metrics
	Breakpoint int
	SessionTTL time.Duration
	Clock      clockwork.Clock
}

// Server is the dashboard HTTP server.
type Server struct {
	app        *fiber.App
	registry   atomic.Pointer[dashboard.Registry]
	metrics    *observability.Metrics
	sessions   *session.Store
	templates  *template.Template
	clock      clockwork.Clock
	breakpoint int
	draining   atomic.Bool
	logger     log.Logger
}

// New builds the server and registers its routes.
func New(opts Options) (*Server, error) {
	if opts.Registry == nil || len(opts.Registry.List()) == 0 {
		return nil, agroErrors.NewValueError("server.New", "no dashboards to serve")
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetricsForTesting()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Breakpoint <= 0 {
		opts.Breakpoint = dashboard.DefaultBreakpoint
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, agroErrors.Wrap(err, "parse templates")
	}

	s := &Server{
		metrics:    opts.Metrics,
		templates:  tmpl,
		clock:      opts.Clock,
		breakpoint: opts.Breakpoint,
		logger:     log.GetLoggerWithName("server").With(log.PhaseKey, log.PhaseServing),
		sessions: session.New(session.Config{
			Expiration:     opts.SessionTTL,
			KeyLookup:      "cookie:" + sessionCookie,
			CookieHTTPOnly: true,
			CookieSameSite: "Lax",
			KeyGenerator:   uuid.NewString,
		}),
	}

	s.registry.Store(opts.Registry)

	s.app = fiber.New(fiber.Config{
		AppName:               "agrodash",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(recover.New())
	s.app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	s.app.Use(s.requestLogger)
	s.routes()
	return s, nil
}

// App returns the underlying Fiber app, for tests.
func (s *Server) App() *fiber.App { return s.app }

// SetRegistry swaps the served dashboards. A nil or empty registry is
// ignored.
func (s *Server) SetRegistry(reg *dashboard.Registry) {
	if reg == nil || len(reg.List()) == 0 {
		return
	}
	s.registry.Store(reg)
}

func (s *Server) dashboards() *dashboard.Registry { return s.registry.Load() }

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("HTTP server starting", "addr", addr, "dashboards", len(s.dashboards().List()))
	return s.app.Listen(addr)
}

// Shutdown marks the server not ready and drains connections within ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	s.draining.Store(true)
	return s.app.ShutdownWithContext(ctx)
}

// handleError is the centralized error response. Errors reported as invalid
// input become 400s.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	switch {
	case agroErrors.As(err, &fe):
		code = fe.Code
	case agroErrors.Is(err, agroErrors.ErrInvalidInput):
		code = fiber.StatusBadRequest
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("Request failed", log.PathKey, c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// requestLogger logs every request and records its latency.
func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := s.clock.Now()
	err := c.Next()
	if err != nil {
		if herr := s.app.ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}
	elapsed := s.clock.Since(start)
	status := c.Response().StatusCode()
	route := c.Route().Path
	if status == fiber.StatusNotFound {
		route = "unmatched"
	}

	s.metrics.RequestLatency.
		WithLabelValues(c.Method(), route, statusClass(status)).
		Observe(elapsed.Seconds())
	s.logger.Debug("Request served",
		log.MethodKey, c.Method(),
		log.PathKey, c.Path(),
		log.StatusKey, status,
		log.DurationMsKey, elapsed.Milliseconds(),
		"request_id", c.Locals("requestid"),
	)
	return nil
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
