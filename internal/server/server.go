// Package server exposes the prediction service over HTTP with fiber.
package server

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/YuminosukeSato/antiox/internal/modelstore"
	"github.com/YuminosukeSato/antiox/internal/prediction"
	"github.com/YuminosukeSato/antiox/internal/repository"
	"github.com/YuminosukeSato/antiox/internal/schema"
	"github.com/YuminosukeSato/antiox/pkg/log"
)

// Version is reported by the home endpoint.
const Version = "1.0"

// Options wires the server's collaborators.
type Options struct {
	Handle *modelstore.Handle
	Schema schema.Schema
	// Audit receives successful predictions. Nil disables auditing.
	Audit       repository.PredictionLog
	CORSOrigins string
	// AccessLog receives one line per request. Nil means stdout.
	AccessLog io.Writer
}

// Server owns the fiber app and the in-flight audit writes.
type Server struct {
	app     *fiber.App
	handler *Handler
}

// New builds the app with recover, access log and CORS middleware.
func New(opts Options) *Server {
	if opts.CORSOrigins == "" {
		opts.CORSOrigins = "*"
	}
	if opts.AccessLog == nil {
		opts.AccessLog = os.Stdout
	}
	if opts.Schema.NumFeatures() == 0 {
		opts.Schema = schema.Default
	}

	app := fiber.New(fiber.Config{
		AppName:               "Anti-oxidation Prediction API v" + Version,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
		Output: opts.AccessLog,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: opts.CORSOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	h := &Handler{
		service: prediction.NewService(opts.Handle, opts.Schema),
		handle:  opts.Handle,
		schema:  opts.Schema,
		audit:   opts.Audit,
		pending: &sync.WaitGroup{},
		logger:  log.GetLoggerWithName("server"),
	}
	SetupRoutes(app, h)
	return &Server{app: app, handler: h}
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown stops accepting requests, then waits for pending audit writes.
func (s *Server) Shutdown(timeout time.Duration) error {
	err := s.app.ShutdownWithTimeout(timeout)
	s.handler.WaitAudits()
	return err
}

// SetupRoutes registers the API routes.
func SetupRoutes(app *fiber.App, h *Handler) {
	app.Get("/", h.Home)
	app.Get("/health", h.Health)
	app.Post("/predict", h.Predict)
}

// errorHandler keeps every error body in the {"error": message} shape.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}
	return c.Status(code).JSON(fiber.Map{"error": message})
}
