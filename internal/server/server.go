// Package server provides the HTTP boundary of the PowLang compiler.
package server

import (
	"context"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/powlang/powlang/internal/config"
	"github.com/powlang/powlang/pkg/runtime"
)

// Server represents the HTTP API server.
type Server struct {
	app *fiber.App
	cfg *config.Config
	log *zap.Logger
	rt  *runtime.Runtime
}

// New creates a server. A nil cfg uses config.DefaultConfig and a nil
// logger discards everything.
func New(cfg *config.Config, log *zap.Logger) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		BodyLimit:             cfg.Server.BodyLimit,
		ErrorHandler:          customErrorHandler,
		AppName:               "PowLang Compiler API",
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		DisableStartupMessage: true,
	})

	s := &Server{
		app: app,
		cfg: cfg,
		log: log,
		rt: runtime.New(
			runtime.WithLogger(log),
			runtime.WithFilename("request.pow"),
			runtime.WithMaxIterations(cfg.Compiler.MaxIterations),
		),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.app.Use(fiberrecover.New(fiberrecover.Config{
		EnableStackTrace: true,
	}))
	s.app.Use(requestid.New())
	s.app.Use(requestLogger(s.log))

	if s.cfg.Server.EnableCORS {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(s.cfg.Server.AllowOrigins, ","),
			AllowMethods: "GET,POST,OPTIONS",
			AllowHeaders: "Origin,Content-Type,Accept",
			MaxAge:       86400,
		}))
	}
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", s.health)

	api := s.app.Group("/api")
	api.Post("/compiler", s.compile)
	api.Post("/check", s.check)
	api.Post("/tokens", s.tokens)
	api.Get("/keywords", s.keywords)
	api.Get("/keywords/:name", s.keyword)
}

// requestLogger logs one line per request once the response status is known.
func requestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().Config().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		log.Info("request",
			zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
		)
		return nil
	}
}

// Start starts the server on the configured address.
func (s *Server) Start() error {
	s.log.Info("listening", zap.String("address", s.cfg.Server.Address))
	return s.app.Listen(s.cfg.Server.Address)
}

// StartWithContext starts the server and shuts it down when ctx is done.
func (s *Server) StartWithContext(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		errCh <- s.Start()
	}()

	select {
	case <-ctx.Done():
		return s.app.ShutdownWithTimeout(s.cfg.Server.WriteTimeout)
	case err := <-errCh:
		return err
	}
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// customErrorHandler handles errors returned by handlers.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{Error: message})
}
