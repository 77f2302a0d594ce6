package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/richinsley/nodegen/canvas"
	"github.com/richinsley/nodegen/events"
)

// Server exposes a canvas over HTTP, with an optional websocket event feed
// served on its own listener.
type Server struct {
	cfg    Config
	canvas *canvas.Canvas
	hub    *events.Hub
	app    *fiber.App
	logger *slog.Logger
}

// New creates the server and registers its routes. hub may be nil when no
// event feed is wanted.
func New(cfg Config, cv *canvas.Canvas, hub *events.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		canvas: cv,
		hub:    hub,
		// Params and headers end up as store keys and in detached generations,
		// so they must not alias fasthttp's pooled buffers.
		app:    fiber.New(fiber.Config{AppName: "nodegen", Immutable: true}),
		logger: logger,
	}
	s.routes()
	return s
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves until ctx is cancelled or a listener fails, then shuts both
// listeners down.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 2)

	var feed *http.Server
	if s.hub != nil && s.cfg.EventsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/events", s.hub)
		feed = &http.Server{Addr: s.cfg.EventsAddr, Handler: mux}
		go func() {
			s.logger.Info("Event feed listening", "addr", s.cfg.EventsAddr)
			if err := feed.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
		}()
	}

	go func() {
		s.logger.Info("API listening", "addr", s.cfg.ListenAddr)
		if err := s.app.Listen(s.cfg.ListenAddr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
			errc <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errc:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if feed != nil {
		s.hub.Close()
		if err := feed.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("Event feed shutdown", "error", err)
		}
	}
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		s.logger.Warn("API shutdown", "error", err)
	}
	return runErr
}
