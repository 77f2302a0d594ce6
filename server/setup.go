package server

import (
	"context"
	"log/slog"

	"github.com/richinsley/nodegen/canvas"
	"github.com/richinsley/nodegen/events"
	"github.com/richinsley/nodegen/graphapi"
	"github.com/richinsley/nodegen/graphapi/postgres"
)

// NewFromConfig wires a store, a generation client, an event hub and a canvas
// into a ready server. Graphs are kept in PostgreSQL when DatabaseURL is set
// and in memory otherwise. The returned cleanup releases the database pool.
func NewFromConfig(ctx context.Context, cfg Config, logger *slog.Logger) (*Server, func(), error) {
	var store graphapi.Store = graphapi.NewMemoryStore()
	cleanup := func() {}

	if cfg.DatabaseURL != "" {
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		pg := postgres.New(pool)
		if err := pg.CreateSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		store = pg
		cleanup = pool.Close
		logger.Info("Using PostgreSQL graph store")
	} else {
		logger.Info("Using in-memory graph store")
	}

	hub := events.NewHub()
	hub.SetLogger(logger)

	cv := canvas.NewCanvas(store, cfg.NewClient(logger), events.CanvasCallbacks(hub))
	cv.SetLogger(logger)

	return New(cfg, cv, hub, logger), cleanup, nil
}
