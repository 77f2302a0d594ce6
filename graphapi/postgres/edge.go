package postgres

import (
	"context"
	"fmt"

	"github.com/richinsley/nodegen/graphapi"
)

// Connect validates the edge against the stored graph and inserts it.
// Connecting the same endpoints and handles twice returns the existing edge
// ID without inserting.
func (s *Store) Connect(ctx context.Context, graphID string, edge *graphapi.Edge) (string, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("nodegen: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	g, err := loadGraph(ctx, tx, graphID, true)
	if err != nil {
		return "", err
	}
	before := len(g.Edges)
	e := *edge
	id, err := g.Connect(&e)
	if err != nil {
		return "", err
	}
	if len(g.Edges) > before {
		if err := insertEdge(ctx, tx, graphID, &e); err != nil {
			return "", err
		}
		if err := tx.Commit(ctx); err != nil {
			return "", fmt.Errorf("nodegen: commit: %w", err)
		}
	}
	edge.ID = id
	return id, nil
}

// Disconnect removes an edge. No error if the edge doesn't exist.
func (s *Store) Disconnect(ctx context.Context, graphID, edgeID string) error {
	if err := graphExists(ctx, s.db, graphID); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx,
		`DELETE FROM nodegen_edges WHERE graph_id = $1 AND id = $2`, graphID, edgeID); err != nil {
		return fmt.Errorf("nodegen: delete edge: %w", err)
	}
	return nil
}

func insertEdge(ctx context.Context, q querier, graphID string, e *graphapi.Edge) error {
	if _, err := q.Exec(ctx,
		`INSERT INTO nodegen_edges (graph_id, id, source, target, source_handle, target_handle) VALUES ($1, $2, $3, $4, $5, $6)`,
		graphID, e.ID, e.Source, e.Target, e.SourceHandle, e.TargetHandle,
	); err != nil {
		return fmt.Errorf("nodegen: insert edge %s: %w", e.ID, err)
	}
	return nil
}
