package postgres

import (
	"context"
	"fmt"

	"github.com/richinsley/nodegen/graphapi"
)

// CreateGraph saves a full graph in one transaction, replacing any graph
// stored under the same ID. Returns the stored copy with all IDs filled in.
func (s *Store) CreateGraph(ctx context.Context, g *graphapi.Graph) (*graphapi.Graph, error) {
	c, err := graphapi.PrepareGraph(g)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("nodegen: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// replace semantics, nodes and edges cascade
	if _, err := tx.Exec(ctx, `DELETE FROM nodegen_graphs WHERE id = $1`, c.ID); err != nil {
		return nil, fmt.Errorf("nodegen: delete graph: %w", err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO nodegen_graphs (id) VALUES ($1)`, c.ID); err != nil {
		return nil, fmt.Errorf("nodegen: insert graph: %w", err)
	}
	for _, n := range c.Nodes {
		if err := insertNode(ctx, tx, c.ID, n); err != nil {
			return nil, err
		}
	}
	for _, e := range c.Edges {
		if err := insertEdge(ctx, tx, c.ID, e); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("nodegen: commit: %w", err)
	}
	return c, nil
}

// GetGraph retrieves a full graph with nodes and edges in insertion order.
// Returns graphapi.ErrGraphNotFound if no such graph was created.
func (s *Store) GetGraph(ctx context.Context, graphID string) (*graphapi.Graph, error) {
	return loadGraph(ctx, s.db, graphID, false)
}

// DeleteGraph removes a graph with all its nodes and edges.
// No error if the graph doesn't exist.
func (s *Store) DeleteGraph(ctx context.Context, graphID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM nodegen_graphs WHERE id = $1`, graphID); err != nil {
		return fmt.Errorf("nodegen: delete graph: %w", err)
	}
	return nil
}

// loadGraph reads a graph through q. With lock set the graph row is locked
// for the rest of the transaction so concurrent edits to it serialize.
func loadGraph(ctx context.Context, q querier, graphID string, lock bool) (*graphapi.Graph, error) {
	sql := `SELECT id FROM nodegen_graphs WHERE id = $1`
	if lock {
		sql += ` FOR UPDATE`
	}
	var id string
	if err := q.QueryRow(ctx, sql, graphID).Scan(&id); err != nil {
		if isNoRows(err) {
			return nil, graphapi.ErrGraphNotFound
		}
		return nil, fmt.Errorf("nodegen: get graph: %w", err)
	}

	g := graphapi.NewGraph(id)

	rows, err := q.Query(ctx,
		`SELECT id, type, position, data FROM nodegen_nodes WHERE graph_id = $1 ORDER BY seq`, graphID)
	if err != nil {
		return nil, fmt.Errorf("nodegen: query nodes: %w", err)
	}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		g.Nodes = append(g.Nodes, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("nodegen: rows nodes: %w", err)
	}

	rows, err = q.Query(ctx,
		`SELECT id, source, target, source_handle, target_handle FROM nodegen_edges WHERE graph_id = $1 ORDER BY seq`, graphID)
	if err != nil {
		return nil, fmt.Errorf("nodegen: query edges: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		e := &graphapi.Edge{}
		if err := rows.Scan(&e.ID, &e.Source, &e.Target, &e.SourceHandle, &e.TargetHandle); err != nil {
			return nil, fmt.Errorf("nodegen: scan edge: %w", err)
		}
		g.Edges = append(g.Edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("nodegen: rows edges: %w", err)
	}

	g.Reindex()
	return g, nil
}
