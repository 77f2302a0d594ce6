package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/richinsley/nodegen/graphapi"
)

// AddNode inserts a single node into a graph. A node without ID gets one
// derived from its type. Returns the node ID.
func (s *Store) AddNode(ctx context.Context, graphID string, node *graphapi.Node) (string, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("nodegen: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	g, err := loadGraph(ctx, tx, graphID, true)
	if err != nil {
		return "", err
	}
	n := node.Clone()
	id, err := g.AddNode(n)
	if err != nil {
		return "", err
	}
	if err := insertNode(ctx, tx, graphID, n); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("nodegen: commit: %w", err)
	}
	node.ID = id
	return id, nil
}

// GetNode fetches a single node.
func (s *Store) GetNode(ctx context.Context, graphID, nodeID string) (*graphapi.Node, error) {
	return getNode(ctx, s.db, graphID, nodeID, false)
}

// UpdateNodeData runs fn against the node while its row is locked and writes
// back the node's data and position when fn returns nil.
func (s *Store) UpdateNodeData(ctx context.Context, graphID, nodeID string, fn func(*graphapi.Node) error) (*graphapi.Node, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("nodegen: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	n, err := getNode(ctx, tx, graphID, nodeID, true)
	if err != nil {
		return nil, err
	}
	if err := fn(n); err != nil {
		return nil, err
	}
	pos, data, err := encodeNode(n)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE nodegen_nodes SET position = $1, data = $2 WHERE graph_id = $3 AND id = $4`,
		pos, data, graphID, nodeID,
	); err != nil {
		return nil, fmt.Errorf("nodegen: update node: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("nodegen: commit: %w", err)
	}
	return n, nil
}

// DeleteNode deletes a node. Edges touching it are cascade-deleted by the DB.
// No error if the node doesn't exist.
func (s *Store) DeleteNode(ctx context.Context, graphID, nodeID string) error {
	if err := graphExists(ctx, s.db, graphID); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx,
		`DELETE FROM nodegen_nodes WHERE graph_id = $1 AND id = $2`, graphID, nodeID); err != nil {
		return fmt.Errorf("nodegen: delete node: %w", err)
	}
	return nil
}

func getNode(ctx context.Context, q querier, graphID, nodeID string, lock bool) (*graphapi.Node, error) {
	sql := `SELECT id, type, position, data FROM nodegen_nodes WHERE graph_id = $1 AND id = $2`
	if lock {
		sql += ` FOR UPDATE`
	}
	n, err := scanNode(q.QueryRow(ctx, sql, graphID, nodeID))
	if err != nil {
		if isNoRows(err) {
			if gerr := graphExists(ctx, q, graphID); gerr != nil {
				return nil, gerr
			}
			return nil, graphapi.ErrNodeNotFound
		}
		return nil, err
	}
	return n, nil
}

func graphExists(ctx context.Context, q querier, graphID string) error {
	var one int
	err := q.QueryRow(ctx, `SELECT 1 FROM nodegen_graphs WHERE id = $1`, graphID).Scan(&one)
	if isNoRows(err) {
		return graphapi.ErrGraphNotFound
	}
	if err != nil {
		return fmt.Errorf("nodegen: get graph: %w", err)
	}
	return nil
}

func insertNode(ctx context.Context, q querier, graphID string, n *graphapi.Node) error {
	pos, data, err := encodeNode(n)
	if err != nil {
		return err
	}
	if _, err := q.Exec(ctx,
		`INSERT INTO nodegen_nodes (graph_id, id, type, position, data) VALUES ($1, $2, $3, $4, $5)`,
		graphID, n.ID, string(n.Type), pos, data,
	); err != nil {
		return fmt.Errorf("nodegen: insert node %s: %w", n.ID, err)
	}
	return nil
}

func encodeNode(n *graphapi.Node) ([]byte, []byte, error) {
	pos, err := json.Marshal(n.Position)
	if err != nil {
		return nil, nil, fmt.Errorf("nodegen: encode position: %w", err)
	}
	data, err := json.Marshal(n.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("nodegen: encode node data: %w", err)
	}
	return pos, data, nil
}

// scanNode decodes one node row. pgx.ErrNoRows is returned unwrapped.
func scanNode(row pgx.Row) (*graphapi.Node, error) {
	var (
		n         graphapi.Node
		typ       string
		pos, data []byte
	)
	if err := row.Scan(&n.ID, &typ, &pos, &data); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("nodegen: scan node: %w", err)
	}
	n.Type = graphapi.NodeType(typ)
	if err := json.Unmarshal(pos, &n.Position); err != nil {
		return nil, fmt.Errorf("nodegen: decode position of %s: %w", n.ID, err)
	}
	if err := json.Unmarshal(data, &n.Data); err != nil {
		return nil, fmt.Errorf("nodegen: decode data of %s: %w", n.ID, err)
	}
	return &n, nil
}
