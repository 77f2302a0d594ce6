package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS nodegen_graphs (
    id         TEXT PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS nodegen_nodes (
    graph_id TEXT NOT NULL REFERENCES nodegen_graphs(id) ON DELETE CASCADE,
    id       TEXT NOT NULL,
    seq      BIGSERIAL,
    type     TEXT NOT NULL,
    position JSONB NOT NULL DEFAULT '{}',
    data     JSONB NOT NULL DEFAULT '{}',
    PRIMARY KEY (graph_id, id)
);

CREATE TABLE IF NOT EXISTS nodegen_edges (
    graph_id      TEXT NOT NULL REFERENCES nodegen_graphs(id) ON DELETE CASCADE,
    id            TEXT NOT NULL,
    seq           BIGSERIAL,
    source        TEXT NOT NULL,
    target        TEXT NOT NULL,
    source_handle TEXT NOT NULL DEFAULT '',
    target_handle TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (graph_id, id),
    FOREIGN KEY (graph_id, source) REFERENCES nodegen_nodes(graph_id, id) ON DELETE CASCADE,
    FOREIGN KEY (graph_id, target) REFERENCES nodegen_nodes(graph_id, id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_nodegen_edges_target ON nodegen_edges(graph_id, target, target_handle);
`

// CreateSchema creates the graph, node and edge tables if they don't exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops all tables created by CreateSchema.
func (s *Store) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS nodegen_edges, nodegen_nodes, nodegen_graphs CASCADE;`)
	return err
}
