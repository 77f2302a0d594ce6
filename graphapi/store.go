package graphapi

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Store defines the contract for holding and mutating graphs. Every method
// returns copies; callers never share memory with the store.
type Store interface {
	// Graphs
	CreateGraph(ctx context.Context, g *Graph) (*Graph, error)
	GetGraph(ctx context.Context, graphID string) (*Graph, error)
	DeleteGraph(ctx context.Context, graphID string) error

	// Nodes
	AddNode(ctx context.Context, graphID string, node *Node) (string, error)
	GetNode(ctx context.Context, graphID, nodeID string) (*Node, error)
	UpdateNodeData(ctx context.Context, graphID, nodeID string, fn func(*Node) error) (*Node, error)
	DeleteNode(ctx context.Context, graphID, nodeID string) error

	// Edges
	Connect(ctx context.Context, graphID string, edge *Edge) (string, error)
	Disconnect(ctx context.Context, graphID, edgeID string) error
}

// MemoryStore implements Store in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	graphs map[string]*Graph
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{graphs: make(map[string]*Graph)}
}

// CreateGraph stores a full graph, replacing any graph with the same ID.
// A graph without ID gets a UUID. Returns the stored copy.
func (s *MemoryStore) CreateGraph(ctx context.Context, g *Graph) (*Graph, error) {
	c, err := PrepareGraph(g)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.graphs[c.ID] = c
	s.mu.Unlock()
	return c.Clone(), nil
}

// PrepareGraph returns a validated copy of g ready to be stored. Missing
// graph, node and edge IDs are assigned.
func PrepareGraph(g *Graph) (*Graph, error) {
	c := g.Clone()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	for _, n := range c.Nodes {
		if n.ID == "" {
			n.ID = NewNodeID(n.Type)
		}
		if n.Data.Label == "" {
			n.Data.Label = n.Type.DefaultLabel()
		}
	}
	for _, e := range c.Edges {
		if e.ID == "" {
			e.ID = NewEdgeID(e.Source, e.Target)
		}
	}
	c.Reindex()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *MemoryStore) GetGraph(ctx context.Context, graphID string) (*Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.graphs[graphID]
	if !ok {
		return nil, ErrGraphNotFound
	}
	return g.Clone(), nil
}

func (s *MemoryStore) DeleteGraph(ctx context.Context, graphID string) error {
	s.mu.Lock()
	delete(s.graphs, graphID)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) AddNode(ctx context.Context, graphID string, node *Node) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.graphs[graphID]
	if !ok {
		return "", ErrGraphNotFound
	}
	n := node.Clone()
	id, err := g.AddNode(n)
	if err != nil {
		return "", err
	}
	node.ID = id
	return id, nil
}

func (s *MemoryStore) GetNode(ctx context.Context, graphID, nodeID string) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.graphs[graphID]
	if !ok {
		return nil, ErrGraphNotFound
	}
	n := g.GetNodeById(nodeID)
	if n == nil {
		return nil, ErrNodeNotFound
	}
	return n.Clone(), nil
}

// UpdateNodeData runs fn against a copy of the node under the store lock and
// commits the copy when fn returns nil. Only Data and Position are kept; the
// node's identity and type cannot be changed this way.
func (s *MemoryStore) UpdateNodeData(ctx context.Context, graphID, nodeID string, fn func(*Node) error) (*Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.graphs[graphID]
	if !ok {
		return nil, ErrGraphNotFound
	}
	n := g.GetNodeById(nodeID)
	if n == nil {
		return nil, ErrNodeNotFound
	}
	c := n.Clone()
	if err := fn(c); err != nil {
		return nil, err
	}
	n.Data = c.Data.clone()
	n.Position = c.Position
	return n.Clone(), nil
}

func (s *MemoryStore) DeleteNode(ctx context.Context, graphID, nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.graphs[graphID]
	if !ok {
		return ErrGraphNotFound
	}
	if err := g.RemoveNode(nodeID); err != nil && err != ErrNodeNotFound {
		return err
	}
	return nil
}

func (s *MemoryStore) Connect(ctx context.Context, graphID string, edge *Edge) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.graphs[graphID]
	if !ok {
		return "", ErrGraphNotFound
	}
	e := *edge
	id, err := g.Connect(&e)
	if err != nil {
		return "", err
	}
	edge.ID = id
	return id, nil
}

func (s *MemoryStore) Disconnect(ctx context.Context, graphID, edgeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.graphs[graphID]
	if !ok {
		return ErrGraphNotFound
	}
	g.Disconnect(edgeID)
	return nil
}
