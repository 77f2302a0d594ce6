package graphapi

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Graph is the node and edge collection of one canvas. Nodes and Edges keep
// insertion order, which is also the order every traversal walks them in.
type Graph struct {
	ID        string           `json:"id"`
	Nodes     []*Node          `json:"nodes"`
	Edges     []*Edge          `json:"edges"`
	NodesByID map[string]*Node `json:"-"`
	EdgesByID map[string]*Edge `json:"-"`
}

// NewGraph creates an empty graph
func NewGraph(id string) *Graph {
	return &Graph{
		ID:        id,
		Nodes:     make([]*Node, 0),
		Edges:     make([]*Edge, 0),
		NodesByID: make(map[string]*Node),
		EdgesByID: make(map[string]*Edge),
	}
}

func (t *Graph) UnmarshalJSON(b []byte) error {
	// Create an alias type to avoid recursive call to UnmarshalJSON
	type Alias Graph

	alias := &Alias{}
	if err := json.Unmarshal(b, alias); err != nil {
		return err
	}

	t.ID = alias.ID
	t.Nodes = alias.Nodes
	t.Edges = alias.Edges
	if t.Nodes == nil {
		t.Nodes = make([]*Node, 0)
	}
	if t.Edges == nil {
		t.Edges = make([]*Edge, 0)
	}
	t.Reindex()
	return nil
}

// Reindex rebuilds the by-ID lookups after Nodes or Edges were replaced.
func (t *Graph) Reindex() {
	t.NodesByID = make(map[string]*Node, len(t.Nodes))
	t.EdgesByID = make(map[string]*Edge, len(t.Edges))
	for _, n := range t.Nodes {
		t.NodesByID[n.ID] = n
	}
	for _, e := range t.Edges {
		t.EdgesByID[e.ID] = e
	}
}

// Clone returns a deep copy that shares nothing with the receiver.
func (t *Graph) Clone() *Graph {
	c := NewGraph(t.ID)
	for _, n := range t.Nodes {
		c.Nodes = append(c.Nodes, n.Clone())
	}
	for _, e := range t.Edges {
		ec := *e
		c.Edges = append(c.Edges, &ec)
	}
	c.Reindex()
	return c
}

func (t *Graph) GetNodeById(id string) *Node {
	val, ok := t.NodesByID[id]
	if ok {
		return val
	}
	return nil
}

func (t *Graph) GetEdgeById(id string) *Edge {
	val, ok := t.EdgesByID[id]
	if ok {
		return val
	}
	return nil
}

// GetNodesWithType retrieves all nodes in the graph that match a specified type.
func (t *Graph) GetNodesWithType(nodeType NodeType) []*Node {
	retv := make([]*Node, 0)
	for _, n := range t.Nodes {
		if n.Type == nodeType {
			retv = append(retv, n)
		}
	}
	return retv
}

// IncomingEdges returns, in edge order, the edges that end at nodeID on the
// given target handle.
func (t *Graph) IncomingEdges(nodeID string, handle string) []*Edge {
	retv := make([]*Edge, 0)
	for _, e := range t.Edges {
		if e.Target == nodeID && e.TargetHandle == handle {
			retv = append(retv, e)
		}
	}
	return retv
}

// OutgoingEdges returns, in edge order, every edge that starts at nodeID.
func (t *Graph) OutgoingEdges(nodeID string) []*Edge {
	retv := make([]*Edge, 0)
	for _, e := range t.Edges {
		if e.Source == nodeID {
			retv = append(retv, e)
		}
	}
	return retv
}

// AddNode appends a node, assigning an ID when it has none.
func (t *Graph) AddNode(n *Node) (string, error) {
	if !n.Type.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownNodeType, n.Type)
	}
	if n.ID == "" {
		n.ID = NewNodeID(n.Type)
	}
	if _, exists := t.NodesByID[n.ID]; exists {
		return "", fmt.Errorf("%w: %q", ErrDuplicateNode, n.ID)
	}
	if n.Data.Label == "" {
		n.Data.Label = n.Type.DefaultLabel()
	}
	t.Nodes = append(t.Nodes, n)
	t.NodesByID[n.ID] = n
	return n.ID, nil
}

// RemoveNode deletes a node together with every edge touching it.
func (t *Graph) RemoveNode(id string) error {
	if t.GetNodeById(id) == nil {
		return ErrNodeNotFound
	}
	nodes := t.Nodes[:0]
	for _, n := range t.Nodes {
		if n.ID != id {
			nodes = append(nodes, n)
		}
	}
	t.Nodes = nodes

	edges := t.Edges[:0]
	for _, e := range t.Edges {
		if e.Source != id && e.Target != id {
			edges = append(edges, e)
		}
	}
	t.Edges = edges
	t.Reindex()
	return nil
}

// Connect adds an edge after checking both endpoints exist and the target
// handle is one the target node exposes. Connecting the same endpoints and
// handles twice is a no-op that returns the existing edge ID.
func (t *Graph) Connect(e *Edge) (string, error) {
	if err := t.checkEdge(e); err != nil {
		return "", err
	}
	for _, existing := range t.Edges {
		if existing.sameConnection(e) {
			return existing.ID, nil
		}
	}
	if e.ID == "" {
		e.ID = NewEdgeID(e.Source, e.Target)
	}
	if _, exists := t.EdgesByID[e.ID]; exists {
		return "", fmt.Errorf("%w: duplicate edge id %q", ErrInvalidConnection, e.ID)
	}
	t.Edges = append(t.Edges, e)
	t.EdgesByID[e.ID] = e
	return e.ID, nil
}

// Disconnect removes an edge. Removing an unknown edge is not an error.
func (t *Graph) Disconnect(edgeID string) {
	if t.GetEdgeById(edgeID) == nil {
		return
	}
	edges := t.Edges[:0]
	for _, e := range t.Edges {
		if e.ID != edgeID {
			edges = append(edges, e)
		}
	}
	t.Edges = edges
	delete(t.EdgesByID, edgeID)
}

func (t *Graph) checkEdge(e *Edge) error {
	src := t.GetNodeById(e.Source)
	if src == nil {
		return fmt.Errorf("%w: unknown source %q", ErrInvalidConnection, e.Source)
	}
	dst := t.GetNodeById(e.Target)
	if dst == nil {
		return fmt.Errorf("%w: unknown target %q", ErrInvalidConnection, e.Target)
	}
	if e.Source == e.Target {
		return fmt.Errorf("%w: node %q connected to itself", ErrInvalidConnection, e.Source)
	}
	if !validEndpoints(src, dst, e.TargetHandle) {
		return fmt.Errorf("%w: %s -> %s(%s) on handle %q", ErrInvalidConnection, src.Type, dst.Type, dst.ID, e.TargetHandle)
	}
	return nil
}

// Validate checks the structural rules a decoded graph must satisfy: known
// node types, unique node and edge IDs, and edges whose endpoints exist.
// Handles are not checked here. Documents saved by the editor may hold edges
// Connect would refuse, and traversal ignores them.
func (t *Graph) Validate() error {
	seen := make(map[string]struct{}, len(t.Nodes))
	for _, n := range t.Nodes {
		if !n.Type.Valid() {
			return fmt.Errorf("%w: %q on node %q", ErrUnknownNodeType, n.Type, n.ID)
		}
		if _, ok := seen[n.ID]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateNode, n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	edgeIDs := make(map[string]struct{}, len(t.Edges))
	for _, e := range t.Edges {
		if _, ok := edgeIDs[e.ID]; ok {
			return fmt.Errorf("%w: duplicate edge id %q", ErrInvalidConnection, e.ID)
		}
		edgeIDs[e.ID] = struct{}{}
		if t.GetNodeById(e.Source) == nil || t.GetNodeById(e.Target) == nil {
			return fmt.Errorf("%w: edge %q has a missing endpoint", ErrInvalidConnection, e.ID)
		}
	}
	return nil
}

func NewGraphFromJsonReader(r io.Reader) (*Graph, error) {
	fileContent, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	if err := ValidateDocument(fileContent); err != nil {
		return nil, err
	}

	graph := &Graph{}
	if err := json.Unmarshal(fileContent, graph); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	for _, e := range graph.Edges {
		if e.ID == "" {
			e.ID = NewEdgeID(e.Source, e.Target)
		}
	}
	graph.Reindex()
	if err := graph.Validate(); err != nil {
		return nil, err
	}
	return graph, nil
}

func NewGraphFromJsonFile(path string) (*Graph, error) {
	freader, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer freader.Close()

	return NewGraphFromJsonReader(freader)
}

func NewGraphFromJsonString(data string) (*Graph, error) {
	return NewGraphFromJsonReader(strings.NewReader(data))
}

func (t *Graph) GraphToJSON() (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (t *Graph) SaveGraphToFile(path string) error {
	data, err := t.GraphToJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(data), 0644)
}
