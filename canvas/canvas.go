package canvas

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/richinsley/nodegen/client"
	"github.com/richinsley/nodegen/graphapi"
)

var ErrGenerationInProgress = errors.New("generation already in progress for this node")

// Generator produces images from a prompt and input images. *client.Client
// satisfies it.
type Generator interface {
	Generate(ctx context.Context, req client.Request) (*client.Result, error)
}

type StoppedReason string

const (
	StoppedReasonSucceeded StoppedReason = "succeeded"
	StoppedReasonFailed    StoppedReason = "failed"
)

// Callbacks lets an observer follow graph changes and generations. Every
// field is optional.
type Callbacks struct {
	NodeChanged       func(*Canvas, string, *graphapi.Node)
	NodeRemoved       func(*Canvas, string, string)
	EdgesChanged      func(*Canvas, string)
	GenerationStarted func(*Canvas, string, string)
	GenerationStopped func(*Canvas, string, string, StoppedReason, error)
	OutputsUpdated    func(*Canvas, string, []string, []string)
}

// Canvas is the coordinator between the graph store and the generator. Node
// edits and generation triggers all go through it so observers see every
// change in one place.
type Canvas struct {
	store     graphapi.Store
	generator Generator
	callbacks *Callbacks
	logger    *slog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewCanvas creates a Canvas. callbacks may be nil.
func NewCanvas(store graphapi.Store, generator Generator, callbacks *Callbacks) *Canvas {
	if callbacks == nil {
		callbacks = &Callbacks{}
	}
	return &Canvas{
		store:     store,
		generator: generator,
		callbacks: callbacks,
		logger:    slog.Default(),
		inflight:  make(map[string]struct{}),
	}
}

// SetLogger replaces the default logger
func (c *Canvas) SetLogger(l *slog.Logger) {
	c.logger = l
}

func (c *Canvas) Store() graphapi.Store {
	return c.store
}

func (c *Canvas) CreateGraph(ctx context.Context, g *graphapi.Graph) (*graphapi.Graph, error) {
	return c.store.CreateGraph(ctx, g)
}

func (c *Canvas) GetGraph(ctx context.Context, graphID string) (*graphapi.Graph, error) {
	return c.store.GetGraph(ctx, graphID)
}

func (c *Canvas) DeleteGraph(ctx context.Context, graphID string) error {
	return c.store.DeleteGraph(ctx, graphID)
}

// AddNode adds a node and returns the stored copy
func (c *Canvas) AddNode(ctx context.Context, graphID string, n *graphapi.Node) (*graphapi.Node, error) {
	id, err := c.store.AddNode(ctx, graphID, n)
	if err != nil {
		return nil, err
	}
	stored, err := c.store.GetNode(ctx, graphID, id)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Added node", "graph_id", graphID, "node_id", id, "type", n.Type)
	c.nodeChanged(graphID, stored)
	return stored, nil
}

func (c *Canvas) DeleteNode(ctx context.Context, graphID, nodeID string) error {
	if err := c.store.DeleteNode(ctx, graphID, nodeID); err != nil {
		return err
	}
	if c.callbacks.NodeRemoved != nil {
		c.callbacks.NodeRemoved(c, graphID, nodeID)
	}
	return nil
}

func (c *Canvas) Connect(ctx context.Context, graphID string, e *graphapi.Edge) (string, error) {
	id, err := c.store.Connect(ctx, graphID, e)
	if err != nil {
		return "", err
	}
	c.edgesChanged(graphID)
	return id, nil
}

func (c *Canvas) Disconnect(ctx context.Context, graphID, edgeID string) error {
	if err := c.store.Disconnect(ctx, graphID, edgeID); err != nil {
		return err
	}
	c.edgesChanged(graphID)
	return nil
}

// SetImage stores an image reference on an image input node. The reference
// must be an http URL or an image data reference; an empty string clears the
// node.
func (c *Canvas) SetImage(ctx context.Context, graphID, nodeID, ref string) (*graphapi.Node, error) {
	if ref != "" {
		var err error
		if ref, err = graphapi.NormalizeImageRef(ref); err != nil {
			return nil, err
		}
	}
	n, err := c.store.UpdateNodeData(ctx, graphID, nodeID, func(n *graphapi.Node) error {
		if !n.AcceptsImage() {
			return graphapi.ErrWrongNodeType
		}
		n.Data.Image = ref
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.nodeChanged(graphID, n)
	return n, nil
}

// SetPrompt stores prompt text on a prompt node as typed
func (c *Canvas) SetPrompt(ctx context.Context, graphID, nodeID, text string) (*graphapi.Node, error) {
	n, err := c.store.UpdateNodeData(ctx, graphID, nodeID, func(n *graphapi.Node) error {
		if !n.AcceptsPrompt() {
			return graphapi.ErrWrongNodeType
		}
		n.Data.Prompt = text
		return nil
	})
	if err != nil {
		return nil, err
	}
	c.nodeChanged(graphID, n)
	return n, nil
}

// Generate runs one generation for a generate node.
//
// The API key and the node's wired inputs are checked first; those failures
// are returned as is and leave the node untouched. Once past them the node is
// marked generating, the generator is called, and the result is written into
// every connected output node. A failure is recorded on the node's error
// field. Either way the node ends ready for another attempt.
//
// A second call for a node that is still generating gets
// ErrGenerationInProgress. The call is detached from ctx cancellation: once
// sent, a request runs to completion.
func (c *Canvas) Generate(ctx context.Context, graphID, nodeID, apiKey string) (*client.Result, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, client.ErrMissingAPIKey
	}
	if !c.reserve(graphID, nodeID) {
		return nil, ErrGenerationInProgress
	}
	defer c.release(graphID, nodeID)

	g, err := c.store.GetGraph(ctx, graphID)
	if err != nil {
		return nil, err
	}
	inputs, err := graphapi.ResolveInputs(g, nodeID)
	if err != nil {
		c.logger.Warn("Generation not started", "graph_id", graphID, "node_id", nodeID, "reason", err)
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	if err := c.transition(ctx, graphID, nodeID, StateIdle, StateGenerating, ""); err != nil {
		return nil, err
	}
	state := StateGenerating
	defer func() {
		if err := c.transition(ctx, graphID, nodeID, state, StateIdle, ""); err != nil {
			c.logger.Error("Clearing generating flag", "graph_id", graphID, "node_id", nodeID, "error", err)
		}
	}()
	if c.callbacks.GenerationStarted != nil {
		c.callbacks.GenerationStarted(c, graphID, nodeID)
	}

	c.logger.Info("Generating", "graph_id", graphID, "node_id", nodeID, "image_count", len(inputs.Images), "prompt", inputs.Prompt)
	result, genErr := c.generator.Generate(ctx, client.Request{
		Prompt: inputs.Prompt,
		Images: inputs.Images,
		APIKey: apiKey,
	})
	if genErr != nil {
		c.logger.Error("Generation failed", "graph_id", graphID, "node_id", nodeID, "error", genErr)
		state = StateFailed
		if err := c.transition(ctx, graphID, nodeID, StateGenerating, StateFailed, genErr.Error()); err != nil {
			c.logger.Error("Recording generation error", "graph_id", graphID, "node_id", nodeID, "error", err)
		}
		if c.callbacks.GenerationStopped != nil {
			c.callbacks.GenerationStopped(c, graphID, nodeID, StoppedReasonFailed, genErr)
		}
		return nil, genErr
	}

	state = StateSucceeded
	if err := c.transition(ctx, graphID, nodeID, StateGenerating, StateSucceeded, ""); err != nil {
		c.logger.Error("Clearing generation error", "graph_id", graphID, "node_id", nodeID, "error", err)
	}
	routed := c.routeResults(ctx, graphID, nodeID, result.Images)
	c.logger.Info("Generated image(s)", "graph_id", graphID, "node_id", nodeID, "count", len(result.Images), "outputs", len(routed))
	if c.callbacks.GenerationStopped != nil {
		c.callbacks.GenerationStopped(c, graphID, nodeID, StoppedReasonSucceeded, nil)
	}
	return result, nil
}

// IsGenerating reports whether a generation for the node is in flight
func (c *Canvas) IsGenerating(graphID, nodeID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[graphID+"/"+nodeID]
	return ok
}

// routeResults writes the images into the output nodes connected to the
// generate node as the graph stands now. Output nodes removed while the
// request was in flight are skipped.
func (c *Canvas) routeResults(ctx context.Context, graphID, nodeID string, images []string) []string {
	g, err := c.store.GetGraph(ctx, graphID)
	if err != nil {
		c.logger.Error("Routing results", "graph_id", graphID, "error", err)
		return nil
	}
	routed := make([]string, 0)
	for _, outID := range graphapi.OutputTargets(g, nodeID) {
		n, err := c.store.UpdateNodeData(ctx, graphID, outID, func(n *graphapi.Node) error {
			graphapi.ApplyResults(n, images)
			return nil
		})
		if err != nil {
			c.logger.Warn("Output node not updated", "graph_id", graphID, "node_id", outID, "error", err)
			continue
		}
		routed = append(routed, outID)
		c.nodeChanged(graphID, n)
	}
	if c.callbacks.OutputsUpdated != nil {
		c.callbacks.OutputsUpdated(c, graphID, routed, images)
	}
	return routed
}

func (c *Canvas) transition(ctx context.Context, graphID, nodeID string, from, to GenerationState, errMsg string) error {
	n, err := c.store.UpdateNodeData(ctx, graphID, nodeID, func(n *graphapi.Node) error {
		return applyTransition(n, from, to, errMsg)
	})
	if err != nil {
		return err
	}
	c.nodeChanged(graphID, n)
	return nil
}

func (c *Canvas) reserve(graphID, nodeID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := graphID + "/" + nodeID
	if _, busy := c.inflight[key]; busy {
		return false
	}
	c.inflight[key] = struct{}{}
	return true
}

func (c *Canvas) release(graphID, nodeID string) {
	c.mu.Lock()
	delete(c.inflight, graphID+"/"+nodeID)
	c.mu.Unlock()
}

func (c *Canvas) nodeChanged(graphID string, n *graphapi.Node) {
	if c.callbacks.NodeChanged != nil {
		c.callbacks.NodeChanged(c, graphID, n)
	}
}

func (c *Canvas) edgesChanged(graphID string) {
	if c.callbacks.EdgesChanged != nil {
		c.callbacks.EdgesChanged(c, graphID)
	}
}
