package canvas

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/nodegen/client"
	"github.com/richinsley/nodegen/graphapi"
)

const (
	imageA = "https://example.com/a.png"
	imageB = "https://example.com/b.png"
	result = "data:image/png;base64,AAAA"
)

// MockGenerator records requests and answers with a canned result or error.
type MockGenerator struct {
	mu       sync.Mutex
	Requests []client.Request
	CtxErrs  []error
	Err      error
	Block    chan struct{}
}

func (m *MockGenerator) Generate(ctx context.Context, req client.Request) (*client.Result, error) {
	if m.Block != nil {
		<-m.Block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, req)
	m.CtxErrs = append(m.CtxErrs, ctx.Err())
	if m.Err != nil {
		return nil, m.Err
	}
	return &client.Result{Images: []string{result}}, nil
}

func (m *MockGenerator) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// twoImageGraph wires two image inputs and one prompt into generate-1, which
// feeds output-1. output-2 exists but is not connected.
func twoImageGraph() *graphapi.Graph {
	g := graphapi.NewGraph("g1")
	g.Nodes = []*graphapi.Node{
		{ID: "img-a", Type: graphapi.ImageInputNodeType, Data: graphapi.NodeData{Image: imageA}},
		{ID: "img-b", Type: graphapi.ImageInputNodeType, Data: graphapi.NodeData{Image: imageB}},
		{ID: "prompt-1", Type: graphapi.PromptNodeType, Data: graphapi.NodeData{Prompt: "make it blue"}},
		{ID: "generate-1", Type: graphapi.GenerateNodeType},
		{ID: "output-1", Type: graphapi.OutputNodeType},
		{ID: "output-2", Type: graphapi.OutputNodeType, Data: graphapi.NodeData{Images: []string{"old"}}},
	}
	g.Edges = []*graphapi.Edge{
		{ID: "e1", Source: "img-a", Target: "generate-1", TargetHandle: graphapi.ImagesHandle},
		{ID: "e2", Source: "img-b", Target: "generate-1", TargetHandle: graphapi.ImagesHandle},
		{ID: "e3", Source: "prompt-1", Target: "generate-1", TargetHandle: graphapi.PromptHandle},
		{ID: "e4", Source: "generate-1", Target: "output-1"},
	}
	g.Reindex()
	return g
}

func newTestCanvas(t *testing.T, gen Generator, g *graphapi.Graph, cb *Callbacks) *Canvas {
	t.Helper()
	store := graphapi.NewMemoryStore()
	_, err := store.CreateGraph(context.Background(), g)
	require.NoError(t, err)
	return NewCanvas(store, gen, cb)
}

func node(t *testing.T, c *Canvas, id string) *graphapi.Node {
	t.Helper()
	n, err := c.Store().GetNode(context.Background(), "g1", id)
	require.NoError(t, err)
	return n
}

func TestGenerateSuccessRoutesToConnectedOutputs(t *testing.T) {
	gen := &MockGenerator{}
	c := newTestCanvas(t, gen, twoImageGraph(), nil)

	res, err := c.Generate(context.Background(), "g1", "generate-1", "sk-test")
	require.NoError(t, err)
	assert.Equal(t, []string{result}, res.Images)

	require.Len(t, gen.Requests, 1)
	assert.Equal(t, []string{imageA, imageB}, gen.Requests[0].Images)
	assert.Equal(t, "make it blue", gen.Requests[0].Prompt)

	assert.Equal(t, []string{result}, node(t, c, "output-1").Data.Images)
	assert.Equal(t, []string{"old"}, node(t, c, "output-2").Data.Images)

	gn := node(t, c, "generate-1")
	assert.False(t, gn.Data.IsGenerating)
	assert.Empty(t, gn.Data.Error)
	assert.Equal(t, StateIdle, StateOf(gn))
	assert.False(t, c.IsGenerating("g1", "generate-1"))
}

func TestGenerateNoImagesSkipsClient(t *testing.T) {
	g := twoImageGraph()
	g.GetNodeById("img-a").Data.Image = ""
	g.GetNodeById("img-b").Data.Image = ""
	gen := &MockGenerator{}
	c := newTestCanvas(t, gen, g, nil)

	_, err := c.Generate(context.Background(), "g1", "generate-1", "sk-test")
	assert.ErrorIs(t, err, graphapi.ErrNoImages)
	assert.Zero(t, gen.calls())
	assert.Empty(t, node(t, c, "generate-1").Data.Error)
}

func TestGenerateBlankPromptSkipsClient(t *testing.T) {
	g := twoImageGraph()
	g.GetNodeById("prompt-1").Data.Prompt = "   \t"
	gen := &MockGenerator{}
	c := newTestCanvas(t, gen, g, nil)

	_, err := c.Generate(context.Background(), "g1", "generate-1", "sk-test")
	assert.ErrorIs(t, err, graphapi.ErrNoPrompt)
	assert.Zero(t, gen.calls())
}

func TestGenerateMissingKey(t *testing.T) {
	gen := &MockGenerator{}
	c := newTestCanvas(t, gen, twoImageGraph(), nil)

	_, err := c.Generate(context.Background(), "g1", "generate-1", " ")
	assert.ErrorIs(t, err, client.ErrMissingAPIKey)
	assert.Zero(t, gen.calls())
	assert.Equal(t, StateIdle, StateOf(node(t, c, "generate-1")))
}

func TestGenerateFailureRecordsError(t *testing.T) {
	gen := &MockGenerator{Err: &client.GenerationError{
		Kind:    client.ErrorKindRateLimited,
		Message: "Rate limit exceeded. Please try again later.",
	}}
	var stopped []StoppedReason
	c := newTestCanvas(t, gen, twoImageGraph(), &Callbacks{
		GenerationStopped: func(_ *Canvas, _, _ string, r StoppedReason, _ error) {
			stopped = append(stopped, r)
		},
	})

	_, err := c.Generate(context.Background(), "g1", "generate-1", "sk-test")
	require.Error(t, err)

	gn := node(t, c, "generate-1")
	assert.False(t, gn.Data.IsGenerating)
	assert.Equal(t, "Rate limit exceeded. Please try again later.", gn.Data.Error)
	assert.Equal(t, StateFailed, StateOf(gn))
	assert.Empty(t, node(t, c, "output-1").Data.Images)
	assert.Equal(t, []StoppedReason{StoppedReasonFailed}, stopped)

	// a later success clears the error
	gen.Err = nil
	_, err = c.Generate(context.Background(), "g1", "generate-1", "sk-test")
	require.NoError(t, err)
	assert.Empty(t, node(t, c, "generate-1").Data.Error)
}

func TestGenerateRejectsOverlap(t *testing.T) {
	gen := &MockGenerator{Block: make(chan struct{})}
	c := newTestCanvas(t, gen, twoImageGraph(), nil)

	done := make(chan error, 1)
	go func() {
		_, err := c.Generate(context.Background(), "g1", "generate-1", "sk-test")
		done <- err
	}()

	require.Eventually(t, func() bool {
		n, err := c.Store().GetNode(context.Background(), "g1", "generate-1")
		return err == nil && n.Data.IsGenerating
	}, 2*time.Second, 5*time.Millisecond)

	_, err := c.Generate(context.Background(), "g1", "generate-1", "sk-test")
	assert.ErrorIs(t, err, ErrGenerationInProgress)

	close(gen.Block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, gen.calls())
}

func TestGenerateIgnoresCancellation(t *testing.T) {
	gen := &MockGenerator{}
	c := newTestCanvas(t, gen, twoImageGraph(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Generate(ctx, "g1", "generate-1", "sk-test")
	require.NoError(t, err)
	require.Len(t, gen.CtxErrs, 1)
	assert.NoError(t, gen.CtxErrs[0])
}

func TestOutputDeletedMidFlightIsSkipped(t *testing.T) {
	gen := &MockGenerator{Block: make(chan struct{})}
	c := newTestCanvas(t, gen, twoImageGraph(), nil)

	done := make(chan error, 1)
	go func() {
		_, err := c.Generate(context.Background(), "g1", "generate-1", "sk-test")
		done <- err
	}()
	require.Eventually(t, func() bool { return c.IsGenerating("g1", "generate-1") }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, c.DeleteNode(context.Background(), "g1", "output-1"))
	close(gen.Block)
	require.NoError(t, <-done)

	_, err := c.Store().GetNode(context.Background(), "g1", "output-1")
	assert.True(t, errors.Is(err, graphapi.ErrNodeNotFound))
}

func TestSetImageAndPrompt(t *testing.T) {
	var changed []string
	c := newTestCanvas(t, &MockGenerator{}, twoImageGraph(), &Callbacks{
		NodeChanged: func(_ *Canvas, _ string, n *graphapi.Node) { changed = append(changed, n.ID) },
	})
	ctx := context.Background()

	_, err := c.SetImage(ctx, "g1", "img-a", "ftp://example.com/x.png")
	assert.ErrorIs(t, err, graphapi.ErrInvalidImageURL)

	_, err = c.SetImage(ctx, "g1", "prompt-1", imageB)
	assert.ErrorIs(t, err, graphapi.ErrWrongNodeType)

	n, err := c.SetImage(ctx, "g1", "img-a", "  "+imageB+" ")
	require.NoError(t, err)
	assert.Equal(t, imageB, n.Data.Image)

	n, err = c.SetPrompt(ctx, "g1", "prompt-1", " keep  spacing ")
	require.NoError(t, err)
	assert.Equal(t, " keep  spacing ", n.Data.Prompt)

	_, err = c.SetPrompt(ctx, "g1", "img-a", "nope")
	assert.ErrorIs(t, err, graphapi.ErrWrongNodeType)

	assert.Equal(t, []string{"img-a", "prompt-1"}, changed)
}

func TestTransitions(t *testing.T) {
	n := graphapi.NewNode(graphapi.GenerateNodeType, graphapi.Pos{})
	require.NoError(t, applyTransition(n, StateIdle, StateGenerating, ""))
	assert.True(t, n.Data.IsGenerating)
	assert.Error(t, applyTransition(n, StateGenerating, StateIdle, ""))
	require.NoError(t, applyTransition(n, StateGenerating, StateFailed, "boom"))
	require.NoError(t, applyTransition(n, StateFailed, StateIdle, ""))
	assert.False(t, n.Data.IsGenerating)
	assert.Equal(t, "boom", n.Data.Error)
	assert.Equal(t, StateFailed, StateOf(n))
}
