package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/nodegen/graphapi"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("NODEGEN_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("NODEGEN_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := New(pool)
	require.NoError(t, s.DropSchema(ctx))
	require.NoError(t, s.CreateSchema(ctx))
	t.Cleanup(func() { s.DropSchema(context.Background()) })
	return s
}

func TestStarterGraphRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	stored, err := s.CreateGraph(ctx, graphapi.NewStarterGraph("g1"))
	require.NoError(t, err)
	assert.Equal(t, "g1", stored.ID)

	g, err := s.GetGraph(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, g.Nodes, 4)
	require.Len(t, g.Edges, 3)
	assert.Equal(t, "imageInput-1", g.Nodes[0].ID)
	assert.Equal(t, graphapi.PromptHandle, g.GetEdgeById("e2-3").TargetHandle)
	assert.Equal(t, graphapi.DefaultPrompt, g.GetNodeById("prompt-1").Data.Prompt)
}

func TestGetMissingGraph(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetGraph(context.Background(), "nope")
	assert.ErrorIs(t, err, graphapi.ErrGraphNotFound)
}

func TestUpdateNodeData(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.CreateGraph(ctx, graphapi.NewStarterGraph("g1"))
	require.NoError(t, err)

	n, err := s.UpdateNodeData(ctx, "g1", "output-1", func(n *graphapi.Node) error {
		graphapi.ApplyResults(n, []string{"data:image/png;base64,AAAA"})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"data:image/png;base64,AAAA"}, n.Data.Images)

	got, err := s.GetNode(ctx, "g1", "output-1")
	require.NoError(t, err)
	assert.Equal(t, n.Data, got.Data)

	_, err = s.UpdateNodeData(ctx, "g1", "missing", func(*graphapi.Node) error { return nil })
	assert.ErrorIs(t, err, graphapi.ErrNodeNotFound)
}

func TestConnectDisconnectAndCascade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.CreateGraph(ctx, graphapi.NewStarterGraph("g1"))
	require.NoError(t, err)

	id, err := s.AddNode(ctx, "g1", graphapi.NewNode(graphapi.OutputNodeType, graphapi.Pos{X: 900, Y: 300}))
	require.NoError(t, err)

	edgeID, err := s.Connect(ctx, "g1", &graphapi.Edge{Source: "generate-1", Target: id})
	require.NoError(t, err)

	again, err := s.Connect(ctx, "g1", &graphapi.Edge{Source: "generate-1", Target: id})
	require.NoError(t, err)
	assert.Equal(t, edgeID, again)

	_, err = s.Connect(ctx, "g1", &graphapi.Edge{Source: id, Target: "prompt-1"})
	assert.ErrorIs(t, err, graphapi.ErrInvalidConnection)

	require.NoError(t, s.DeleteNode(ctx, "g1", id))
	g, err := s.GetGraph(ctx, "g1")
	require.NoError(t, err)
	assert.Nil(t, g.GetEdgeById(edgeID))
	assert.Len(t, g.Edges, 3)

	require.NoError(t, s.Disconnect(ctx, "g1", "e3-4"))
	require.NoError(t, s.Disconnect(ctx, "g1", "e3-4"))
	g, err = s.GetGraph(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, graphapi.OutputTargets(g, "generate-1"))
}
