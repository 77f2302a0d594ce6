package graphapi

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	g := NewStarterGraph("")
	stored, err := s.CreateGraph(ctx, g)
	require.NoError(t, err)
	require.NotEmpty(t, stored.ID)
	assert.Equal(t, "Prompt", stored.GetNodeById("prompt-1").Data.Label)

	stored.GetNodeById("prompt-1").Data.Prompt = "mutated"
	again, err := s.GetGraph(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, DefaultPrompt, again.GetNodeById("prompt-1").Data.Prompt)
}

func TestMemoryStoreErrors(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.GetGraph(ctx, "nope")
	assert.ErrorIs(t, err, ErrGraphNotFound)
	_, err = s.AddNode(ctx, "nope", NewNode(PromptNodeType, Pos{}))
	assert.ErrorIs(t, err, ErrGraphNotFound)

	_, err = s.CreateGraph(ctx, NewStarterGraph("g"))
	require.NoError(t, err)
	_, err = s.GetNode(ctx, "g", "nope")
	assert.ErrorIs(t, err, ErrNodeNotFound)
	_, err = s.AddNode(ctx, "g", &Node{Type: "sprocket"})
	assert.ErrorIs(t, err, ErrUnknownNodeType)
	_, err = s.AddNode(ctx, "g", &Node{ID: "prompt-1", Type: PromptNodeType})
	assert.ErrorIs(t, err, ErrDuplicateNode)

	// deleting twice is fine
	require.NoError(t, s.DeleteNode(ctx, "g", "output-1"))
	require.NoError(t, s.DeleteNode(ctx, "g", "output-1"))
}

func TestUpdateNodeDataKeepsIdentity(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, err := s.CreateGraph(ctx, NewStarterGraph("g"))
	require.NoError(t, err)

	n, err := s.UpdateNodeData(ctx, "g", "prompt-1", func(n *Node) error {
		n.ID = "hijack"
		n.Type = OutputNodeType
		n.Data.Prompt = "new"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "prompt-1", n.ID)
	assert.Equal(t, PromptNodeType, n.Type)
	assert.Equal(t, "new", n.Data.Prompt)

	_, err = s.UpdateNodeData(ctx, "g", "prompt-1", func(n *Node) error {
		n.Data.Prompt = "discarded"
		return ErrWrongNodeType
	})
	assert.ErrorIs(t, err, ErrWrongNodeType)
	got, err := s.GetNode(ctx, "g", "prompt-1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Data.Prompt)
}

func TestUpdateNodeDataSerializes(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, err := s.CreateGraph(ctx, NewStarterGraph("g"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.UpdateNodeData(ctx, "g", "output-1", func(n *Node) error {
				n.Data.Images = append(n.Data.Images, "x")
				return nil
			})
		}()
	}
	wg.Wait()
	n, err := s.GetNode(ctx, "g", "output-1")
	require.NoError(t, err)
	assert.Len(t, n.Data.Images, 50)
}

func TestConnectThroughStore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	_, err := s.CreateGraph(ctx, NewStarterGraph("g"))
	require.NoError(t, err)

	e := &Edge{Source: "prompt-1", Target: "generate-1", TargetHandle: PromptHandle}
	id, err := s.Connect(ctx, "g", e)
	require.NoError(t, err)
	assert.Equal(t, "e2-3", id)
	assert.Equal(t, "e2-3", e.ID)

	require.NoError(t, s.Disconnect(ctx, "g", id))
	g, err := s.GetGraph(ctx, "g")
	require.NoError(t, err)
	assert.Empty(t, g.IncomingEdges("generate-1", PromptHandle))
}
