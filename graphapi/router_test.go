package graphapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteResultsOnlyConnectedOutputs(t *testing.T) {
	g := resolverGraph()
	g.Nodes = append(g.Nodes,
		&Node{ID: "out2", Type: OutputNodeType, Data: NodeData{Images: []string{"keep"}}},
		&Node{ID: "out3", Type: OutputNodeType, Data: NodeData{IsLoading: true}},
	)
	g.Edges = append(g.Edges, &Edge{ID: "e5", Source: "gen", Target: "out3"})
	g.Reindex()

	images := []string{"x", "y"}
	routed := RouteResults(g, "gen", images)
	assert.Equal(t, []string{"out", "out3"}, routed)

	assert.Equal(t, images, g.GetNodeById("out").Data.Images)
	assert.Equal(t, images, g.GetNodeById("out3").Data.Images)
	assert.False(t, g.GetNodeById("out3").Data.IsLoading)
	assert.Equal(t, []string{"keep"}, g.GetNodeById("out2").Data.Images)

	// each output owns its copy
	images[0] = "changed"
	assert.Equal(t, "x", g.GetNodeById("out").Data.Images[0])
}

func TestOutputTargetsDeduplicates(t *testing.T) {
	g := resolverGraph()
	g.Edges = append(g.Edges, &Edge{ID: "e5", Source: "gen", Target: "out", SourceHandle: "extra"})
	g.Reindex()
	assert.Equal(t, []string{"out"}, OutputTargets(g, "gen"))
	assert.Empty(t, OutputTargets(g, "p"))
}
