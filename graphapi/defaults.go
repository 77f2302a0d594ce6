package graphapi

// DefaultPrompt is the text the starter graph's prompt node comes with
const DefaultPrompt = "Transform this image with vibrant colors and artistic effects"

// NewStarterGraph builds the graph a fresh canvas opens with: one image
// input and one prompt feeding a generate node, which feeds one output.
func NewStarterGraph(id string) *Graph {
	g := NewGraph(id)
	g.Nodes = []*Node{
		{
			ID:       "imageInput-1",
			Type:     ImageInputNodeType,
			Position: Pos{X: 100, Y: 100},
			Data:     NodeData{Label: ImageInputNodeType.DefaultLabel()},
		},
		{
			ID:       "prompt-1",
			Type:     PromptNodeType,
			Position: Pos{X: 100, Y: 300},
			Data:     NodeData{Prompt: DefaultPrompt},
		},
		{
			ID:       "generate-1",
			Type:     GenerateNodeType,
			Position: Pos{X: 500, Y: 200},
		},
		{
			ID:       "output-1",
			Type:     OutputNodeType,
			Position: Pos{X: 900, Y: 200},
		},
	}
	g.Edges = []*Edge{
		{ID: "e1-3", Source: "imageInput-1", Target: "generate-1", TargetHandle: ImagesHandle},
		{ID: "e2-3", Source: "prompt-1", Target: "generate-1", TargetHandle: PromptHandle},
		{ID: "e3-4", Source: "generate-1", Target: "output-1"},
	}
	g.Reindex()
	return g
}
