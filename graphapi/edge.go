package graphapi

import (
	"fmt"

	"github.com/google/uuid"
)

// Target handles on a generate node
const (
	ImagesHandle = "images"
	PromptHandle = "prompt"
)

// Edge is a directed connection from one node's output to another node's input.
// TargetHandle names the input slot on the target; it only matters on generate
// nodes where "images" and "prompt" inputs are told apart.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// NewEdgeID returns an edge ID in the same shape the editor produces for
// connections made by hand.
func NewEdgeID(source, target string) string {
	return fmt.Sprintf("e-%s-%s-%s", source, target, uuid.NewString()[:8])
}

// sameConnection reports whether two edges join the same endpoints and handles.
func (e *Edge) sameConnection(o *Edge) bool {
	return e.Source == o.Source &&
		e.Target == o.Target &&
		e.SourceHandle == o.SourceHandle &&
		e.TargetHandle == o.TargetHandle
}

// validEndpoints checks an edge against the handles each node type exposes.
// Generate nodes take "images" and "prompt" inputs, prompt and output nodes a
// single unnamed input. Image inputs have no input and outputs no output.
func validEndpoints(source, target *Node, handle string) bool {
	if source.Type == OutputNodeType {
		return false
	}
	switch target.Type {
	case GenerateNodeType:
		return handle == ImagesHandle || handle == PromptHandle
	case PromptNodeType, OutputNodeType:
		return handle == ""
	}
	return false
}
