package graphapi

import (
	"fmt"

	"github.com/google/uuid"
)

type NodeType string

const (
	ImageInputNodeType NodeType = "imageInput"
	PromptNodeType     NodeType = "prompt"
	GenerateNodeType   NodeType = "generate"
	OutputNodeType     NodeType = "output"
)

// Valid reports whether t is one of the four node types the editor knows about.
func (t NodeType) Valid() bool {
	switch t {
	case ImageInputNodeType, PromptNodeType, GenerateNodeType, OutputNodeType:
		return true
	}
	return false
}

// DefaultLabel is the label a freshly added node of this type carries
func (t NodeType) DefaultLabel() string {
	switch t {
	case ImageInputNodeType:
		return "Image Input"
	case PromptNodeType:
		return "Prompt"
	case GenerateNodeType:
		return "Generate"
	case OutputNodeType:
		return "Output"
	}
	return "Node"
}

// NodeData is the type-specific payload of a node. Only the fields that belong
// to the node's type are meaningful; the rest stay at their zero value.
type NodeData struct {
	Label string `json:"label,omitempty"`

	// imageInput
	Image string `json:"image,omitempty"`

	// prompt
	Prompt string `json:"prompt,omitempty"`

	// generate
	IsGenerating bool   `json:"isGenerating,omitempty"`
	Error        string `json:"error,omitempty"`

	// output
	Images    []string `json:"images,omitempty"`
	IsLoading bool     `json:"isLoading,omitempty"`
}

func (d NodeData) clone() NodeData {
	if d.Images != nil {
		d.Images = append([]string(nil), d.Images...)
	}
	return d
}

// Node is a single typed unit of the graph
type Node struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Position Pos      `json:"position"`
	Data     NodeData `json:"data"`
}

// NewNode creates a node of the given type with a fresh unique ID and the
// type's default label.
func NewNode(t NodeType, pos Pos) *Node {
	return &Node{
		ID:       NewNodeID(t),
		Type:     t,
		Position: pos,
		Data:     NodeData{Label: t.DefaultLabel()},
	}
}

// NewNodeID returns an ID of the form "<type>-<uuid>".
func NewNodeID(t NodeType) string {
	return fmt.Sprintf("%s-%s", t, uuid.NewString())
}

// Clone returns a deep copy of the node
func (n *Node) Clone() *Node {
	c := *n
	c.Data = n.Data.clone()
	return &c
}

// AcceptsImage reports whether the node holds a user supplied image reference.
func (n *Node) AcceptsImage() bool { return n.Type == ImageInputNodeType }

// AcceptsPrompt reports whether the node holds prompt text.
func (n *Node) AcceptsPrompt() bool { return n.Type == PromptNodeType }

// AcceptsGenerate reports whether the node can be triggered to generate.
func (n *Node) AcceptsGenerate() bool { return n.Type == GenerateNodeType }

// AcceptsResults reports whether the node receives generated images.
func (n *Node) AcceptsResults() bool { return n.Type == OutputNodeType }
