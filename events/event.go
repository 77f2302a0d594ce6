package events

import (
	"github.com/richinsley/nodegen/graphapi"
)

// our cast of characters:
// node_changed
// node_removed
// edges_changed
// generation_started
// generation_stopped
// outputs_updated

const (
	TypeNodeChanged       = "node_changed"
	TypeNodeRemoved       = "node_removed"
	TypeEdgesChanged      = "edges_changed"
	TypeGenerationStarted = "generation_started"
	TypeGenerationStopped = "generation_stopped"
	TypeOutputsUpdated    = "outputs_updated"
)

// Event is one change pushed to watchers of a graph. Which fields are set
// depends on Type.
type Event struct {
	Type    string         `json:"type"`
	GraphID string         `json:"graph_id"`
	NodeID  string         `json:"node_id,omitempty"`
	Node    *graphapi.Node `json:"node,omitempty"`
	NodeIDs []string       `json:"node_ids,omitempty"`
	Images  []string       `json:"images,omitempty"`
	Reason  string         `json:"reason,omitempty"`
	Error   string         `json:"error,omitempty"`
}
