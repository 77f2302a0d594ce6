package events

import (
	"github.com/richinsley/nodegen/canvas"
	"github.com/richinsley/nodegen/graphapi"
)

// Broadcaster receives events; *Hub is one.
type Broadcaster interface {
	Broadcast(Event)
}

// CanvasCallbacks returns canvas callbacks that forward every change to b.
func CanvasCallbacks(b Broadcaster) *canvas.Callbacks {
	return &canvas.Callbacks{
		NodeChanged: func(_ *canvas.Canvas, graphID string, n *graphapi.Node) {
			b.Broadcast(Event{Type: TypeNodeChanged, GraphID: graphID, NodeID: n.ID, Node: n})
		},
		NodeRemoved: func(_ *canvas.Canvas, graphID, nodeID string) {
			b.Broadcast(Event{Type: TypeNodeRemoved, GraphID: graphID, NodeID: nodeID})
		},
		EdgesChanged: func(_ *canvas.Canvas, graphID string) {
			b.Broadcast(Event{Type: TypeEdgesChanged, GraphID: graphID})
		},
		GenerationStarted: func(_ *canvas.Canvas, graphID, nodeID string) {
			b.Broadcast(Event{Type: TypeGenerationStarted, GraphID: graphID, NodeID: nodeID})
		},
		GenerationStopped: func(_ *canvas.Canvas, graphID, nodeID string, reason canvas.StoppedReason, err error) {
			ev := Event{Type: TypeGenerationStopped, GraphID: graphID, NodeID: nodeID, Reason: string(reason)}
			if err != nil {
				ev.Error = err.Error()
			}
			b.Broadcast(ev)
		},
		OutputsUpdated: func(_ *canvas.Canvas, graphID string, outputs []string, images []string) {
			b.Broadcast(Event{Type: TypeOutputsUpdated, GraphID: graphID, NodeIDs: outputs, Images: images})
		},
	}
}
