package events

import (
	"log/slog"
)

// Handlers defines optional callbacks for the event types a Watcher
// delivers. Only provide handlers for the events you care about.
type Handlers struct {
	OnNodeChanged       func(Event)
	OnNodeRemoved       func(Event)
	OnEdgesChanged      func(Event)
	OnGenerationStarted func(Event)
	OnGenerationStopped func(Event)
	OnOutputsUpdated    func(Event)

	// OnComplete is called after the event loop exits
	OnComplete func()
}

// DefaultHandlers logs generation progress and failures.
func DefaultHandlers() *Handlers {
	return &Handlers{
		OnGenerationStarted: func(ev Event) {
			slog.Info("Generation started", "graph_id", ev.GraphID, "node_id", ev.NodeID)
		},
		OnGenerationStopped: func(ev Event) {
			if ev.Error != "" {
				slog.Error("Generation failed", "graph_id", ev.GraphID, "node_id", ev.NodeID, "error", ev.Error)
				return
			}
			slog.Info("Generation finished", "graph_id", ev.GraphID, "node_id", ev.NodeID, "reason", ev.Reason)
		},
		OnOutputsUpdated: func(ev Event) {
			slog.Info("Outputs updated", "graph_id", ev.GraphID, "outputs", ev.NodeIDs, "images", len(ev.Images))
		},
	}
}

func (h *Handlers) WithNodeChangedHandler(fn func(Event)) *Handlers {
	h.OnNodeChanged = fn
	return h
}

func (h *Handlers) WithNodeRemovedHandler(fn func(Event)) *Handlers {
	h.OnNodeRemoved = fn
	return h
}

func (h *Handlers) WithEdgesChangedHandler(fn func(Event)) *Handlers {
	h.OnEdgesChanged = fn
	return h
}

func (h *Handlers) WithGenerationStartedHandler(fn func(Event)) *Handlers {
	h.OnGenerationStarted = fn
	return h
}

func (h *Handlers) WithGenerationStoppedHandler(fn func(Event)) *Handlers {
	h.OnGenerationStopped = fn
	return h
}

func (h *Handlers) WithOutputsUpdatedHandler(fn func(Event)) *Handlers {
	h.OnOutputsUpdated = fn
	return h
}

func (h *Handlers) WithCompleteHandler(fn func()) *Handlers {
	h.OnComplete = fn
	return h
}

// Dispatch routes one event to its handler
func (h *Handlers) Dispatch(ev Event) {
	var fn func(Event)
	switch ev.Type {
	case TypeNodeChanged:
		fn = h.OnNodeChanged
	case TypeNodeRemoved:
		fn = h.OnNodeRemoved
	case TypeEdgesChanged:
		fn = h.OnEdgesChanged
	case TypeGenerationStarted:
		fn = h.OnGenerationStarted
	case TypeGenerationStopped:
		fn = h.OnGenerationStopped
	case TypeOutputsUpdated:
		fn = h.OnOutputsUpdated
	default:
		slog.Warn("Unknown event type received", "type", ev.Type)
		return
	}
	if fn != nil {
		fn(ev)
	}
}

// ProcessEvents dispatches events from the watcher until its feed closes.
func (w *Watcher) ProcessEvents(handlers *Handlers) {
	if handlers == nil {
		handlers = &Handlers{}
	}
	if handlers.OnComplete != nil {
		defer handlers.OnComplete()
	}
	for ev := range w.Events {
		handlers.Dispatch(ev)
	}
}
