package canvas

import (
	"fmt"

	"github.com/richinsley/nodegen/graphapi"
)

// GenerationState is where a generate node is in its generation cycle.
type GenerationState string

const (
	StateIdle       GenerationState = "idle"
	StateGenerating GenerationState = "generating"
	StateSucceeded  GenerationState = "succeeded"
	StateFailed     GenerationState = "failed"
)

var validTransitions = map[GenerationState][]GenerationState{
	StateIdle:       {StateGenerating},
	StateGenerating: {StateSucceeded, StateFailed},
	StateSucceeded:  {StateIdle},
	StateFailed:     {StateIdle},
}

func isValidTransition(from, to GenerationState) bool {
	for _, a := range validTransitions[from] {
		if a == to {
			return true
		}
	}
	return false
}

// StateOf reads the resting state of a generate node from its data. Succeeded
// is never observed at rest: a finished generation is back to idle with its
// error cleared.
func StateOf(n *graphapi.Node) GenerationState {
	switch {
	case n.Data.IsGenerating:
		return StateGenerating
	case n.Data.Error != "":
		return StateFailed
	}
	return StateIdle
}

// applyTransition mutates a generate node's data for entering state to.
// errMsg is only used when entering StateFailed.
func applyTransition(n *graphapi.Node, from, to GenerationState, errMsg string) error {
	if !isValidTransition(from, to) {
		return fmt.Errorf("invalid generation transition: %s -> %s", from, to)
	}
	switch to {
	case StateGenerating:
		n.Data.IsGenerating = true
		n.Data.Error = ""
	case StateSucceeded:
		n.Data.Error = ""
	case StateFailed:
		n.Data.Error = errMsg
	case StateIdle:
		n.Data.IsGenerating = false
	}
	return nil
}
