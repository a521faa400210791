// Package workflow drives an editing session through image selection, model loading
// and face evaluation, one explicit state at a time.
package workflow

import (
	"errors"
	"fmt"
	"slices"
)

// State is a step of the editing session lifecycle.
type State string

// State constants define the lifecycle of an editing session.
const (
	StateIdle          State = "idle"
	StateImageSelected State = "image_selected"
	StateModelLoading  State = "model_loading"
	StateEvaluating    State = "evaluating"
	StateEvaluated     State = "evaluated"
)

// ErrInvalidTransition is returned for a state change the lifecycle does not allow.
var ErrInvalidTransition = errors.New("invalid state transition")

// transitions lists the allowed next states. Selecting a new image is always allowed
// once the session has started; a superseded run may restart loading or evaluating.
var transitions = map[State][]State{
	StateIdle:          {StateImageSelected},
	StateImageSelected: {StateImageSelected, StateModelLoading, StateEvaluating},
	StateModelLoading:  {StateImageSelected, StateModelLoading, StateEvaluating, StateEvaluated},
	StateEvaluating:    {StateImageSelected, StateModelLoading, StateEvaluating, StateEvaluated},
	StateEvaluated:     {StateImageSelected, StateModelLoading, StateEvaluating},
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to State) bool {
	return slices.Contains(transitions[from], to)
}

func checkTransition(from, to State) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
