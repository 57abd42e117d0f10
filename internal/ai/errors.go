package ai

import (
	"errors"
	"fmt"
)

// Command errors: the routine asked for something the ship or target lacks.
var (
	ErrEngineNotPresent  = errors.New("engine not present")
	ErrGunNotPresent     = errors.New("gun not present")
	ErrTargetOutOfRange  = errors.New("target does not exist")
	ErrTriedToTargetSelf = errors.New("tried to target self")
)

// Routine errors: the command graph itself is broken.
var (
	ErrTimeLimit      = errors.New("step limit exceeded")
	ErrInvalidCommand = errors.New("invalid command")
	ErrUnknownRoutine = errors.New("unknown routine")
)

// RoutineError locates a failure inside a routine.
type RoutineError struct {
	Routine string
	Command CommandID
	Op      Op
	Err     error
}

func (e *RoutineError) Error() string {
	return fmt.Sprintf("routine %q command %d (%s): %v", e.Routine, e.Command, e.Op, e.Err)
}

func (e *RoutineError) Unwrap() error { return e.Err }
