package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidParameters indicates a physical or solver parameter outside
	// its valid range. Reported before any integration step.
	ErrInvalidParameters = errors.New("dynamo: invalid parameters")

	// ErrNumericalInstability indicates a derivative or state became NaN or Inf.
	ErrNumericalInstability = errors.New("dynamo: numerical instability (non-finite derivative)")

	// ErrIntegrationFailure indicates the step-size controller could not meet
	// its tolerance above the step floor, or the step ceiling was reached.
	ErrIntegrationFailure = errors.New("dynamo: integration failure")

	// ErrInvalidState indicates an initial state with NaN or Inf components.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrDimensionMismatch indicates an initial state of the wrong length.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
