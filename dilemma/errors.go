package dilemma

import "errors"

var (
	// ErrValidation marks malformed or missing input. Simulation state is left unchanged.
	ErrValidation = errors.New("validation error")
	// ErrUnknownAgent marks a reference to an agent (by name or edge index) that is not
	// part of the current population.
	ErrUnknownAgent = errors.New("unknown agent")
	// ErrShapeMismatch marks weight tensors that do not share one architecture.
	// It always indicates a setup bug, never bad user input.
	ErrShapeMismatch = errors.New("weight shape mismatch")
	// ErrNoPopulation is returned when an operation needs a population before Init was called.
	ErrNoPopulation = errors.New("population not initialized")
	// ErrNoTopology is returned when a generation is run without an edge set.
	ErrNoTopology = errors.New("topology not set")
)

// IsClientError reports whether err was caused by caller input rather than an internal fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrUnknownAgent) ||
		errors.Is(err, ErrNoPopulation) || errors.Is(err, ErrNoTopology)
}
