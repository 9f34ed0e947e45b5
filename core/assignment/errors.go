package assignment

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPopulation is returned when there are no agents or no targets.
	ErrEmptyPopulation = errors.New("assignment: empty population")
	// ErrDimensionMismatch is returned for inconsistent vector or matrix sizes.
	ErrDimensionMismatch = errors.New("assignment: dimension mismatch")
	// ErrInfeasibleWeights is returned when mass weights do not sum to one.
	ErrInfeasibleWeights = errors.New("assignment: infeasible weights")
	// ErrNotConverged is returned when an iterative solver does not settle.
	ErrNotConverged = errors.New("assignment: solver did not converge")
	// ErrUnknownSolver is returned for an unsupported solver name.
	ErrUnknownSolver = errors.New("assignment: unknown solver")
)

// SolverError wraps a transport solver failure.
type SolverError struct {
	Solver string
	Err    error
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("%s solver: %v", e.Solver, e.Err)
}

func (e *SolverError) Unwrap() error { return e.Err }

// PhaseError reports the stage of the reassignment phase that failed.
type PhaseError struct {
	Stage string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("reassignment %s: %v", e.Stage, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }
