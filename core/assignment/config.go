package assignment

import (
	"errors"
	"fmt"
)

// Solver names accepted in configuration.
const (
	SolverEMD      = "emd"
	SolverSinkhorn = "sinkhorn"
)

const (
	defaultEMDTol          = 1e-9
	defaultSinkhornReg     = 1e-2
	defaultSinkhornMaxIter = 10000
	defaultSinkhornTol     = 1e-9
	defaultPositionDim     = 3
)

// SinkhornConfig tunes the entropic solver.
type SinkhornConfig struct {
	Reg     float64 `json:"reg"`
	MaxIter int     `json:"max_iter"`
	Tol     float64 `json:"tol"`
}

// Config controls the reassignment phase.
type Config struct {
	Solver string `json:"solver"`
	// PositionDim is the number of leading state components compared by the
	// cost model.
	PositionDim int            `json:"position_dim"`
	Tolerance   float64        `json:"tolerance"`
	Sinkhorn    SinkhornConfig `json:"sinkhorn"`
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.Solver == "" {
		c.Solver = SolverEMD
	}
	if c.PositionDim == 0 {
		c.PositionDim = defaultPositionDim
	}
	if c.Tolerance == 0 {
		c.Tolerance = defaultEMDTol
	}
	if c.Sinkhorn.Reg == 0 {
		c.Sinkhorn.Reg = defaultSinkhornReg
	}
	if c.Sinkhorn.MaxIter == 0 {
		c.Sinkhorn.MaxIter = defaultSinkhornMaxIter
	}
	if c.Sinkhorn.Tol == 0 {
		c.Sinkhorn.Tol = defaultSinkhornTol
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Solver != SolverEMD && c.Solver != SolverSinkhorn {
		return fmt.Errorf("%w: %q", ErrUnknownSolver, c.Solver)
	}
	if c.PositionDim <= 0 {
		return errors.New("assignment.position_dim must be positive")
	}
	if c.Tolerance < 0 || c.Sinkhorn.Tol < 0 {
		return errors.New("assignment tolerances must not be negative")
	}
	if c.Sinkhorn.Reg <= 0 {
		return errors.New("assignment.sinkhorn.reg must be positive")
	}
	if c.Sinkhorn.MaxIter < 0 {
		return errors.New("assignment.sinkhorn.max_iter must not be negative")
	}
	return nil
}
