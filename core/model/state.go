package model

import "fmt"

// StateVector is the full kinematic state of an entity. For the 3-D double
// integrator the layout is x, y, z, vx, vy, vz.
type StateVector []float64

// Clone returns an independent copy of s. A nil vector stays nil.
func (s StateVector) Clone() StateVector {
	if s == nil {
		return nil
	}
	out := make(StateVector, len(s))
	copy(out, s)
	return out
}

// Position returns the first dim components of s.
func (s StateVector) Position(dim int) ([]float64, error) {
	if dim <= 0 || dim > len(s) {
		return nil, fmt.Errorf("position dimension %d outside state of length %d", dim, len(s))
	}
	pos := make([]float64, dim)
	copy(pos, s[:dim])
	return pos, nil
}

// Equal reports whether both vectors hold the same values.
func (s StateVector) Equal(o StateVector) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}
