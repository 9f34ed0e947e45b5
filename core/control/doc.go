// Package control implements the closed-loop tracking step of the simulator.
//
// It defines the capabilities the step depends on:
//   - Dynamics: state derivative of an entity under a control input
//   - Integrator: advances a vector field over a time span
//   - GainSolver: provides the feedback gain (LQR by default)
//
// The Tracker combines them: it builds the error state against the assigned
// reference, applies u = -K·e and integrates the entity one simulation step.
package control
