// Package scenario builds the initial population of the tracking simulation:
// agents and targets placed on geometric formations or read from a roster
// file, each carrying double-integrator dynamics and an LQR gain.
package scenario
