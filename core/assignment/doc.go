// Package assignment pairs agents with targets once per simulation tick.
//
// The reassignment phase reads agent and target positions from the world,
// builds a normalized squared-Euclidean cost matrix, solves the optimal
// transport problem between uniform agent and target masses and converts the
// coupling into a binary assignment by row-wise max thresholding (ties are
// kept, so one agent may be paired with several targets). The Ledger records
// the resulting history and caches the state of each agent's active target
// for the tracking step.
package assignment
