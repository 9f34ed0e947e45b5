// Package output persists simulation results: the assignment history and
// entity rosters as JSON, the state history as CSV for plotting, and an
// optional per-tick log queried after the run.
package output
