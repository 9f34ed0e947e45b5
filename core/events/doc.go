// Package events defines the simulation events emitted on the event bus.
//
// Available event types:
//   - TickEvent: a tick completed
//   - ReassignmentEvent: outcome of the reassignment phase
//   - StepFailureEvent: an agent's tracking step failed
package events
