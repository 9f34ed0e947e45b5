// Package sim drives the tracking simulation. Every tick runs the
// reassignment phase over the whole population, then advances each agent
// concurrently towards its current reference, records the resulting states
// and moves the clock forward.
package sim
