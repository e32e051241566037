// Package memmonitor checks a child's physical memory footprint against a
// configured ceiling. It has no loop or goroutine of its own: the
// supervisor drives the 100ms cadence itself via a kqueue timer, matching
// the single-thread event model in spec §5.
package memmonitor
