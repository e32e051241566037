// Package waitgate implements the optional pre-run gate: poll a path's
// existence every 100ms until it exists or a deadline elapses.
package waitgate
