// Package timemath provides checked and saturating nanosecond arithmetic
// for deadline bookkeeping. Nothing here wraps silently: callers get either
// a value or an explicit failure signal.
package timemath
