// Package hook runs the optional pre-termination command: a shell command
// string substituting %p for the child's PID and %% for a literal percent,
// launched synchronously with its own deadline immediately before the
// graceful signal is sent.
package hook
