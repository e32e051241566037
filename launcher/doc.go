// Package launcher spawns the supervised command: it resolves argv0 on
// PATH, classifies lookup failures into the 126/127 exit codes from spec
// §6, and returns a ChildHandle exposing PID, wait-once semantics, and an
// idempotent kill. Process-group placement and the pre-exec RLIMIT_CPU/
// RLIMIT_AS application happen on the Darwin side (see launcher_darwin.go).
package launcher
