// Package kqueuemux is a thin wrapper over Darwin's kqueue that registers
// the event sources the supervision loop watches: child-exit, one-shot
// timers for every deadline, and read-readiness on the signal and stdin
// pipes. It exists so the supervisor's select-style dispatch loop never
// touches unix.Kevent directly.
package kqueuemux
