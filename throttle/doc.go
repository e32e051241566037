// Package throttle implements the CPU-percentage integral controller: every
// 100ms it compares cumulative child CPU time against cumulative wall-clock
// budget and issues SIGSTOP/SIGCONT to keep the child near its target. The
// comparison is cumulative-from-attach rather than delta-based because a
// delta-based comparison aliases with the scheduler and converges to ~50%
// duty cycle regardless of the configured target.
package throttle
