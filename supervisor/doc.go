// Package supervisor runs exactly one attempt: spawn the child, drive the
// single-threaded kqueue event loop from spec §4.8/§5, execute the
// termination pipeline, and return a fully populated AttemptOutcome.
package supervisor
