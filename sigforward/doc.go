// Package sigforward installs a process-wide handler for the fixed set of
// signals the supervisor forwards to its child, and publishes them to the
// supervision loop over a buffered channel. Go's runtime signal delivery is
// itself a self-pipe under the hood, so the handler side of the teacher's
// raw sigaction pattern is unnecessary here; this package keeps the same
// one-shot-installer and policy-on-the-loop-thread shape.
package sigforward
