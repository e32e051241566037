package supervisor

// cause discriminates why the termination pipeline was entered, so the
// final classification survives regardless of how the child actually
// exits. Once set it is sticky: a later event never overwrites an earlier
// one, matching spec §5's "a timeout fired at time T is never superseded
// by a natural exit observed at time ≥ T".
type cause int

const (
	causeNone cause = iota
	causeWallTimeout
	causeStdinIdleTimeout
	causeMemoryExceeded
	causeForwardedSignal
)
