package supervisor

// The Mux's identTag map is keyed by ident alone, shared across every
// filter type (exit, timer, read). Timer idents are caller-chosen, unlike
// process/file-descriptor idents which the kernel assigns, so these are
// parked well above any realistic pid_t or fd value to avoid collision.
const (
	identDeadlineWall uintptr = (1 << 40) + iota
	identStdinIdle
	identHeartbeat
	identMemoryPoll
	identThrottlePoll
	identKillAfter
)
