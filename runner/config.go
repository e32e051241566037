package runner

import (
	"syscall"
	"time"

	"github.com/criyle/darwin-timeout/clock"
)

// Config is the immutable configuration for one invocation (RunConfig from
// the data model). A zero-valued duration field means "disabled" for every
// optional timer; RetryBackoffNum/Den default to 1/1 (no change per retry).
type Config struct {
	Timeout   time.Duration // 0 disables the wall/active deadline
	ClockMode clock.Mode

	GracefulSignal syscall.Signal
	KillAfter      time.Duration // 0 disables escalation

	PreserveStatus bool
	Foreground     bool
	Verbose        bool
	Quiet          bool

	TimeoutExitCode int // default 124

	OnTimeoutCmd   string // empty disables the hook
	OnTimeoutLimit time.Duration // default 5s

	WaitForFile        string
	WaitForFileTimeout time.Duration // 0 = infinite

	RetryCount      int
	RetryDelay      time.Duration
	RetryBackoffNum uint64
	RetryBackoffDen uint64

	Heartbeat time.Duration // 0 disables

	StdinIdle        time.Duration // 0 disables
	StdinPassthrough bool

	MemLimit Size // 0 disables

	CPUTime    time.Duration // 0 disables RLIMIT_CPU
	CPUPercent uint32        // 0 disables throttling, 1-6400 (64 x 100 cores)
}

// Default returns a Config with the specification's documented defaults
// applied: graceful signal TERM, 124 as the timeout exit code, a 5s hook
// deadline, and a 1/1 (no-op) retry backoff ratio.
func Default() Config {
	return Config{
		GracefulSignal:  syscall.SIGTERM,
		TimeoutExitCode: 124,
		OnTimeoutLimit:  5 * time.Second,
		RetryBackoffNum: 1,
		RetryBackoffDen: 1,
	}
}
