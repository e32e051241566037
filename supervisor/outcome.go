package supervisor

import (
	"errors"
	"syscall"

	"github.com/criyle/darwin-timeout/clock"
	"github.com/criyle/darwin-timeout/launcher"
	"github.com/criyle/darwin-timeout/runner"
	"github.com/criyle/darwin-timeout/timemath"
)

func errorOutcome(kind runner.ErrorKind, msg string) runner.AttemptOutcome {
	return runner.AttemptOutcome{Status: runner.StatusError, ErrorKind: kind, ErrorMessage: msg}
}

// spawnErrorOutcome classifies a launcher.Spawn failure per spec §4.4/§7.
func spawnErrorOutcome(err error) runner.AttemptOutcome {
	var notFound *launcher.NotFoundError
	var notExec *launcher.NotExecutableError
	switch {
	case errors.As(err, &notFound):
		return errorOutcome(runner.ErrCommandNotFound, err.Error())
	case errors.As(err, &notExec):
		return errorOutcome(runner.ErrCommandNotExecutable, err.Error())
	default:
		return errorOutcome(runner.ErrSpawnFailed, err.Error())
	}
}

// failAttempt is the cleanup path for any fatal error encountered after a
// child has already been spawned: per spec §4.11 the loop must still
// attempt to kill the child and wait it before surfacing the error, so no
// zombie survives an error path.
func failAttempt(child *launcher.Child, kind runner.ErrorKind, err error) (runner.AttemptOutcome, error) {
	child.Kill(syscall.SIGKILL)
	child.Wait()
	return errorOutcome(kind, err.Error()), nil
}

// childExitCode maps launcher.ProcessStats to the "command_exit_code"
// convention used throughout AttemptOutcome: 128+signal when the child was
// killed by a signal, its own exit status otherwise.
func childExitCode(stats launcher.ProcessStats) int {
	if stats.Signaled {
		return 128 + int(stats.Signal)
	}
	return stats.ExitCode
}

// buildOutcome classifies a reaped child into its final AttemptOutcome
// according to which cause (if any) won the race, per spec §4.8.
func buildOutcome(
	c cause, causeSignal, forwardedSig syscall.Signal, killed bool,
	memLimitBytes, memObserved uint64,
	stats launcher.ProcessStats, hookResult *runner.HookResult,
	startNs uint64, clk clock.Clock, mode clock.Mode,
) runner.AttemptOutcome {
	nowNs := clock.Now(clk, mode)
	elapsed, _ := timemath.Elapsed(startNs, nowNs)

	o := runner.AttemptOutcome{
		ElapsedNs:   elapsed,
		UserNs:      stats.UserNs,
		SystemNs:    stats.SystemNs,
		MaxRSSBytes: stats.MaxRSSBytes,
		Hook:        hookResult,
	}
	exitCode := childExitCode(stats)

	switch c {
	case causeNone:
		o.Status = runner.StatusCompleted
		o.ExitCode = exitCode
	case causeWallTimeout, causeStdinIdleTimeout:
		o.Status = runner.StatusTimedOut
		if c == causeWallTimeout {
			o.TimeoutReason = runner.ReasonWallClock
		} else {
			o.TimeoutReason = runner.ReasonStdinIdle
		}
		o.Signal = causeSignal
		o.Killed = killed
		o.ExitCode = exitCode
	case causeMemoryExceeded:
		o.Status = runner.StatusMemoryExceeded
		o.MemLimitBytes = memLimitBytes
		o.MemObservedBytes = memObserved
		o.Signal = causeSignal
		o.Killed = killed
		o.ExitCode = exitCode
	case causeForwardedSignal:
		o.Status = runner.StatusSignalForwarded
		o.ForwardedSignal = forwardedSig
		o.ExitCode = exitCode
	}
	return o
}
