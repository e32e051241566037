package supervisor

import (
	"context"
	"os"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/criyle/darwin-timeout/clock"
	"github.com/criyle/darwin-timeout/hook"
	"github.com/criyle/darwin-timeout/kqueuemux"
	"github.com/criyle/darwin-timeout/launcher"
	"github.com/criyle/darwin-timeout/memmonitor"
	"github.com/criyle/darwin-timeout/procinfo"
	"github.com/criyle/darwin-timeout/rlimit"
	"github.com/criyle/darwin-timeout/runner"
	"github.com/criyle/darwin-timeout/sigforward"
	"github.com/criyle/darwin-timeout/throttle"
	"github.com/criyle/darwin-timeout/timemath"
)

// Runner ties the event multiplexer, throttle controller, memory monitor,
// signal hub, and hook runner into the single attempt loop from spec §4.8.
// A Runner is reusable across attempts; nothing in it is attempt-local
// state.
type Runner struct {
	// Clock defaults to clock.System{} when nil.
	Clock clock.Clock
	// Logger defaults to a no-op logger when nil. Heartbeat lines log at
	// Info, forwarded-signal notices at Debug (so --verbose, which lowers
	// the configured level to Debug, is what makes them visible).
	Logger *zap.Logger
}

// New returns a Runner using the production Darwin clock and the given
// logger (nil is accepted and treated as a no-op logger).
func New(logger *zap.Logger) *Runner {
	return &Runner{Logger: logger}
}

func (r *Runner) clk() clock.Clock {
	if r.Clock != nil {
		return r.Clock
	}
	return clock.System{}
}

func (r *Runner) log() *zap.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return zap.NewNop()
}

// Run executes exactly one attempt and satisfies retry.AttemptFunc.
func (r *Runner) Run(ctx context.Context, cfg runner.Config, argv []string) (runner.AttemptOutcome, error) {
	if len(argv) == 0 {
		return errorOutcome(runner.ErrInternal, "supervisor: empty argv"), nil
	}

	clk := r.clk()
	logger := r.log()
	startNs := clock.Now(clk, cfg.ClockMode)

	rig, err := newStdinRig(cfg.StdinIdle > 0, cfg.StdinPassthrough)
	if err != nil {
		return errorOutcome(runner.ErrPipeFailed, err.Error()), nil
	}
	defer rig.cleanup()

	child, err := launcher.Spawn(argv[0], argv[1:], launcher.Options{
		Stdin:      rig.childStdin,
		Foreground: cfg.Foreground,
		RLimits: rlimit.Limits{
			CPUSeconds:   ceilSeconds(cfg.CPUTime),
			AddressSpace: cfg.MemLimit.Byte(),
		},
	})
	if err != nil {
		return spawnErrorOutcome(err), nil
	}

	mux, err := kqueuemux.New()
	if err != nil {
		return failAttempt(child, runner.ErrKqueueFailed, err)
	}
	defer mux.Close()

	if err := mux.RegisterExit(child.PID()); err != nil {
		return failAttempt(child, runner.ErrKqueueFailed, err)
	}
	if cfg.Timeout > 0 {
		if err := mux.RegisterTimer(kqueuemux.TagDeadline, identDeadlineWall, uint64(cfg.Timeout)); err != nil {
			return failAttempt(child, runner.ErrKqueueFailed, err)
		}
	}
	if cfg.StdinIdle > 0 {
		if err := mux.RegisterTimer(kqueuemux.TagDeadline, identStdinIdle, uint64(cfg.StdinIdle)); err != nil {
			return failAttempt(child, runner.ErrKqueueFailed, err)
		}
		if err := mux.RegisterRead(kqueuemux.TagStdinRead, rig.selfStdin.Fd()); err != nil {
			return failAttempt(child, runner.ErrKqueueFailed, err)
		}
	}
	if cfg.Heartbeat > 0 {
		if err := mux.RegisterTimer(kqueuemux.TagHeartbeat, identHeartbeat, uint64(cfg.Heartbeat)); err != nil {
			return failAttempt(child, runner.ErrKqueueFailed, err)
		}
	}
	if cfg.MemLimit > 0 {
		if err := mux.RegisterTimer(kqueuemux.TagMemoryPoll, identMemoryPoll, memmonitor.Interval); err != nil {
			return failAttempt(child, runner.ErrKqueueFailed, err)
		}
	}
	if cfg.CPUPercent > 0 {
		if err := mux.RegisterTimer(kqueuemux.TagThrottlePoll, identThrottlePoll, throttle.Interval); err != nil {
			return failAttempt(child, runner.ErrKqueueFailed, err)
		}
	}

	hub := sigforward.New()
	defer hub.Stop()

	sigPipeR, sigPipeW, err := os.Pipe()
	if err != nil {
		return failAttempt(child, runner.ErrPipeFailed, err)
	}
	defer sigPipeR.Close()
	defer sigPipeW.Close()
	if err := mux.RegisterRead(kqueuemux.TagSignalPipe, sigPipeR.Fd()); err != nil {
		return failAttempt(child, runner.ErrKqueueFailed, err)
	}

	var pendingMu sync.Mutex
	var pendingSignal syscall.Signal
	stopBridge := make(chan struct{})
	defer close(stopBridge)
	go func() {
		for {
			select {
			case sig := <-hub.C():
				pendingMu.Lock()
				pendingSignal = syscall.Signal(sig)
				pendingMu.Unlock()
				sigPipeW.Write([]byte{1})
			case <-stopBridge:
				return
			}
		}
	}()

	var throttleState *throttle.State
	if cfg.CPUPercent > 0 {
		throttleState, err = throttle.New(child.PID(), cfg.CPUPercent, startNs, procinfo.CPUTimeNs)
		if err != nil {
			return failAttempt(child, runner.ErrInternal, err)
		}
	}
	memMonitor := memmonitor.New(child.PID(), cfg.MemLimit.Byte(), procinfo.PhysFootprint)

	loopCause := causeNone
	var causeSignal, forwardedSig syscall.Signal
	var hookResult *runner.HookResult
	killed := false
	var memObserved uint64
	memLimitBytes := cfg.MemLimit.Byte()

	enterGraceful := func(c cause) {
		if loopCause != causeNone {
			return
		}
		loopCause = c
		if throttleState != nil {
			throttleState.Resume()
		}
		if cfg.OnTimeoutCmd != "" {
			hr := hook.Run(ctx, cfg.OnTimeoutCmd, child.PID(), cfg.OnTimeoutLimit)
			hookResult = &hr
		}
		causeSignal = cfg.GracefulSignal
		child.Kill(cfg.GracefulSignal)
		if cfg.KillAfter > 0 {
			mux.RegisterTimer(kqueuemux.TagKillAfter, identKillAfter, uint64(cfg.KillAfter))
		}
	}

	for {
		events, err := mux.Wait(nil)
		if err != nil {
			return failAttempt(child, runner.ErrKqueueFailed, err)
		}

		for _, ev := range events {
			switch ev.Tag {
			case kqueuemux.TagChildExit:
				stats, werr := child.Wait()
				if throttleState != nil {
					throttleState.MarkExited()
				}
				if werr != nil {
					child.Kill(syscall.SIGKILL)
					return errorOutcome(runner.ErrWaitFailed, werr.Error()), nil
				}
				return buildOutcome(loopCause, causeSignal, forwardedSig, killed,
					memLimitBytes, memObserved, stats, hookResult, startNs, clk, cfg.ClockMode), nil

			case kqueuemux.TagMemoryPoll:
				if exceeded, observed, merr := memMonitor.Check(); merr == nil {
					memObserved = observed
					if exceeded {
						enterGraceful(causeMemoryExceeded)
					}
				}
				mux.RegisterTimer(kqueuemux.TagMemoryPoll, identMemoryPoll, memmonitor.Interval)

			case kqueuemux.TagDeadline:
				switch ev.Ident {
				case identDeadlineWall:
					enterGraceful(causeWallTimeout)
				case identStdinIdle:
					enterGraceful(causeStdinIdleTimeout)
				}

			case kqueuemux.TagKillAfter:
				// causeSignal stays the graceful signal: the reported
				// "signal" field names what was sent to ask the child to
				// exit, not the uncatchable kill that followed. The
				// escalated process exit code (128+KILL) is derived from
				// the reaped command_exit_code instead, see result.go.
				child.Kill(syscall.SIGKILL)
				killed = true

			case kqueuemux.TagHeartbeat:
				elapsed, _ := timemath.Elapsed(startNs, clock.Now(clk, cfg.ClockMode))
				logger.Info("heartbeat", zap.Duration("elapsed", time.Duration(elapsed)), zap.Int("pid", child.PID()))
				mux.RegisterTimer(kqueuemux.TagHeartbeat, identHeartbeat, uint64(cfg.Heartbeat))

			case kqueuemux.TagThrottlePoll:
				if throttleState != nil {
					// The throttle controller never runs concurrently with
					// termination (spec §4.6/§5): once enterGraceful has
					// fired, skip the poll so it cannot re-issue SIGSTOP
					// against a child that is trying to handle the
					// graceful signal.
					if loopCause == causeNone {
						throttleState.Update(clock.Now(clk, cfg.ClockMode))
					}
					mux.RegisterTimer(kqueuemux.TagThrottlePoll, identThrottlePoll, throttle.Interval)
				}

			case kqueuemux.TagSignalPipe:
				var b [8]byte
				sigPipeR.Read(b[:])
				pendingMu.Lock()
				sig := pendingSignal
				pendingMu.Unlock()
				if sig != 0 {
					child.Kill(sig)
					if loopCause == causeNone {
						loopCause = causeForwardedSignal
						forwardedSig = sig
					}
					logger.Debug("forwarded signal", zap.String("signal", sig.String()))
				}

			case kqueuemux.TagStdinRead:
				buf := make([]byte, 4096)
				n, rerr := rig.selfStdin.Read(buf)
				if n == 0 || rerr != nil {
					// EOF disables stdin-idle detection permanently (spec
					// §4.5/§4.8/§9): unregister both the read watch and
					// the idle timer itself, so only the wall deadline
					// (if any) can still fire.
					mux.UnregisterRead(rig.selfStdin.Fd())
					mux.Unregister(kqueuemux.TagDeadline, identStdinIdle, unix.EVFILT_TIMER)
				} else {
					rig.relay(buf[:n])
					mux.RegisterTimer(kqueuemux.TagDeadline, identStdinIdle, uint64(cfg.StdinIdle))
				}
			}
		}
	}
}

// ceilSeconds rounds d up to the nearest whole second for RLIMIT_CPU, which
// only accepts integer seconds. 0 disables the limit.
func ceilSeconds(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	secs := d / time.Second
	if d%time.Second != 0 {
		secs++
	}
	return uint64(secs)
}
