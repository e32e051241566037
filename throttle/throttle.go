package throttle

import (
	"fmt"
	"syscall"
)

// Interval is the fixed sampling/control cadence from spec §4.6.
const Interval = 100_000_000 // 100ms in nanoseconds

// CPUTimeReader abstracts the cumulative CPU-time read so tests can supply
// a fake without touching procinfo/cgo.
type CPUTimeReader func(pid int) (uint64, error)

// State is the per-attempt throttle controller. Percent may exceed 100 to
// express a multi-core budget (a 4-thread process pegging 4 cores reports
// ~400% CPU usage).
type State struct {
	pid     int
	percent uint64

	startCPUNs  uint64
	startWallNs uint64

	suspended bool
	exited    bool

	readCPU CPUTimeReader
	signal  func(pid int, sig syscall.Signal) error
}

// New attaches throttle control to pid at the given percent target and
// starting wall-clock time. percent must be >= 1.
func New(pid int, percent uint32, nowNs uint64, readCPU CPUTimeReader) (*State, error) {
	if percent == 0 {
		return nil, fmt.Errorf("throttle: percent must be >= 1")
	}
	initialCPU, err := readCPU(pid)
	if err != nil {
		return nil, fmt.Errorf("throttle: attach failed for pid %d: %w", pid, err)
	}
	return &State{
		pid:         pid,
		percent:     uint64(percent),
		startCPUNs:  initialCPU,
		startWallNs: nowNs,
		readCPU:     readCPU,
		signal:      syscall.Kill,
	}, nil
}

// Suspended reports whether the controller currently believes the child is
// stopped.
func (s *State) Suspended() bool { return s.suspended }

// Update samples cumulative CPU time and issues a suspend or resume signal
// as needed. It returns the post-update suspended state. Once MarkExited
// has been called, Update is a no-op: the exited flag is sticky and no
// further resume is ever emitted, satisfying the invariant that a resume
// must never race a reaped child.
func (s *State) Update(nowNs uint64) (bool, error) {
	if s.exited {
		return s.suspended, nil
	}

	currentCPU, err := s.readCPU(s.pid)
	if err != nil {
		// process is gone from under us; leave state as-is for the
		// caller's own exit-detection path to call MarkExited.
		return s.suspended, nil
	}

	totalWall := saturatingSub(nowNs, s.startWallNs)
	totalCPU := saturatingSub(currentCPU, s.startCPUNs)

	if totalWall == 0 {
		return s.suspended, nil
	}

	budget := cpuBudget(totalWall, s.percent)

	if totalCPU > budget && !s.suspended {
		if err := s.signal(s.pid, syscall.SIGSTOP); err == nil {
			s.suspended = true
		}
	} else if totalCPU <= budget && s.suspended {
		if err := s.signal(s.pid, syscall.SIGCONT); err == nil {
			s.suspended = false
		}
	}

	return s.suspended, nil
}

// Resume unconditionally issues SIGCONT if the controller believes the
// child is suspended. Every termination path must call this before sending
// any other signal: a stopped process cannot run a signal handler, so
// sending SIGTERM to a SIGSTOP'd child deadlocks the state machine. ESRCH
// (child already reaped) is tolerated, not an error, per the specification's
// resolution of the suspend/exit race.
func (s *State) Resume() {
	if !s.suspended {
		return
	}
	_ = s.signal(s.pid, syscall.SIGCONT) // ESRCH tolerated: already gone
	s.suspended = false
}

// MarkExited records that the child has been reaped. After this call,
// Update and Resume are no-ops: no resume control signal is ever emitted
// for a child that no longer exists.
func (s *State) MarkExited() {
	s.exited = true
	s.suspended = false
}

func cpuBudget(totalWallNs, percent uint64) uint64 {
	hi, lo := mul128(totalWallNs, percent)
	if hi == 0 {
		return lo / 100
	}
	q, _ := div128(hi, lo, 100)
	return q
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
