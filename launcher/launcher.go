package launcher

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/criyle/darwin-timeout/rlimit"
)

// Options configures one spawn.
type Options struct {
	Dir        string
	Env        []string
	Stdin      *os.File // nil inherits the parent's stdin
	Stdout     *os.File
	Stderr     *os.File
	Foreground bool
	RLimits    rlimit.Limits
}

// ProcessStats carries the rusage-derived metrics spec §3 attaches to every
// AttemptOutcome.
type ProcessStats struct {
	ExitCode int  // valid when !Signaled
	Signaled bool
	Signal   syscall.Signal

	UserNs      uint64
	SystemNs    uint64
	MaxRSSBytes uint64
}

// Child owns exactly one OS process (ChildHandle from the data model). Wait
// is safe to call at most once for real; subsequent calls return the first
// result. Kill is idempotent once Wait has returned.
type Child struct {
	pid        int
	pgid       int
	foreground bool

	waitOnce sync.Once
	stats    ProcessStats
	waitErr  error

	mu     sync.Mutex
	waited bool
	killed bool
}

// PID returns the child's process id.
func (c *Child) PID() int { return c.pid }

// PGID returns the child's process group id (equal to PID unless spawned
// foreground, in which case it is the parent's process group).
func (c *Child) PGID() int { return c.pgid }

// Spawn resolves argv0 on PATH and spawns the command. Lookup failures are
// classified per spec §4.4/§7: not found -> ErrCommandNotFound (127), found
// but not executable -> ErrCommandNotExecutable (126).
func Spawn(argv0 string, args []string, opts Options) (*Child, error) {
	path, err := exec.LookPath(argv0)
	if err != nil {
		return nil, classifyLookupError(argv0, err)
	}

	pid, err := spawnChild(path, args, opts)
	if err != nil {
		return nil, fmt.Errorf("launcher: spawn failed: %w", err)
	}

	pgid := pid
	if opts.Foreground {
		pgid, _ = syscall.Getpgid(os.Getpid())
	}
	return &Child{pid: pid, pgid: pgid, foreground: opts.Foreground}, nil
}

// Wait blocks until the child exits, returning its stats exactly once; a
// second call returns the cached first result without touching the OS, so
// error-cleanup paths may call it safely alongside the main loop.
func (c *Child) Wait() (ProcessStats, error) {
	c.waitOnce.Do(func() {
		var ws syscall.WaitStatus
		var ru syscall.Rusage
		_, err := syscall.Wait4(c.pid, &ws, 0, &ru)
		c.mu.Lock()
		c.waited = true
		c.mu.Unlock()
		if err != nil {
			c.waitErr = fmt.Errorf("launcher: wait4: %w", err)
			return
		}
		c.stats = statsFromWaitStatus(ws, ru)
	})
	return c.stats, c.waitErr
}

// Kill sends sig to the child's process group (or just the PID if spawned
// foreground). It is a no-op once Wait has returned, and ESRCH is treated
// as success since the process is already gone.
func (c *Child) Kill(sig syscall.Signal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.waited {
		return nil
	}
	target := -c.pgid
	if c.foreground {
		target = c.pid
	}
	err := syscall.Kill(target, sig)
	if errors.Is(err, syscall.ESRCH) {
		return nil
	}
	c.killed = true
	return err
}

func statsFromWaitStatus(ws syscall.WaitStatus, ru syscall.Rusage) ProcessStats {
	s := ProcessStats{
		UserNs:      rusageToNs(ru.Utime),
		SystemNs:    rusageToNs(ru.Stime),
		MaxRSSBytes: uint64(ru.Maxrss),
	}
	if ws.Signaled() {
		s.Signaled = true
		s.Signal = ws.Signal()
	} else {
		s.ExitCode = ws.ExitStatus()
	}
	return s
}

func rusageToNs(tv syscall.Timeval) uint64 {
	return uint64(tv.Sec)*1_000_000_000 + uint64(tv.Usec)*1_000
}

func classifyLookupError(argv0 string, err error) error {
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		if errors.Is(execErr.Err, exec.ErrNotFound) {
			return &NotFoundError{Path: argv0}
		}
	}
	if errors.Is(err, fs.ErrPermission) {
		return &NotExecutableError{Path: argv0}
	}
	if errors.Is(err, fs.ErrNotExist) {
		return &NotFoundError{Path: argv0}
	}
	return &NotFoundError{Path: argv0, Cause: err}
}

// NotFoundError reports a command that could not be found on PATH.
type NotFoundError struct {
	Path  string
	Cause error
}

func (e *NotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("launcher: %q not found: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("launcher: %q not found", e.Path)
}

// NotExecutableError reports a command found on PATH but lacking the
// executable bit.
type NotExecutableError struct {
	Path string
}

func (e *NotExecutableError) Error() string {
	return fmt.Sprintf("launcher: %q is not executable", e.Path)
}
