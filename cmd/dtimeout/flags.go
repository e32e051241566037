package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/criyle/darwin-timeout/clock"
	"github.com/criyle/darwin-timeout/parse"
	"github.com/criyle/darwin-timeout/runner"
)

// cliFlags holds the raw flag.FlagSet plus the string-typed flag targets.
// Strings are parsed (via the parse package) only after Parse returns, so a
// bad value is reported once, uniformly, rather than by pflag's own
// type-mismatch path.
type cliFlags struct {
	fs *flag.FlagSet

	signal             string
	killAfter          string
	preserveStatus     bool
	foreground         bool
	verbose            bool
	quiet              bool
	confine            string
	heartbeat          string
	stdinTimeout       string
	stdinPassthrough   bool
	retry              int
	retryDelay         string
	retryBackoff       string
	onTimeout          string
	onTimeoutLimit     string
	timeoutExitCode    int
	waitForFile        string
	waitForFileTimeout string
	memLimit           string
	cpuTime            string
	cpuPercent         uint32
	jsonOutput         bool
}

func newCLIFlags() *cliFlags {
	f := &cliFlags{fs: flag.NewFlagSet("dtimeout", flag.ContinueOnError)}
	fs := f.fs
	fs.Usage = func() { printUsage(fs) }

	fs.StringVarP(&f.signal, "signal", "s", "TERM", "graceful signal sent on timeout")
	fs.StringVarP(&f.killAfter, "kill-after", "k", "", "send KILL if the child is still alive this long after the graceful signal")
	fs.BoolVarP(&f.preserveStatus, "preserve-status", "p", false, "exit with the child's own status on timeout")
	fs.BoolVarP(&f.foreground, "foreground", "f", false, "keep the child in the caller's process group")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log at debug level")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "log at warn level")
	fs.StringVarP(&f.confine, "confine", "c", "wall", "clock mode: wall or active")
	fs.StringVarP(&f.heartbeat, "heartbeat", "H", "", "periodic status line to stderr")
	fs.StringVarP(&f.stdinTimeout, "stdin-timeout", "S", "", "kill the child once stdin is idle this long")
	fs.BoolVar(&f.stdinPassthrough, "stdin-passthrough", false, "relay stdin to the child instead of treating it as opaque")
	fs.IntVarP(&f.retry, "retry", "r", 0, "extra attempts after a timeout")
	fs.StringVar(&f.retryDelay, "retry-delay", "0", "delay before the first retry")
	fs.StringVar(&f.retryBackoff, "retry-backoff", "1x", "multiplier applied to the retry delay after each attempt")
	fs.StringVar(&f.onTimeout, "on-timeout", "", "command run before the graceful signal, %p for pid and %% for a literal percent")
	fs.StringVar(&f.onTimeoutLimit, "on-timeout-limit", "5s", "deadline for the on-timeout hook")
	fs.IntVar(&f.timeoutExitCode, "timeout-exit-code", 124, "exit code used to report a timeout")
	fs.StringVar(&f.waitForFile, "wait-for-file", "", "wait for path to exist before spawning the child")
	fs.StringVar(&f.waitForFileTimeout, "wait-for-file-timeout", "0", "deadline for --wait-for-file, 0 waits indefinitely")
	fs.StringVar(&f.memLimit, "mem-limit", "", "kill the child if its memory footprint exceeds this size")
	fs.StringVar(&f.cpuTime, "cpu-time", "", "RLIMIT_CPU applied to the child")
	fs.Uint32Var(&f.cpuPercent, "cpu-percent", 0, "throttle the child to this percent of one core, 0 disables")
	fs.BoolVar(&f.jsonOutput, "json", false, "emit a single-line JSON report on stdout instead of plain diagnostics")

	return f
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, "usage: %s [OPTIONS] DURATION COMMAND [ARG...]\n\n", os.Args[0])
	fs.PrintDefaults()
}

// applyEnv fills in a flag's value from its environment variable when the
// flag was never given on the command line, per spec §6: env vars provide
// defaults only, command-line flags always win.
func applyEnv(fs *flag.FlagSet, name, env string) {
	if fs.Changed(name) {
		return
	}
	if v, ok := os.LookupEnv(env); ok {
		fs.Set(name, v)
	}
}

// resolveConfig turns parsed flags plus the environment into a runner.Config
// and the positional duration/argv pair. durationStr may come from the
// positional DURATION argument or, when that argument is absent, the
// TIMEOUT environment variable with the remaining positionals all taken as
// the command.
func resolveConfig(f *cliFlags, args []string) (runner.Config, []string, error) {
	applyEnv(f.fs, "signal", "TIMEOUT_SIGNAL")
	applyEnv(f.fs, "kill-after", "TIMEOUT_KILL_AFTER")
	applyEnv(f.fs, "retry", "TIMEOUT_RETRY")
	applyEnv(f.fs, "heartbeat", "TIMEOUT_HEARTBEAT")
	applyEnv(f.fs, "stdin-timeout", "TIMEOUT_STDIN_TIMEOUT")
	applyEnv(f.fs, "wait-for-file", "TIMEOUT_WAIT_FOR_FILE")
	applyEnv(f.fs, "wait-for-file-timeout", "TIMEOUT_WAIT_FOR_FILE_TIMEOUT")

	if len(args) == 0 {
		return runner.Config{}, nil, fmt.Errorf("missing DURATION and COMMAND")
	}

	durationStr := args[0]
	argv := args[1:]
	timeout, err := parse.Duration(durationStr)
	if err != nil {
		envTimeout, ok := os.LookupEnv("TIMEOUT")
		if !ok {
			return runner.Config{}, nil, fmt.Errorf("invalid DURATION %q: %w", durationStr, err)
		}
		timeout, err = parse.Duration(envTimeout)
		if err != nil {
			return runner.Config{}, nil, fmt.Errorf("invalid TIMEOUT %q: %w", envTimeout, err)
		}
		argv = args
	}
	if len(argv) == 0 {
		return runner.Config{}, nil, fmt.Errorf("missing COMMAND")
	}

	cfg := runner.Default()
	cfg.Timeout = timeout
	cfg.PreserveStatus = f.preserveStatus
	cfg.Foreground = f.foreground
	cfg.Verbose = f.verbose
	cfg.Quiet = f.quiet
	cfg.StdinPassthrough = f.stdinPassthrough
	cfg.RetryCount = f.retry
	cfg.OnTimeoutCmd = f.onTimeout
	cfg.TimeoutExitCode = f.timeoutExitCode
	cfg.WaitForFile = f.waitForFile
	cfg.CPUPercent = f.cpuPercent

	sig, err := parse.Signal(f.signal)
	if err != nil {
		return runner.Config{}, nil, fmt.Errorf("invalid --signal: %w", err)
	}
	cfg.GracefulSignal = sig

	mode, ok := clock.ParseMode(f.confine)
	if !ok {
		return runner.Config{}, nil, fmt.Errorf("invalid --confine %q: want wall or active", f.confine)
	}
	cfg.ClockMode = mode

	if cfg.KillAfter, err = parseOptionalDuration(f.killAfter); err != nil {
		return runner.Config{}, nil, fmt.Errorf("invalid --kill-after: %w", err)
	}
	if cfg.Heartbeat, err = parseOptionalDuration(f.heartbeat); err != nil {
		return runner.Config{}, nil, fmt.Errorf("invalid --heartbeat: %w", err)
	}
	if cfg.StdinIdle, err = parseOptionalDuration(f.stdinTimeout); err != nil {
		return runner.Config{}, nil, fmt.Errorf("invalid --stdin-timeout: %w", err)
	}
	if cfg.RetryDelay, err = parseOptionalDuration(f.retryDelay); err != nil {
		return runner.Config{}, nil, fmt.Errorf("invalid --retry-delay: %w", err)
	}
	if cfg.OnTimeoutLimit, err = parseOptionalDuration(f.onTimeoutLimit); err != nil {
		return runner.Config{}, nil, fmt.Errorf("invalid --on-timeout-limit: %w", err)
	}
	if cfg.WaitForFileTimeout, err = parseOptionalDuration(f.waitForFileTimeout); err != nil {
		return runner.Config{}, nil, fmt.Errorf("invalid --wait-for-file-timeout: %w", err)
	}
	if cfg.CPUTime, err = parseOptionalDuration(f.cpuTime); err != nil {
		return runner.Config{}, nil, fmt.Errorf("invalid --cpu-time: %w", err)
	}

	if f.memLimit != "" {
		var sz runner.Size
		if err := sz.Set(f.memLimit); err != nil {
			return runner.Config{}, nil, fmt.Errorf("invalid --mem-limit: %w", err)
		}
		cfg.MemLimit = sz
	}

	num, den, err := parseBackoff(f.retryBackoff)
	if err != nil {
		return runner.Config{}, nil, fmt.Errorf("invalid --retry-backoff: %w", err)
	}
	cfg.RetryBackoffNum, cfg.RetryBackoffDen = num, den

	if cfg.TimeoutExitCode < 0 || cfg.TimeoutExitCode > 255 {
		return runner.Config{}, nil, fmt.Errorf("--timeout-exit-code must be 0-255")
	}
	if cfg.Verbose && cfg.Quiet {
		return runner.Config{}, nil, fmt.Errorf("--verbose and --quiet are mutually exclusive")
	}

	return cfg, argv, nil
}

func parseOptionalDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return parse.Duration(s)
}

// parseBackoff parses the "Nx" decimal multiplier grammar from spec §6 into
// an integer num/den ratio, fixed-point rather than float so it can scale
// a time.Duration without rounding error.
func parseBackoff(s string) (num, den uint64, err error) {
	s = strings.TrimSuffix(strings.TrimSuffix(s, "x"), "X")
	if s == "" {
		return 0, 0, fmt.Errorf("empty retry-backoff")
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if !hasFrac {
		n, perr := strconv.ParseUint(intPart, 10, 64)
		if perr != nil {
			return 0, 0, fmt.Errorf("invalid number %q", s)
		}
		return n, 1, nil
	}

	scale := uint64(1)
	for i := 0; i < len(fracPart); i++ {
		scale *= 10
	}
	whole := uint64(0)
	if intPart != "" {
		whole, err = strconv.ParseUint(intPart, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid number %q", s)
		}
	}
	frac, err := strconv.ParseUint(fracPart, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid number %q", s)
	}
	return whole*scale + frac, scale, nil
}
