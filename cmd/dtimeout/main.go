// Command dtimeout is a GNU timeout(1)-compatible process supervisor with
// sleep-resilient wall-clock timing, stdin-idle detection, retry/backoff,
// a pre-termination hook, and memory/CPU enforcement. See spec.md for the
// full behavior this implements.
package main

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/criyle/darwin-timeout/report"
	"github.com/criyle/darwin-timeout/retry"
	"github.com/criyle/darwin-timeout/runner"
	"github.com/criyle/darwin-timeout/supervisor"
	"github.com/criyle/darwin-timeout/waitgate"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	f := newCLIFlags()
	if err := f.fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	cfg, argv, err := resolveConfig(f, f.fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "dtimeout: %v\n", err)
		f.fs.Usage()
		return runner.ErrParseError.ExitCode()
	}

	logger := newLogger(cfg.Verbose, cfg.Quiet)
	defer logger.Sync()

	if cfg.StdinIdle > 0 && !cfg.Foreground && !term.IsTerminal(int(os.Stdin.Fd())) {
		logger.Debug("stdin is not a terminal, idle detection tracks pipe activity rather than keystrokes")
	}

	ctx := context.Background()

	if cfg.WaitForFile != "" {
		if err := waitgate.Wait(ctx, cfg.WaitForFile, cfg.WaitForFileTimeout); err != nil {
			logger.Error("wait-for-file failed", zap.Error(err))
			return runner.ErrInternal.ExitCode()
		}
	}

	sup := supervisor.New(logger)
	result, err := retry.Run(ctx, cfg, argv, sup.Run)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dtimeout: %v\n", err)
		return runner.ErrInternal.ExitCode()
	}

	if f.jsonOutput {
		if err := report.Write(os.Stdout, result, cfg); err != nil {
			logger.Error("failed to write json report", zap.Error(err))
		}
	} else if result.FinalOutcome.Status == runner.StatusError {
		fmt.Fprintf(os.Stderr, "dtimeout: %s\n", result.FinalOutcome.ErrorMessage)
	}

	return result.FinalOutcome.ProcessExitCode(cfg.TimeoutExitCode, cfg.PreserveStatus)
}

// newLogger builds a stderr console logger. --json keeps diagnostics off
// stdout so a JSON report there stays parseable; this always writes to
// stderr, leaving that choice with the caller regardless.
func newLogger(verbose, quiet bool) *zap.Logger {
	level := zapcore.InfoLevel
	switch {
	case verbose:
		level = zapcore.DebugLevel
	case quiet:
		level = zapcore.WarnLevel
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = ""
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		level,
	)
	return zap.New(core)
}
