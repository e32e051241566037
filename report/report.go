package report

import (
	"encoding/json"
	"io"

	"github.com/criyle/darwin-timeout/runner"
)

// SchemaVersion is the current JSON report schema version from spec §6.
const SchemaVersion = 8

// attemptResult is one entry of the optional attempt_results array.
type attemptResult struct {
	Status   string `json:"status"`
	ExitCode int    `json:"exit_code"`
	ElapsedMs int64 `json:"elapsed_ms"`
}

// document is the full set of fields schema v8 may emit. Optional groups
// are pointers so encoding/json omits them entirely rather than emitting a
// zero value that would look like real data.
type document struct {
	SchemaVersion int    `json:"schema_version"`
	Status        string `json:"status"`
	Clock         string `json:"clock"`
	ElapsedMs     int64  `json:"elapsed_ms"`
	UserTimeMs    int64  `json:"user_time_ms"`
	SystemTimeMs  int64  `json:"system_time_ms"`
	MaxRSSKb      int64  `json:"max_rss_kb"`

	TimeoutReason    string `json:"timeout_reason,omitempty"`
	Signal           string `json:"signal,omitempty"`
	SignalNum        *int   `json:"signal_num,omitempty"`
	Killed           *bool  `json:"killed,omitempty"`
	CommandExitCode  *int   `json:"command_exit_code,omitempty"`
	ExitCode         *int   `json:"exit_code,omitempty"`

	HookRan       *bool `json:"hook_ran,omitempty"`
	HookExitCode  *int  `json:"hook_exit_code,omitempty"`
	HookTimedOut  *bool `json:"hook_timed_out,omitempty"`
	HookElapsedMs *int64 `json:"hook_elapsed_ms,omitempty"`

	Attempts       *int            `json:"attempts,omitempty"`
	AttemptResults []attemptResult `json:"attempt_results,omitempty"`

	LimitBytes  *uint64 `json:"limit_bytes,omitempty"`
	ActualBytes *uint64 `json:"actual_bytes,omitempty"`

	Error string `json:"error,omitempty"`
}

// Write marshals result as a single-line schema-v8 JSON object to w.
func Write(w io.Writer, result runner.Result, cfg runner.Config) error {
	doc := build(result, cfg)
	enc := json.NewEncoder(w)
	return enc.Encode(doc)
}

func build(result runner.Result, cfg runner.Config) document {
	o := result.FinalOutcome
	d := document{
		SchemaVersion: SchemaVersion,
		Status:        o.Status.String(),
		Clock:         cfg.ClockMode.String(),
		ElapsedMs:     int64(o.ElapsedNs / 1_000_000),
		UserTimeMs:    int64(o.UserNs / 1_000_000),
		SystemTimeMs:  int64(o.SystemNs / 1_000_000),
		MaxRSSKb:      int64(o.MaxRSSBytes / 1024),
	}

	switch o.Status {
	case runner.StatusTimedOut:
		d.TimeoutReason = o.TimeoutReason.String()
		d.Signal = o.Signal.String()
		num := int(o.Signal)
		d.SignalNum = &num
		killed := o.Killed
		d.Killed = &killed
		cmdExit := o.ExitCode
		d.CommandExitCode = &cmdExit
		exitCode := o.ProcessExitCode(cfg.TimeoutExitCode, cfg.PreserveStatus)
		d.ExitCode = &exitCode
	case runner.StatusSignalForwarded:
		d.Signal = o.ForwardedSignal.String()
		num := int(o.ForwardedSignal)
		d.SignalNum = &num
		exitCode := o.ProcessExitCode(cfg.TimeoutExitCode, cfg.PreserveStatus)
		d.ExitCode = &exitCode
	case runner.StatusMemoryExceeded:
		limit := o.MemLimitBytes
		d.LimitBytes = &limit
		observed := o.MemObservedBytes
		d.ActualBytes = &observed
		exitCode := o.ProcessExitCode(cfg.TimeoutExitCode, cfg.PreserveStatus)
		d.ExitCode = &exitCode
	case runner.StatusCompleted:
		exitCode := o.ExitCode
		d.ExitCode = &exitCode
	case runner.StatusError:
		d.Error = o.ErrorMessage
	}

	if o.Hook != nil {
		ran := o.Hook.Ran
		d.HookRan = &ran
		exitCode := o.Hook.ExitCode
		d.HookExitCode = &exitCode
		timedOut := o.Hook.TimedOut
		d.HookTimedOut = &timedOut
		elapsedMs := o.Hook.Elapsed.Milliseconds()
		d.HookElapsedMs = &elapsedMs
	}

	if cfg.RetryCount > 0 {
		n := len(result.Attempts)
		d.Attempts = &n
		for _, a := range result.Attempts {
			d.AttemptResults = append(d.AttemptResults, attemptResult{
				Status:    a.Status.String(),
				ExitCode:  a.ProcessExitCode(cfg.TimeoutExitCode, cfg.PreserveStatus),
				ElapsedMs: int64(a.ElapsedNs / 1_000_000),
			})
		}
	}

	return d
}
