package report

import (
	"bytes"
	"encoding/json"
	"syscall"
	"testing"

	"github.com/criyle/darwin-timeout/runner"
)

func TestWriteCompleted(t *testing.T) {
	var buf bytes.Buffer
	result := runner.Result{FinalOutcome: runner.AttemptOutcome{Status: runner.StatusCompleted, ExitCode: 0}}
	cfg := runner.Default()

	if err := Write(&buf, result, cfg); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("not valid single json object: %v", err)
	}
	if got["schema_version"] != float64(8) {
		t.Errorf("schema_version = %v, want 8", got["schema_version"])
	}
	if got["status"] != "completed" {
		t.Errorf("status = %v, want completed", got["status"])
	}
	if got["exit_code"] != float64(0) {
		t.Errorf("exit_code = %v, want 0", got["exit_code"])
	}
	if _, present := got["timeout_reason"]; present {
		t.Error("timeout_reason should be absent for completed status")
	}
}

func TestWriteTimeout(t *testing.T) {
	var buf bytes.Buffer
	result := runner.Result{FinalOutcome: runner.AttemptOutcome{
		Status:        runner.StatusTimedOut,
		TimeoutReason: runner.ReasonWallClock,
		Signal:        syscall.SIGTERM,
		Killed:        false,
		ExitCode:      0,
	}}
	cfg := runner.Default()

	if err := Write(&buf, result, cfg); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("not valid json: %v", err)
	}
	if got["timeout_reason"] != "wall_clock" {
		t.Errorf("timeout_reason = %v, want wall_clock", got["timeout_reason"])
	}
	if got["exit_code"] != float64(124) {
		t.Errorf("exit_code = %v, want 124", got["exit_code"])
	}
}

func TestWriteSingleLine(t *testing.T) {
	var buf bytes.Buffer
	result := runner.Result{FinalOutcome: runner.AttemptOutcome{Status: runner.StatusCompleted}}
	if err := Write(&buf, result, runner.Default()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n := bytes.Count(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n")); n != 0 {
		t.Errorf("expected single-line output, found %d embedded newlines", n)
	}
}
