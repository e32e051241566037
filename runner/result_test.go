package runner

import (
	"syscall"
	"testing"
)

func TestProcessExitCode(t *testing.T) {
	tests := []struct {
		name           string
		o              AttemptOutcome
		timeoutExit    int
		preserveStatus bool
		want           int
	}{
		{
			name: "completed",
			o:    AttemptOutcome{Status: StatusCompleted, ExitCode: 3},
			want: 3,
		},
		{
			name:        "timed out default",
			o:           AttemptOutcome{Status: StatusTimedOut, ExitCode: 0},
			timeoutExit: 124,
			want:        124,
		},
		{
			name:           "timed out preserve status",
			o:              AttemptOutcome{Status: StatusTimedOut, ExitCode: 15},
			preserveStatus: true,
			want:           15,
		},
		{
			// Escalation reports the graceful signal in Signal (TERM, not
			// KILL); the 128+KILL exit code comes from the reaped
			// command_exit_code instead.
			name:        "timed out escalated to kill",
			o:           AttemptOutcome{Status: StatusTimedOut, Killed: true, Signal: syscall.SIGTERM, ExitCode: 128 + 9},
			timeoutExit: 124,
			want:        128 + 9,
		},
		{
			name: "signal forwarded",
			o:    AttemptOutcome{Status: StatusSignalForwarded, ForwardedSignal: syscall.SIGTERM},
			want: 128 + 15,
		},
		{
			name: "memory exceeded killed",
			o:    AttemptOutcome{Status: StatusMemoryExceeded, Killed: true, Signal: syscall.SIGTERM, ExitCode: 128 + 9},
			want: 128 + 9,
		},
		{
			name:        "memory exceeded not killed",
			o:           AttemptOutcome{Status: StatusMemoryExceeded},
			timeoutExit: 124,
			want:        124,
		},
		{
			name: "error",
			o:    AttemptOutcome{Status: StatusError, ErrorKind: ErrCommandNotFound},
			want: 127,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.o.ProcessExitCode(tt.timeoutExit, tt.preserveStatus)
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}
