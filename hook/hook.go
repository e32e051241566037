package hook

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/criyle/darwin-timeout/runner"
)

// Substitute replaces %p with pid and %% with a literal % in cmdline, per
// spec §4.8/§6.
func Substitute(cmdline string, pid int) string {
	var b strings.Builder
	r := []rune(cmdline)
	for i := 0; i < len(r); i++ {
		if r[i] == '%' && i+1 < len(r) {
			switch r[i+1] {
			case 'p':
				b.WriteString(strconv.Itoa(pid))
				i++
				continue
			case '%':
				b.WriteByte('%')
				i++
				continue
			}
		}
		b.WriteRune(r[i])
	}
	return b.String()
}

// Run launches cmdline (after %p/%% substitution) via sh -c and waits up
// to limit for it to finish. A launch failure is reported as !Ran without
// returning an error: per spec §4.11, a hook failure is recorded in the
// outcome, never propagated, and the graceful signal is still sent
// afterward.
func Run(ctx context.Context, cmdline string, pid int, limit time.Duration) runner.HookResult {
	substituted := Substitute(cmdline, pid)

	hookCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(hookCtx, "sh", "-c", substituted)
	err := cmd.Run()
	elapsed := time.Since(start)

	result := runner.HookResult{Elapsed: elapsed}
	if hookCtx.Err() == context.DeadlineExceeded {
		result.Ran = true
		result.TimedOut = true
		return result
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.Ran = true
		result.ExitCode = 0
	case asExitError(err, &exitErr):
		result.Ran = true
		result.ExitCode = exitErr.ExitCode()
	default:
		result.Ran = false
	}
	return result
}

func asExitError(err error, target **exec.ExitError) bool {
	if ee, ok := err.(*exec.ExitError); ok {
		*target = ee
		return true
	}
	return false
}
