package retry

import (
	"context"
	"math"
	"math/bits"
	"time"

	"github.com/criyle/darwin-timeout/runner"
)

// AttemptFunc runs exactly one attempt and is satisfied by supervisor.Run.
type AttemptFunc func(ctx context.Context, cfg runner.Config, argv []string) (runner.AttemptOutcome, error)

// Run drives up to cfg.RetryCount+1 attempts per spec §4.9: only a
// TimedOut outcome is retried, every other outcome (Completed,
// MemoryExceeded, SignalForwarded, Error) stops the loop immediately. The
// delay between attempts starts at cfg.RetryDelay and is scaled by
// cfg.RetryBackoffNum/RetryBackoffDen after every retried attempt.
func Run(ctx context.Context, cfg runner.Config, argv []string, runOnce AttemptFunc) (runner.Result, error) {
	result := runner.Result{}
	delay := cfg.RetryDelay

	for attempt := 0; attempt <= cfg.RetryCount; attempt++ {
		outcome, err := runOnce(ctx, cfg, argv)
		if err != nil {
			return result, err
		}

		result.Attempts = append(result.Attempts, outcome)
		result.FinalOutcome = outcome

		if outcome.Status != runner.StatusTimedOut {
			return result, nil
		}
		if attempt == cfg.RetryCount {
			return result, nil
		}

		if err := sleep(ctx, delay); err != nil {
			return result, err
		}
		delay = nextDelay(delay, cfg.RetryBackoffNum, cfg.RetryBackoffDen)
	}

	return result, nil
}

// sleep blocks for d or until ctx is cancelled, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// nextDelay scales d by num/den, saturating at the maximum representable
// duration instead of overflowing. den == 0 leaves the delay unchanged,
// treating a malformed ratio the same as the documented 1/1 default.
func nextDelay(d time.Duration, num, den uint64) time.Duration {
	if den == 0 || d <= 0 {
		return d
	}
	hi, lo := bits.Mul64(uint64(d), num)
	if hi >= den {
		return time.Duration(math.MaxInt64)
	}
	q, _ := bits.Div64(hi, lo, den)
	if q > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(q)
}
