package retry

import (
	"context"
	"testing"
	"time"

	"github.com/criyle/darwin-timeout/runner"
)

func TestRunStopsOnCompleted(t *testing.T) {
	calls := 0
	fn := func(ctx context.Context, cfg runner.Config, argv []string) (runner.AttemptOutcome, error) {
		calls++
		return runner.AttemptOutcome{Status: runner.StatusCompleted, ExitCode: 0}, nil
	}
	cfg := runner.Default()
	cfg.RetryCount = 3

	result, err := Run(context.Background(), cfg, []string{"true"}, fn)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (non-timeout outcome must not retry)", calls)
	}
	if len(result.Attempts) != 1 {
		t.Errorf("len(Attempts) = %d, want 1", len(result.Attempts))
	}
	if result.FinalOutcome.Status != runner.StatusCompleted {
		t.Errorf("FinalOutcome.Status = %v, want Completed", result.FinalOutcome.Status)
	}
}

func TestRunRetriesOnTimeout(t *testing.T) {
	calls := 0
	fn := func(ctx context.Context, cfg runner.Config, argv []string) (runner.AttemptOutcome, error) {
		calls++
		if calls < 3 {
			return runner.AttemptOutcome{Status: runner.StatusTimedOut}, nil
		}
		return runner.AttemptOutcome{Status: runner.StatusCompleted}, nil
	}
	cfg := runner.Default()
	cfg.RetryCount = 5
	cfg.RetryDelay = time.Millisecond

	result, err := Run(context.Background(), cfg, []string{"true"}, fn)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if len(result.Attempts) != 3 {
		t.Errorf("len(Attempts) = %d, want 3", len(result.Attempts))
	}
	if result.FinalOutcome.Status != runner.StatusCompleted {
		t.Errorf("FinalOutcome.Status = %v, want Completed", result.FinalOutcome.Status)
	}
}

func TestRunExhaustsRetryCount(t *testing.T) {
	calls := 0
	fn := func(ctx context.Context, cfg runner.Config, argv []string) (runner.AttemptOutcome, error) {
		calls++
		return runner.AttemptOutcome{Status: runner.StatusTimedOut}, nil
	}
	cfg := runner.Default()
	cfg.RetryCount = 2
	cfg.RetryDelay = time.Millisecond

	result, err := Run(context.Background(), cfg, []string{"true"}, fn)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (RetryCount+1 attempts)", calls)
	}
	if result.FinalOutcome.Status != runner.StatusTimedOut {
		t.Errorf("FinalOutcome.Status = %v, want TimedOut", result.FinalOutcome.Status)
	}
}

func TestRunNoRetryByDefault(t *testing.T) {
	calls := 0
	fn := func(ctx context.Context, cfg runner.Config, argv []string) (runner.AttemptOutcome, error) {
		calls++
		return runner.AttemptOutcome{Status: runner.StatusTimedOut}, nil
	}
	cfg := runner.Default()

	result, err := Run(context.Background(), cfg, []string{"true"}, fn)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 when RetryCount is 0", calls)
	}
	if result.FinalOutcome.Status != runner.StatusTimedOut {
		t.Errorf("FinalOutcome.Status = %v, want TimedOut", result.FinalOutcome.Status)
	}
}

func TestRunPropagatesError(t *testing.T) {
	fn := func(ctx context.Context, cfg runner.Config, argv []string) (runner.AttemptOutcome, error) {
		return runner.AttemptOutcome{}, context.Canceled
	}
	cfg := runner.Default()
	cfg.RetryCount = 3

	_, err := Run(context.Background(), cfg, []string{"true"}, fn)
	if err == nil {
		t.Fatal("expected error to propagate from runOnce")
	}
}

func TestNextDelayScalesByRatio(t *testing.T) {
	d := nextDelay(100*time.Millisecond, 3, 2)
	want := 150 * time.Millisecond
	if d != want {
		t.Errorf("nextDelay(100ms, 3, 2) = %v, want %v", d, want)
	}
}

func TestNextDelayIdentityRatio(t *testing.T) {
	d := nextDelay(250*time.Millisecond, 1, 1)
	if d != 250*time.Millisecond {
		t.Errorf("nextDelay with 1/1 ratio changed delay: got %v", d)
	}
}

func TestNextDelaySaturatesOnOverflow(t *testing.T) {
	d := nextDelay(time.Duration(1)<<60, 1<<40, 1)
	if d <= 0 {
		t.Errorf("expected saturated positive duration, got %v", d)
	}
}
