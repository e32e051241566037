package throttle

import (
	"errors"
	"syscall"
	"testing"
)

func TestCPUBudget(t *testing.T) {
	tests := []struct {
		wallNs  uint64
		percent uint64
		want    uint64
	}{
		{1_000_000_000, 50, 500_000_000},
		{1_000_000_000, 100, 1_000_000_000},
		{1_000_000_000, 400, 4_000_000_000},
		{1_000_000_000, 1400, 14_000_000_000},
		{10_000_000_000, 50, 5_000_000_000},
	}
	for _, tt := range tests {
		if got := cpuBudget(tt.wallNs, tt.percent); got != tt.want {
			t.Errorf("cpuBudget(%d,%d) = %d, want %d", tt.wallNs, tt.percent, got, tt.want)
		}
	}
}

func fakeReader(seq []uint64) CPUTimeReader {
	i := 0
	return func(int) (uint64, error) {
		if i >= len(seq) {
			i = len(seq) - 1
		}
		v := seq[i]
		i++
		return v, nil
	}
}

func newTestState(t *testing.T, percent uint32, seq []uint64) (*State, *[]syscall.Signal) {
	t.Helper()
	var sent []syscall.Signal
	s, err := New(999999, percent, 0, fakeReader(seq))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.signal = func(pid int, sig syscall.Signal) error {
		sent = append(sent, sig)
		return nil
	}
	return s, &sent
}

func TestStateSuspendsOverBudget(t *testing.T) {
	s, sent := newTestState(t, 50, []uint64{0, 600_000_000})

	suspended, err := s.Update(1_000_000_000)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !suspended {
		t.Error("expected suspended after going over budget")
	}
	if len(*sent) != 1 || (*sent)[0] != syscall.SIGSTOP {
		t.Errorf("expected a single SIGSTOP, got %v", *sent)
	}
}

func TestStateResumesUnderBudget(t *testing.T) {
	s, sent := newTestState(t, 50, []uint64{0, 600_000_000, 600_000_000})

	if _, err := s.Update(1_000_000_000); err != nil {
		t.Fatalf("Update 1: %v", err)
	}
	// wall advances a lot further while CPU stays flat -> back under budget
	suspended, err := s.Update(10_000_000_000)
	if err != nil {
		t.Fatalf("Update 2: %v", err)
	}
	if suspended {
		t.Error("expected resumed once back under budget")
	}
	if len(*sent) != 2 || (*sent)[0] != syscall.SIGSTOP || (*sent)[1] != syscall.SIGCONT {
		t.Errorf("expected SIGSTOP then SIGCONT, got %v", *sent)
	}
}

func TestResumeNoopWhenNotSuspended(t *testing.T) {
	s, sent := newTestState(t, 50, []uint64{0})
	s.Resume()
	if len(*sent) != 0 {
		t.Errorf("expected no signal sent, got %v", *sent)
	}
}

func TestNeverResumesAfterExit(t *testing.T) {
	s, sent := newTestState(t, 50, []uint64{0, 600_000_000})
	if _, err := s.Update(1_000_000_000); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !s.Suspended() {
		t.Fatal("expected suspended before exit")
	}

	s.MarkExited()
	s.Resume()
	if s.Suspended() {
		t.Error("MarkExited must clear suspended")
	}
	if len(*sent) != 1 {
		t.Errorf("expected no further signal after exit, got %v", *sent)
	}

	suspended, err := s.Update(2_000_000_000)
	if err != nil {
		t.Fatalf("Update after exit: %v", err)
	}
	if suspended {
		t.Error("Update must stay a no-op after MarkExited")
	}
}

func TestNewRejectsZeroPercent(t *testing.T) {
	_, err := New(1, 0, 0, fakeReader([]uint64{0}))
	if err == nil {
		t.Error("expected error for zero percent")
	}
}

func TestNewPropagatesReaderError(t *testing.T) {
	_, err := New(1, 50, 0, func(int) (uint64, error) { return 0, errors.New("gone") })
	if err == nil {
		t.Error("expected error propagated from reader")
	}
}
