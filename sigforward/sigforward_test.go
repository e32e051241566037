package sigforward

import (
	"syscall"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestHubForwardsSignal(t *testing.T) {
	h := New()
	defer h.Stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("kill: %v", err)
	}

	select {
	case sig := <-h.C():
		if sig != unix.SIGUSR1 {
			t.Errorf("got signal %v, want SIGUSR1", sig)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for forwarded signal")
	}
}

func TestHubCoalescesBurst(t *testing.T) {
	h := New()
	defer h.Stop()

	for i := 0; i < 5; i++ {
		_ = syscall.Kill(syscall.Getpid(), syscall.SIGUSR2)
	}

	select {
	case sig := <-h.C():
		if sig != unix.SIGUSR2 {
			t.Errorf("got signal %v, want SIGUSR2", sig)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for forwarded signal")
	}

	select {
	case sig := <-h.C():
		t.Errorf("expected channel to be drained, got extra signal %v", sig)
	case <-time.After(100 * time.Millisecond):
	}
}
