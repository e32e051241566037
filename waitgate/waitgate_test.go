package waitgate

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWaitAlreadyExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := Wait(ctx, path, 0); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestWaitAppearsLater(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")

	go func() {
		time.Sleep(150 * time.Millisecond)
		_ = os.WriteFile(path, nil, 0o644)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := Wait(ctx, path, 0); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestWaitTimesOut(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "never")

	ctx := context.Background()
	if err := Wait(ctx, path, 150*time.Millisecond); err == nil {
		t.Fatal("expected timeout error")
	}
}
