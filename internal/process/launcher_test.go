//go:build unix

package process

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func shSpec(script string) Spec {
	return Spec{
		Name:   "test-sh",
		Binary: "/bin/sh",
		Args:   []string{"-c", script},
	}
}

func launch(t *testing.T, spec Spec) *Handle {
	t.Helper()
	h, err := NewLauncher().Launch(context.Background(), spec)
	if err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	t.Cleanup(func() {
		_ = h.Stop(time.Second)
		h.Release()
	})
	return h
}

func waitDone(t *testing.T, h *Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit in time")
	}
}

func TestLaunch_ObserveAlive(t *testing.T) {
	h := launch(t, shSpec("sleep 30"))

	if h.PID() <= 0 {
		t.Errorf("PID() = %d, want > 0", h.PID())
	}
	if err := h.Observe(context.Background(), 100*time.Millisecond); err != nil {
		t.Fatalf("Observe() error = %v, want nil", err)
	}
	if !h.Alive() {
		t.Error("Alive() = false after surviving observation")
	}
	if h.ExitErr() != nil {
		t.Errorf("ExitErr() = %v while running, want nil", h.ExitErr())
	}

	if err := h.Stop(2 * time.Second); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if h.Alive() {
		t.Error("Alive() = true after Stop()")
	}
}

func TestLaunch_ObserveExited(t *testing.T) {
	h := launch(t, shSpec("exit 3"))

	err := h.Observe(context.Background(), 5*time.Second)
	if !errors.Is(err, ErrExited) {
		t.Fatalf("Observe() error = %v, want ErrExited", err)
	}
	if h.Alive() {
		t.Error("Alive() = true after exit")
	}
	if h.ExitErr() == nil {
		t.Error("ExitErr() = nil, want non-zero exit status")
	}
}

func TestLaunch_ObserveContextCancelled(t *testing.T) {
	h := launch(t, shSpec("sleep 30"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := h.Observe(ctx, 5*time.Second); !errors.Is(err, context.Canceled) {
		t.Errorf("Observe() error = %v, want context.Canceled", err)
	}
}

func TestLaunch_EnvironmentIsPerChild(t *testing.T) {
	before, hadBefore := os.LookupEnv("PHOTOLIVE_TEST_PORT")

	spec := shSpec(`test "$PHOTOLIVE_TEST_PORT" = "4321"`)
	spec.Env = []string{"PHOTOLIVE_TEST_PORT=4321"}
	h := launch(t, spec)
	waitDone(t, h)

	if err := h.ExitErr(); err != nil {
		t.Errorf("child did not see its port variable: %v", err)
	}

	after, hadAfter := os.LookupEnv("PHOTOLIVE_TEST_PORT")
	if before != after || hadBefore != hadAfter {
		t.Error("host environment was modified by Launch()")
	}
}

func TestLaunch_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	spec := shSpec("touch marker")
	spec.Dir = dir

	h := launch(t, spec)
	waitDone(t, h)

	if _, err := os.Stat(filepath.Join(dir, "marker")); err != nil {
		t.Errorf("marker not created in working directory: %v", err)
	}
}

func TestLaunch_MissingBinary(t *testing.T) {
	_, err := NewLauncher().Launch(context.Background(), Spec{
		Name:   "missing",
		Binary: "/nonexistent/photolive-node",
	})
	if err == nil {
		t.Fatal("Launch() expected error for missing binary, got nil")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Launch() error = %v, want fs.ErrNotExist", err)
	}
}

func TestLaunch_EmptyBinary(t *testing.T) {
	if _, err := NewLauncher().Launch(context.Background(), Spec{Name: "empty"}); err == nil {
		t.Error("Launch() expected error for empty binary, got nil")
	}
}

func TestLaunch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewLauncher().Launch(ctx, shSpec("sleep 30")); !errors.Is(err, context.Canceled) {
		t.Errorf("Launch() error = %v, want context.Canceled", err)
	}
}

func TestLaunch_OutlivesLaunchContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h, err := NewLauncher().Launch(ctx, shSpec("sleep 30"))
	if err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	defer h.Release()
	defer h.Stop(time.Second) //nolint:errcheck

	cancel()
	if err := h.Observe(context.Background(), 200*time.Millisecond); err != nil {
		t.Errorf("child died with its launch context: %v", err)
	}
}

func TestHandle_StopEscalatesToKill(t *testing.T) {
	// Ignored signals stay ignored across exec, so sleep ignores TERM too.
	h := launch(t, shSpec(`trap "" TERM; sleep 30`))
	if err := h.Observe(context.Background(), 200*time.Millisecond); err != nil {
		t.Fatalf("Observe() error = %v", err)
	}

	start := time.Now()
	if err := h.Stop(300 * time.Millisecond); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 300*time.Millisecond {
		t.Errorf("Stop() returned after %v, expected to wait for the graceful timeout", elapsed)
	}
	if h.Alive() {
		t.Error("Alive() = true after forced Stop()")
	}
}

func TestHandle_StopAfterExit(t *testing.T) {
	h := launch(t, shSpec("exit 0"))
	waitDone(t, h)

	if err := h.Stop(time.Second); err != nil {
		t.Errorf("Stop() on exited process error = %v", err)
	}
	if err := h.ExitErr(); err != nil {
		t.Errorf("ExitErr() = %v, want nil for clean exit", err)
	}
}

func TestHandle_ReleaseIdempotent(t *testing.T) {
	h := launch(t, shSpec("exit 0"))
	waitDone(t, h)

	h.Release()
	h.Release()
}

func TestLaunch_CapturesOutput(t *testing.T) {
	rec := &recordingLogger{}
	spec := shSpec("echo hello; echo world >&2; printf tail")
	spec.Output = NewLogWriter(rec, "test-sh")

	h := launch(t, spec)
	waitDone(t, h)

	got := rec.outputs()
	want := []string{"hello", "world", "tail"}
	if len(got) != len(want) {
		t.Fatalf("captured %v, want %v", got, want)
	}
	for _, line := range want {
		found := false
		for _, g := range got {
			if g == line {
				found = true
			}
		}
		if !found {
			t.Errorf("line %q not captured in %v", line, got)
		}
	}
}
