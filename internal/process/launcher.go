package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// ErrExited is returned by Handle.Observe when the child exited during the
// observation window.
var ErrExited = errors.New("process exited")

// waitDelay bounds how long Wait keeps copying output after the child exits.
// Grandchildren holding the pipe open must not block the reaper forever.
const waitDelay = 2 * time.Second

// killWait is how long Stop waits for the child after a forceful kill.
const killWait = 5 * time.Second

// Spec describes a single subprocess launch.
type Spec struct {
	// Name is a human-readable identifier for logging.
	Name string

	// Binary is the path to the executable.
	Binary string

	// Args are command-line arguments to pass to the binary.
	Args []string

	// Dir is the working directory for the process.
	// If empty, inherits from parent process.
	Dir string

	// Env are additional environment variables (key=value format), appended
	// to the parent environment for this child only.
	Env []string

	// Output receives both stdout and stderr. If nil, output is discarded.
	Output io.Writer
}

// Logger defines the logging interface for the launcher.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Launcher spawns subprocesses.
type Launcher struct {
	logger Logger
}

// NewLauncher creates a launcher that logs nothing until SetLogger is called.
func NewLauncher() *Launcher {
	return &Launcher{logger: noopLogger{}}
}

// SetLogger sets the logger for the launcher and the handles it creates.
func (l *Launcher) SetLogger(logger Logger) {
	l.logger = logger
}

// Launch starts one subprocess described by spec.
//
// The context only gates the spawn itself: the child is deliberately not
// bound to ctx and keeps running after ctx is cancelled. Use Handle.Stop to
// end it.
func (l *Launcher) Launch(ctx context.Context, spec Spec) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if spec.Binary == "" {
		return nil, fmt.Errorf("launching %s: empty binary path", spec.Name)
	}

	cmd := exec.Command(spec.Binary, spec.Args...) //nolint:gosec // Binary comes from the runtime locator, not user input
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), spec.Env...)
	cmd.SysProcAttr = sysProcAttr()
	if spec.Output != nil {
		cmd.Stdout = spec.Output
		cmd.Stderr = spec.Output
		cmd.WaitDelay = waitDelay
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", spec.Name, err)
	}

	h := &Handle{
		name:    spec.Name,
		cmd:     cmd,
		pid:     cmd.Process.Pid,
		logger:  l.logger,
		started: time.Now(),
		done:    make(chan struct{}),
	}

	state, err := attach(cmd.Process)
	if err != nil {
		// The child is running; it just lacks the platform safety net.
		l.logger.Warn("failed to attach platform process controls",
			"name", spec.Name,
			"pid", h.pid,
			"error", err,
		)
	}
	h.platform = state

	go h.reap(spec.Output)

	l.logger.Info("process started",
		"name", spec.Name,
		"binary", spec.Binary,
		"args", spec.Args,
		"pid", h.pid,
	)

	return h, nil
}

// Handle exclusively owns one launched child process.
type Handle struct {
	name    string
	cmd     *exec.Cmd
	pid     int
	logger  Logger
	started time.Time

	// done is closed by the reaper after exitErr is set.
	done    chan struct{}
	exitErr error

	platform    platformState
	releaseOnce sync.Once
}

// reap waits for the child exactly once and publishes its exit status.
func (h *Handle) reap(output io.Writer) {
	h.settle()
	err := h.cmd.Wait()
	if f, ok := output.(interface{ Flush() }); ok {
		f.Flush()
	}
	h.exitErr = err
	close(h.done)

	h.logger.Debug("process reaped",
		"name", h.name,
		"pid", h.pid,
		"error", err,
		"uptime", time.Since(h.started),
	)
}

// PID returns the operating system process ID.
func (h *Handle) PID() int {
	return h.pid
}

// Done returns a channel that is closed once the child has exited and been reaped.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Alive reports whether the child has not yet exited.
func (h *Handle) Alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// ExitErr returns the result of waiting for the child.
// It is nil while the child is running and for a clean zero exit.
func (h *Handle) ExitErr() error {
	select {
	case <-h.done:
		return h.exitErr
	default:
		return nil
	}
}

// Uptime returns how long ago the child was started.
func (h *Handle) Uptime() time.Duration {
	return time.Since(h.started)
}

// Observe waits for window and reports whether the child survived it.
// It returns nil if the child is still alive, an error wrapping ErrExited if
// it exited, or ctx.Err() if ctx ended first.
func (h *Handle) Observe(ctx context.Context, window time.Duration) error {
	timer := time.NewTimer(window)
	defer timer.Stop()

	select {
	case <-h.done:
		if h.exitErr != nil {
			return fmt.Errorf("%w: %v", ErrExited, h.exitErr)
		}
		return ErrExited
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop terminates the child gracefully, waits up to timeout, then kills it.
// It returns once the child has been reaped, or with an error if it could
// not be confirmed dead.
func (h *Handle) Stop(timeout time.Duration) error {
	if !h.Alive() {
		h.sweep()
		return nil
	}

	h.logger.Info("stopping process", "name", h.name, "pid", h.pid)

	if err := h.terminate(); err != nil {
		h.logger.Warn("failed to send graceful stop", "name", h.name, "error", err)
	}

	select {
	case <-h.done:
		h.sweep()
		h.logger.Info("process stopped gracefully", "name", h.name)
		return nil
	case <-time.After(timeout):
		h.logger.Warn("graceful shutdown timeout, killing process",
			"name", h.name,
			"timeout", timeout,
		)
	}

	if err := h.kill(); err != nil {
		h.logger.Warn("failed to kill process", "name", h.name, "error", err)
	}

	select {
	case <-h.done:
		h.logger.Info("process killed", "name", h.name)
		return nil
	case <-time.After(killWait):
		return fmt.Errorf("process %s (pid %d) did not exit after kill", h.name, h.pid)
	}
}

// Release frees platform resources held for the child. It is safe to call
// more than once. On windows, releasing a handle whose child is still alive
// kills it.
func (h *Handle) Release() {
	h.releaseOnce.Do(func() {
		if err := releasePlatform(&h.platform); err != nil {
			h.logger.Warn("failed to release process resources", "name", h.name, "error", err)
		}
	})
}
