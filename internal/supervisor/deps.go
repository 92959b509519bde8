package supervisor

import (
	"context"
	"time"

	"github.com/nerrad567/photolive/internal/process"
)

// Environment describes the web app directory on disk.
type Environment interface {
	// Validate returns an error if the directory or its manifest is missing.
	Validate() error
	// DependenciesInstalled reports whether the dependency directory exists.
	DependenciesInstalled() bool
	// Root is the web app directory, used as the child's working directory.
	Root() string
}

// Provisioner installs web app dependencies.
type Provisioner interface {
	// Install blocks until the install finishes and returns an error if it failed.
	Install(ctx context.Context, root string) error
}

// RuntimeLocator resolves the JavaScript runtime executable.
type RuntimeLocator interface {
	Locate() (string, error)
}

// Process is a launched child, exclusively owned by the Supervisor.
// *process.Handle satisfies it.
type Process interface {
	PID() int
	Done() <-chan struct{}
	Alive() bool
	ExitErr() error
	Observe(ctx context.Context, window time.Duration) error
	Stop(timeout time.Duration) error
	Release()
}

// Launcher performs one spawn per call.
type Launcher interface {
	Launch(ctx context.Context, spec process.Spec) (Process, error)
}

// LauncherFunc adapts a function to the Launcher interface.
type LauncherFunc func(ctx context.Context, spec process.Spec) (Process, error)

// Launch calls f.
func (f LauncherFunc) Launch(ctx context.Context, spec process.Spec) (Process, error) {
	return f(ctx, spec)
}

// ProcessLauncher adapts a process.Launcher to the Launcher interface.
func ProcessLauncher(l *process.Launcher) Launcher {
	return LauncherFunc(func(ctx context.Context, spec process.Spec) (Process, error) {
		h, err := l.Launch(ctx, spec)
		if err != nil {
			return nil, err
		}
		return h, nil
	})
}

// Logger defines the logging interface for the supervisor.
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

// Deps holds the collaborators a Supervisor drives.
type Deps struct {
	Environment Environment
	Provisioner Provisioner
	Runtime     RuntimeLocator
	Launcher    Launcher
}

func (d Deps) validate() error {
	switch {
	case d.Environment == nil:
		return errMissingDep("Environment")
	case d.Provisioner == nil:
		return errMissingDep("Provisioner")
	case d.Runtime == nil:
		return errMissingDep("Runtime")
	case d.Launcher == nil:
		return errMissingDep("Launcher")
	}
	return nil
}

type errMissingDep string

func (e errMissingDep) Error() string {
	return "supervisor dependency " + string(e) + " is nil"
}
