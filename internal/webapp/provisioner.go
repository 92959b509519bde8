package webapp

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// maxOutputTail is how much install output is kept for error messages.
const maxOutputTail = 512

// Logger defines the logging interface for web app tooling.
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

// CommandProvisioner installs dependencies by running a command in the web
// app directory, "npm install" by default.
type CommandProvisioner struct {
	command string
	args    []string
	logger  Logger
}

// NewCommandProvisioner creates a provisioner. An empty command uses the
// platform's npm; nil args use "install".
func NewCommandProvisioner(command string, args []string) *CommandProvisioner {
	if command == "" || command == "npm" {
		command = DefaultInstallCommand
	}
	if args == nil {
		args = []string{"install"}
	}
	return &CommandProvisioner{command: command, args: args, logger: noopLogger{}}
}

// SetLogger sets the logger for the provisioner.
func (p *CommandProvisioner) SetLogger(logger Logger) {
	p.logger = logger
}

// Command returns the command line that Install runs.
func (p *CommandProvisioner) Command() []string {
	return append([]string{p.command}, p.args...)
}

// Install runs the command in root and blocks until it finishes.
// A non-zero exit is an error carrying the tail of the command output.
func (p *CommandProvisioner) Install(ctx context.Context, root string) error {
	p.logger.Info("installing web app dependencies",
		"command", p.command,
		"args", p.args,
		"root", root,
	)

	cmd := exec.CommandContext(ctx, p.command, p.args...) //nolint:gosec // Command comes from host configuration
	cmd.Dir = root
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		tail := strings.TrimSpace(lastBytes(out.String(), maxOutputTail))
		p.logger.Error("dependency install failed", "error", err, "output", tail)
		if tail != "" {
			return fmt.Errorf("running %s: %w: %s", strings.Join(p.Command(), " "), err, tail)
		}
		return fmt.Errorf("running %s: %w", strings.Join(p.Command(), " "), err)
	}

	p.logger.Info("web app dependencies installed", "root", root)
	return nil
}

func lastBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
