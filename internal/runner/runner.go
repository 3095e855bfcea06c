package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/oshokin/tpi/internal/config"
	"github.com/oshokin/tpi/internal/logger"
)

const (
	// scratchPattern names the per-call scratch directories.
	scratchPattern = "tpi-run-"

	// waitDelay bounds the wait for output pipes after a cancelled command is killed.
	waitDelay = time.Second
)

// errEmptyShell is returned when the configured shell has no program.
var errEmptyShell = errors.New("shell must name a program")

// Printer echoes commands and their output to the user.
type Printer interface {
	Info(message string)
	Command(message string)
}

// Runner executes command lists. The zero value is not usable, call New.
type Runner struct {
	// shell is the program and leading arguments; the command is appended last.
	shell []string
	// tempRoot is where scratch directories are created ("" means os.TempDir).
	tempRoot string
	// printer receives command echoes and output.
	printer Printer
}

// Option configures a Runner.
type Option func(*Runner)

// WithShell overrides the platform shell, e.g. []string{"bash", "-c"}.
// An empty slice keeps the default.
func WithShell(shell []string) Option {
	return func(r *Runner) {
		if len(shell) > 0 {
			r.shell = append([]string(nil), shell...)
		}
	}
}

// WithTempRoot creates scratch directories under dir.
func WithTempRoot(dir string) Option {
	return func(r *Runner) {
		r.tempRoot = dir
	}
}

// DefaultShell returns the shell invocation for the host platform.
func DefaultShell() []string {
	if config.IsWindows() {
		return []string{"powershell", "-Command"}
	}

	return []string{"sh", "-c"}
}

// New creates a runner echoing through printer.
func New(printer Printer, opts ...Option) *Runner {
	r := &Runner{
		shell:   DefaultShell(),
		printer: printer,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Split breaks a command list into individual commands in execution order:
// lines top to bottom, comma-separated tokens left to right. Blank tokens are dropped.
func Split(commands string) []string {
	var result []string

	for _, line := range strings.Split(commands, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		for _, token := range strings.Split(line, ",") {
			if token = strings.TrimSpace(token); token != "" {
				result = append(result, token)
			}
		}
	}

	return result
}

// Run executes every command of the list in order inside a fresh scratch directory.
//
// A command exiting with a nonzero status does not stop the list. Failing to
// start a command does, and so does cancellation of ctx, including while a
// command is running. The scratch directory is removed before Run returns.
func (r *Runner) Run(ctx context.Context, commands string) error {
	if len(r.shell) == 0 || r.shell[0] == "" {
		return errEmptyShell
	}

	dir, err := os.MkdirTemp(r.tempRoot, scratchPattern)
	if err != nil {
		return fmt.Errorf("create scratch directory: %w", err)
	}

	defer func() {
		if removeErr := os.RemoveAll(dir); removeErr != nil {
			logger.WarnKV(ctx, "Failed to remove scratch directory", "dir", dir, "error", removeErr)
		}
	}()

	r.printer.Info("Running commands in " + dir)

	for _, command := range Split(commands) {
		if err = ctx.Err(); err != nil {
			return fmt.Errorf("run commands: %w", err)
		}

		r.printer.Command(command)

		if err = r.execute(ctx, dir, command); err != nil {
			return err
		}
	}

	return nil
}

// execute runs one command in dir and echoes its standard output.
func (r *Runner) execute(ctx context.Context, dir, command string) error {
	args := append(append([]string(nil), r.shell[1:]...), command)

	//nolint:gosec // Running descriptor commands through the shell is the purpose of tpi.
	cmd := exec.CommandContext(ctx, r.shell[0], args...)
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if stdout.Len() > 0 {
		r.printer.Command(stdout.String())
	}

	if err == nil {
		return nil
	}

	// A killed command also surfaces as an exit error.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("run commands: interrupted %q: %w", command, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		logger.WarnKV(ctx, "Command exited with non-zero status",
			"command", command,
			"exit_code", exitErr.ExitCode(),
			"stderr", strings.TrimSpace(stderr.String()))

		return nil
	}

	return fmt.Errorf("execute command %q: %w", command, err)
}
