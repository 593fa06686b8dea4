// SPDX-License-Identifier: MPL-2.0

package providers

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/charmbracelet/log"
)

type (
	// RunOptions carries optional per-invocation overrides.
	RunOptions struct {
		// Dir overrides the working directory when non-empty.
		Dir string
		// Env adds environment variables on top of the inherited environment.
		Env map[string]string
	}

	// Output is the captured result of a completed command.
	Output struct {
		Status int
		Stdout []byte
		Stderr []byte
	}

	// CommandRunner runs an external program with arguments and returns its
	// captured output. A non-zero exit yields both the Output and a
	// *CommandFailedError; a launch failure yields a *CommandStartError.
	CommandRunner interface {
		Run(ctx context.Context, command string, args []string, opts *RunOptions) (Output, error)
	}

	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// ExecRunner is the production CommandRunner over os/exec.
	ExecRunner struct {
		execCommand ExecCommandFunc
	}

	// ExecRunnerOption configures an ExecRunner.
	ExecRunnerOption func(*ExecRunner)
)

// WithExecCommand overrides how exec.Cmd instances are created.
func WithExecCommand(fn ExecCommandFunc) ExecRunnerOption {
	return func(r *ExecRunner) { r.execCommand = fn }
}

// NewExecRunner creates the production command runner.
func NewExecRunner(opts ...ExecRunnerOption) *ExecRunner {
	r := &ExecRunner{execCommand: exec.CommandContext}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the command synchronously, capturing stdout and stderr.
func (r *ExecRunner) Run(ctx context.Context, command string, args []string, opts *RunOptions) (Output, error) {
	log.Debug("running command", "command", command, "args", args)

	cmd := r.execCommand(ctx, command, args...)
	if opts != nil {
		if opts.Dir != "" {
			cmd.Dir = opts.Dir
		}
		if len(opts.Env) > 0 {
			cmd.Env = cmd.Environ()
			for key, value := range opts.Env {
				cmd.Env = append(cmd.Env, key+"="+value)
			}
		}
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.Status = exitErr.ExitCode()
			return out, &CommandFailedError{
				Command: command,
				Args:    args,
				Status:  out.Status,
				Stdout:  stdout.String(),
				Stderr:  stderr.String(),
			}
		}
		return out, &CommandStartError{Command: command, Args: args, Err: err}
	}

	log.Debug("command completed", "command", command, "stdout_bytes", stdout.Len())
	return out, nil
}
