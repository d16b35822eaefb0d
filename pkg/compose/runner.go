// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package compose

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/researchplatform/rpctl/pkg/errors"
)

// Command describes one external process invocation.
type Command struct {
	Name   string
	Args   []string
	Dir    string
	Env    []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner executes external commands.
type Runner interface {
	// Run executes the command, streaming to its Stdout and Stderr.
	Run(ctx context.Context, cmd Command) error
	// Output executes the command and returns what it wrote to stdout.
	Output(ctx context.Context, cmd Command) ([]byte, error)
	// LookPath reports where an executable is installed.
	LookPath(name string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// NewExecRunner returns a Runner backed by real processes.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) build(ctx context.Context, c Command) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	cmd.Stdin = c.Stdin
	return cmd
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, c Command) error {
	cmd := r.build(ctx, c)
	cmd.Stdout = c.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = c.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	slog.Debug("running command", "cmd", c.String(), "dir", c.Dir)
	if err := cmd.Run(); err != nil {
		return commandError(ctx, c, err, "")
	}
	return nil
}

// Output implements Runner.
func (r *ExecRunner) Output(ctx context.Context, c Command) ([]byte, error) {
	cmd := r.build(ctx, c)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("running command", "cmd", c.String(), "dir", c.Dir)
	if err := cmd.Run(); err != nil {
		return nil, commandError(ctx, c, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// LookPath implements Runner.
func (r *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

func commandError(ctx context.Context, c Command, err error, stderr string) error {
	details := map[string]any{"cmd": c.String()}
	if stderr != "" {
		details["stderr"] = stderr
	}

	if ctx.Err() != nil {
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return errors.WrapWithContext(errors.ErrCodeTimeout, "command timed out", ctx.Err(), details)
		}
		return errors.WrapWithContext(errors.ErrCodeUnavailable, "command cancelled", ctx.Err(), details)
	}

	var execErr *exec.Error
	if stderrors.As(err, &execErr) {
		return errors.WrapWithContext(errors.ErrCodeUnavailable, c.Name+" is not installed", err, details)
	}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		details["exitCode"] = exitErr.ExitCode()
	}
	return errors.WrapWithContext(errors.ErrCodeInternal, "command failed: "+c.String(), err, details)
}
