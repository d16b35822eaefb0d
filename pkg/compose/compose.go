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
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/researchplatform/rpctl/pkg/errors"
)

// Options configures a Client.
type Options struct {
	// File is the compose file passed with -f. Empty uses the orchestrator default.
	File string
	// ProjectName is passed with -p when set.
	ProjectName string
	// Dir is the working directory of every invocation.
	Dir string
	// Runner executes commands. Defaults to ExecRunner.
	Runner Runner
	// Env is added to the environment of every compose invocation so the
	// compose file sees the same interpolation variables for every command.
	Env []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Client runs Compose and engine commands for one project.
type Client struct {
	runner  Runner
	bin     string
	prefix  []string
	file    string
	project string
	dir     string
	env     []string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// New detects the installed orchestrator and returns a Client for it.
func New(ctx context.Context, opts Options) (*Client, error) {
	c := &Client{
		runner:  opts.Runner,
		file:    opts.File,
		project: opts.ProjectName,
		dir:     opts.Dir,
		env:     opts.Env,
		stdin:   opts.Stdin,
		stdout:  opts.Stdout,
		stderr:  opts.Stderr,
	}
	if c.runner == nil {
		c.runner = NewExecRunner()
	}
	if c.stdin == nil {
		c.stdin = os.Stdin
	}
	if c.stdout == nil {
		c.stdout = os.Stdout
	}
	if c.stderr == nil {
		c.stderr = os.Stderr
	}

	if _, err := c.runner.LookPath("docker"); err == nil {
		probe := Command{Name: "docker", Args: []string{"compose", "version", "--short"}, Dir: c.dir}
		if _, err := c.runner.Output(ctx, probe); err == nil {
			c.bin = "docker"
			c.prefix = []string{"compose"}
			slog.Debug("using compose plugin")
			return c, nil
		}
	}
	if _, err := c.runner.LookPath("docker-compose"); err == nil {
		c.bin = "docker-compose"
		slog.Debug("using standalone docker-compose")
		return c, nil
	}

	return nil, errors.New(errors.ErrCodeUnavailable,
		"neither 'docker compose' nor 'docker-compose' is available")
}

// Runner returns the runner used by the client.
func (c *Client) Runner() Runner {
	return c.runner
}

// Binary returns the orchestrator invocation, e.g. "docker compose".
func (c *Client) Binary() string {
	return strings.Join(append([]string{c.bin}, c.prefix...), " ")
}

func (c *Client) command(args ...string) Command {
	full := make([]string, 0, len(c.prefix)+4+len(args))
	full = append(full, c.prefix...)
	if c.file != "" {
		full = append(full, "-f", c.file)
	}
	if c.project != "" {
		full = append(full, "-p", c.project)
	}
	full = append(full, args...)
	return Command{
		Name:   c.bin,
		Args:   full,
		Dir:    c.dir,
		Env:    append([]string(nil), c.env...),
		Stdout: c.stdout,
		Stderr: c.stderr,
	}
}

func (c *Client) run(ctx context.Context, args ...string) error {
	return c.runner.Run(ctx, c.command(args...))
}

// BuildOptions controls image builds.
type BuildOptions struct {
	NoCache  bool
	Pull     bool
	Services []string
}

// Build builds the project images.
func (c *Client) Build(ctx context.Context, opts BuildOptions) error {
	args := []string{"build"}
	if opts.NoCache {
		args = append(args, "--no-cache")
	}
	if opts.Pull {
		args = append(args, "--pull")
	}
	return c.run(ctx, append(args, opts.Services...)...)
}

// UpOptions controls service start-up.
type UpOptions struct {
	Detach   bool
	Build    bool
	Env      []string
	Services []string
}

// Up creates and starts the services. opts.Env is appended to the client's
// environment, so it wins for duplicate keys.
func (c *Client) Up(ctx context.Context, opts UpOptions) error {
	args := []string{"up"}
	if opts.Detach {
		args = append(args, "-d")
	}
	if opts.Build {
		args = append(args, "--build")
	}
	cmd := c.command(append(args, opts.Services...)...)
	cmd.Env = append(cmd.Env, opts.Env...)
	if !opts.Detach {
		cmd.Stdin = c.stdin
	}
	return c.runner.Run(ctx, cmd)
}

// DownOptions controls service teardown.
type DownOptions struct {
	Volumes       bool
	RemoveImages  string
	RemoveOrphans bool
}

// Down stops and removes the services.
func (c *Client) Down(ctx context.Context, opts DownOptions) error {
	args := []string{"down"}
	if opts.Volumes {
		args = append(args, "-v")
	}
	if opts.RemoveImages != "" {
		args = append(args, "--rmi", opts.RemoveImages)
	}
	if opts.RemoveOrphans {
		args = append(args, "--remove-orphans")
	}
	return c.run(ctx, args...)
}

// Restart restarts the given services, or all when none are named.
func (c *Client) Restart(ctx context.Context, services ...string) error {
	return c.run(ctx, append([]string{"restart"}, services...)...)
}

// Stop stops the given services without removing them.
func (c *Client) Stop(ctx context.Context, services ...string) error {
	return c.run(ctx, append([]string{"stop"}, services...)...)
}

// Start starts previously stopped services.
func (c *Client) Start(ctx context.Context, services ...string) error {
	return c.run(ctx, append([]string{"start"}, services...)...)
}

// Pull pulls service images.
func (c *Client) Pull(ctx context.Context, services ...string) error {
	return c.run(ctx, append([]string{"pull"}, services...)...)
}

// LogsOptions controls log output.
type LogsOptions struct {
	Follow     bool
	Tail       int
	Timestamps bool
	Services   []string
}

// Logs streams service logs to the client output.
func (c *Client) Logs(ctx context.Context, opts LogsOptions) error {
	args := []string{"logs"}
	if opts.Follow {
		args = append(args, "-f")
	}
	if opts.Tail > 0 {
		args = append(args, "--tail", strconv.Itoa(opts.Tail))
	}
	if opts.Timestamps {
		args = append(args, "-t")
	}
	return c.run(ctx, append(args, opts.Services...)...)
}

// Exec runs a command inside a running service container. Interactive
// sessions attach the terminal; otherwise no TTY is allocated.
func (c *Client) Exec(ctx context.Context, service string, interactive bool, command ...string) error {
	if service == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "service name is required")
	}
	if len(command) == 0 {
		return errors.New(errors.ErrCodeInvalidRequest, "command is required")
	}

	args := []string{"exec"}
	if !interactive {
		args = append(args, "-T")
	}
	args = append(args, service)
	cmd := c.command(append(args, command...)...)
	if interactive {
		cmd.Stdin = c.stdin
	}
	return c.runner.Run(ctx, cmd)
}

// PS lists the project's containers.
func (c *Client) PS(ctx context.Context) (ContainerList, error) {
	cmd := c.command("ps", "--all", "--format", "json")
	out, err := c.runner.Output(ctx, cmd)
	if err != nil {
		return nil, err
	}
	containers, err := decodeJSONStream[Container](out)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to decode compose ps output", err)
	}
	return containers, nil
}

// Version returns the orchestrator version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	cmd := c.command("version", "--short")
	out, err := c.runner.Output(ctx, cmd)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(strings.TrimSpace(string(out)), "v"), nil
}
