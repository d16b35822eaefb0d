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
	"strings"

	"github.com/researchplatform/rpctl/pkg/errors"
)

func (c *Client) engine(args ...string) Command {
	return Command{
		Name:   "docker",
		Args:   args,
		Dir:    c.dir,
		Stdout: c.stdout,
		Stderr: c.stderr,
	}
}

// EngineVersion returns the container engine server version.
func (c *Client) EngineVersion(ctx context.Context) (string, error) {
	return EngineVersion(ctx, c.runner)
}

// EngineVersion returns the container engine server version using r.
func EngineVersion(ctx context.Context, r Runner) (string, error) {
	out, err := r.Output(ctx, Command{Name: "docker", Args: []string{"version", "--format", "{{.Server.Version}}"}})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Stats returns a single resource usage snapshot of the running containers.
func (c *Client) Stats(ctx context.Context) (StatList, error) {
	out, err := c.runner.Output(ctx, c.engine("stats", "--no-stream", "--format", "{{json .}}"))
	if err != nil {
		return nil, err
	}
	stats, err := decodeJSONStream[Stat](out)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to decode docker stats output", err)
	}
	return stats, nil
}

// SystemPrune removes unused engine data. All also removes unused images.
func (c *Client) SystemPrune(ctx context.Context, all bool) error {
	args := []string{"system", "prune", "-f"}
	if all {
		args = append(args, "-a")
	}
	return c.runner.Run(ctx, c.engine(args...))
}

// NetworkList returns the engine networks.
func (c *Client) NetworkList(ctx context.Context) ([]Network, error) {
	out, err := c.runner.Output(ctx, c.engine("network", "ls", "--format", "{{json .}}"))
	if err != nil {
		return nil, err
	}
	networks, err := decodeJSONStream[Network](out)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to decode docker network output", err)
	}
	return networks, nil
}
