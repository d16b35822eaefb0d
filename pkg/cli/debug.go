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

package cli

import (
	"context"
	"sort"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/researchplatform/rpctl/pkg/config"
	"github.com/researchplatform/rpctl/pkg/header"
	"github.com/researchplatform/rpctl/pkg/netdiag"
)

// EnvVar is one .env entry as shown by debug-env.
type EnvVar struct {
	Key    string `json:"key" yaml:"key"`
	Value  string `json:"value" yaml:"value"`
	Status string `json:"status" yaml:"status"`
}

// Environment shows the resolved rpctl settings and the app .env file,
// with secrets masked.
type Environment struct {
	header.Header `json:",inline" yaml:",inline"`

	Config   *config.Config `json:"config" yaml:"config"`
	EnvFile  string         `json:"envFile" yaml:"envFile"`
	EnvError string         `json:"envError,omitempty" yaml:"envError,omitempty"`
	Vars     []EnvVar       `json:"vars" yaml:"vars"`
}

// Env var states.
const (
	envSet         = "set"
	envPlaceholder = "placeholder"
	envMissing     = "missing"
)

// TableHeader implements serializer.Tabular.
func (e *Environment) TableHeader() []string {
	return []string{"KEY", "VALUE", "STATUS"}
}

// TableRows implements serializer.Tabular.
func (e *Environment) TableRows() [][]string {
	c := e.Config
	rows := [][]string{
		{"NAS_IP", c.NASIP, "config"},
		{"HOST_PORT", strconv.Itoa(c.HostPort), "config"},
		{"PROJECT_DIR", c.ProjectDir, "config"},
		{"COMPOSE_FILE", c.ComposeFile, "config"},
		{"REDIS_ADDR", c.Redis.Addr, "config"},
	}
	if e.EnvError != "" {
		rows = append(rows, []string{e.EnvFile, "-", e.EnvError})
	}
	for _, v := range e.Vars {
		rows = append(rows, []string{v.Key, orDash(v.Value), v.Status})
	}
	return rows
}

// buildEnvironment reads the .env file. Required keys are always listed;
// secret values are masked.
func (a *app) buildEnvironment() *Environment {
	env := &Environment{
		Config:  a.cfg.Redacted(),
		EnvFile: a.cfg.EnvPath(),
		Vars:    []EnvVar{},
	}
	env.Init(header.KindEnvironment, version)

	vars, err := config.ReadDotEnv(a.cfg.EnvPath())
	if err != nil {
		env.EnvError = errorMessage(err)
		vars = map[string]string{}
	}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	for _, k := range config.RequiredAPIKeys {
		if _, ok := vars[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		v, ok := vars[k]
		status := envSet
		switch {
		case !ok:
			status = envMissing
		case config.IsPlaceholder(v):
			status = envPlaceholder
		}
		if config.IsSecretKey(k) {
			v = config.Mask(v)
		}
		env.Vars = append(env.Vars, EnvVar{Key: k, Value: v, Status: status})
	}
	return env
}

func (a *app) debugEnvCmd() *cli.Command {
	return &cli.Command{
		Name:     "debug-env",
		Category: categoryDebug,
		Usage:    "Show the resolved settings and .env keys, secrets masked",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			env := a.buildEnvironment()
			if err := a.write(ctx, cmd, env); err != nil {
				return err
			}
			if env.EnvError != "" {
				a.warn("Cannot read %s: %s", env.EnvFile, env.EnvError)
			}
			return nil
		},
	}
}

func (a *app) diagnoser() *netdiag.Diagnoser {
	return netdiag.New(a.diagOpts...)
}

func (a *app) debugNetworkCmd() *cli.Command {
	return &cli.Command{
		Name:     "debug-network",
		Category: categoryDebug,
		Usage:    "Check connectivity to the app, Redis, the NAS and the external APIs",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			report := a.diagnoser().Network(ctx, netdiag.NetworkOptions{
				AppPort:   a.cfg.HostPort,
				RedisAddr: a.cfg.Redis.Addr,
				NASIP:     a.cfg.NASIP,
			})

			if c, err := a.compose(ctx); a.soft(err, "Skipping Docker networks") {
				networks, err := c.NetworkList(ctx)
				if a.soft(err, "Cannot list Docker networks") {
					for _, n := range networks {
						report.Networks = append(report.Networks, n.Name)
					}
				}
			}

			if err := a.write(ctx, cmd, report); err != nil {
				return err
			}
			if n := report.Unreachable(); n > 0 {
				a.warn("%d target(s) unreachable", n)
			}
			return nil
		},
	}
}

func (a *app) debugNFSCmd() *cli.Command {
	return &cli.Command{
		Name:     "debug-nfs",
		Category: categoryDebug,
		Usage:    "Check the NAS NFS service, NFS mounts and their systemd units",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			report := a.diagnoser().NFS(ctx, a.cfg.NASIP)
			if err := a.write(ctx, cmd, report); err != nil {
				return err
			}
			for _, d := range report.Dials {
				if d.Status != netdiag.StatusOpen {
					a.warn("NAS %s port %d not reachable", d.Name, d.Port)
				}
			}
			return nil
		},
	}
}
