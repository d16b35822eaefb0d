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
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/researchplatform/rpctl/pkg/validator"
)

func (a *app) validateCmd() *cli.Command {
	return &cli.Command{
		Name:     "validate",
		Category: categoryMaint,
		Usage:    "Check the host and project against what the platform needs",
		Description: `Runs the following checks and reports each as passed, failed or skipped:

  docker.installed   docker binary on PATH
  docker.version     engine reachable and >= 20.10
  compose.version    compose plugin >= 2.0 (standalone v1 is skipped with a warning)
  compose.file       compose file exists and parses
  compose.services   app and redis services are defined
  compose.images     image references are well formed
  compose.port       the app publishes HOST_PORT to container port 5000
  env.file           .env exists
  env.<KEY>          required API keys are set and not placeholders
  workspace.dirs     required directories exist

Fail the command if any check fails (useful for CI):
  rpctl validate --fail-on-error`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "fail-on-error",
				Usage: "exit with non-zero status if any check fails",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts := []validator.Option{validator.WithVersion(version)}
			if a.environ != nil {
				opts = append(opts, validator.WithLookup(a.lookupEnv))
			}
			v := validator.New(a.cfg, a.runner, opts...)

			result, err := v.Validate(ctx)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			if err := a.write(ctx, cmd, result); err != nil {
				return err
			}

			slog.Info("validation completed",
				"status", result.Summary.Status,
				"passed", result.Summary.Passed,
				"failed", result.Summary.Failed,
				"skipped", result.Summary.Skipped,
				"duration", result.Summary.Duration)

			switch result.Summary.Status {
			case validator.StatusPass:
				a.success("All checks passed")
			case validator.StatusPartial:
				a.warn("%d check(s) skipped", result.Summary.Skipped)
			default:
				a.fail("%d check(s) failed", result.Summary.Failed)
			}

			if cmd.Bool("fail-on-error") && len(result.Failed()) > 0 {
				return fmt.Errorf("validation failed: %d check(s) did not pass", result.Summary.Failed)
			}
			return nil
		},
	}
}

// lookupEnv resolves compose variables from the injected environment.
func (a *app) lookupEnv(key string) (string, bool) {
	v, ok := a.environ[key]
	return v, ok
}
