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

	"github.com/urfave/cli/v3"

	"github.com/researchplatform/rpctl/pkg/apis"
	"github.com/researchplatform/rpctl/pkg/config"
	"github.com/researchplatform/rpctl/pkg/defaults"
	"github.com/researchplatform/rpctl/pkg/errors"
)

func (a *app) testAPIsCmd() *cli.Command {
	return &cli.Command{
		Name:     "test-apis",
		Category: categoryMonitor,
		Usage:    "Smoke-test the Claude, PubMed and Asana credentials",
		Description: `Sends one minimal request to each external API with the credentials in
.env: a 10 token Claude message, a one-result PubMed search and the Asana
current user. APIs without credentials are reported as not_configured.

A failing API does not stop the others. Use --strict to exit non-zero when
any configured API fails. --count repeats the probes; PubMed calls are then
paced at 3 requests per second, or 10 with PUBMED_API_KEY.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "strict", Usage: "exit non-zero when any API probe fails"},
			&cli.IntFlag{
				Name:  "count",
				Value: 1,
				Usage: "number of probe rounds",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: defaults.ProbeTimeout,
				Usage: "timeout of each probe",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			apiCfg, err := config.LoadAPIConfig(a.cfg.EnvPath())
			if err != nil {
				if !errors.Is(err, errors.ErrCodeNotFound) {
					return err
				}
				a.warn("%s not found, run 'rpctl setup' first", a.cfg.EnvFile)
				if apiCfg, err = config.APIConfigFromMap(nil); err != nil {
					return err
				}
			}

			a.info("Testing API connections...")
			count := cmd.Int("count")
			if count < 1 {
				return errors.New(errors.ErrCodeInvalidRequest, "--count must be at least 1")
			}
			results := apis.RunRounds(ctx, apis.NewProbers(apiCfg, a.endpoints), cmd.Duration("timeout"), count)
			if err := a.write(ctx, cmd, results); err != nil {
				return err
			}

			for _, r := range results {
				switch r.State {
				case apis.StateFailed:
					a.fail("%s API test failed", r.API)
				case apis.StateNotConfigured:
					a.warn("%s API not configured", r.API)
				}
			}
			if results.Failed() {
				if cmd.Bool("strict") {
					return fmt.Errorf("one or more API probes failed")
				}
				return nil
			}
			a.success("API tests complete")
			return nil
		},
	}
}
