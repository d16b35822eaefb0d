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

package apis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/researchplatform/rpctl/pkg/config"
	"github.com/researchplatform/rpctl/pkg/defaults"
)

// State is the outcome of one probe.
type State string

// Probe outcomes.
const (
	StateConnected     State = "connected"
	StateNotConfigured State = "not_configured"
	StateFailed        State = "failed"
)

// Result describes one probe.
type Result struct {
	API       string        `json:"api" yaml:"api"`
	Round     int           `json:"round,omitempty" yaml:"round,omitempty"`
	State     State         `json:"state" yaml:"state"`
	LatencyMS int64         `json:"latencyMs" yaml:"latencyMs"`
	Detail    string        `json:"detail,omitempty" yaml:"detail,omitempty"`
	Latency   time.Duration `json:"-" yaml:"-"`
}

// Results is the ordered outcome of a probe run.
type Results []Result

// Failed reports whether any probe failed. Unconfigured APIs are not failures.
func (r Results) Failed() bool {
	for _, res := range r {
		if res.State == StateFailed {
			return true
		}
	}
	return false
}

// TableHeader implements serializer.Tabular.
func (r Results) TableHeader() []string {
	return []string{"API", "STATE", "LATENCY", "DETAIL"}
}

// TableRows implements serializer.Tabular.
func (r Results) TableRows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, res := range r {
		latency := "-"
		if res.State != StateNotConfigured {
			latency = strconv.FormatInt(res.LatencyMS, 10) + "ms"
		}
		api := res.API
		if res.Round > 0 {
			api = fmt.Sprintf("%s #%d", res.API, res.Round)
		}
		rows = append(rows, []string{api, string(res.State), latency, res.Detail})
	}
	return rows
}

// Prober checks one external API.
type Prober interface {
	Name() string
	Probe(ctx context.Context) Result
}

// Endpoints are the API base URLs. Zero fields use the public services.
type Endpoints struct {
	Claude string
	PubMed string
	Asana  string
}

// Public service base URLs.
const (
	DefaultClaudeURL = "https://api.anthropic.com"
	DefaultPubMedURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	DefaultAsanaURL  = "https://app.asana.com/api/1.0"
)

func (e Endpoints) withDefaults() Endpoints {
	if e.Claude == "" {
		e.Claude = DefaultClaudeURL
	}
	if e.PubMed == "" {
		e.PubMed = DefaultPubMedURL
	}
	if e.Asana == "" {
		e.Asana = DefaultAsanaURL
	}
	return e
}

// NewProbers returns the probers for every supported API in display order.
func NewProbers(cfg *config.APIConfig, ep Endpoints) []Prober {
	ep = ep.withDefaults()
	return []Prober{
		NewClaudeProber(cfg, ep.Claude),
		NewPubMedProber(cfg, ep.PubMed),
		NewAsanaProber(cfg, ep.Asana),
	}
}

// Run executes all probers concurrently, each bounded by timeout, and returns
// results in the order of probers.
func Run(ctx context.Context, probers []Prober, timeout time.Duration) Results {
	if timeout <= 0 {
		timeout = defaults.ProbeTimeout
	}

	results := make(Results, len(probers))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range probers {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(gctx, timeout)
			defer cancel()

			res := p.Probe(pctx)
			res.API = p.Name()
			res.LatencyMS = res.Latency.Milliseconds()
			results[i] = res

			slog.Debug("api probe finished", "api", res.API, "state", res.State, "latency", res.Latency)
			return nil
		})
	}
	// probes report failures in their Result
	_ = g.Wait()
	return results
}

// RunRounds calls Run rounds times with the same probers and numbers the
// results from 1. Probers keep their state between rounds, so PubMed's
// limiter paces the repeated esearch calls. A single round is left unnumbered.
func RunRounds(ctx context.Context, probers []Prober, timeout time.Duration, rounds int) Results {
	if rounds <= 1 {
		return Run(ctx, probers, timeout)
	}
	all := make(Results, 0, rounds*len(probers))
	for round := 1; round <= rounds; round++ {
		if ctx.Err() != nil {
			break
		}
		for _, res := range Run(ctx, probers, timeout) {
			res.Round = round
			all = append(all, res)
		}
	}
	return all
}

func notConfigured(detail string) Result {
	return Result{State: StateNotConfigured, Detail: detail}
}

func failed(start time.Time, err error) Result {
	return Result{State: StateFailed, Latency: time.Since(start), Detail: err.Error()}
}

func connected(start time.Time, detail string) Result {
	return Result{State: StateConnected, Latency: time.Since(start), Detail: detail}
}
