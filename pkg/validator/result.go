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

package validator

import (
	"time"

	"github.com/researchplatform/rpctl/pkg/header"
)

// Status is the overall validation outcome.
type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusPartial Status = "partial"
)

// CheckStatus is the outcome of a single check.
type CheckStatus string

const (
	CheckPassed  CheckStatus = "passed"
	CheckFailed  CheckStatus = "failed"
	CheckSkipped CheckStatus = "skipped"
)

// Check is the result of one named check.
type Check struct {
	Name     string      `json:"name" yaml:"name"`
	Expected string      `json:"expected,omitempty" yaml:"expected,omitempty"`
	Actual   string      `json:"actual,omitempty" yaml:"actual,omitempty"`
	Status   CheckStatus `json:"status" yaml:"status"`
	Message  string      `json:"message,omitempty" yaml:"message,omitempty"`
}

// Summary aggregates check outcomes.
type Summary struct {
	Passed   int           `json:"passed" yaml:"passed"`
	Failed   int           `json:"failed" yaml:"failed"`
	Skipped  int           `json:"skipped" yaml:"skipped"`
	Total    int           `json:"total" yaml:"total"`
	Status   Status        `json:"status" yaml:"status"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Result is the complete validation outcome.
type Result struct {
	header.Header `json:",inline" yaml:",inline"`

	ProjectDir string  `json:"projectDir" yaml:"projectDir"`
	Summary    Summary `json:"summary" yaml:"summary"`
	Checks     []Check `json:"checks" yaml:"checks"`
}

// NewResult returns an empty result.
func NewResult() *Result {
	return &Result{Checks: make([]Check, 0)}
}

func (r *Result) add(checks ...Check) {
	r.Checks = append(r.Checks, checks...)
}

// summarize computes counts and the overall status.
func (r *Result) summarize() {
	s := Summary{Duration: r.Summary.Duration}
	for _, c := range r.Checks {
		switch c.Status {
		case CheckPassed:
			s.Passed++
		case CheckFailed:
			s.Failed++
		case CheckSkipped:
			s.Skipped++
		}
	}
	s.Total = len(r.Checks)
	switch {
	case s.Failed > 0:
		s.Status = StatusFail
	case s.Skipped > 0:
		s.Status = StatusPartial
	default:
		s.Status = StatusPass
	}
	r.Summary = s
}

// Failed returns the failed checks.
func (r *Result) Failed() []Check {
	var out []Check
	for _, c := range r.Checks {
		if c.Status == CheckFailed {
			out = append(out, c)
		}
	}
	return out
}

// TableHeader implements serializer.Tabular.
func (r *Result) TableHeader() []string {
	return []string{"CHECK", "STATUS", "EXPECTED", "ACTUAL", "MESSAGE"}
}

// TableRows implements serializer.Tabular.
func (r *Result) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Checks))
	for _, c := range r.Checks {
		rows = append(rows, []string{c.Name, string(c.Status), c.Expected, c.Actual, c.Message})
	}
	return rows
}
