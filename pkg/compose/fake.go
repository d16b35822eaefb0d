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
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// FakeRunner records commands instead of executing them. Outputs and Errors
// are keyed by the full command line, as rendered by Command.String.
type FakeRunner struct {
	mu sync.Mutex

	Calls   []Command
	Outputs map[string]string
	Errors  map[string]error
	// Installed lists executables LookPath resolves. A nil map resolves everything.
	Installed map[string]bool
}

// NewFakeRunner returns an empty FakeRunner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		Outputs: make(map[string]string),
		Errors:  make(map[string]error),
	}
}

func (f *FakeRunner) record(c Command) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, c)
	line := c.String()
	return f.Outputs[line], f.Errors[line]
}

// Run implements Runner.
func (f *FakeRunner) Run(_ context.Context, c Command) error {
	out, err := f.record(c)
	if err != nil {
		return err
	}
	if c.Stdout != nil && out != "" {
		_, _ = io.WriteString(c.Stdout, out)
	}
	return nil
}

// Output implements Runner.
func (f *FakeRunner) Output(_ context.Context, c Command) ([]byte, error) {
	out, err := f.record(c)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// LookPath implements Runner.
func (f *FakeRunner) LookPath(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Installed == nil || f.Installed[name] {
		return "/usr/bin/" + name, nil
	}
	return "", fmt.Errorf("%s: %w", name, exec.ErrNotFound)
}

// Lines returns the recorded command lines in order.
func (f *FakeRunner) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	lines := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		lines = append(lines, c.String())
	}
	return lines
}

// Last returns the most recent command, or an empty Command.
func (f *FakeRunner) Last() Command {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.Calls) == 0 {
		return Command{}
	}
	return f.Calls[len(f.Calls)-1]
}
