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
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchplatform/rpctl/pkg/errors"
)

func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	r := NewExecRunner()
	ctx := context.Background()

	t.Run("output", func(t *testing.T) {
		out, err := r.Output(ctx, Command{Name: "sh", Args: []string{"-c", "echo $GREETING"}, Env: []string{"GREETING=hello"}})
		require.NoError(t, err)
		assert.Equal(t, "hello\n", string(out))
	})

	t.Run("run streams", func(t *testing.T) {
		var stdout bytes.Buffer
		err := r.Run(ctx, Command{Name: "sh", Args: []string{"-c", "printf ok"}, Stdout: &stdout, Stderr: &bytes.Buffer{}})
		require.NoError(t, err)
		assert.Equal(t, "ok", stdout.String())
	})

	t.Run("exit code", func(t *testing.T) {
		_, err := r.Output(ctx, Command{Name: "sh", Args: []string{"-c", "echo bad >&2; exit 3"}})
		require.Error(t, err)

		var se *errors.StructuredError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, errors.ErrCodeInternal, se.Code)
		assert.Equal(t, 3, se.Context["exitCode"])
		assert.Equal(t, "bad", se.Context["stderr"])
	})

	t.Run("missing binary", func(t *testing.T) {
		_, err := r.Output(ctx, Command{Name: "rpctl-definitely-missing"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeUnavailable))
	})

	t.Run("timeout", func(t *testing.T) {
		tctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_, err := r.Output(tctx, Command{Name: "sh", Args: []string{"-c", "sleep 5"}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeTimeout))
	})
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "docker compose ps", Command{Name: "docker", Args: []string{"compose", "ps"}}.String())
	assert.Equal(t, "git", Command{Name: "git"}.String())
}
