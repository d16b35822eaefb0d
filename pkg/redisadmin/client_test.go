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

package redisadmin

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchplatform/rpctl/pkg/errors"
)

func TestPing_Unreachable(t *testing.T) {
	c := New(Options{Addr: "127.0.0.1:1"})
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := c.Ping(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeUnavailable))
	assert.Equal(t, "127.0.0.1:1", c.Addr())
}

// syncBuffer is a bytes.Buffer safe for concurrent writes and reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func startRedis(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not available: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7-alpine",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })

	addr := "localhost:" + resource.GetPort("6379/tcp")
	require.NoError(t, pool.Retry(func() error {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		defer rdb.Close()
		return rdb.Ping(context.Background()).Err()
	}))
	return addr
}

func TestClient_Redis(t *testing.T) {
	addr := startRedis(t)
	ctx := context.Background()

	c := New(Options{Addr: addr})
	defer c.Close()

	_, err := c.Ping(ctx)
	require.NoError(t, err)

	seed := redis.NewClient(&redis.Options{Addr: addr})
	defer seed.Close()
	require.NoError(t, seed.Set(ctx, "pubmed:query:crispr", "cached", 0).Err())
	require.NoError(t, seed.Set(ctx, "claude:session", "x", time.Hour).Err())

	info, err := c.Info(ctx)
	require.NoError(t, err)
	s := info.Summary()
	assert.NotEmpty(t, s.Version)
	require.Len(t, s.Keyspace, 1)
	assert.Equal(t, int64(2), s.Keyspace[0].Keys)
	assert.Equal(t, int64(1), s.Keyspace[0].Expires)

	t.Run("flush refused without confirmation", func(t *testing.T) {
		_, err := c.Flush(ctx, FlushOptions{})
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidRequest))
	})

	t.Run("flush declined", func(t *testing.T) {
		var prompt string
		res, err := c.Flush(ctx, FlushOptions{Confirm: func(p string) (bool, error) {
			prompt = p
			return false, nil
		}})
		require.NoError(t, err)
		assert.False(t, res.Flushed)
		assert.Contains(t, prompt, "2 keys")
		n, err := c.DBSize(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("monitor streams commands", func(t *testing.T) {
		mctx, cancel := context.WithCancel(ctx)
		out := &syncBuffer{}
		done := make(chan error, 1)
		go func() { done <- c.Monitor(mctx, out) }()

		assert.Eventually(t, func() bool {
			_ = seed.Get(ctx, "pubmed:query:crispr").Err()
			return strings.Contains(out.String(), "pubmed:query:crispr")
		}, 10*time.Second, 100*time.Millisecond)

		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("monitor did not stop")
		}
	})

	t.Run("forced flush", func(t *testing.T) {
		res, err := c.Flush(ctx, FlushOptions{Force: true})
		require.NoError(t, err)
		assert.True(t, res.Flushed)
		assert.Equal(t, "db0", res.Scope)
		assert.Equal(t, int64(2), res.Keys)

		n, err := c.DBSize(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
