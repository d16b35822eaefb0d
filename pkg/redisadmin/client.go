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
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/researchplatform/rpctl/pkg/defaults"
	"github.com/researchplatform/rpctl/pkg/errors"
)

// Options configures the admin client.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// Client wraps a go-redis client with the admin operations.
type Client struct {
	opts Options
	rdb  *redis.Client
}

// New creates a client. No connection is made until the first command.
func New(opts Options) *Client {
	return &Client{
		opts: opts,
		rdb:  redis.NewClient(clientOptions(opts, defaults.RedisCommandTimeout)),
	}
}

func clientOptions(opts Options, readTimeout time.Duration) *redis.Options {
	return &redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  defaults.RedisDialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: defaults.RedisCommandTimeout,
		MaxRetries:   1,
	}
}

// Addr returns the configured server address.
func (c *Client) Addr() string {
	return c.opts.Addr
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) unavailable(msg string, err error) error {
	return errors.WrapWithContext(errors.ErrCodeUnavailable, msg, err,
		map[string]any{"addr": c.opts.Addr})
}

// Ping checks the server answers and returns the round trip time.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return 0, c.unavailable("redis is not reachable", err)
	}
	return time.Since(start), nil
}

// Info runs INFO for the given sections (all when none) and parses it.
func (c *Client) Info(ctx context.Context, sections ...string) (Info, error) {
	raw, err := c.rdb.Info(ctx, sections...).Result()
	if err != nil {
		return nil, c.unavailable("failed to read redis info", err)
	}
	return ParseInfo(raw), nil
}

// DBSize returns the number of keys in the selected database.
func (c *Client) DBSize(ctx context.Context) (int64, error) {
	n, err := c.rdb.DBSize(ctx).Result()
	if err != nil {
		return 0, c.unavailable("failed to count keys", err)
	}
	return n, nil
}

// ConfirmFunc asks the operator to confirm a destructive action.
type ConfirmFunc func(prompt string) (bool, error)

// FlushOptions controls Flush.
type FlushOptions struct {
	// All flushes every database instead of the selected one.
	All bool
	// Force skips confirmation.
	Force bool
	// Confirm is consulted unless Force is set. A nil Confirm refuses.
	Confirm ConfirmFunc
}

// FlushResult describes a flush.
type FlushResult struct {
	Scope   string `json:"scope" yaml:"scope"`
	Flushed bool   `json:"flushed" yaml:"flushed"`
	Keys    int64  `json:"keysBefore" yaml:"keysBefore"`
}

// Flush removes keys from the selected database, or all databases.
// Without Force or a positive confirmation nothing is deleted.
func (c *Client) Flush(ctx context.Context, opts FlushOptions) (*FlushResult, error) {
	res := &FlushResult{Scope: fmt.Sprintf("db%d", c.opts.DB)}
	if opts.All {
		res.Scope = "all"
	}

	keys, err := c.DBSize(ctx)
	if err != nil {
		return nil, err
	}
	res.Keys = keys

	if !opts.Force {
		if opts.Confirm == nil {
			return nil, errors.New(errors.ErrCodeInvalidRequest, "refusing to flush redis without confirmation, use --force")
		}
		ok, err := opts.Confirm(fmt.Sprintf("Flush %s on %s (%d keys in db%d)?", res.Scope, c.opts.Addr, keys, c.opts.DB))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "failed to read confirmation", err)
		}
		if !ok {
			slog.Info("redis flush cancelled", "scope", res.Scope)
			return res, nil
		}
	}

	if opts.All {
		err = c.rdb.FlushAll(ctx).Err()
	} else {
		err = c.rdb.FlushDB(ctx).Err()
	}
	if err != nil {
		return nil, c.unavailable("failed to flush redis", err)
	}
	res.Flushed = true
	slog.Info("redis flushed", "scope", res.Scope, "keys", keys)
	return res, nil
}

// monitorCheckInterval is how often Monitor checks that Redis is still there.
var monitorCheckInterval = 2 * time.Second

// Monitor streams MONITOR output to w until ctx is cancelled. It fails with
// SERVICE_UNAVAILABLE when the monitor connection breaks or the server stops
// answering pings.
func (c *Client) Monitor(ctx context.Context, w io.Writer) error {
	if _, err := c.Ping(ctx); err != nil {
		return err
	}

	// MONITOR idles between commands, so it gets its own client without a read deadline.
	mc := redis.NewClient(clientOptions(c.opts, -1))
	defer mc.Close()

	ch := make(chan string, 64)
	cmd := mc.Monitor(ctx, ch)
	cmd.Start()
	defer cmd.Stop()

	tick := time.NewTicker(monitorCheckInterval)
	defer tick.Stop()

	slog.Debug("redis monitor started", "addr", c.opts.Addr)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			if err := cmd.Err(); err != nil {
				return c.unavailable("redis monitor connection lost", err)
			}
			if _, err := c.Ping(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		case line := <-ch:
			if strings.TrimSpace(line) == "OK" {
				continue
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, "failed to write monitor output", err)
			}
		}
	}
}
