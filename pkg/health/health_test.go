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

package health

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchplatform/rpctl/pkg/errors"
)

const healthyBody = `{"status":"healthy","timestamp":"2025-01-02T03:04:05","apis":{"claude":true,"pubmed":true,"asana":false}}`

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  bool
		wantCode errors.ErrorCode
	}{
		{name: "healthy", status: http.StatusOK, body: healthyBody},
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantErr: true, wantCode: errors.ErrCodeUnavailable},
		{name: "not json", status: http.StatusOK, body: "<html>", wantErr: true, wantCode: errors.ErrCodeUnavailable},
		{name: "no status", status: http.StatusOK, body: `{"apis":{}}`, wantErr: true, wantCode: errors.ErrCodeUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/health", r.URL.Path)
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			report, err := NewChecker(srv.URL + "/health").Check(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.True(t, report.Healthy())
			assert.Equal(t, map[string]bool{"claude": true, "pubmed": true, "asana": false}, report.APIs)
			assert.Positive(t, report.Latency)
		})
	}
}

func TestCheck_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewChecker(url + "/health").Check(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeUnavailable))
}

func TestReport_Table(t *testing.T) {
	r := &Report{Status: "healthy", APIs: map[string]bool{"pubmed": true, "asana": false}}
	assert.Equal(t, [][]string{
		{"app", "healthy"},
		{"api/asana", "not configured"},
		{"api/pubmed", "connected"},
	}, r.TableRows())
}

func TestWait(t *testing.T) {
	t.Run("becomes healthy", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			fmt.Fprint(w, healthyBody)
		}))
		defer srv.Close()

		report, err := NewChecker(srv.URL).Wait(context.Background(), 10*time.Millisecond, 5*time.Second)
		require.NoError(t, err)
		assert.True(t, report.Healthy())
		assert.GreaterOrEqual(t, calls.Load(), int32(3))
	})

	t.Run("times out", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"status":"starting"}`)
		}))
		defer srv.Close()

		_, err := NewChecker(srv.URL).Wait(context.Background(), 10*time.Millisecond, 100*time.Millisecond)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrCodeTimeout))
	})
}

type fakeProber struct {
	reports []*Report
	errs    []error
	i       int
}

func (f *fakeProber) Check(context.Context) (*Report, error) {
	i := f.i
	f.i++
	return f.reports[i], f.errs[i]
}

func TestMonitor_Poll(t *testing.T) {
	p := &fakeProber{
		reports: []*Report{nil, {Status: "degraded"}, {Status: "healthy", APIs: map[string]bool{"claude": true}}},
		errs:    []error{fmt.Errorf("connection refused"), nil, nil},
	}
	m := NewMonitor(p, time.Hour)

	s := m.Poll(context.Background())
	assert.False(t, s.Healthy)
	assert.Equal(t, 1, s.ConsecutiveFailures)
	assert.Contains(t, s.Error, "connection refused")

	s = m.Poll(context.Background())
	assert.False(t, s.Healthy)
	assert.Equal(t, 2, s.ConsecutiveFailures)
	assert.Equal(t, "status degraded", s.Error)

	s = m.Poll(context.Background())
	assert.True(t, s.Healthy)
	assert.Zero(t, s.ConsecutiveFailures)
	assert.Empty(t, s.Error)
	assert.Equal(t, 3, m.Snapshot().Checks)
}

func TestMonitor_RunStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, healthyBody)
	}))
	defer srv.Close()

	m := NewMonitor(NewChecker(srv.URL), 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	assert.Eventually(t, func() bool { return m.Snapshot().Checks >= 2 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.True(t, m.Snapshot().Healthy)
}
