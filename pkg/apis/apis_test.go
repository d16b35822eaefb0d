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
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchplatform/rpctl/pkg/config"
)

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}

func newAPIServer(t *testing.T, claudeStatus, asanaStatus int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/messages", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "sk-ant-valid", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req claudeRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 10, req.MaxTokens)
		assert.Equal(t, "Hi", req.Messages[0].Content)

		if claudeStatus != http.StatusOK {
			writeJSON(w, claudeStatus, `{"type":"error","error":{"type":"authentication_error"}}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"id":"msg_1","model":"claude-3-sonnet-20240229","usage":{"input_tokens":8,"output_tokens":3}}`)
	})

	mux.HandleFunc("GET /esearch.fcgi", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		q := r.URL.Query()
		assert.Equal(t, "pubmed", q.Get("db"))
		assert.Equal(t, "test", q.Get("term"))
		assert.Equal(t, "1", q.Get("retmax"))
		assert.Equal(t, "ResearchPlatform", q.Get("tool"))
		writeJSON(w, http.StatusOK, `{"esearchresult":{"count":"1234","idlist":["1"]}}`)
	})

	mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "Bearer asana-token", r.Header.Get("Authorization"))
		if asanaStatus != http.StatusOK {
			writeJSON(w, asanaStatus, `{"errors":[{"message":"Not Authorized"}]}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"data":{"gid":"42","name":"Ada"}}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func endpointsFor(srv *httptest.Server) Endpoints {
	return Endpoints{Claude: srv.URL, PubMed: srv.URL, Asana: srv.URL}
}

func loadCfg(t *testing.T, vars map[string]string) *config.APIConfig {
	t.Helper()
	cfg, err := config.APIConfigFromMap(vars)
	require.NoError(t, err)
	return cfg
}

func TestRun_AllConnected(t *testing.T) {
	srv, hits := newAPIServer(t, http.StatusOK, http.StatusOK)
	cfg := loadCfg(t, map[string]string{
		"CLAUDE_API_KEY":     "sk-ant-valid",
		"ASANA_ACCESS_TOKEN": "asana-token",
	})

	results := Run(context.Background(), NewProbers(cfg, endpointsFor(srv)), time.Second)
	require.Len(t, results, 3)
	assert.False(t, results.Failed())
	assert.Equal(t, int32(3), hits.Load())

	assert.Equal(t, "claude", results[0].API)
	assert.Equal(t, StateConnected, results[0].State)
	assert.Equal(t, "model claude-3-sonnet-20240229", results[0].Detail)
	assert.Equal(t, "pubmed", results[1].API)
	assert.Contains(t, results[1].Detail, "1234 results")
	assert.Equal(t, "asana", results[2].API)
	assert.Equal(t, "user Ada", results[2].Detail)
}

func TestRun_PlaceholdersSkipNetwork(t *testing.T) {
	srv, hits := newAPIServer(t, http.StatusOK, http.StatusOK)
	cfg := loadCfg(t, map[string]string{
		"CLAUDE_API_KEY":     "your_claude_api_key_here",
		"ASANA_ACCESS_TOKEN": "",
		"PUBMED_EMAIL":       "your_email_here",
	})

	results := Run(context.Background(), NewProbers(cfg, endpointsFor(srv)), time.Second)
	for _, r := range results {
		assert.Equal(t, StateNotConfigured, r.State, r.API)
	}
	assert.False(t, results.Failed())
	assert.Zero(t, hits.Load())
	assert.Equal(t, "-", results.TableRows()[0][2])
}

func TestRun_FailureDoesNotAbortOthers(t *testing.T) {
	srv, _ := newAPIServer(t, http.StatusUnauthorized, http.StatusOK)
	cfg := loadCfg(t, map[string]string{
		"CLAUDE_API_KEY":     "sk-ant-valid",
		"ASANA_ACCESS_TOKEN": "asana-token",
	})

	results := Run(context.Background(), NewProbers(cfg, endpointsFor(srv)), time.Second)
	assert.True(t, results.Failed())
	assert.Equal(t, StateFailed, results[0].State)
	assert.Contains(t, results[0].Detail, "401")
	assert.Equal(t, StateConnected, results[1].State)
	assert.Equal(t, StateConnected, results[2].State)
}

func TestRun_Timeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	cfg := loadCfg(t, map[string]string{"ASANA_ACCESS_TOKEN": "asana-token"})
	results := Run(context.Background(), []Prober{NewAsanaProber(cfg, slow.URL)}, 50*time.Millisecond)
	require.Len(t, results, 1)
	assert.Equal(t, StateFailed, results[0].State)
}

func TestPubMedRateLimit(t *testing.T) {
	anon := NewPubMedProber(loadCfg(t, nil), DefaultPubMedURL)
	assert.Equal(t, float64(3), float64(anon.Limit()))

	keyed := NewPubMedProber(loadCfg(t, map[string]string{"PUBMED_API_KEY": "0123456789abcdef"}), DefaultPubMedURL)
	assert.Equal(t, float64(10), float64(keyed.Limit()))
}

func TestRunRounds_PacesPubMed(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, `{"esearchresult":{"count":"7"}}`)
	}))
	defer srv.Close()

	cfg := loadCfg(t, map[string]string{"PUBMED_EMAIL": "lab@example.org"})
	start := time.Now()
	results := RunRounds(context.Background(), []Prober{NewPubMedProber(cfg, srv.URL)}, time.Second, 3)
	elapsed := time.Since(start)

	require.Len(t, results, 3)
	assert.Equal(t, int32(3), calls.Load())
	for i, r := range results {
		assert.Equal(t, StateConnected, r.State)
		assert.Equal(t, i+1, r.Round)
	}
	// 3 req/s with a burst of one: the second and third call wait about 333ms each
	assert.GreaterOrEqual(t, elapsed, 600*time.Millisecond)
	assert.Equal(t, []string{"pubmed #2", "connected"}, results.TableRows()[1][:2])
}

func TestRunRounds_SingleRoundIsUnnumbered(t *testing.T) {
	results := RunRounds(context.Background(), []Prober{NewClaudeProber(loadCfg(t, nil), DefaultClaudeURL)}, time.Second, 1)
	require.Len(t, results, 1)
	assert.Equal(t, StateNotConfigured, results[0].State)
	assert.Zero(t, results[0].Round)
	assert.Equal(t, "claude", results.TableRows()[0][0])
}

func TestPubMed_SendsAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0123456789abcdef", r.URL.Query().Get("api_key"))
		assert.Equal(t, "lab@example.org", r.URL.Query().Get("email"))
		writeJSON(w, http.StatusOK, `{"esearchresult":{"count":"1"}}`)
	}))
	defer srv.Close()

	cfg := loadCfg(t, map[string]string{"PUBMED_API_KEY": "0123456789abcdef", "PUBMED_EMAIL": "lab@example.org"})
	res := NewPubMedProber(cfg, srv.URL).Probe(context.Background())
	assert.Equal(t, StateConnected, res.State)
	assert.Contains(t, res.Detail, "10 req/s")
}

func TestPubMed_UnexpectedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"error":"API rate limit exceeded"}`)
	}))
	defer srv.Close()

	res := NewPubMedProber(loadCfg(t, nil), srv.URL).Probe(context.Background())
	assert.Equal(t, StateFailed, res.State)
}

func TestResults_Table(t *testing.T) {
	r := Results{{API: "claude", State: StateConnected, LatencyMS: 120, Detail: "ok"}}
	assert.Equal(t, []string{"API", "STATE", "LATENCY", "DETAIL"}, r.TableHeader())
	assert.Equal(t, [][]string{{"claude", "connected", "120ms", "ok"}}, r.TableRows())
}
