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
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/researchplatform/rpctl/pkg/config"
	"github.com/researchplatform/rpctl/pkg/httpclient"
)

const (
	anthropicVersion = "2023-06-01"
	claudeTestTokens = 10
	claudeTestPrompt = "Hi"
)

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeResponse struct {
	ID    string `json:"id"`
	Model string `json:"model"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// ClaudeProber sends a minimal message to the Anthropic Messages API.
type ClaudeProber struct {
	client *resty.Client
	key    string
	model  string
}

// NewClaudeProber returns a prober for the Claude API at baseURL.
func NewClaudeProber(cfg *config.APIConfig, baseURL string) *ClaudeProber {
	return &ClaudeProber{
		client: httpclient.New(baseURL, 0),
		key:    cfg.ClaudeAPIKey,
		model:  cfg.ClaudeModel,
	}
}

// Name implements Prober.
func (p *ClaudeProber) Name() string { return "claude" }

// Probe implements Prober.
func (p *ClaudeProber) Probe(ctx context.Context) Result {
	if config.IsPlaceholder(p.key) {
		return notConfigured("CLAUDE_API_KEY not set")
	}

	start := time.Now()
	var out claudeResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("x-api-key", p.key).
		SetHeader("anthropic-version", anthropicVersion).
		SetHeader("Content-Type", "application/json").
		SetBody(claudeRequest{
			Model:     p.model,
			MaxTokens: claudeTestTokens,
			Messages:  []claudeMessage{{Role: "user", Content: claudeTestPrompt}},
		}).
		SetResult(&out).
		Post("/v1/messages")
	if err != nil {
		return failed(start, httpclient.TransportError("claude request failed", err))
	}
	if err := httpclient.CheckResponse(resp); err != nil {
		return failed(start, err)
	}

	model := out.Model
	if model == "" {
		model = p.model
	}
	return connected(start, "model "+model)
}
