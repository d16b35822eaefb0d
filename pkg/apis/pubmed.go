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
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/researchplatform/rpctl/pkg/config"
	"github.com/researchplatform/rpctl/pkg/httpclient"
)

// NCBI allows 3 requests per second per client, 10 with an API key.
const (
	pubmedRateAnonymous = 3
	pubmedRateKeyed     = 10
)

type esearchResponse struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// PubMedProber runs a one-result esearch query.
type PubMedProber struct {
	client  *resty.Client
	limiter *rate.Limiter
	apiKey  string
	email   string
	tool    string
}

// NewPubMedProber returns a prober for the E-utilities at baseURL.
func NewPubMedProber(cfg *config.APIConfig, baseURL string) *PubMedProber {
	limit := pubmedRateAnonymous
	if cfg.PubMedKeyed() {
		limit = pubmedRateKeyed
	}
	return &PubMedProber{
		client:  httpclient.New(baseURL, 0),
		limiter: rate.NewLimiter(rate.Limit(limit), 1),
		apiKey:  cfg.PubMedAPIKey,
		email:   cfg.PubMedEmail,
		tool:    cfg.PubMedTool,
	}
}

// Name implements Prober.
func (p *PubMedProber) Name() string { return "pubmed" }

// Limit returns the request rate the prober allows itself.
func (p *PubMedProber) Limit() rate.Limit { return p.limiter.Limit() }

// Probe implements Prober. PubMed is usable without a key, so it is only
// reported as not configured when no contact email is set.
func (p *PubMedProber) Probe(ctx context.Context) Result {
	if config.IsPlaceholder(p.email) {
		return notConfigured("PUBMED_EMAIL not set")
	}

	// the limiter lives as long as the prober, so repeated rounds are paced
	if err := p.limiter.Wait(ctx); err != nil {
		return failed(time.Now(), httpclient.TransportError("pubmed rate limiter", err))
	}
	start := time.Now()

	params := map[string]string{
		"db":      "pubmed",
		"term":    "test",
		"retmax":  "1",
		"retmode": "json",
		"email":   p.email,
		"tool":    p.tool,
	}
	if !config.IsPlaceholder(p.apiKey) {
		params["api_key"] = p.apiKey
	}

	var out esearchResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&out).
		Get("/esearch.fcgi")
	if err != nil {
		return failed(start, httpclient.TransportError("pubmed request failed", err))
	}
	if err := httpclient.CheckResponse(resp); err != nil {
		return failed(start, err)
	}
	if out.Result.Count == "" {
		return failed(start, fmt.Errorf("unexpected esearch response"))
	}

	detail := fmt.Sprintf("%s results, %d req/s", out.Result.Count, int(p.limiter.Limit()))
	return connected(start, detail)
}
