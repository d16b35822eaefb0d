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

type asanaMe struct {
	Data struct {
		GID   string `json:"gid"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"data"`
}

// AsanaProber fetches the token owner's profile.
type AsanaProber struct {
	client *resty.Client
	token  string
}

// NewAsanaProber returns a prober for the Asana API at baseURL.
func NewAsanaProber(cfg *config.APIConfig, baseURL string) *AsanaProber {
	return &AsanaProber{
		client: httpclient.New(baseURL, 0),
		token:  cfg.AsanaAccessToken,
	}
}

// Name implements Prober.
func (p *AsanaProber) Name() string { return "asana" }

// Probe implements Prober.
func (p *AsanaProber) Probe(ctx context.Context) Result {
	if config.IsPlaceholder(p.token) {
		return notConfigured("ASANA_ACCESS_TOKEN not set")
	}

	start := time.Now()
	var out asanaMe
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(p.token).
		SetHeader("Accept", "application/json").
		SetResult(&out).
		Get("/users/me")
	if err != nil {
		return failed(start, httpclient.TransportError("asana request failed", err))
	}
	if err := httpclient.CheckResponse(resp); err != nil {
		return failed(start, err)
	}

	who := out.Data.Name
	if who == "" {
		who = out.Data.GID
	}
	return connected(start, "user "+who)
}
