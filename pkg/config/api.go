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

package config

import (
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/researchplatform/rpctl/pkg/errors"
)

// APIConfig holds the external API credentials from the application .env file.
type APIConfig struct {
	ClaudeAPIKey    string `json:"claudeApiKey" yaml:"claudeApiKey" env:"CLAUDE_API_KEY"`
	ClaudeModel     string `json:"claudeModel" yaml:"claudeModel" env:"CLAUDE_MODEL" envDefault:"claude-3-sonnet-20240229"`
	ClaudeMaxTokens int    `json:"claudeMaxTokens" yaml:"claudeMaxTokens" env:"CLAUDE_MAX_TOKENS" envDefault:"4000"`

	PubMedAPIKey string `json:"pubmedApiKey" yaml:"pubmedApiKey" env:"PUBMED_API_KEY"`
	PubMedEmail  string `json:"pubmedEmail" yaml:"pubmedEmail" env:"PUBMED_EMAIL" envDefault:"user@example.com"`
	PubMedTool   string `json:"pubmedTool" yaml:"pubmedTool" env:"PUBMED_TOOL" envDefault:"ResearchPlatform"`

	AsanaAccessToken string `json:"asanaAccessToken" yaml:"asanaAccessToken" env:"ASANA_ACCESS_TOKEN"`
	AsanaWorkspaceID string `json:"asanaWorkspaceId" yaml:"asanaWorkspaceId" env:"ASANA_WORKSPACE_ID"`

	FlaskEnv   string `json:"flaskEnv" yaml:"flaskEnv" env:"FLASK_ENV" envDefault:"production"`
	FlaskDebug bool   `json:"flaskDebug" yaml:"flaskDebug" env:"FLASK_DEBUG"`
}

// RequiredAPIKeys are the .env keys every deployment is expected to set.
var RequiredAPIKeys = []string{"CLAUDE_API_KEY", "PUBMED_EMAIL", "ASANA_ACCESS_TOKEN"}

// SecretAPIKeys are masked whenever .env values are displayed.
var SecretAPIKeys = []string{"CLAUDE_API_KEY", "PUBMED_API_KEY", "ASANA_ACCESS_TOKEN", "SECRET_KEY"}

// APIConfigFromMap decodes credentials from parsed .env values.
func APIConfigFromMap(vars map[string]string) (*APIConfig, error) {
	cfg := &APIConfig{}
	if vars == nil {
		vars = map[string]string{}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "failed to decode API config", err)
	}
	return cfg, nil
}

// LoadAPIConfig reads and decodes the .env file at path.
func LoadAPIConfig(path string) (*APIConfig, error) {
	vars, err := ReadDotEnv(path)
	if err != nil {
		return nil, err
	}
	return APIConfigFromMap(vars)
}

// IsPlaceholder reports whether v is empty or still the template value,
// such as "your_claude_api_key_here".
func IsPlaceholder(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return true
	}
	return strings.HasPrefix(v, "your_") && strings.HasSuffix(v, "_here") ||
		strings.HasPrefix(v, "your-") && strings.HasSuffix(v, "-here") ||
		v == "changeme"
}

// ClaudeConfigured reports whether a real Claude key is set.
func (a *APIConfig) ClaudeConfigured() bool { return !IsPlaceholder(a.ClaudeAPIKey) }

// PubMedKeyed reports whether a real PubMed key is set. PubMed works without one
// at a lower rate limit.
func (a *APIConfig) PubMedKeyed() bool { return !IsPlaceholder(a.PubMedAPIKey) }

// AsanaConfigured reports whether a real Asana token is set.
func (a *APIConfig) AsanaConfigured() bool { return !IsPlaceholder(a.AsanaAccessToken) }

// Redacted returns a copy with secrets masked.
func (a *APIConfig) Redacted() *APIConfig {
	cp := *a
	cp.ClaudeAPIKey = Mask(cp.ClaudeAPIKey)
	cp.PubMedAPIKey = Mask(cp.PubMedAPIKey)
	cp.AsanaAccessToken = Mask(cp.AsanaAccessToken)
	return &cp
}

// IsSecretKey reports whether an env key holds a secret.
func IsSecretKey(key string) bool {
	for _, k := range SecretAPIKeys {
		if k == key {
			return true
		}
	}
	upper := strings.ToUpper(key)
	return strings.Contains(upper, "PASSWORD") || strings.HasSuffix(upper, "_TOKEN") || strings.HasSuffix(upper, "_SECRET")
}

// Mask hides all but the first four characters of a secret. Placeholders are
// shown as-is so that unset credentials stay recognisable.
func Mask(v string) string {
	if v == "" || IsPlaceholder(v) {
		return v
	}
	if len(v) <= 8 {
		return "********"
	}
	return v[:4] + "********"
}
