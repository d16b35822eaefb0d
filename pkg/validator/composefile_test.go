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

package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchplatform/rpctl/pkg/errors"
)

func mapLookup(m map[string]string) LookupFunc {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

func TestInterpolate(t *testing.T) {
	lookup := mapLookup(map[string]string{"HOST_PORT": "8080", "EMPTY": "", "NAS_IP": "10.0.0.5"})

	tests := []struct {
		in   string
		want string
	}{
		{in: "${HOST_PORT}:5000", want: "8080:5000"},
		{in: "$HOST_PORT:5000", want: "8080:5000"},
		{in: "${MISSING:-5000}:5000", want: "5000:5000"},
		{in: "${EMPTY:-fallback}", want: "fallback"},
		{in: "${EMPTY-fallback}", want: ""},
		{in: "${MISSING-fallback}", want: "fallback"},
		{in: "${HOST_PORT:-5000}", want: "8080"},
		{in: "nfs://${NAS_IP}/volume1", want: "nfs://10.0.0.5/volume1"},
		{in: "echo $$HOME", want: "echo $HOME"},
		{in: "plain", want: "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Interpolate(tt.in, lookup)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInterpolate_Required(t *testing.T) {
	_, err := Interpolate("${SECRET_KEY:?must be set}", mapLookup(nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidRequest))

	got, err := Interpolate("${SECRET_KEY?must be set}", mapLookup(map[string]string{"SECRET_KEY": "x"}))
	require.NoError(t, err)
	assert.Equal(t, "x", got)
}

func TestParsePortSpec(t *testing.T) {
	tests := []struct {
		in      string
		want    PortSpec
		wantErr bool
	}{
		{in: "5000", want: PortSpec{Target: "5000"}},
		{in: "8080:5000", want: PortSpec{Published: "8080", Target: "5000"}},
		{in: "127.0.0.1:5000:5000", want: PortSpec{HostIP: "127.0.0.1", Published: "5000", Target: "5000"}},
		{in: "6379:6379/tcp", want: PortSpec{Published: "6379", Target: "6379", Protocol: "tcp"}},
		{in: "[::1]:5000:5000", want: PortSpec{HostIP: "::1", Published: "5000", Target: "5000"}},
		{in: "5000-5010:5000", want: PortSpec{Published: "5000-5010", Target: "5000"}},
		{in: "a:b:c:d", wantErr: true},
		{in: "5000:", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePortSpec(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPortSpec_Publishes(t *testing.T) {
	assert.True(t, PortSpec{Published: "5000", Target: "5000"}.Publishes(5000))
	assert.False(t, PortSpec{Published: "5001", Target: "5000"}.Publishes(5000))
	assert.True(t, PortSpec{Published: "5000-5010", Target: "5000"}.Publishes(5005))
	assert.False(t, PortSpec{Published: "5000-5010", Target: "5000"}.Publishes(5011))
	assert.False(t, PortSpec{Target: "5000"}.Publishes(5000))
	assert.Equal(t, "127.0.0.1:8080:5000/tcp", PortSpec{HostIP: "127.0.0.1", Published: "8080", Target: "5000", Protocol: "tcp"}.String())
}

const composeFixture = `
services:
  app:
    build: .
    ports:
      - "${HOST_PORT:-5000}:5000"
      - target: 9000
        published: 9000
    environment:
      - NAS_IP=${NAS_IP}
  redis:
    image: redis:7-alpine
    ports:
      - 6379:6379
`

func TestParseComposeFile(t *testing.T) {
	cf, err := ParseComposeFile([]byte(composeFixture), mapLookup(map[string]string{"HOST_PORT": "8080"}))
	require.NoError(t, err)

	assert.Equal(t, []string{"app", "redis"}, cf.ServiceNames())
	app := cf.Services["app"]
	assert.NotNil(t, app.Build)
	require.Len(t, app.Ports, 2)
	assert.Equal(t, PortSpec{Published: "8080", Target: "5000"}, app.Ports[0])
	assert.Equal(t, PortSpec{Published: "9000", Target: "9000"}, app.Ports[1])
	assert.Equal(t, "redis:7-alpine", cf.Services["redis"].Image)
}

func TestParseComposeFile_Invalid(t *testing.T) {
	_, err := ParseComposeFile([]byte("services: [unclosed"), mapLookup(nil))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidRequest))

	cf, err := ParseComposeFile([]byte("version: '3.8'\n"), mapLookup(nil))
	require.NoError(t, err)
	assert.Empty(t, cf.Services)
}

func TestLoadComposeFile_Missing(t *testing.T) {
	_, err := LoadComposeFile(t.TempDir()+"/docker-compose.yml", nil)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}
