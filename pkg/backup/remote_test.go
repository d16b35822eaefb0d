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

package backup

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/researchplatform/rpctl/pkg/errors"
)

func TestNormaliseEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		endpoint string
		secure   bool
		wantErr  bool
	}{
		{name: "host port", raw: "192.168.0.134:9000", endpoint: "192.168.0.134:9000"},
		{name: "http url", raw: "http://nas.local:9000", endpoint: "nas.local:9000"},
		{name: "https url", raw: "https://s3.example.com", endpoint: "s3.example.com", secure: true},
		{name: "trailing slash", raw: "http://nas:9000/", endpoint: "nas:9000"},
		{name: "whitespace", raw: "  nas:9000 ", endpoint: "nas:9000"},
		{name: "empty", raw: "", wantErr: true},
		{name: "path", raw: "http://nas:9000/bucket", wantErr: true},
		{name: "no host", raw: "http://", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			endpoint, secure, err := normaliseEndpoint(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.endpoint, endpoint)
			assert.Equal(t, tt.secure, secure)
		})
	}
}

func TestNewS3Target_Validation(t *testing.T) {
	_, err := NewS3Target(S3Options{Endpoint: "nas:9000", Bucket: "b"})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidRequest))

	_, err = NewS3Target(S3Options{Endpoint: "nas:9000", AccessKey: "a", SecretKey: "s"})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidRequest))

	_, err = NewS3Target(S3Options{Endpoint: "http://nas:9000/x", Bucket: "b", AccessKey: "a", SecretKey: "s"})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidRequest))

	target, err := NewS3Target(S3Options{Endpoint: "nas:9000", Bucket: "b", AccessKey: "a", SecretKey: "s", Prefix: "/rp/"})
	require.NoError(t, err)
	assert.Equal(t, "rp/backup_20250101_000000.tar.gz", target.Key("backup_20250101_000000.tar.gz"))
}

// TestS3Upload_MinIO runs against a throwaway MinIO container.
func TestS3Upload_MinIO(t *testing.T) {
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
		Repository: "minio/minio",
		Tag:        "RELEASE.2024-01-31T20-20-33Z",
		Cmd:        []string{"server", "/data"},
		Env: []string{
			"MINIO_ROOT_USER=minio",
			"MINIO_ROOT_PASSWORD=minio123",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })

	port := resource.GetPort("9000/tcp")
	pool.MaxWait = 2 * time.Minute
	require.NoError(t, pool.Retry(func() error {
		resp, err := http.Get("http://localhost:" + port + "/minio/health/live")
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("minio not ready: %d", resp.StatusCode)
		}
		return nil
	}))

	root := newProject(t)
	archive, err := NewManager(root, "backups").Create(context.Background(), CreateOptions{})
	require.NoError(t, err)

	target, err := NewS3Target(S3Options{
		Endpoint:  "localhost:" + port,
		Bucket:    "research-backups",
		AccessKey: "minio",
		SecretKey: "minio123",
		Prefix:    "nightly",
	})
	require.NoError(t, err)

	res, err := target.Upload(context.Background(), archive)
	require.NoError(t, err)
	assert.Equal(t, "nightly/"+archive.Name, res.Key)
	assert.Equal(t, archive.Size, res.Size)

	keys, err := target.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"nightly/" + archive.Name}, keys)
}
