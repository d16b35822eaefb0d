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
	"log/slog"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/researchplatform/rpctl/pkg/errors"
)

// S3Options configures an S3Target.
type S3Options struct {
	// Endpoint is "host:port" or a URL with http/https scheme.
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	// UseSSL forces HTTPS when Endpoint carries no scheme.
	UseSSL bool
	// Prefix is prepended to object keys.
	Prefix string
}

// S3Target uploads archives to an S3-compatible bucket, normally MinIO on the NAS.
type S3Target struct {
	client *minio.Client
	bucket string
	prefix string
}

// UploadResult describes an uploaded archive.
type UploadResult struct {
	Bucket   string `json:"bucket" yaml:"bucket"`
	Key      string `json:"key" yaml:"key"`
	Size     int64  `json:"size" yaml:"size"`
	ETag     string `json:"etag" yaml:"etag"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// normaliseEndpoint accepts "nas:9000" as well as "http://nas:9000".
func normaliseEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("empty endpoint")
	}

	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, err
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("invalid endpoint")
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, fmt.Errorf("endpoint must not contain a path")
		}
		return u.Host, u.Scheme == "https", nil
	}
	return raw, false, nil
}

// NewS3Target validates opts and returns a target. No request is made.
func NewS3Target(opts S3Options) (*S3Target, error) {
	if opts.AccessKey == "" || opts.SecretKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "S3 access key and secret key are required")
	}
	if opts.Bucket == "" {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "S3 bucket is required")
	}

	endpoint, secure, err := normaliseEndpoint(opts.Endpoint)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest, "invalid S3 endpoint", err,
			map[string]any{"endpoint": opts.Endpoint})
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: secure || opts.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "failed to create S3 client", err)
	}

	return &S3Target{
		client: client,
		bucket: opts.Bucket,
		prefix: strings.Trim(opts.Prefix, "/"),
	}, nil
}

// Key returns the object key used for a file name.
func (t *S3Target) Key(name string) string {
	if t.prefix == "" {
		return name
	}
	return path.Join(t.prefix, name)
}

// EnsureBucket creates the bucket when it does not exist.
func (t *S3Target) EnsureBucket(ctx context.Context) error {
	exists, err := t.client.BucketExists(ctx, t.bucket)
	if err != nil {
		return errors.WrapWithContext(errors.ErrCodeUnavailable, "failed to reach S3 endpoint", err,
			map[string]any{"endpoint": t.client.EndpointURL().Host})
	}
	if exists {
		return nil
	}
	if err := t.client.MakeBucket(ctx, t.bucket, minio.MakeBucketOptions{}); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, "failed to create bucket", err)
	}
	slog.Info("created backup bucket", "bucket", t.bucket)
	return nil
}

// Upload copies an archive and its checksum sidecar, when present, to the bucket.
func (t *S3Target) Upload(ctx context.Context, a *Archive) (*UploadResult, error) {
	if err := t.EnsureBucket(ctx); err != nil {
		return nil, err
	}

	key := t.Key(a.Name)
	info, err := t.client.FPutObject(ctx, t.bucket, key, a.Path, minio.PutObjectOptions{
		ContentType:  "application/gzip",
		UserMetadata: map[string]string{"sha256": a.Checksum},
	})
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeUnavailable, "failed to upload archive", err,
			map[string]any{"bucket": t.bucket, "key": key})
	}

	if a.Checksum != "" {
		if _, err := t.client.FPutObject(ctx, t.bucket, key+ChecksumSuffix, a.Path+ChecksumSuffix,
			minio.PutObjectOptions{ContentType: "text/plain"}); err != nil {
			slog.Warn("failed to upload checksum sidecar", "key", key+ChecksumSuffix, "error", err)
		}
	}

	slog.Info("backup uploaded", "bucket", t.bucket, "key", key, "size", info.Size)
	return &UploadResult{
		Bucket:   t.bucket,
		Key:      key,
		Size:     info.Size,
		ETag:     info.ETag,
		Endpoint: t.client.EndpointURL().String(),
	}, nil
}

// List returns the object keys of uploaded archives.
func (t *S3Target) List(ctx context.Context) ([]string, error) {
	var keys []string
	prefix := t.prefix
	if prefix != "" {
		prefix += "/"
	}
	for obj := range t.client.ListObjects(ctx, t.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, errors.Wrap(errors.ErrCodeUnavailable, "failed to list bucket", obj.Err)
		}
		if strings.HasSuffix(obj.Key, ArchiveExt) {
			keys = append(keys, obj.Key)
		}
	}
	return keys, nil
}
