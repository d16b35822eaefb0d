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

// Package backup creates, lists and restores project backups and data
// exports.
//
// A backup is a gzip-compressed tar archive named
// backup_YYYYMMDD_HHMMSS.tar.gz holding server_files/, templates/, static/,
// .env and the compose file, relative to the project directory. Every
// archive gets a sha256 sidecar (<archive>.sha256) in sha256sum format,
// verified before a restore.
//
// Archives can be copied off-host to the NAS through its S3-compatible
// endpoint ([S3Target]) or pushed to an OCI registry (see pkg/oci).
package backup
