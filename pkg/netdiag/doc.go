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

// Package netdiag runs the network and NFS diagnostics behind debug-network
// and debug-nfs.
//
// TCP reachability checks and DNS lookups run concurrently, each bounded by
// its own timeout, and failures are reported rather than returned: a
// diagnostic run always produces a complete report.
//
// NFS diagnostics combine the NAS port checks with the NFS mounts listed in
// /proc/mounts and the systemd mount units reported over D-Bus. Hosts
// without a system bus get a report with the unit section marked skipped.
package netdiag
