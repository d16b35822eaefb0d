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

// Package redisadmin administers the platform's Redis service.
//
// It replaces redis-cli for the redis-info, redis-flush and redis-monitor
// operations: INFO output is parsed into sections, flushes require explicit
// confirmation and MONITOR output is streamed to a writer until the context
// is cancelled.
package redisadmin
