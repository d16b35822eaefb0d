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

// Package compose drives the container engine and the Compose orchestrator
// through their command-line tools.
//
// All process execution goes through the [Runner] interface so that callers
// and tests can substitute a [FakeRunner]. [Client] detects whether the
// Compose v2 plugin ("docker compose") is installed and falls back to the
// standalone "docker-compose" binary otherwise.
//
// Usage:
//
//	c, err := compose.New(ctx, compose.Options{File: "docker-compose.yml"})
//	if err != nil {
//		return err
//	}
//	if err := c.Up(ctx, compose.UpOptions{Detach: true}); err != nil {
//		return err
//	}
package compose
