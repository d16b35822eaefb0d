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

// Package validator checks that a host and project are ready to run the
// platform.
//
// Validation is a list of named checks, each of which passes, fails or is
// skipped when it cannot be evaluated:
//
//	docker.installed      docker binary on PATH
//	docker.version        engine >= 20.10
//	compose.version       compose >= 2.0 (v1 is skipped with a warning)
//	compose.file          compose file exists and parses
//	compose.services      app and redis services are defined
//	compose.images        image references are well formed
//	compose.port          the app publishes HOST_PORT
//	env.file              .env exists
//	env.<KEY>             required credentials are set to real values
//	workspace.dirs        the directories the image expects exist
//
// Version requirements are expressed as constraints such as ">= 20.10",
// using the operators >=, <=, >, <, == and !=; a bare value is an exact
// match.
//
// The overall status is "fail" when any check failed, "partial" when some
// were skipped, and "pass" otherwise.
//
// Usage:
//
//	v := validator.New(cfg, compose.NewExecRunner(), validator.WithVersion(version))
//	result, err := v.Validate(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.Summary.Status)
package validator
