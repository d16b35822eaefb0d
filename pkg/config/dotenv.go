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
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/joho/godotenv"

	"github.com/researchplatform/rpctl/pkg/errors"
)

var envKeyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseDotEnv reads a .env document with godotenv. Quoting, escapes,
// multi-line double-quoted values, "export " prefixes and trailing comments
// follow godotenv; later keys override earlier ones. Keys must also be valid
// shell variable names since compose interpolates them.
func ParseDotEnv(r io.Reader) (map[string]string, error) {
	vars, err := godotenv.Parse(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "failed to parse env file", err)
	}
	for key := range vars {
		if !envKeyPattern.MatchString(key) {
			return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("invalid key %q", key),
				map[string]any{"key": key})
		}
	}
	return vars, nil
}

// ReadDotEnv parses the env file at path.
func ReadDotEnv(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithContext(errors.ErrCodeNotFound, "env file not found", err,
				map[string]any{"path": path})
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to open env file", err)
	}
	defer f.Close()

	return ParseDotEnv(f)
}
