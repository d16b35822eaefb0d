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
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/researchplatform/rpctl/pkg/errors"
)

// ChecksumSuffix is appended to an archive path to name its sidecar.
const ChecksumSuffix = ".sha256"

// SumFile returns the hex sha256 of the file at path.
func SumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for checksum: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to read %s for checksum: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// WriteChecksum writes "<sha256>  <basename>" to the sidecar of path.
func WriteChecksum(path string) (string, error) {
	sum, err := SumFile(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, "failed to checksum archive", err)
	}

	content := fmt.Sprintf("%s  %s\n", sum, filepath.Base(path))
	if err := os.WriteFile(path+ChecksumSuffix, []byte(content), 0o600); err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, "failed to write checksum", err)
	}

	slog.Debug("checksum written", "archive", path, "sha256", sum)
	return sum, nil
}

// ReadChecksum returns the sum recorded in the sidecar of path, or "" when
// there is no sidecar.
func ReadChecksum(path string) (string, error) {
	f, err := os.Open(path + ChecksumSuffix)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.Wrap(errors.ErrCodeInternal, "failed to open checksum", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return "", errors.New(errors.ErrCodeIntegrity, "checksum file is empty")
	}
	fields := strings.Fields(scanner.Text())
	if len(fields) == 0 || len(fields[0]) != sha256.Size*2 {
		return "", errors.New(errors.ErrCodeIntegrity, "checksum file is malformed")
	}
	return strings.ToLower(fields[0]), nil
}

// VerifyChecksum compares path against its sidecar. It reports whether a
// sidecar was present; a mismatch is an INTEGRITY error.
func VerifyChecksum(path string) (bool, error) {
	want, err := ReadChecksum(path)
	if err != nil {
		return true, err
	}
	if want == "" {
		return false, nil
	}

	got, err := SumFile(path)
	if err != nil {
		return true, errors.Wrap(errors.ErrCodeInternal, "failed to checksum archive", err)
	}
	if got != want {
		return true, errors.NewWithContext(errors.ErrCodeIntegrity, "archive checksum mismatch",
			map[string]any{"archive": path, "expected": want, "actual": got})
	}
	return true, nil
}
