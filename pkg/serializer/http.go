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

package serializer

import (
	"bytes"
	"log/slog"
	"net/http"
)

// RespondJSON encodes data and writes it with status. Encoding happens before
// any header is sent so a failure can still become a 500.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	var body bytes.Buffer
	if err := encodeJSON(&body, data); err != nil {
		slog.Error("cannot encode response", "status", status, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := body.WriteTo(w); err != nil {
		slog.Debug("client went away before response was written", "error", err)
	}
}
