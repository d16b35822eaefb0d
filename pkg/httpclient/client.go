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

// Package httpclient builds the resty clients used to talk to the
// application and to the external APIs, and maps HTTP failures onto
// structured errors.
package httpclient

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/researchplatform/rpctl/pkg/defaults"
	"github.com/researchplatform/rpctl/pkg/errors"
)

// UserAgent is sent with every request.
var UserAgent = "rpctl"

// New returns a resty client for baseURL. A zero timeout uses the default.
func New(baseURL string, timeout time.Duration) *resty.Client {
	if timeout <= 0 {
		timeout = defaults.HTTPClientTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   defaults.HTTPConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: defaults.HTTPTLSHandshakeTimeout,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
	}

	return resty.New().
		SetTransport(transport).
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("User-Agent", UserAgent)
}

// CheckResponse converts a non-2xx response into a structured error.
func CheckResponse(resp *resty.Response) error {
	status := resp.StatusCode()
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		body = http.StatusText(status)
	}
	ctx := map[string]any{
		"status": status,
		"url":    resp.Request.URL,
	}
	msg := fmt.Sprintf("http %d: %s", status, body)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.NewWithContext(errors.ErrCodeUnauthorized, msg, ctx)
	case status == http.StatusNotFound:
		return errors.NewWithContext(errors.ErrCodeNotFound, msg, ctx)
	case status == http.StatusTooManyRequests:
		return errors.NewWithContext(errors.ErrCodeUnavailable, msg, ctx)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return errors.NewWithContext(errors.ErrCodeTimeout, msg, ctx)
	case status >= http.StatusBadRequest && status < http.StatusInternalServerError:
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, msg, ctx)
	default:
		return errors.NewWithContext(errors.ErrCodeUnavailable, msg, ctx)
	}
}

// TransportError classifies an error returned by resty before any response
// was received.
func TransportError(msg string, err error) error {
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.Wrap(errors.ErrCodeTimeout, msg, err)
	}
	return errors.Wrap(errors.ErrCodeUnavailable, msg, err)
}
