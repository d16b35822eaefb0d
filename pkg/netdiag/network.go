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

package netdiag

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// NetworkOptions describes what debug-network checks.
type NetworkOptions struct {
	// AppPort is the published application port on localhost.
	AppPort int
	// RedisAddr is host:port of the Redis service as seen from the host.
	RedisAddr string
	// NASIP is the NAS address.
	NASIP string
	// APIHosts are dialed on 443 and resolved. Defaults to DefaultAPIHosts.
	APIHosts []string
}

// Targets expands the options into the list of TCP endpoints to dial.
func (o NetworkOptions) Targets() []Target {
	var targets []Target
	if o.AppPort > 0 {
		targets = append(targets, Target{Name: "app", Host: "localhost", Port: o.AppPort})
	}
	if host, port, err := net.SplitHostPort(o.RedisAddr); err == nil {
		if p, err := strconv.Atoi(port); err == nil {
			targets = append(targets, Target{Name: "redis", Host: host, Port: p})
		}
	}
	if o.NASIP != "" {
		targets = append(targets, NASTargets(o.NASIP)...)
	}
	for _, h := range o.hosts() {
		targets = append(targets, Target{Name: "api/" + h, Host: h, Port: PortHTTPS})
	}
	return targets
}

func (o NetworkOptions) hosts() []string {
	if len(o.APIHosts) > 0 {
		return o.APIHosts
	}
	return DefaultAPIHosts
}

// NASTargets lists the NAS service ports.
func NASTargets(ip string) []Target {
	return []Target{
		{Name: "nas/ssh", Host: ip, Port: PortSSH},
		{Name: "nas/nfs", Host: ip, Port: PortNFS},
		{Name: "nas/rpcbind", Host: ip, Port: PortRPCBind},
		{Name: "nas/smb", Host: ip, Port: PortSMB},
	}
}

// NetworkReport is the result of debug-network.
type NetworkReport struct {
	CheckedAt time.Time      `json:"checkedAt" yaml:"checkedAt"`
	Dials     []DialResult   `json:"dials" yaml:"dials"`
	Lookups   []LookupResult `json:"lookups" yaml:"lookups"`
	// Networks is filled by the caller from the container engine.
	Networks []string `json:"networks,omitempty" yaml:"networks,omitempty"`
}

// Unreachable counts closed targets.
func (r *NetworkReport) Unreachable() int {
	n := 0
	for _, d := range r.Dials {
		if d.Status != StatusOpen {
			n++
		}
	}
	return n
}

// TableHeader implements serializer.Tabular.
func (r *NetworkReport) TableHeader() []string {
	return []string{"CHECK", "TARGET", "RESULT", "DETAIL"}
}

// TableRows implements serializer.Tabular.
func (r *NetworkReport) TableRows() [][]string {
	var rows [][]string
	for _, d := range r.Dials {
		detail := strconv.FormatInt(d.LatencyMS, 10) + "ms"
		if d.Error != "" {
			detail = d.Error
		}
		rows = append(rows, []string{d.Name, d.Addr(), string(d.Status), detail})
	}
	for _, l := range r.Lookups {
		result, detail := "resolved", strings.Join(l.Addrs, ",")
		if l.Error != "" {
			result, detail = "failed", l.Error
		}
		rows = append(rows, []string{"dns", l.Host, result, detail})
	}
	for _, n := range r.Networks {
		rows = append(rows, []string{"docker", n, "present", ""})
	}
	return rows
}

// Network dials every target and resolves the API hosts concurrently.
func (d *Diagnoser) Network(ctx context.Context, opts NetworkOptions) *NetworkReport {
	report := &NetworkReport{CheckedAt: time.Now().UTC()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		report.Dials = d.Dial(gctx, opts.Targets())
		return nil
	})
	g.Go(func() error {
		report.Lookups = d.Lookup(gctx, opts.hosts())
		return nil
	})
	_ = g.Wait()
	return report
}
