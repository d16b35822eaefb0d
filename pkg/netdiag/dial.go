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
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/researchplatform/rpctl/pkg/defaults"
)

// Well-known NAS service ports.
const (
	PortSSH     = 22
	PortRPCBind = 111
	PortNFS     = 2049
	PortSMB     = 445
	PortHTTPS   = 443
)

// DefaultAPIHosts are the external API endpoints the app talks to.
var DefaultAPIHosts = []string{
	"api.anthropic.com",
	"eutils.ncbi.nlm.nih.gov",
	"app.asana.com",
}

// Target is a TCP endpoint to dial.
type Target struct {
	Name string `json:"name" yaml:"name"`
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

// Addr returns host:port.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// DialStatus is the outcome of a TCP dial.
type DialStatus string

const (
	StatusOpen   DialStatus = "open"
	StatusClosed DialStatus = "closed"
)

// DialResult is the outcome of dialing a Target.
type DialResult struct {
	Target
	Status    DialStatus    `json:"status" yaml:"status"`
	LatencyMS int64         `json:"latencyMs" yaml:"latencyMs"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
	Latency   time.Duration `json:"-" yaml:"-"`
}

// LookupResult is the outcome of resolving a host name.
type LookupResult struct {
	Host  string   `json:"host" yaml:"host"`
	Addrs []string `json:"addrs,omitempty" yaml:"addrs,omitempty"`
	Error string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// Dialer opens TCP connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Resolver resolves host names. *net.Resolver satisfies it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Diagnoser runs the checks.
type Diagnoser struct {
	dialer      Dialer
	resolver    Resolver
	dialTimeout time.Duration
	lookupTO    time.Duration
	mountsPath  string
	units       UnitLister
}

// Option configures a Diagnoser.
type Option func(*Diagnoser)

// WithDialer replaces the TCP dialer.
func WithDialer(d Dialer) Option {
	return func(x *Diagnoser) {
		x.dialer = d
	}
}

// WithResolver replaces the DNS resolver.
func WithResolver(r Resolver) Option {
	return func(x *Diagnoser) {
		x.resolver = r
	}
}

// WithTimeouts overrides the per-dial and per-lookup timeouts.
func WithTimeouts(dial, lookup time.Duration) Option {
	return func(x *Diagnoser) {
		if dial > 0 {
			x.dialTimeout = dial
		}
		if lookup > 0 {
			x.lookupTO = lookup
		}
	}
}

// WithMountsPath reads mounts from path instead of /proc/mounts.
func WithMountsPath(path string) Option {
	return func(x *Diagnoser) {
		x.mountsPath = path
	}
}

// WithUnitLister replaces the systemd D-Bus unit lister.
func WithUnitLister(u UnitLister) Option {
	return func(x *Diagnoser) {
		x.units = u
	}
}

// New returns a Diagnoser using the system dialer, resolver and D-Bus.
func New(opts ...Option) *Diagnoser {
	d := &Diagnoser{
		dialer:      &net.Dialer{},
		resolver:    net.DefaultResolver,
		dialTimeout: defaults.DialTimeout,
		lookupTO:    defaults.LookupTimeout,
		mountsPath:  DefaultMountsPath,
		units:       SystemdUnits{},
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Dial checks every target concurrently. Results keep the input order.
func (d *Diagnoser) Dial(ctx context.Context, targets []Target) []DialResult {
	results := make([]DialResult, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		g.Go(func() error {
			results[i] = d.dial(gctx, t)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (d *Diagnoser) dial(ctx context.Context, t Target) DialResult {
	ctx, cancel := context.WithTimeout(ctx, d.dialTimeout)
	defer cancel()

	res := DialResult{Target: t, Status: StatusClosed}
	start := time.Now()
	conn, err := d.dialer.DialContext(ctx, "tcp", t.Addr())
	res.Latency = time.Since(start)
	res.LatencyMS = res.Latency.Milliseconds()
	if err != nil {
		res.Error = err.Error()
		return res
	}
	_ = conn.Close()
	res.Status = StatusOpen
	return res
}

// Lookup resolves every host concurrently. Results keep the input order.
func (d *Diagnoser) Lookup(ctx context.Context, hosts []string) []LookupResult {
	results := make([]LookupResult, len(hosts))
	g, gctx := errgroup.WithContext(ctx)
	for i, h := range hosts {
		g.Go(func() error {
			lctx, cancel := context.WithTimeout(gctx, d.lookupTO)
			defer cancel()
			addrs, err := d.resolver.LookupHost(lctx, h)
			results[i] = LookupResult{Host: h, Addrs: addrs}
			if err != nil {
				results[i].Error = err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
