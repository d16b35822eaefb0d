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

package validator

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/researchplatform/rpctl/pkg/errors"
)

// ComposeFile is the subset of a compose file the checks look at.
type ComposeFile struct {
	Services map[string]ComposeService `yaml:"services"`
}

// ServiceNames returns the defined services in sorted order.
func (f *ComposeFile) ServiceNames() []string {
	names := make([]string, 0, len(f.Services))
	for n := range f.Services {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ComposeService is one service definition.
type ComposeService struct {
	Image string     `yaml:"image"`
	Build any        `yaml:"build"`
	Ports []PortSpec `yaml:"ports"`
}

// PortSpec is a port mapping in either short ("8000:5000") or long syntax.
type PortSpec struct {
	HostIP    string `yaml:"host_ip"`
	Published string `yaml:"published"`
	Target    string `yaml:"target"`
	Protocol  string `yaml:"protocol"`
}

// UnmarshalYAML accepts scalars in short syntax and mappings in long syntax.
func (p *PortSpec) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		spec, err := ParsePortSpec(n.Value)
		if err != nil {
			return err
		}
		*p = spec
		return nil
	case yaml.MappingNode:
		var long struct {
			HostIP    string `yaml:"host_ip"`
			Published string `yaml:"published"`
			Target    string `yaml:"target"`
			Protocol  string `yaml:"protocol"`
		}
		if err := n.Decode(&long); err != nil {
			return err
		}
		*p = PortSpec(long)
		return nil
	default:
		return fmt.Errorf("line %d: unsupported port definition", n.Line)
	}
}

// ParsePortSpec parses "[[ip:]published:]target[/protocol]".
func ParsePortSpec(s string) (PortSpec, error) {
	var p PortSpec
	s = strings.TrimSpace(s)
	if base, proto, ok := strings.Cut(s, "/"); ok {
		s, p.Protocol = base, proto
	}
	// bracketed IPv6 host
	if strings.HasPrefix(s, "[") {
		end := strings.Index(s, "]")
		if end < 0 {
			return PortSpec{}, fmt.Errorf("invalid port %q", s)
		}
		p.HostIP = s[1:end]
		s = strings.TrimPrefix(s[end+1:], ":")
	}
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		p.Target = parts[0]
	case 2:
		p.Published, p.Target = parts[0], parts[1]
	case 3:
		p.HostIP, p.Published, p.Target = parts[0], parts[1], parts[2]
	default:
		return PortSpec{}, fmt.Errorf("invalid port %q", s)
	}
	if p.Target == "" {
		return PortSpec{}, fmt.Errorf("invalid port %q: missing container port", s)
	}
	return p, nil
}

// Publishes reports whether the mapping exposes hostPort, including when
// the published side is a range.
func (p PortSpec) Publishes(hostPort int) bool {
	if p.Published == "" {
		return false
	}
	lo, hi, isRange := strings.Cut(p.Published, "-")
	from, err := strconv.Atoi(lo)
	if err != nil {
		return false
	}
	if !isRange {
		return from == hostPort
	}
	to, err := strconv.Atoi(hi)
	return err == nil && hostPort >= from && hostPort <= to
}

func (p PortSpec) String() string {
	s := p.Target
	if p.Published != "" {
		s = p.Published + ":" + s
	}
	if p.HostIP != "" {
		s = p.HostIP + ":" + s
	}
	if p.Protocol != "" {
		s += "/" + p.Protocol
	}
	return s
}

// LookupFunc resolves a variable for interpolation.
type LookupFunc func(name string) (string, bool)

// Interpolate expands $VAR, ${VAR}, ${VAR:-default}, ${VAR-default},
// ${VAR:?msg} and ${VAR?msg} the way the compose orchestrator does. "$$"
// is a literal dollar.
func Interpolate(s string, lookup LookupFunc) (string, error) {
	var missing []string
	const escaped = "\x00dollar\x00"
	s = strings.ReplaceAll(s, "$$", escaped)

	out := os.Expand(s, func(expr string) string {
		for _, op := range []string{":-", ":?", "-", "?"} {
			name, arg, ok := strings.Cut(expr, op)
			if !ok {
				continue
			}
			val, set := lookup(name)
			unset := !set || (strings.HasPrefix(op, ":") && val == "")
			switch {
			case !unset:
				return val
			case strings.HasSuffix(op, "-"):
				return arg
			default:
				missing = append(missing, name+": "+arg)
				return ""
			}
		}
		val, _ := lookup(expr)
		return val
	})

	if len(missing) > 0 {
		return "", errors.NewWithContext(errors.ErrCodeInvalidRequest, "required variables are not set",
			map[string]any{"variables": missing})
	}
	return strings.ReplaceAll(out, escaped, "$"), nil
}

// LoadComposeFile reads, interpolates and parses a compose file.
func LoadComposeFile(path string, lookup LookupFunc) (*ComposeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewWithContext(errors.ErrCodeNotFound, "compose file not found",
				map[string]any{"path": path})
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to read compose file", err)
	}
	return ParseComposeFile(data, lookup)
}

// ParseComposeFile interpolates and parses compose file contents.
func ParseComposeFile(data []byte, lookup LookupFunc) (*ComposeFile, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	text, err := Interpolate(string(data), lookup)
	if err != nil {
		return nil, err
	}
	var f ComposeFile
	if err := yaml.Unmarshal([]byte(text), &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "compose file is not valid YAML", err)
	}
	if f.Services == nil {
		f.Services = map[string]ComposeService{}
	}
	return &f, nil
}
