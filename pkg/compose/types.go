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

package compose

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Publisher is a published container port.
type Publisher struct {
	URL           string `json:"URL" yaml:"url"`
	TargetPort    int    `json:"TargetPort" yaml:"targetPort"`
	PublishedPort int    `json:"PublishedPort" yaml:"publishedPort"`
	Protocol      string `json:"Protocol" yaml:"protocol"`
}

// Container is one entry of "compose ps --format json".
type Container struct {
	ID         string      `json:"ID" yaml:"id"`
	Name       string      `json:"Name" yaml:"name"`
	Image      string      `json:"Image" yaml:"image"`
	Service    string      `json:"Service" yaml:"service"`
	State      string      `json:"State" yaml:"state"`
	Health     string      `json:"Health" yaml:"health"`
	Status     string      `json:"Status" yaml:"status"`
	ExitCode   int         `json:"ExitCode" yaml:"exitCode"`
	Publishers []Publisher `json:"Publishers" yaml:"publishers"`
}

// Ports renders the published ports as host:container pairs.
func (c Container) Ports() string {
	parts := make([]string, 0, len(c.Publishers))
	for _, p := range c.Publishers {
		if p.PublishedPort == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%d->%d/%s", p.PublishedPort, p.TargetPort, p.Protocol))
	}
	return strings.Join(parts, ", ")
}

// Running reports whether the container is up.
func (c Container) Running() bool {
	return c.State == "running"
}

// ContainerList is the table view of compose ps.
type ContainerList []Container

// TableHeader implements serializer.Tabular.
func (l ContainerList) TableHeader() []string {
	return []string{"SERVICE", "NAME", "STATE", "HEALTH", "PORTS"}
}

// TableRows implements serializer.Tabular.
func (l ContainerList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, c := range l {
		rows = append(rows, []string{c.Service, c.Name, c.State, c.Health, c.Ports()})
	}
	return rows
}

// Find returns the container of the given service.
func (l ContainerList) Find(service string) (Container, bool) {
	for _, c := range l {
		if c.Service == service {
			return c, true
		}
	}
	return Container{}, false
}

// Stat is one line of "docker stats --format {{json .}}".
type Stat struct {
	ID        string `json:"ID" yaml:"id"`
	Name      string `json:"Name" yaml:"name"`
	CPUPerc   string `json:"CPUPerc" yaml:"cpuPerc"`
	MemUsage  string `json:"MemUsage" yaml:"memUsage"`
	MemPerc   string `json:"MemPerc" yaml:"memPerc"`
	NetIO     string `json:"NetIO" yaml:"netIO"`
	BlockIO   string `json:"BlockIO" yaml:"blockIO"`
	PIDs      string `json:"PIDs" yaml:"pids"`
	Container string `json:"Container" yaml:"container"`
}

// StatList is the table view of docker stats.
type StatList []Stat

// TableHeader implements serializer.Tabular.
func (l StatList) TableHeader() []string {
	return []string{"NAME", "CPU %", "MEM USAGE / LIMIT", "MEM %", "NET I/O", "BLOCK I/O", "PIDS"}
}

// TableRows implements serializer.Tabular.
func (l StatList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, s := range l {
		rows = append(rows, []string{s.Name, s.CPUPerc, s.MemUsage, s.MemPerc, s.NetIO, s.BlockIO, s.PIDs})
	}
	return rows
}

// Network is one line of "docker network ls --format {{json .}}".
type Network struct {
	ID     string `json:"ID" yaml:"id"`
	Name   string `json:"Name" yaml:"name"`
	Driver string `json:"Driver" yaml:"driver"`
	Scope  string `json:"Scope" yaml:"scope"`
}

// decodeJSONStream accepts either a JSON array or newline-delimited objects.
// Compose switched from the former to the latter in 2.21.
func decodeJSONStream[T any](data []byte) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []T{}, nil
	}
	if data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	items := make([]T, 0)
	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var item T
		if err := dec.Decode(&item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
