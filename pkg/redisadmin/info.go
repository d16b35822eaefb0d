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

package redisadmin

import (
	"bufio"
	"sort"
	"strconv"
	"strings"
)

// Info is parsed INFO output: section -> key -> value.
// Section names are lower-cased ("server", "memory", "keyspace").
type Info map[string]map[string]string

// ParseInfo parses the text returned by the INFO command.
func ParseInfo(raw string) Info {
	info := Info{}
	section := "default"

	sc := bufio.NewScanner(strings.NewReader(raw))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			section = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "#")))
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if info[section] == nil {
			info[section] = map[string]string{}
		}
		info[section][key] = value
	}
	return info
}

// Get returns the value of key in section, or "".
func (i Info) Get(section, key string) string {
	return i[strings.ToLower(section)][key]
}

// Sections returns section names in sorted order.
func (i Info) Sections() []string {
	names := make([]string, 0, len(i))
	for s := range i {
		names = append(names, s)
	}
	sort.Strings(names)
	return names
}

// TableHeader implements serializer.Tabular.
func (i Info) TableHeader() []string {
	return []string{"SECTION", "KEY", "VALUE"}
}

// TableRows implements serializer.Tabular.
func (i Info) TableRows() [][]string {
	var rows [][]string
	for _, s := range i.Sections() {
		keys := make([]string, 0, len(i[s]))
		for k := range i[s] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			rows = append(rows, []string{s, k, i[s][k]})
		}
	}
	return rows
}

// Keyspace is the per-database line of the keyspace section.
type Keyspace struct {
	DB      string `json:"db" yaml:"db"`
	Keys    int64  `json:"keys" yaml:"keys"`
	Expires int64  `json:"expires" yaml:"expires"`
}

// Summary is the short overview printed by redis-info.
type Summary struct {
	Version          string     `json:"version" yaml:"version"`
	Mode             string     `json:"mode,omitempty" yaml:"mode,omitempty"`
	UptimeSeconds    int64      `json:"uptimeSeconds" yaml:"uptimeSeconds"`
	ConnectedClients int64      `json:"connectedClients" yaml:"connectedClients"`
	UsedMemory       string     `json:"usedMemory" yaml:"usedMemory"`
	MaxMemory        string     `json:"maxMemory,omitempty" yaml:"maxMemory,omitempty"`
	HitRate          float64    `json:"hitRate" yaml:"hitRate"`
	Keyspace         []Keyspace `json:"keyspace" yaml:"keyspace"`
}

// Summary extracts the commonly inspected fields.
func (i Info) Summary() Summary {
	s := Summary{
		Version:          i.Get("server", "redis_version"),
		Mode:             i.Get("server", "redis_mode"),
		UptimeSeconds:    atoi(i.Get("server", "uptime_in_seconds")),
		ConnectedClients: atoi(i.Get("clients", "connected_clients")),
		UsedMemory:       i.Get("memory", "used_memory_human"),
		MaxMemory:        i.Get("memory", "maxmemory_human"),
		Keyspace:         []Keyspace{},
	}

	hits := atoi(i.Get("stats", "keyspace_hits"))
	misses := atoi(i.Get("stats", "keyspace_misses"))
	if hits+misses > 0 {
		s.HitRate = float64(hits) / float64(hits+misses)
	}

	dbs := make([]string, 0, len(i["keyspace"]))
	for db := range i["keyspace"] {
		dbs = append(dbs, db)
	}
	sort.Strings(dbs)
	for _, db := range dbs {
		ks := Keyspace{DB: db}
		// db0:keys=1,expires=0,avg_ttl=0
		for _, field := range strings.Split(i["keyspace"][db], ",") {
			k, v, _ := strings.Cut(field, "=")
			switch k {
			case "keys":
				ks.Keys = atoi(v)
			case "expires":
				ks.Expires = atoi(v)
			}
		}
		s.Keyspace = append(s.Keyspace, ks)
	}
	return s
}

// TableHeader implements serializer.Tabular.
func (s Summary) TableHeader() []string {
	return []string{"FIELD", "VALUE"}
}

// TableRows implements serializer.Tabular.
func (s Summary) TableRows() [][]string {
	rows := [][]string{
		{"version", s.Version},
		{"uptime", strconv.FormatInt(s.UptimeSeconds, 10) + "s"},
		{"clients", strconv.FormatInt(s.ConnectedClients, 10)},
		{"memory", s.UsedMemory},
		{"hit rate", strconv.FormatFloat(s.HitRate*100, 'f', 1, 64) + "%"},
	}
	for _, ks := range s.Keyspace {
		rows = append(rows, []string{ks.DB, strconv.FormatInt(ks.Keys, 10) + " keys"})
	}
	return rows
}

func atoi(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
