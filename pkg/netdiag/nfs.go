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
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/dbus"
	"github.com/coreos/go-systemd/v22/unit"

	"github.com/researchplatform/rpctl/pkg/errors"
)

// DefaultMountsPath is the kernel mount table.
const DefaultMountsPath = "/proc/mounts"

// Mount is one line of the mount table.
type Mount struct {
	Device     string `json:"device" yaml:"device"`
	MountPoint string `json:"mountPoint" yaml:"mountPoint"`
	FSType     string `json:"fsType" yaml:"fsType"`
	Options    string `json:"options" yaml:"options"`
}

// IsNFS reports whether the mount is nfs or nfs4.
func (m Mount) IsNFS() bool {
	return strings.HasPrefix(m.FSType, "nfs")
}

// Server returns the host part of an NFS device ("nas:/export").
func (m Mount) Server() string {
	host, _, ok := strings.Cut(m.Device, ":")
	if !ok {
		return ""
	}
	return strings.Trim(host, "[]")
}

// ParseMounts parses mount table lines (fstab format).
func ParseMounts(r io.Reader) ([]Mount, error) {
	var mounts []Mount
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		f := strings.Fields(line)
		if len(f) < 4 {
			continue
		}
		mounts = append(mounts, Mount{
			Device:     unescapeOctal(f[0]),
			MountPoint: unescapeOctal(f[1]),
			FSType:     f[2],
			Options:    f[3],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return mounts, nil
}

// unescapeOctal decodes the \040-style escapes the kernel uses for spaces.
func unescapeOctal(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) && isOctal(s[i+1]) && isOctal(s[i+2]) && isOctal(s[i+3]) {
			b.WriteByte((s[i+1]-'0')<<6 | (s[i+2]-'0')<<3 | (s[i+3] - '0'))
			i += 3
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isOctal(c byte) bool {
	return c >= '0' && c <= '7'
}

// MountUnit is a systemd mount unit.
type MountUnit struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	ActiveState string `json:"activeState" yaml:"activeState"`
	SubState    string `json:"subState" yaml:"subState"`
}

// UnitLister lists systemd mount units.
type UnitLister interface {
	ListMountUnits(ctx context.Context) ([]MountUnit, error)
}

// SystemdUnits lists mount units over the system D-Bus.
type SystemdUnits struct{}

// ListMountUnits implements UnitLister.
func (SystemdUnits) ListMountUnits(ctx context.Context) ([]MountUnit, error) {
	conn, err := dbus.NewSystemdConnectionContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, "failed to connect to systemd", err)
	}
	defer conn.Close()

	statuses, err := conn.ListUnitsByPatternsContext(ctx, nil, []string{"*.mount"})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, "failed to list mount units", err)
	}
	units := make([]MountUnit, 0, len(statuses))
	for _, s := range statuses {
		units = append(units, MountUnit{
			Name:        s.Name,
			Description: s.Description,
			ActiveState: s.ActiveState,
			SubState:    s.SubState,
		})
	}
	return units, nil
}

// MountUnitName returns the systemd unit name for a mount point.
func MountUnitName(mountPoint string) string {
	return unit.UnitNamePathEscape(mountPoint) + ".mount"
}

// NFSReport is the result of debug-nfs.
type NFSReport struct {
	NAS       string       `json:"nas" yaml:"nas"`
	CheckedAt time.Time    `json:"checkedAt" yaml:"checkedAt"`
	Dials     []DialResult `json:"dials" yaml:"dials"`
	Mounts    []Mount      `json:"mounts" yaml:"mounts"`
	Units     []MountUnit  `json:"units" yaml:"units"`
	// UnitsSkipped explains why systemd units could not be listed.
	UnitsSkipped string `json:"unitsSkipped,omitempty" yaml:"unitsSkipped,omitempty"`
	MountsError  string `json:"mountsError,omitempty" yaml:"mountsError,omitempty"`
}

// TableHeader implements serializer.Tabular.
func (r *NFSReport) TableHeader() []string {
	return []string{"CHECK", "TARGET", "RESULT", "DETAIL"}
}

// TableRows implements serializer.Tabular.
func (r *NFSReport) TableRows() [][]string {
	var rows [][]string
	for _, d := range r.Dials {
		rows = append(rows, []string{d.Name, d.Addr(), string(d.Status), d.Error})
	}
	if r.MountsError != "" {
		rows = append(rows, []string{"mounts", DefaultMountsPath, "skipped", r.MountsError})
	}
	if r.MountsError == "" && len(r.Mounts) == 0 {
		rows = append(rows, []string{"mounts", "-", "none", "no NFS mounts"})
	}
	for _, m := range r.Mounts {
		rows = append(rows, []string{"mount", m.MountPoint, m.FSType, m.Device})
	}
	if r.UnitsSkipped != "" {
		rows = append(rows, []string{"systemd", "*.mount", "skipped", r.UnitsSkipped})
	}
	for _, u := range r.Units {
		rows = append(rows, []string{"unit", u.Name, u.ActiveState, u.SubState})
	}
	return rows
}

// NFS checks the NAS NFS and rpcbind ports and lists NFS mounts and the
// systemd units backing them. Failed mount units are always included.
func (d *Diagnoser) NFS(ctx context.Context, nasIP string) *NFSReport {
	report := &NFSReport{
		NAS:       nasIP,
		CheckedAt: time.Now().UTC(),
		Mounts:    []Mount{},
		Units:     []MountUnit{},
	}
	report.Dials = d.Dial(ctx, []Target{
		{Name: "nas/nfs", Host: nasIP, Port: PortNFS},
		{Name: "nas/rpcbind", Host: nasIP, Port: PortRPCBind},
	})

	wanted := map[string]bool{}
	if mounts, err := readMounts(d.mountsPath); err != nil {
		report.MountsError = err.Error()
	} else {
		for _, m := range mounts {
			if m.IsNFS() {
				report.Mounts = append(report.Mounts, m)
				wanted[MountUnitName(m.MountPoint)] = true
			}
		}
	}

	units, err := d.units.ListMountUnits(ctx)
	if err != nil {
		slog.Debug("systemd mount units unavailable", "error", err)
		report.UnitsSkipped = err.Error()
		return report
	}
	for _, u := range units {
		if wanted[u.Name] || u.ActiveState == "failed" {
			report.Units = append(report.Units, u)
		}
	}
	return report
}

func readMounts(path string) ([]Mount, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseMounts(f)
}
