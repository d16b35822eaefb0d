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
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDialer struct {
	open map[string]bool
}

func (f *fakeDialer) DialContext(_ context.Context, _, address string) (net.Conn, error) {
	if f.open[address] {
		client, server := net.Pipe()
		_ = server.Close()
		return client, nil
	}
	return nil, errors.New("connection refused")
}

type fakeResolver map[string][]string

func (f fakeResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	if addrs, ok := f[host]; ok {
		return addrs, nil
	}
	return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
}

type fakeUnits struct {
	units []MountUnit
	err   error
}

func (f fakeUnits) ListMountUnits(context.Context) ([]MountUnit, error) {
	return f.units, f.err
}

func TestNetworkOptions_Targets(t *testing.T) {
	targets := NetworkOptions{
		AppPort:   5000,
		RedisAddr: "127.0.0.1:6379",
		NASIP:     "192.168.0.134",
		APIHosts:  []string{"api.anthropic.com"},
	}.Targets()

	var names []string
	for _, tg := range targets {
		names = append(names, tg.Name+"="+tg.Addr())
	}
	assert.Equal(t, []string{
		"app=localhost:5000",
		"redis=127.0.0.1:6379",
		"nas/ssh=192.168.0.134:22",
		"nas/nfs=192.168.0.134:2049",
		"nas/rpcbind=192.168.0.134:111",
		"nas/smb=192.168.0.134:445",
		"api/api.anthropic.com=api.anthropic.com:443",
	}, names)
}

func TestNetworkOptions_DefaultHostsAndBadRedis(t *testing.T) {
	targets := NetworkOptions{RedisAddr: "no-port"}.Targets()
	require.Len(t, targets, len(DefaultAPIHosts))
	for _, tg := range targets {
		assert.True(t, strings.HasPrefix(tg.Name, "api/"))
		assert.Equal(t, PortHTTPS, tg.Port)
	}
}

func TestDial_RealListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			_ = c.Close()
		}
	}()
	port := ln.Addr().(*net.TCPAddr).Port

	// grab a free port and release it so the dial is refused
	free, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	closedPort := free.Addr().(*net.TCPAddr).Port
	require.NoError(t, free.Close())

	results := New().Dial(context.Background(), []Target{
		{Name: "open", Host: "127.0.0.1", Port: port},
		{Name: "closed", Host: "127.0.0.1", Port: closedPort},
	})
	require.Len(t, results, 2)
	assert.Equal(t, StatusOpen, results[0].Status)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, StatusClosed, results[1].Status)
	assert.NotEmpty(t, results[1].Error)
}

func TestNetwork(t *testing.T) {
	d := New(
		WithDialer(&fakeDialer{open: map[string]bool{
			"localhost:5000":        true,
			"127.0.0.1:6379":        true,
			"192.168.0.134:2049":    true,
			"api.anthropic.com:443": true,
		}}),
		WithResolver(fakeResolver{"api.anthropic.com": {"160.79.104.10"}}),
	)

	report := d.Network(context.Background(), NetworkOptions{
		AppPort:   5000,
		RedisAddr: "127.0.0.1:6379",
		NASIP:     "192.168.0.134",
		APIHosts:  []string{"api.anthropic.com", "nowhere.invalid"},
	})

	require.Len(t, report.Dials, 8)
	assert.Equal(t, 4, report.Unreachable())
	require.Len(t, report.Lookups, 2)
	assert.Equal(t, []string{"160.79.104.10"}, report.Lookups[0].Addrs)
	assert.Contains(t, report.Lookups[1].Error, "no such host")

	report.Networks = []string{"researchplatform_default"}
	rows := report.TableRows()
	assert.Len(t, rows, 8+2+1)
	assert.Equal(t, []string{"dns", "api.anthropic.com", "resolved", "160.79.104.10"}, rows[8])
	assert.Equal(t, "failed", rows[9][2])
	assert.Equal(t, []string{"docker", "researchplatform_default", "present", ""}, rows[10])
}

const mountsFixture = `sysfs /sys sysfs rw,nosuid 0 0
192.168.0.134:/volume1/research /mnt/research nfs4 rw,relatime,vers=4.1 0 0
192.168.0.134:/volume1/shared\040data /mnt/shared\040data nfs rw 0 0
/dev/sda1 / ext4 rw 0 0
`

func TestParseMounts(t *testing.T) {
	mounts, err := ParseMounts(strings.NewReader(mountsFixture + "short line\n"))
	require.NoError(t, err)
	require.Len(t, mounts, 4)

	assert.False(t, mounts[0].IsNFS())
	assert.True(t, mounts[1].IsNFS())
	assert.Equal(t, "192.168.0.134", mounts[1].Server())
	assert.Equal(t, "/mnt/shared data", mounts[2].MountPoint)
	assert.Equal(t, "", mounts[3].Server())
}

func TestMountUnitName(t *testing.T) {
	assert.Equal(t, "mnt-research.mount", MountUnitName("/mnt/research"))
}

func TestNFS(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mounts")
	require.NoError(t, os.WriteFile(path, []byte(mountsFixture), 0o644))

	units := fakeUnits{units: []MountUnit{
		{Name: "mnt-research.mount", ActiveState: "active", SubState: "mounted"},
		{Name: "boot.mount", ActiveState: "active", SubState: "mounted"},
		{Name: "mnt-archive.mount", ActiveState: "failed", SubState: "failed"},
	}}

	d := New(
		WithDialer(&fakeDialer{open: map[string]bool{"192.168.0.134:2049": true}}),
		WithMountsPath(path),
		WithUnitLister(units),
	)
	report := d.NFS(context.Background(), "192.168.0.134")

	require.Len(t, report.Dials, 2)
	assert.Equal(t, StatusOpen, report.Dials[0].Status)
	assert.Equal(t, StatusClosed, report.Dials[1].Status)
	assert.Len(t, report.Mounts, 2)
	require.Len(t, report.Units, 2)
	assert.Equal(t, "mnt-research.mount", report.Units[0].Name)
	assert.Equal(t, "mnt-archive.mount", report.Units[1].Name)
	assert.Empty(t, report.UnitsSkipped)
}

func TestNFS_NoDBusNoMounts(t *testing.T) {
	d := New(
		WithDialer(&fakeDialer{}),
		WithMountsPath(filepath.Join(t.TempDir(), "missing")),
		WithUnitLister(fakeUnits{err: errors.New("no system bus")}),
	)
	report := d.NFS(context.Background(), "10.0.0.1")

	assert.NotEmpty(t, report.MountsError)
	assert.Equal(t, "no system bus", report.UnitsSkipped)
	assert.Empty(t, report.Mounts)

	var results []string
	for _, r := range report.TableRows() {
		results = append(results, r[0]+":"+r[2])
	}
	assert.Equal(t, []string{"nas/nfs:closed", "nas/rpcbind:closed", "mounts:skipped", "systemd:skipped"}, results)
}

func TestDial_KeepsOrder(t *testing.T) {
	open := map[string]bool{}
	var targets []Target
	for i := 0; i < 20; i++ {
		tg := Target{Name: strconv.Itoa(i), Host: "10.0.0.1", Port: 1000 + i}
		targets = append(targets, tg)
		if i%2 == 0 {
			open[tg.Addr()] = true
		}
	}
	results := New(WithDialer(&fakeDialer{open: open})).Dial(context.Background(), targets)
	for i, r := range results {
		assert.Equal(t, strconv.Itoa(i), r.Name)
		assert.Equal(t, i%2 == 0, r.Status == StatusOpen)
	}
}
