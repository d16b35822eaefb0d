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

package version

import (
	"errors"
	"testing"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    Version
		wantErr error
	}{
		{in: "24.0.7", want: Version{Major: 24, Minor: 0, Patch: 7, Precision: 3}},
		{in: "v2.24.5-desktop.1", want: Version{Major: 2, Minor: 24, Patch: 5, Precision: 3, Extras: "-desktop.1"}},
		{in: "20.10.21+dfsg1", want: Version{Major: 20, Minor: 10, Patch: 21, Precision: 3, Extras: "+dfsg1"}},
		{in: "1.29.2, build 5becea4c", want: Version{Major: 1, Minor: 29, Patch: 2, Precision: 3}},
		{in: " 2.0\n", want: Version{Major: 2, Precision: 2}},
		{in: "7", want: Version{Major: 7, Precision: 1}},
		{in: "", wantErr: ErrEmptyVersion},
		{in: "v", wantErr: ErrEmptyVersion},
		{in: "1.2.3.4", wantErr: ErrTooManyComponents},
		{in: "1..2", wantErr: ErrNonNumeric},
		{in: "a.b", wantErr: ErrNonNumeric},
		{in: "-1", wantErr: ErrNonNumeric},
		{in: "1.+2", wantErr: ErrNonNumeric},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseVersion(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseVersion(%q) error = %v, want %v", tt.in, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseVersion(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseVersion(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestVersion_String(t *testing.T) {
	for in, want := range map[string]string{"24": "24", "v2.24": "2.24", "20.10.21+dfsg1": "20.10.21"} {
		if got := MustParseVersion(in).String(); got != want {
			t.Errorf("String(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestVersion_Compare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"24.0.7", "20.10", 1},
		{"20.10.21", "20.10", 0},
		{"19.03.12", "20.10", -1},
		{"2.24.5", "2.0", 1},
		{"1.29.2", "2.0", -1},
		{"2", "2.5", 0},
		{"2.5.1", "2.5.2", -1},
	}
	for _, tt := range tests {
		a, b := MustParseVersion(tt.a), MustParseVersion(tt.b)
		if got := a.Compare(b); got != tt.want {
			t.Errorf("%s.Compare(%s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if got := a.AtLeast(b); got != (tt.want >= 0) {
			t.Errorf("%s.AtLeast(%s) = %v", tt.a, tt.b, got)
		}
	}
}

func TestVersion_Equals(t *testing.T) {
	if !NewVersion(2, 0, 0).Equals(MustParseVersion("2.0")) {
		t.Error("2.0.0 should equal 2.0")
	}
	if NewVersion(2, 0, 1).Equals(MustParseVersion("2.0")) {
		t.Error("2.0.1 should not equal 2.0")
	}
}

func TestMustParseVersion_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustParseVersion("not-a-version")
}

func FuzzParseVersion(f *testing.F) {
	for _, s := range []string{"1", "v1.2", "24.0.7", "2.24.5-desktop.1", "1.29.2, build x", "", ".", "1..2", "1.2.3.4", "vv1", " 1.2 "} {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, input string) {
		v, err := ParseVersion(input)
		if err != nil {
			return
		}
		if !v.IsValid() {
			t.Errorf("ParseVersion(%q) returned invalid version %+v", input, v)
		}
		again, err := ParseVersion(v.String())
		if err != nil {
			t.Fatalf("re-parsing %q (from %q): %v", v.String(), input, err)
		}
		if again.Compare(v) != 0 || again.Precision != v.Precision {
			t.Errorf("round trip mismatch for %q: %+v != %+v", input, v, again)
		}
	})
}
