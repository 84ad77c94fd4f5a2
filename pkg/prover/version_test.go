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

package prover

import "testing"

func TestParseVersionOutput(t *testing.T) {
	v, err := ParseVersionOutput("tamarin-prover 1.8.0, (C) 2010-2024 ...\nmore output\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != (Version{Major: 1, Minor: 8, Patch: 0}) {
		t.Fatalf("unexpected version: %+v", v)
	}
}

func TestParseVersionOutput_Unparseable(t *testing.T) {
	_, err := ParseVersionOutput("garbage output with no version\n")
	if err == nil {
		t.Fatal("expected error for unparseable output")
	}
}

func TestParseVersionString(t *testing.T) {
	cases := map[string]Version{
		"v1.10.0": {Major: 1, Minor: 10, Patch: 0},
		"1.10.0":  {Major: 1, Minor: 10, Patch: 0},
		"1.11.2":  {Major: 1, Minor: 11, Patch: 2},
	}
	for in, want := range cases {
		got, err := ParseVersionString(in)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", in, err)
		}
		if got != want {
			t.Fatalf("%q: got %+v, want %+v", in, got, want)
		}
	}
}

func TestVersion_AtLeast(t *testing.T) {
	cases := []struct {
		v    Version
		want bool
	}{
		{Version{1, 10, 0}, false},
		{Version{1, 10, 1}, true},
		{Version{1, 11, 0}, true},
		{Version{2, 0, 0}, true},
		{Version{1, 9, 9}, false},
		{Version{0, 9, 0}, false},
	}
	for _, c := range cases {
		if got := c.v.AtLeast(1, 10, 1); got != c.want {
			t.Errorf("%v.AtLeast(1,10,1) = %v, want %v", c.v, got, c.want)
		}
	}
}
