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

import (
	"reflect"
	"testing"

	"github.com/NVIDIA/tamarin-batch/pkg/unit"
)

func testUnit() unit.Unit {
	return unit.Unit{
		ID:                "wpa2--secrecy--stable",
		ExecutablePath:    "/opt/tamarin/tamarin-prover",
		TheoryFile:        "wpa2.spthy",
		Lemma:             "secrecy",
		Options:           []string{"--derivcheck-timeout=0"},
		PreprocessorFlags: []string{"FEATURE"},
		Cores:             4,
		OutputFile:        "wpa2--secrecy--stable.json",
		TracesDir:         "wpa2--secrecy--stable-traces",
	}
}

func TestBuildArgs_Ordering(t *testing.T) {
	args := BuildArgs(testUnit())
	want := []string{
		"+RTS", "-N4", "-RTS",
		"wpa2.spthy",
		"--prove=secrecy",
		"--derivcheck-timeout=0",
		"-D=FEATURE",
		"--output-json=wpa2--secrecy--stable-traces/wpa2--secrecy--stable.json",
		"--output-dot=wpa2--secrecy--stable-traces/wpa2--secrecy--stable.dot",
		"--output=wpa2--secrecy--stable.json",
	}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("got %v, want %v", args, want)
	}
}

func TestBuildPreflightArgs_NoOutputFlags(t *testing.T) {
	args := BuildPreflightArgs(testUnit())
	for _, a := range args {
		if a == "--output-json=" || a == "--output-dot=" || a == "--output=" || a == "--prove=secrecy" {
			t.Fatalf("preflight args must not include output or proof flags, got %v", args)
		}
	}
	want := []string{"+RTS", "-N4", "-RTS", "wpa2.spthy", "--derivcheck-timeout=0", "-D=FEATURE"}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("got %v, want %v", args, want)
	}
}

func TestFilter_ElidesOutputFlagsBelow1_10(t *testing.T) {
	args := BuildArgs(testUnit())

	filtered := FilterArgs(args, Version{1, 9, 5}, true)
	for _, a := range filtered {
		if hasOutputPrefix(a) {
			t.Fatalf("expected output flags elided for v1.9.5, got %v", filtered)
		}
	}
}

func TestFilter_KeepsOutputFlagsAtOrAbove1_10_0(t *testing.T) {
	args := BuildArgs(testUnit())

	for _, v := range []Version{{1, 10, 0}, {1, 10, 1}} {
		filtered := FilterArgs(args, v, true)
		found := 0
		for _, a := range filtered {
			if hasOutputPrefix(a) {
				found++
			}
		}
		if found != 2 {
			t.Fatalf("expected 2 output flags kept for %v, got %d in %v", v, found, filtered)
		}
	}
}

func TestFilter_UnknownVersionLeavesArgsUnchanged(t *testing.T) {
	args := BuildArgs(testUnit())
	filtered := FilterArgs(args, Version{}, false)
	if !reflect.DeepEqual(args, filtered) {
		t.Fatalf("expected unchanged args when version unknown, got %v", filtered)
	}
}

func hasOutputPrefix(a string) bool {
	for _, p := range []string{"--output-json=", "--output-dot="} {
		if len(a) >= len(p) && a[:len(p)] == p {
			return true
		}
	}
	return false
}
