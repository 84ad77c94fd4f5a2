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

package preflight

import (
	"context"
	"os"
	"testing"

	"github.com/NVIDIA/tamarin-batch/pkg/recipe"
	"github.com/NVIDIA/tamarin-batch/pkg/supervisor"
	"github.com/NVIDIA/tamarin-batch/pkg/unit"
)

func testExpander(t *testing.T) *unit.Expander {
	t.Helper()
	return &unit.Expander{
		ReadTheory: func(path string) ([]byte, error) {
			return []byte("rule Init: [] --> []\nlemma secrecy:\n  \"...\"\nlemma auth:\n  \"...\"\n"), nil
		},
		ResolveExecutable: func(path string) (string, error) { return path, nil },
	}
}

func testRecipe() *recipe.Recipe {
	return &recipe.Recipe{
		Config:    recipe.Config{DefaultTimeoutS: 3600},
		Aliases:   map[string]recipe.AliasEntry{"t1": {ExecutablePath: "/bin/true"}},
		AliasOrder: []string{"t1"},
		Tasks: map[string]recipe.Task{
			"wpa2": {TheoryFile: "wpa2.spthy", Aliases: []string{"t1"}, OutputPrefix: "wpa2"},
		},
		TaskOrder: []string{"wpa2"},
	}
}

func TestValidate_ExpandsAndProbesUniquePairs(t *testing.T) {
	r := testRecipe()
	expander := testExpander(t)
	sup := supervisor.New()

	report, err := Validate(context.Background(), expander, sup, nil, nil, r, 4, 16, 3600)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(report.Units) != 2 {
		t.Fatalf("expected 2 expanded units, got %d", len(report.Units))
	}
	if len(report.Diagnostics) != 1 {
		t.Fatalf("expected 1 unique (alias, theory_file) pair diagnosed, got %d", len(report.Diagnostics))
	}
	if report.Diagnostics[0].Failed {
		t.Fatalf("expected /bin/true to succeed, got %+v", report.Diagnostics[0])
	}
}

func TestValidate_FailingProbeIsRecordedNotFatal(t *testing.T) {
	r := testRecipe()
	r.Aliases["t1"] = recipe.AliasEntry{ExecutablePath: "/bin/false"}
	expander := testExpander(t)
	sup := supervisor.New()

	report, err := Validate(context.Background(), expander, sup, nil, nil, r, 4, 16, 3600)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(report.Diagnostics) != 1 || !report.Diagnostics[0].Failed {
		t.Fatalf("expected a failed diagnostic, got %+v", report.Diagnostics)
	}
}

func TestWriteDiagnosticsReport(t *testing.T) {
	dir := t.TempDir()
	diags := []UnitDiagnostics{
		{Alias: "t1", TheoryFile: "wpa2.spthy", Warnings: []string{"2 wellformedness check(s) failed"}},
		{Alias: "t2", TheoryFile: "wpa2.spthy", Failed: true, Description: "task failed with return code 1"},
	}
	if err := WriteDiagnosticsReport(dir, diags); err != nil {
		t.Fatalf("WriteDiagnosticsReport: %v", err)
	}
	entries, err := os.ReadDir(dir + "/wellformedness-check-report")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 report files, got %d", len(entries))
	}
}
